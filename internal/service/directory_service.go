package service

import (
	"context"

	"quorum/internal/cache"
	"quorum/internal/models"
	"quorum/internal/repository"
)

// DirectoryService serves the small, read-heavy reference surfaces: category
// and FAQ listings and the site-wide stats block. All three are cached; the
// data changes rarely and every page load wants it.
type DirectoryService struct {
	categoryRepo repository.CategoryRepository
	faqRepo      repository.FAQRepository
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	userRepo     repository.UserRepository
}

// SiteStats is the public counters block.
type SiteStats struct {
	Users      int64 `json:"users"`
	Questions  int64 `json:"questions"`
	Answers    int64 `json:"answers"`
	Categories int64 `json:"categories"`
}

func NewDirectoryService(
	categoryRepo repository.CategoryRepository,
	faqRepo repository.FAQRepository,
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	userRepo repository.UserRepository,
) *DirectoryService {
	return &DirectoryService{
		categoryRepo: categoryRepo,
		faqRepo:      faqRepo,
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		userRepo:     userRepo,
	}
}

func (s *DirectoryService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	var categories []*models.Category
	err := cache.Aside(ctx, cache.CategoriesKey, &categories, cache.CategoryTTL, func() error {
		var err error
		categories, err = s.categoryRepo.List(ctx)
		return err
	})
	return categories, err
}

// GetCategory resolves a category by slug. Unknown slugs are NotFound.
func (s *DirectoryService) GetCategory(ctx context.Context, slug string) (*models.Category, error) {
	category, err := s.categoryRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, models.NewNotFoundError("Category", slug)
	}
	return category, nil
}

// CreateCategory adds a category. Admin only; the listing cache is dropped
// so the new entry shows up immediately.
func (s *DirectoryService) CreateCategory(ctx context.Context, category *models.Category, actor *models.User) error {
	if actor == nil || !actor.Role.CanManageUsers() {
		return models.NewForbiddenError("Admin role required")
	}
	if category.Name == "" || category.Slug == "" {
		return models.NewValidationError("Category name and slug are required")
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return err
	}
	cache.Invalidate(ctx, cache.CategoriesKey)
	return nil
}

func (s *DirectoryService) ListFAQs(ctx context.Context) ([]*models.FAQ, error) {
	var faqs []*models.FAQ
	err := cache.Aside(ctx, cache.FAQsKey, &faqs, cache.FAQTTL, func() error {
		var err error
		faqs, err = s.faqRepo.List(ctx)
		return err
	})
	return faqs, err
}

func (s *DirectoryService) Stats(ctx context.Context) (*SiteStats, error) {
	var stats SiteStats
	err := cache.Aside(ctx, cache.StatsKey, &stats, cache.StatsTTL, func() error {
		var err error
		if stats.Users, err = s.userRepo.Count(ctx); err != nil {
			return err
		}
		if stats.Questions, err = s.questionRepo.Count(ctx); err != nil {
			return err
		}
		if stats.Answers, err = s.answerRepo.Count(ctx); err != nil {
			return err
		}
		stats.Categories, err = s.categoryRepo.Count(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
