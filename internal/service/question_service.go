package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"quorum/internal/karma"
	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/observability"
	"quorum/internal/repository"
	"quorum/internal/validation"
)

type QuestionService struct {
	questionRepo repository.QuestionRepository
	answerRepo   repository.AnswerRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
}

type CreateQuestionInput struct {
	Title       string
	Content     string
	CategoryID  uint
	AuthorName  string
	MediaURL    string
	CodeSnippet string
}

type UpdateQuestionInput struct {
	Title    *string
	Content  *string
	IsPinned *bool
}

type ListQuestionsInput struct {
	CategorySlug string
	Sort         string
	Limit        int
	Offset       int
}

func NewQuestionService(
	questionRepo repository.QuestionRepository,
	answerRepo repository.AnswerRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		answerRepo:   answerRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
	}
}

// Create validates and stores a new question. An authenticated author earns
// the ask reward; anonymous questions carry only a display name.
func (s *QuestionService) Create(ctx context.Context, in CreateQuestionInput, actor *models.User) (*models.Question, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateQuestionTitle(title); err != nil {
		return nil, err
	}
	if err := validation.ValidateQuestionContent(content); err != nil {
		return nil, err
	}

	category, err := s.categoryRepo.GetByID(ctx, in.CategoryID)
	if err != nil {
		// A missing category is the caller's mistake, not a missing page;
		// anything else is a store failure and stays one.
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			return nil, models.NewValidationError("Category does not exist")
		}
		return nil, err
	}

	question := &models.Question{
		Title:       title,
		Content:     content,
		CategoryID:  category.ID,
		AuthorName:  strings.TrimSpace(in.AuthorName),
		MediaURL:    in.MediaURL,
		CodeSnippet: in.CodeSnippet,
	}
	if actor != nil {
		question.UserID = &actor.ID
		if question.AuthorName == "" {
			question.AuthorName = actor.Username
		}
	}

	if err := s.questionRepo.Create(ctx, question); err != nil {
		return nil, err
	}

	if actor != nil {
		awardKarma(ctx, s.userRepo, actor.ID, karma.RewardAskQuestion, "ask_question")
	}

	observability.QuestionsCreated.WithLabelValues(category.Slug).Inc()
	middleware.Logger.InfoContext(ctx, "question created",
		slog.Uint64("question_id", uint64(question.ID)),
		slog.String("category", category.Slug),
	)
	return question, nil
}

// Get returns the question and its answers. Each fetch counts as one view;
// there is no per-viewer dedup.
func (s *QuestionService) Get(ctx context.Context, id uint) (*models.Question, []*models.Answer, error) {
	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if err := s.questionRepo.IncrementViews(ctx, id); err != nil {
		middleware.Logger.WarnContext(ctx, "view increment failed",
			slog.Uint64("question_id", uint64(id)),
			slog.String("error", err.Error()),
		)
	}

	answers, err := s.answerRepo.ListByQuestion(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return question, answers, nil
}

func (s *QuestionService) List(ctx context.Context, in ListQuestionsInput) ([]*models.Question, error) {
	limit := in.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.questionRepo.List(ctx, repository.ListQuestionsFilter{
		CategorySlug: in.CategorySlug,
		Sort:         in.Sort,
		Limit:        limit,
		Offset:       in.Offset,
	})
}

func (s *QuestionService) Search(ctx context.Context, query string) ([]*models.Question, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, models.NewValidationError("Search query is required")
	}
	return s.questionRepo.Search(ctx, query, 50)
}

// Update edits a question's title, content or pinned flag. Moderator only.
func (s *QuestionService) Update(ctx context.Context, id uint, in UpdateQuestionInput, actor *models.User) (*models.Question, error) {
	if actor == nil || !actor.Role.CanModerate() {
		return nil, models.NewForbiddenError("Moderator role required")
	}

	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if err := validation.ValidateQuestionTitle(title); err != nil {
			return nil, err
		}
		question.Title = title
	}
	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if err := validation.ValidateQuestionContent(content); err != nil {
			return nil, err
		}
		question.Content = content
	}
	if in.IsPinned != nil {
		question.IsPinned = *in.IsPinned
	}

	if err := s.questionRepo.Update(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// SetPinned pins or unpins a question. Moderator only.
func (s *QuestionService) SetPinned(ctx context.Context, id uint, pinned bool, actor *models.User) error {
	if actor == nil || !actor.Role.CanModerate() {
		return models.NewForbiddenError("Moderator role required")
	}
	if _, err := s.questionRepo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.questionRepo.SetPinned(ctx, id, pinned)
}

// Delete removes a question and all of its answers. Moderator only.
func (s *QuestionService) Delete(ctx context.Context, id uint, actor *models.User) error {
	if actor == nil || !actor.Role.CanModerate() {
		return models.NewForbiddenError("Moderator role required")
	}
	if _, err := s.questionRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.questionRepo.Delete(ctx, id); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "question deleted",
		slog.Uint64("question_id", uint64(id)),
		slog.Uint64("actor_id", uint64(actor.ID)),
	)
	return nil
}

// Vote applies one vote to the question's counter and the matching karma
// reward to its author. Votes carry no voter identity and are unbounded per
// caller; that is the product's choice, not an oversight.
func (s *QuestionService) Vote(ctx context.Context, id uint, direction models.VoteDirection) (*models.Question, error) {
	if !direction.Valid() {
		return nil, models.NewValidationError("Vote direction must be 'up' or 'down'")
	}

	question, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.questionRepo.AddVotes(ctx, id, direction.Delta()); err != nil {
		return nil, err
	}

	if question.UserID != nil {
		if direction == models.VoteUp {
			awardKarma(ctx, s.userRepo, *question.UserID, karma.RewardQuestionUpvote, "question_upvote")
		} else {
			awardKarma(ctx, s.userRepo, *question.UserID, karma.RewardQuestionDownvote, "question_downvote")
		}
	}

	observability.VotesCast.WithLabelValues("question", string(direction)).Inc()
	return s.questionRepo.GetByID(ctx, id)
}
