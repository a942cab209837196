package repository

import (
	"context"

	"quorum/internal/models"

	"gorm.io/gorm"
)

// Sort modes for question listings.
const (
	SortRecent     = "recent"
	SortTop        = "top"
	SortActive     = "active"
	SortUnanswered = "unanswered"
)

// ListQuestionsFilter narrows and orders a question listing.
type ListQuestionsFilter struct {
	CategorySlug string
	Sort         string
	Limit        int
	Offset       int
}

// QuestionRepository defines the interface for question data operations
type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	List(ctx context.Context, filter ListQuestionsFilter) ([]*models.Question, error)
	Search(ctx context.Context, query string, limit int) ([]*models.Question, error)
	GetByUserID(ctx context.Context, userID uint, limit int) ([]*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	Delete(ctx context.Context, id uint) error
	AddVotes(ctx context.Context, id uint, delta int) error
	IncrementViews(ctx context.Context, id uint) error
	SetPinned(ctx context.Context, id uint, pinned bool) error
	Count(ctx context.Context) (int64, error)
}

// questionRepository implements QuestionRepository
type questionRepository struct {
	db *gorm.DB
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *gorm.DB) QuestionRepository {
	return &questionRepository{db: db}
}

func (r *questionRepository) Create(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Create(question).Error
}

func (r *questionRepository) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("User").
		First(&question, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("Question", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &question, nil
}

func (r *questionRepository) List(ctx context.Context, filter ListQuestionsFilter) ([]*models.Question, error) {
	var questions []*models.Question
	q := r.db.WithContext(ctx).
		Preload("Category").
		Preload("User")

	if filter.CategorySlug != "" {
		q = q.Joins("JOIN categories ON categories.id = questions.category_id").
			Where("categories.slug = ?", filter.CategorySlug)
	}

	q = applyQuestionSort(q, filter.Sort)

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	err := q.Find(&questions).Error
	return questions, err
}

// applyQuestionSort appends the ORDER BY (and optional WHERE) clause for the
// requested sort mode. Pinned questions sort before all others in every mode.
// Columns are table-qualified because category filtering joins categories,
// which also carries created_at.
func applyQuestionSort(db *gorm.DB, sort string) *gorm.DB {
	switch sort {
	case SortTop:
		return db.Order("questions.is_pinned DESC, questions.votes DESC, questions.created_at DESC")
	case SortActive:
		return db.Order("questions.is_pinned DESC, questions.answer_count DESC, questions.created_at DESC")
	case SortUnanswered:
		return db.
			Where("questions.answer_count = 0").
			Order("questions.is_pinned DESC, questions.created_at DESC")
	default: // SortRecent and anything unrecognized
		return db.Order("questions.is_pinned DESC, questions.created_at DESC")
	}
}

func (r *questionRepository) Search(ctx context.Context, query string, limit int) ([]*models.Question, error) {
	var questions []*models.Question
	like := "%" + query + "%"
	q := r.db.WithContext(ctx).
		Preload("Category").
		Preload("User").
		Where("LOWER(title) LIKE LOWER(?) OR LOWER(content) LIKE LOWER(?)", like, like).
		Order("is_pinned DESC, votes DESC, created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&questions).Error
	return questions, err
}

func (r *questionRepository) GetByUserID(ctx context.Context, userID uint, limit int) ([]*models.Question, error) {
	var questions []*models.Question
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&questions).Error
	return questions, err
}

func (r *questionRepository) Update(ctx context.Context, question *models.Question) error {
	return r.db.WithContext(ctx).Save(question).Error
}

// Delete removes the question and all of its answers in one transaction so a
// crash can never orphan answer rows.
func (r *questionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", id).Delete(&models.Answer{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Question{}, id).Error
	})
}

// AddVotes adjusts the vote counter relatively in a single UPDATE; there is
// deliberately no voter record, so repeat votes accumulate.
func (r *questionRepository) AddVotes(ctx context.Context, id uint, delta int) error {
	return r.db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id).
		Update("votes", gorm.Expr("votes + ?", delta)).Error
}

func (r *questionRepository) IncrementViews(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id).
		Update("view_count", gorm.Expr("view_count + 1")).Error
}

func (r *questionRepository) SetPinned(ctx context.Context, id uint, pinned bool) error {
	return r.db.WithContext(ctx).Model(&models.Question{}).Where("id = ?", id).
		Update("is_pinned", pinned).Error
}

func (r *questionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Question{}).Count(&count).Error
	return count, err
}
