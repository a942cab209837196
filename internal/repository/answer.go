package repository

import (
	"context"

	"quorum/internal/models"

	"gorm.io/gorm"
)

// AnswerRepository defines the interface for answer data operations
type AnswerRepository interface {
	Create(ctx context.Context, answer *models.Answer) error
	GetByID(ctx context.Context, id uint) (*models.Answer, error)
	ListByQuestion(ctx context.Context, questionID uint) ([]*models.Answer, error)
	GetByUserID(ctx context.Context, userID uint, limit int) ([]*models.Answer, error)
	Update(ctx context.Context, answer *models.Answer) error
	Delete(ctx context.Context, id uint) error
	AddVotes(ctx context.Context, id uint, delta int) error
	Accept(ctx context.Context, id uint) error
	Count(ctx context.Context) (int64, error)
}

// answerRepository implements AnswerRepository
type answerRepository struct {
	db *gorm.DB
}

// NewAnswerRepository creates a new answer repository
func NewAnswerRepository(db *gorm.DB) AnswerRepository {
	return &answerRepository{db: db}
}

// Create inserts the answer and bumps the question's answer_count in the same
// transaction, keeping the counter equal to the live answer count.
func (r *answerRepository) Create(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(answer).Error; err != nil {
			return err
		}
		return tx.Model(&models.Question{}).
			Where("id = ?", answer.QuestionID).
			Update("answer_count", gorm.Expr("answer_count + 1")).Error
	})
}

func (r *answerRepository) GetByID(ctx context.Context, id uint) (*models.Answer, error) {
	var answer models.Answer
	err := r.db.WithContext(ctx).Preload("User").First(&answer, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, models.NewNotFoundError("Answer", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &answer, nil
}

// ListByQuestion returns the question's answers with the accepted answer
// first, then by votes, then newest first.
func (r *answerRepository) ListByQuestion(ctx context.Context, questionID uint) ([]*models.Answer, error) {
	var answers []*models.Answer
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("question_id = ?", questionID).
		Order("is_accepted DESC, votes DESC, created_at DESC").
		Find(&answers).Error
	return answers, err
}

func (r *answerRepository) GetByUserID(ctx context.Context, userID uint, limit int) ([]*models.Answer, error) {
	var answers []*models.Answer
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&answers).Error
	return answers, err
}

func (r *answerRepository) Update(ctx context.Context, answer *models.Answer) error {
	return r.db.WithContext(ctx).Save(answer).Error
}

// Delete removes the answer and decrements the question's answer_count in one
// transaction. The decrement clamps at zero so a double delete cannot drive
// the counter negative.
func (r *answerRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var answer models.Answer
		if err := tx.First(&answer, id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&answer).Error; err != nil {
			return err
		}
		return tx.Model(&models.Question{}).
			Where("id = ?", answer.QuestionID).
			Update("answer_count", gorm.Expr(
				"CASE WHEN answer_count - 1 < 0 THEN 0 ELSE answer_count - 1 END")).Error
	})
}

// AddVotes adjusts the vote counter relatively in a single UPDATE.
func (r *answerRepository) AddVotes(ctx context.Context, id uint, delta int) error {
	return r.db.WithContext(ctx).Model(&models.Answer{}).Where("id = ?", id).
		Update("votes", gorm.Expr("votes + ?", delta)).Error
}

// Accept marks the answer as accepted. Any previously accepted answer on the
// same question is cleared inside the transaction, so at most one answer per
// question ever carries the flag.
func (r *answerRepository) Accept(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var answer models.Answer
		if err := tx.First(&answer, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Answer{}).
			Where("question_id = ? AND is_accepted = ?", answer.QuestionID, true).
			Update("is_accepted", false).Error; err != nil {
			return err
		}
		return tx.Model(&models.Answer{}).Where("id = ?", id).
			Update("is_accepted", true).Error
	})
}

func (r *answerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Answer{}).Count(&count).Error
	return count, err
}
