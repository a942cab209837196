package repository

import (
	"context"

	"quorum/internal/models"

	"gorm.io/gorm"
)

// FAQRepository defines the interface for FAQ data operations
type FAQRepository interface {
	List(ctx context.Context) ([]*models.FAQ, error)
	ListByCategory(ctx context.Context, categoryID uint) ([]*models.FAQ, error)
	Create(ctx context.Context, faq *models.FAQ) error
}

type faqRepository struct {
	db *gorm.DB
}

// NewFAQRepository creates a new FAQ repository
func NewFAQRepository(db *gorm.DB) FAQRepository {
	return &faqRepository{db: db}
}

func (r *faqRepository) List(ctx context.Context) ([]*models.FAQ, error) {
	var faqs []*models.FAQ
	err := r.db.WithContext(ctx).Order(`"order" ASC, id ASC`).Find(&faqs).Error
	return faqs, err
}

func (r *faqRepository) ListByCategory(ctx context.Context, categoryID uint) ([]*models.FAQ, error) {
	var faqs []*models.FAQ
	err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		Order(`"order" ASC, id ASC`).
		Find(&faqs).Error
	return faqs, err
}

func (r *faqRepository) Create(ctx context.Context, faq *models.FAQ) error {
	return r.db.WithContext(ctx).Create(faq).Error
}
