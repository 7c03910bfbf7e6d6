package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/rastro/internal/question/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, question *domain.Question) error {
	return db.WithContext(ctx).Create(question).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Question, error) {
	var question domain.Question
	if err := db.WithContext(ctx).Where("id = ?", id).First(&question).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &question, nil
}

func (r *repo) ByProduct(ctx context.Context, db *gorm.DB, productID int64) ([]domain.Question, error) {
	var questions []domain.Question
	err := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

func (r *repo) SetAnswer(ctx context.Context, db *gorm.DB, id int64, answer string, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Question{}).
		Where("id = ? AND answer IS NULL", id).
		Updates(map[string]any{
			"answer":      answer,
			"answered_at": at,
		})
	return result.RowsAffected, result.Error
}
