package repository

import (
	"context"

	"github.com/smallbiznis/rastro/internal/message/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, message *domain.Message) error {
	return db.WithContext(ctx).Create(message).Error
}

func (r *repo) ByProductAndParticipant(ctx context.Context, db *gorm.DB, productID, userID int64) ([]domain.Message, error) {
	var messages []domain.Message
	err := db.WithContext(ctx).
		Where("product_id = ? AND (sender_id = ? OR receiver_id = ?)", productID, userID, userID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
