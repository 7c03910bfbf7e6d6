package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, message *Message) error
	// ByProductAndParticipant returns a product's messages the user sent or
	// received, oldest first.
	ByProductAndParticipant(ctx context.Context, db *gorm.DB, productID, userID int64) ([]Message, error)
}
