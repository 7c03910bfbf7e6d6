package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, question *Question) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Question, error)
	ByProduct(ctx context.Context, db *gorm.DB, productID int64) ([]Question, error)
	// SetAnswer writes the answer only when none exists yet. Zero rows
	// affected means the question was already answered.
	SetAnswer(ctx context.Context, db *gorm.DB, id int64, answer string, at time.Time) (int64, error)
}
