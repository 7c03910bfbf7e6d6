package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, profile *Profile) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Profile, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]Profile, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*Profile, error)
	FindByUsername(ctx context.Context, db *gorm.DB, username string) (*Profile, error)
}
