package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, address *ShippingAddress) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*ShippingAddress, error)
	ByUser(ctx context.Context, db *gorm.DB, userID int64) ([]ShippingAddress, error)
}
