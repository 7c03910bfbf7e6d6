package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, order *Order) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Order, error)
	// FindActiveByProduct returns the one order still in flight for a
	// product, nil when none exists.
	FindActiveByProduct(ctx context.Context, db *gorm.DB, productID int64) (*Order, error)
	// FindByProduct returns the most recent order for a product regardless
	// of state, nil when none exists.
	FindByProduct(ctx context.Context, db *gorm.DB, productID int64) (*Order, error)
	// AdvanceStatus moves an order between states only when it currently
	// holds the expected status. Zero rows affected means the order was in
	// some other state.
	AdvanceStatus(ctx context.Context, db *gorm.DB, id int64, from, to OrderStatus, at time.Time) (int64, error)
	// AttachAddress sets the shipping address while advancing the order out
	// of pending_payment. Zero rows affected means the order had already
	// moved on.
	AttachAddress(ctx context.Context, db *gorm.DB, id int64, addressID int64, to OrderStatus, at time.Time) (int64, error)
	ByUser(ctx context.Context, db *gorm.DB, userID int64) ([]Order, error)
}
