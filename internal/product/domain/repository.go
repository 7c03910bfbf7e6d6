package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// ListFilter is the storage-level filter derived from ListRequest.
type ListFilter struct {
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
	Location string
	Limit    int
	Offset   int
}

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Product, error)
	FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*Product, error)
	Update(ctx context.Context, db *gorm.DB, product *Product) error
	// BeginSale reserves an available listing for a buyer, setting the final
	// sale price. Zero rows affected means the listing was no longer
	// available.
	BeginSale(ctx context.Context, db *gorm.DB, id int64, buyerID int64, price float64, to ProductStatus, at time.Time) (int64, error)
	// AdvanceStatus moves a listing between sale states only when it
	// currently holds one of the expected statuses. Zero rows affected means
	// the listing was in some other state.
	AdvanceStatus(ctx context.Context, db *gorm.DB, id int64, from []ProductStatus, to ProductStatus, at time.Time) (int64, error)
	Delete(ctx context.Context, db *gorm.DB, id int64) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Product, int64, error)
	Categories(ctx context.Context, db *gorm.DB) ([]string, error)
	ByUser(ctx context.Context, db *gorm.DB, userID int64) ([]Product, error)
}
