package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, bid *Bid) error
	// RaisePrice applies the bid to the product row only when the listing is
	// still open and the amount still beats the stored price. Returns the
	// number of rows updated; zero means the caller lost the race.
	RaisePrice(ctx context.Context, db *gorm.DB, productID int64, amount float64, at time.Time) (int64, error)
	ListByProduct(ctx context.Context, db *gorm.DB, productID int64) ([]Bid, error)
}
