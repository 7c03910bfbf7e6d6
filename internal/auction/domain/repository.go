package domain

import (
	"context"
	"time"

	biddomain "github.com/smallbiznis/rastro/internal/bid/domain"
	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	"gorm.io/gorm"
)

type Repository interface {
	// FindExpired returns available auctions whose end time has passed,
	// oldest deadline first.
	FindExpired(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]productdomain.Product, error)
	// FindWinningBid returns the winning bid for an auction: highest amount,
	// earliest placed on ties. Nil when the auction drew no bids.
	FindWinningBid(ctx context.Context, db *gorm.DB, productID int64) (*biddomain.Bid, error)
}
