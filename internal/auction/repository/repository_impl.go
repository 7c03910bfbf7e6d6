package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/rastro/internal/auction/domain"
	biddomain "github.com/smallbiznis/rastro/internal/bid/domain"
	productdomain "github.com/smallbiznis/rastro/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) FindExpired(ctx context.Context, db *gorm.DB, cutoff time.Time, limit int) ([]productdomain.Product, error) {
	var items []productdomain.Product
	err := db.WithContext(ctx).
		Where("type = ? AND status = ? AND auction_ends_at IS NOT NULL AND auction_ends_at <= ?",
			productdomain.TypeAuction, productdomain.StatusAvailable, cutoff).
		Order("auction_ends_at ASC").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindWinningBid(ctx context.Context, db *gorm.DB, productID int64) (*biddomain.Bid, error) {
	var bid biddomain.Bid
	err := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("amount DESC, created_at ASC, id ASC").
		First(&bid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bid, nil
}
