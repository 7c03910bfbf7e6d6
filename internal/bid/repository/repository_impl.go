package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/rastro/internal/bid/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, bid *domain.Bid) error {
	return db.WithContext(ctx).Create(bid).Error
}

func (r *repo) RaisePrice(ctx context.Context, db *gorm.DB, productID int64, amount float64, at time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE products
		 SET price = ?, bid_count = bid_count + 1, updated_at = ?
		 WHERE id = ? AND status = 'available' AND price < ?`,
		amount,
		at,
		productID,
		amount,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) ListByProduct(ctx context.Context, db *gorm.DB, productID int64) ([]domain.Bid, error) {
	var items []domain.Bid
	err := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
