package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/rastro/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Create(order).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Order, error) {
	var order domain.Order
	if err := db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindActiveByProduct(ctx context.Context, db *gorm.DB, productID int64) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).
		Where("product_id = ? AND status <> ?", productID, domain.StatusCompleted).
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) FindByProduct(ctx context.Context, db *gorm.DB, productID int64) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repo) AdvanceStatus(ctx context.Context, db *gorm.DB, id int64, from, to domain.OrderStatus, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *repo) AttachAddress(ctx context.Context, db *gorm.DB, id int64, addressID int64, to domain.OrderStatus, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, domain.StatusPendingPayment).
		Updates(map[string]any{
			"status":              to,
			"shipping_address_id": addressID,
			"updated_at":          at,
		})
	return result.RowsAffected, result.Error
}

func (r *repo) ByUser(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Order, error) {
	var orders []domain.Order
	err := db.WithContext(ctx).
		Where("buyer_id = ? OR seller_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
