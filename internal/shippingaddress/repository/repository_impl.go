package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/rastro/internal/shippingaddress/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, address *domain.ShippingAddress) error {
	return db.WithContext(ctx).Create(address).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.ShippingAddress, error) {
	var address domain.ShippingAddress
	if err := db.WithContext(ctx).Where("id = ?", id).First(&address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &address, nil
}

func (r *repo) ByUser(ctx context.Context, db *gorm.DB, userID int64) ([]domain.ShippingAddress, error) {
	var addresses []domain.ShippingAddress
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&addresses).Error
	if err != nil {
		return nil, err
	}
	return addresses, nil
}
