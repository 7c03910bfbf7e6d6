package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/smallbiznis/rastro/internal/auth/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, profile *domain.Profile) error {
	return db.WithContext(ctx).Create(profile).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []int64) ([]domain.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Profile
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).Where("lower(email) = ?", strings.ToLower(email)).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) FindByUsername(ctx context.Context, db *gorm.DB, username string) (*domain.Profile, error) {
	var p domain.Profile
	err := db.WithContext(ctx).Where("lower(username) = ?", strings.ToLower(username)).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
