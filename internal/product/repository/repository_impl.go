package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/smallbiznis/rastro/internal/product/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Create(product).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) FindBySlug(ctx context.Context, db *gorm.DB, slug string) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	if product == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"description": product.Description,
			"price":       product.Price,
			"category":    product.Category,
			"location":    product.Location,
			"images":      product.Images,
			"metadata":    product.Metadata,
			"updated_at":  product.UpdatedAt,
		}).Error
}

func (r *repo) BeginSale(ctx context.Context, db *gorm.DB, id int64, buyerID int64, price float64, to domain.ProductStatus, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND status = ?", id, domain.StatusAvailable).
		Updates(map[string]any{
			"status":     to,
			"buyer_id":   buyerID,
			"price":      price,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *repo) AdvanceStatus(ctx context.Context, db *gorm.DB, id int64, from []domain.ProductStatus, to domain.ProductStatus, at time.Time) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(map[string]any{
			"status":     to,
			"updated_at": at,
		})
	return result.RowsAffected, result.Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id int64) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Product{}).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Product, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Product{}).
		Where("status NOT IN ?", []string{
			string(domain.StatusPaid),
			string(domain.StatusCancelled),
		})

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		stmt = stmt.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		stmt = stmt.Where("category = ?", category)
	}
	if filter.MinPrice != nil {
		stmt = stmt.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		stmt = stmt.Where("price <= ?", *filter.MaxPrice)
	}
	if location := strings.TrimSpace(filter.Location); location != "" {
		stmt = stmt.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(location)+"%")
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var items []domain.Product
	err := stmt.
		Order("created_at DESC").
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&items).Error
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *repo) Categories(ctx context.Context, db *gorm.DB) ([]string, error) {
	var categories []string
	err := db.WithContext(ctx).
		Model(&domain.Product{}).
		Distinct("category").
		Where("category IS NOT NULL AND category <> ''").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repo) ByUser(ctx context.Context, db *gorm.DB, userID int64) ([]domain.Product, error) {
	var items []domain.Product
	err := db.WithContext(ctx).
		Where("seller_id = ? OR buyer_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
