package domain

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type ProductType string

const (
	TypeDirectSale ProductType = "direct_sale"
	TypeAuction    ProductType = "auction"
)

func (t ProductType) Valid() bool {
	return t == TypeDirectSale || t == TypeAuction
}

type ProductStatus string

const (
	StatusAvailable      ProductStatus = "available"
	StatusPendingPayment ProductStatus = "pending_payment"
	StatusSold           ProductStatus = "sold"
	StatusShipped        ProductStatus = "shipped"
	StatusPaid           ProductStatus = "paid"
	StatusCancelled      ProductStatus = "cancelled"
)

type Product struct {
	ID            int64             `json:"id" gorm:"primaryKey"`
	Slug          string            `json:"slug" gorm:"type:text;not null"`
	SellerID      int64             `json:"seller_id" gorm:"column:seller_id;not null"`
	BuyerID       *int64            `json:"buyer_id,omitempty" gorm:"column:buyer_id"`
	Name          string            `json:"name" gorm:"type:text;not null"`
	Description   string            `json:"description" gorm:"type:text;not null"`
	Price         float64           `json:"price" gorm:"not null"`
	Type          ProductType       `json:"type" gorm:"type:text;not null"`
	Status        ProductStatus     `json:"status" gorm:"type:text;not null;default:available"`
	BidCount      int               `json:"bid_count" gorm:"not null;default:0"`
	AuctionEndsAt *time.Time        `json:"auction_ends_at,omitempty"`
	Category      *string           `json:"category,omitempty" gorm:"type:text"`
	Location      *string           `json:"location,omitempty" gorm:"type:text"`
	Images        pq.StringArray    `json:"images" gorm:"type:text[]"`
	Metadata      datatypes.JSONMap `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt     time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Product) TableName() string { return "products" }
