package domain

import "time"

type OrderStatus string

const (
	StatusPendingPayment  OrderStatus = "pending_payment"
	StatusPendingShipping OrderStatus = "pending_shipping"
	StatusPaid            OrderStatus = "paid"
	StatusShipped         OrderStatus = "shipped"
	StatusCompleted       OrderStatus = "completed"
)

type Order struct {
	ID                int64       `gorm:"column:id;primaryKey" json:"-"`
	Reference         string      `gorm:"column:reference" json:"reference"`
	ProductID         int64       `gorm:"column:product_id" json:"-"`
	BuyerID           int64       `gorm:"column:buyer_id" json:"-"`
	SellerID          int64       `gorm:"column:seller_id" json:"-"`
	ShippingAddressID *int64      `gorm:"column:shipping_address_id" json:"-"`
	Status            OrderStatus `gorm:"column:status" json:"status"`
	TotalAmount       float64     `gorm:"column:total_amount" json:"total_amount"`
	CreatedAt         time.Time   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt         time.Time   `gorm:"column:updated_at" json:"updated_at"`
}

func (Order) TableName() string {
	return "orders"
}
