package domain

import "time"

type ShippingAddress struct {
	ID         int64     `gorm:"column:id;primaryKey" json:"-"`
	UserID     int64     `gorm:"column:user_id" json:"-"`
	FullName   string    `gorm:"column:full_name" json:"full_name"`
	Street     string    `gorm:"column:street" json:"street"`
	City       string    `gorm:"column:city" json:"city"`
	State      string    `gorm:"column:state" json:"state"`
	PostalCode string    `gorm:"column:postal_code" json:"postal_code"`
	Country    string    `gorm:"column:country" json:"country"`
	Phone      string    `gorm:"column:phone" json:"phone"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ShippingAddress) TableName() string {
	return "shipping_addresses"
}
