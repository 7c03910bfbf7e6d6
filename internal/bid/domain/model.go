package domain

import "time"

type Bid struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	ProductID int64     `json:"product_id" gorm:"column:product_id;not null"`
	BidderID  int64     `json:"bidder_id" gorm:"column:bidder_id;not null"`
	Amount    float64   `json:"amount" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Bid) TableName() string { return "bids" }
