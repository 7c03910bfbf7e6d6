package domain

import "time"

type Message struct {
	ID         int64     `gorm:"column:id;primaryKey" json:"-"`
	ProductID  int64     `gorm:"column:product_id" json:"-"`
	OrderID    int64     `gorm:"column:order_id" json:"-"`
	SenderID   int64     `gorm:"column:sender_id" json:"-"`
	ReceiverID int64     `gorm:"column:receiver_id" json:"-"`
	Content    string    `gorm:"column:content" json:"content"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}
