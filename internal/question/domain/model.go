package domain

import "time"

type Question struct {
	ID         int64      `gorm:"column:id;primaryKey" json:"-"`
	ProductID  int64      `gorm:"column:product_id" json:"-"`
	AskerID    int64      `gorm:"column:asker_id" json:"-"`
	Question   string     `gorm:"column:question" json:"question"`
	Answer     *string    `gorm:"column:answer" json:"answer,omitempty"`
	AnsweredAt *time.Time `gorm:"column:answered_at" json:"answered_at,omitempty"`
	CreatedAt  time.Time  `gorm:"column:created_at" json:"created_at"`
}

func (Question) TableName() string {
	return "questions"
}
