package domain

import "time"

// Profile is the user directory record. It carries both the credentials and
// the public display identity referenced by listings, bids and messages.
type Profile struct {
	ID           int64     `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"type:text;not null"`
	Username     string    `json:"username" gorm:"type:text;not null"`
	PasswordHash string    `json:"-" gorm:"column:password_hash;type:text;not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Profile) TableName() string { return "profiles" }
