package models

import "time"

// Transaction is a single income or expense event against one account.
// AmountCent is the magnitude; the sign comes from Type.
type Transaction struct {
	ID         uint      `gorm:"primaryKey"`
	AccountID  uint      `gorm:"index;not null"`
	CategoryID uint      `gorm:"index;not null"`
	Type       string    `gorm:"size:16;index;not null"` // income / expense
	AmountCent int64     `gorm:"not null"`               // store in cents to avoid float
	Note       string    `gorm:"size:255"`
	Date       time.Time `gorm:"index;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time

	Account  Account  `gorm:"constraint:OnDelete:CASCADE"`
	Category Category `gorm:"constraint:OnDelete:CASCADE"`
}
