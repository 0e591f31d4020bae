package models

import "time"

// Category labels transactions. Name is unique per user.
type Category struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    uint   `gorm:"uniqueIndex:idx_user_category;not null"`
	Name      string `gorm:"size:64;uniqueIndex:idx_user_category;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
