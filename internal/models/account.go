package models

import "time"

// Account is a named balance bucket owned by one user.
// BalanceCent is a running total maintained by the ledger package on
// every transaction mutation, never recomputed at read time.
type Account struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;not null"`
	Name        string `gorm:"size:64;not null"`
	BalanceCent int64  `gorm:"not null"` // store in cents to avoid float
	CreatedAt   time.Time
	UpdatedAt   time.Time

	User User `gorm:"constraint:OnDelete:CASCADE"`
}
