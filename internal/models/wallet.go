package models

import "time"

// Wallet holds the prepaid balance for one user. All amounts are integer
// currency units (MNT). Balance never goes below zero; every mutation runs
// through the ledger helpers in the services package so that a matching
// Transaction row is written in the same database transaction.
type Wallet struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint   `gorm:"uniqueIndex;not null"`
	Balance   int64  `gorm:"not null;default:0"`
	Currency  string `gorm:"type:varchar(10);not null;default:'MNT'"`

	// Cumulative counters, split by the direction money left the wallet.
	TotalDeposited int64 `gorm:"not null;default:0"`
	TotalWithdrawn int64 `gorm:"not null;default:0"`
	TotalSpent     int64 `gorm:"not null;default:0"`

	IsActive       bool `gorm:"default:true"`
	LastActivityAt *time.Time
	Version        int `gorm:"default:1"`
}

// HasBalance reports whether the wallet can cover amount.
func (w *Wallet) HasBalance(amount int64) bool {
	return w.Balance >= amount
}
