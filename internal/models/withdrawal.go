package models

import "time"

type WithdrawalStatus string

const (
	WithdrawalStatusPending   WithdrawalStatus = "pending"
	WithdrawalStatusCompleted WithdrawalStatus = "completed"
	WithdrawalStatusFailed    WithdrawalStatus = "failed"
	WithdrawalStatusCancelled WithdrawalStatus = "cancelled"
)

// Withdrawal is a payout request. The requested funds are debited from the
// wallet when the request is created (held) and credited back if the
// request is cancelled or rejected.
type Withdrawal struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint `gorm:"index;not null"`

	Amount      int64 `gorm:"not null"`
	Fee         int64 `gorm:"not null;default:0"`
	TotalAmount int64 `gorm:"not null"`

	BankName      string `gorm:"not null"`
	AccountNumber string `gorm:"not null"`
	AccountName   string `gorm:"not null"`

	Status WithdrawalStatus `gorm:"type:varchar(20);index;not null;default:'pending'"`

	TransactionID *uint `gorm:"index"`

	ProcessedBy *uint
	ProcessedAt *time.Time

	Notes         string
	AdminNotes    string
	FailureReason string
}
