package models

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

type TransactionType string

const (
	TransactionTypeDeposit          TransactionType = "deposit"
	TransactionTypeWithdrawal       TransactionType = "withdrawal"
	TransactionTypeLoanDisbursement TransactionType = "loan_disbursement"
	TransactionTypeLoanPayment      TransactionType = "loan_payment"
	TransactionTypeVerificationFee  TransactionType = "verification_fee"
	TransactionTypeLoanExtension    TransactionType = "loan_extension"
	TransactionTypeRefund           TransactionType = "refund"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction is the append-only ledger record. Rows are created together
// with the wallet or loan mutation they document and are never updated
// afterwards, except for pending -> completed/failed/cancelled on
// asynchronous settlements (deposits, withdrawals).
type Transaction struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"precision:3;index"`
	UserID    uint      `gorm:"index;not null"`

	WalletID     *uint `gorm:"index"`
	LoanID       *uint `gorm:"index"`
	WithdrawalID *uint `gorm:"index"`

	Type   TransactionType `gorm:"type:varchar(30);index;not null"`
	Amount int64           `gorm:"not null"`

	// Balance snapshots. Nil for entries without wallet movement
	// (loan extensions).
	BalanceBefore *int64
	BalanceAfter  *int64

	Status      TransactionStatus `gorm:"type:varchar(20);index;not null;default:'pending'"`
	Description string            `gorm:"type:text"`

	// QPay fields, set on deposit invoices.
	InvoiceID       string `gorm:"type:varchar(100);index"`
	InvoiceQR       string `gorm:"type:text"`
	InvoiceDeeplink string `gorm:"type:text"`
	InvoiceExpireAt *time.Time

	Metadata datatypes.JSON `gorm:"type:jsonb"`

	ProcessedAt  *time.Time
	FailedReason string

	Hash string `gorm:"type:varchar(64);default:''"` // HMAC SHA256
}

// GenerateHash generates a tamper-proof hash for the transaction.
func (t *Transaction) GenerateHash(secret string) string {
	var before, after int64
	if t.BalanceBefore != nil {
		before = *t.BalanceBefore
	}
	if t.BalanceAfter != nil {
		after = *t.BalanceAfter
	}
	data := fmt.Sprintf("%d|%d|%d|%d|%d|%s|%s",
		t.UserID, t.CreatedAt.UnixNano(), t.Amount, before, after,
		t.Type, t.Description)

	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}
