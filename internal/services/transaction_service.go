package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/config"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"

	"gorm.io/gorm"
)

var ErrTransactionNotFound = errors.New("transaction not found")

// txHashSecret resolves the HMAC secret for ledger records.
func txHashSecret() string {
	cfg, _ := config.LoadConfig()
	if cfg != nil && cfg.TxHashSecret != "" {
		return cfg.TxHashSecret
	}
	return "default-secret"
}

// recordTx appends a ledger entry inside an open transaction. Callers are
// responsible for pairing it with the wallet or loan mutation it documents
// in the same atomic unit; an unlogged balance change is a correctness bug.
func recordTx(tx *gorm.DB, t *models.Transaction) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	t.Hash = t.GenerateHash(txHashSecret())
	return tx.Create(t).Error
}

// markCompletedTx settles a pending ledger entry. The hash is recomputed
// because settlement fixes the final balance snapshot.
func markCompletedTx(tx *gorm.DB, t *models.Transaction) error {
	now := time.Now()
	t.Status = models.TransactionStatusCompleted
	t.ProcessedAt = &now
	t.Hash = t.GenerateHash(txHashSecret())
	return tx.Model(t).Updates(map[string]interface{}{
		"status":         t.Status,
		"processed_at":   now,
		"balance_before": t.BalanceBefore,
		"balance_after":  t.BalanceAfter,
		"hash":           t.Hash,
	}).Error
}

func markFailedTx(tx *gorm.DB, t *models.Transaction, reason string) error {
	now := time.Now()
	t.Status = models.TransactionStatusFailed
	t.ProcessedAt = &now
	t.FailedReason = reason
	return tx.Model(t).Updates(map[string]interface{}{
		"status":        t.Status,
		"processed_at":  now,
		"failed_reason": reason,
	}).Error
}

func markCancelledTx(tx *gorm.DB, t *models.Transaction) error {
	now := time.Now()
	t.Status = models.TransactionStatusCancelled
	t.ProcessedAt = &now
	return tx.Model(t).Updates(map[string]interface{}{
		"status":       t.Status,
		"processed_at": now,
	}).Error
}

// TransactionFilter defines criteria for filtering transactions.
type TransactionFilter struct {
	UserID    *uint
	WalletID  *uint
	LoanID    *uint
	Type      *models.TransactionType
	Status    *models.TransactionStatus
	StartTime *time.Time
	EndTime   *time.Time
	MinAmount *int64
	MaxAmount *int64
	Page      int
	Limit     int
}

// FindTransactions retrieves a paginated list of transactions with filtering.
func FindTransactions(filter TransactionFilter) ([]models.Transaction, int64, error) {
	var transactions []models.Transaction
	var total int64

	query := database.DB.Model(&models.Transaction{})

	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.WalletID != nil {
		query = query.Where("wallet_id = ?", *filter.WalletID)
	}
	if filter.LoanID != nil {
		query = query.Where("loan_id = ?", *filter.LoanID)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.StartTime != nil {
		query = query.Where("created_at >= ?", *filter.StartTime)
	}
	if filter.EndTime != nil {
		query = query.Where("created_at <= ?", *filter.EndTime)
	}
	if filter.MinAmount != nil {
		query = query.Where("amount >= ?", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		query = query.Where("amount <= ?", *filter.MaxAmount)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Limit(filter.Limit).Offset(offset).Find(&transactions).Error; err != nil {
		return nil, 0, err
	}

	return transactions, total, nil
}

func GetTransactionByID(id uint) (*models.Transaction, error) {
	var t models.Transaction
	if err := database.DB.First(&t, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return &t, nil
}

// GenerateTransactionCSV generates CSV content for a transaction export.
func GenerateTransactionCSV(transactions []models.Transaction) ([]byte, error) {
	b := &bytes.Buffer{}
	w := csv.NewWriter(b)

	header := []string{
		"ID", "Time", "User ID", "Type", "Amount",
		"Balance Before", "Balance After", "Status",
		"Description", "Hash",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, t := range transactions {
		before, after := "", ""
		if t.BalanceBefore != nil {
			before = fmt.Sprintf("%d", *t.BalanceBefore)
		}
		if t.BalanceAfter != nil {
			after = fmt.Sprintf("%d", *t.BalanceAfter)
		}
		record := []string{
			fmt.Sprintf("%d", t.ID),
			t.CreatedAt.Format(time.RFC3339Nano),
			fmt.Sprintf("%d", t.UserID),
			string(t.Type),
			fmt.Sprintf("%d", t.Amount),
			before,
			after,
			string(t.Status),
			t.Description,
			t.Hash,
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return b.Bytes(), nil
}
