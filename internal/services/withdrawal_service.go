package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrWithdrawalNotFound   = errors.New("withdrawal not found")
	ErrWithdrawalNotPending = errors.New("withdrawal is not pending")
	ErrWithdrawalTooSmall   = errors.New("withdrawal amount below minimum")
)

// MinWithdrawalAmount is the smallest accepted payout, in currency units.
const MinWithdrawalAmount int64 = 1000

// WithdrawalInput carries the payout destination a customer submits.
type WithdrawalInput struct {
	Amount        int64
	BankName      string
	AccountNumber string
	AccountName   string
	Notes         string
}

// RequestWithdrawal opens a payout request and holds the funds: the wallet
// is debited immediately so the balance cannot be spent twice while the
// request is in flight. The hold is released if the request is cancelled
// or rejected.
func RequestWithdrawal(userID uint, input WithdrawalInput) (*models.Withdrawal, error) {
	if input.Amount < MinWithdrawalAmount {
		return nil, ErrWithdrawalTooSmall
	}

	var withdrawal *models.Withdrawal
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		wallet, err := lockWalletForUser(tx, userID)
		if err != nil {
			return err
		}

		balanceBefore := wallet.Balance
		if err := debitTx(tx, wallet, input.Amount, bucketWithdrawn); err != nil {
			return err
		}
		balanceAfter := wallet.Balance

		withdrawal = &models.Withdrawal{
			UserID:        userID,
			Amount:        input.Amount,
			TotalAmount:   input.Amount,
			BankName:      input.BankName,
			AccountNumber: input.AccountNumber,
			AccountName:   input.AccountName,
			Status:        models.WithdrawalStatusPending,
			Notes:         input.Notes,
		}
		if err := tx.Create(withdrawal).Error; err != nil {
			return err
		}

		transaction := &models.Transaction{
			UserID:        userID,
			WalletID:      &wallet.ID,
			WithdrawalID:  &withdrawal.ID,
			Type:          models.TransactionTypeWithdrawal,
			Amount:        input.Amount,
			BalanceBefore: &balanceBefore,
			BalanceAfter:  &balanceAfter,
			Status:        models.TransactionStatusPending,
			Description:   fmt.Sprintf("Withdrawal to %s %s", input.BankName, input.AccountNumber),
		}
		if err := recordTx(tx, transaction); err != nil {
			return err
		}

		withdrawal.TransactionID = &transaction.ID
		return tx.Model(withdrawal).Update("transaction_id", transaction.ID).Error
	})
	if err != nil {
		return nil, err
	}

	invalidateWalletCache(userID)
	logger.Log.Info("withdrawal requested",
		zap.Uint("user_id", userID),
		zap.Uint("withdrawal_id", withdrawal.ID),
		zap.Int64("amount", input.Amount))
	return withdrawal, nil
}

// CancelWithdrawal lets the customer withdraw a pending request. The held
// funds go back to the wallet and the ledger entry is cancelled.
func CancelWithdrawal(userID uint, withdrawalID uint) (*models.Withdrawal, error) {
	return releaseWithdrawal(withdrawalID, func(w *models.Withdrawal) error {
		if w.UserID != userID {
			return ErrWithdrawalNotFound
		}
		return nil
	}, models.WithdrawalStatusCancelled, "", nil)
}

// ApproveWithdrawal marks a pending payout as sent. The funds were already
// held at request time, so only statuses change.
func ApproveWithdrawal(withdrawalID uint, adminID uint, notes string) (*models.Withdrawal, error) {
	var withdrawal *models.Withdrawal
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		withdrawal, err = lockWithdrawalByID(tx, withdrawalID)
		if err != nil {
			return err
		}
		if withdrawal.Status != models.WithdrawalStatusPending {
			return ErrWithdrawalNotPending
		}

		now := time.Now()
		err = tx.Model(withdrawal).Updates(map[string]interface{}{
			"status":       models.WithdrawalStatusCompleted,
			"processed_by": adminID,
			"processed_at": now,
			"admin_notes":  notes,
		}).Error
		if err != nil {
			return err
		}
		withdrawal.Status = models.WithdrawalStatusCompleted
		withdrawal.ProcessedBy = &adminID
		withdrawal.ProcessedAt = &now
		withdrawal.AdminNotes = notes

		if withdrawal.TransactionID != nil {
			var transaction models.Transaction
			if err := tx.First(&transaction, *withdrawal.TransactionID).Error; err != nil {
				return err
			}
			if err := markCompletedTx(tx, &transaction); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	Notify(withdrawal.UserID, EventWithdrawalCompleted, map[string]interface{}{
		"withdrawal_id": withdrawal.ID,
		"amount":        withdrawal.Amount,
	})
	logger.Log.Info("withdrawal approved",
		zap.Uint("withdrawal_id", withdrawal.ID), zap.Uint("admin_id", adminID))
	return withdrawal, nil
}

// RejectWithdrawal refuses a pending payout and returns the held funds.
func RejectWithdrawal(withdrawalID uint, adminID uint, reason string) (*models.Withdrawal, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}
	withdrawal, err := releaseWithdrawal(withdrawalID, nil, models.WithdrawalStatusFailed, reason, &adminID)
	if err != nil {
		return nil, err
	}
	Notify(withdrawal.UserID, EventWithdrawalRejected, map[string]interface{}{
		"withdrawal_id": withdrawal.ID,
		"reason":        reason,
	})
	return withdrawal, nil
}

// releaseWithdrawal terminates a pending request and returns the held
// amount to the wallet. Used by both customer cancellation and admin
// rejection; only the resulting statuses differ.
func releaseWithdrawal(withdrawalID uint, check func(*models.Withdrawal) error, status models.WithdrawalStatus, reason string, adminID *uint) (*models.Withdrawal, error) {
	var withdrawal *models.Withdrawal
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		withdrawal, err = lockWithdrawalByID(tx, withdrawalID)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(withdrawal); err != nil {
				return err
			}
		}
		if withdrawal.Status != models.WithdrawalStatusPending {
			return ErrWithdrawalNotPending
		}

		wallet, err := lockWalletForUser(tx, withdrawal.UserID)
		if err != nil {
			return err
		}
		// Reverse the hold. The credit does not count as a new deposit, so
		// rebalance the cumulative counters by hand.
		now := time.Now()
		currentVersion := wallet.Version
		wallet.Balance += withdrawal.Amount
		wallet.TotalWithdrawn -= withdrawal.Amount
		wallet.Version++
		result := tx.Model(&models.Wallet{}).
			Where("id = ? AND version = ?", wallet.ID, currentVersion).
			Updates(map[string]interface{}{
				"balance":          wallet.Balance,
				"total_withdrawn":  wallet.TotalWithdrawn,
				"last_activity_at": now,
				"version":          wallet.Version,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrOptimisticLock
		}

		updates := map[string]interface{}{
			"status":       status,
			"processed_at": now,
		}
		if reason != "" {
			updates["failure_reason"] = reason
		}
		if adminID != nil {
			updates["processed_by"] = *adminID
		}
		if err := tx.Model(withdrawal).Updates(updates).Error; err != nil {
			return err
		}
		withdrawal.Status = status
		withdrawal.FailureReason = reason
		withdrawal.ProcessedAt = &now
		withdrawal.ProcessedBy = adminID

		if withdrawal.TransactionID != nil {
			var transaction models.Transaction
			if err := tx.First(&transaction, *withdrawal.TransactionID).Error; err != nil {
				return err
			}
			if status == models.WithdrawalStatusCancelled {
				return markCancelledTx(tx, &transaction)
			}
			return markFailedTx(tx, &transaction, reason)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateWalletCache(withdrawal.UserID)
	logger.Log.Info("withdrawal released",
		zap.Uint("withdrawal_id", withdrawal.ID),
		zap.String("status", string(withdrawal.Status)))
	return withdrawal, nil
}

func lockWithdrawalByID(tx *gorm.DB, id uint) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	err := tx.Set("gorm:query_option", "FOR UPDATE").First(&withdrawal, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}

// GetWithdrawalByID returns a single payout request.
func GetWithdrawalByID(id uint) (*models.Withdrawal, error) {
	var withdrawal models.Withdrawal
	if err := database.DB.First(&withdrawal, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}

// WithdrawalFilter narrows withdrawal listings.
type WithdrawalFilter struct {
	UserID *uint
	Status string
	Page   int
	Limit  int
}

// FindWithdrawals lists payout requests newest first.
func FindWithdrawals(filter WithdrawalFilter) ([]models.Withdrawal, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	query := database.DB.Model(&models.Withdrawal{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var withdrawals []models.Withdrawal
	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&withdrawals).Error; err != nil {
		return nil, 0, err
	}
	return withdrawals, total, nil
}
