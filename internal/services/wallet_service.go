package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/payment"
	"github.com/AmarboldBazarsuren/mzeel-backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrInsufficientFunds  = errors.New("insufficient wallet balance")
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrDepositTooSmall    = errors.New("deposit amount below minimum")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrNotDepositPending  = errors.New("transaction is not a pending deposit")
)

// MinDepositAmount is the smallest accepted top-up, in currency units.
const MinDepositAmount int64 = 1000

// Gateway is the payment driver used for deposits. Swapped for a fake in
// tests; set to the QPay driver at startup.
var Gateway payment.Driver

// spendBucket selects which cumulative wallet counter a debit feeds.
type spendBucket int

const (
	bucketSpent spendBucket = iota
	bucketWithdrawn
)

// lockWalletForUser loads the user's wallet under a row lock inside tx.
func lockWalletForUser(tx *gorm.DB, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := tx.Set("gorm:query_option", "FOR UPDATE").
		Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}
	return &wallet, nil
}

// creditTx increases the wallet balance inside tx. The version guard makes
// the read-validate-write sequence safe against concurrent mutation.
func creditTx(tx *gorm.DB, wallet *models.Wallet, amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	now := time.Now()
	currentVersion := wallet.Version
	wallet.Balance += amount
	wallet.TotalDeposited += amount
	wallet.LastActivityAt = &now
	wallet.Version++

	result := tx.Model(&models.Wallet{}).
		Where("id = ? AND version = ?", wallet.ID, currentVersion).
		Updates(map[string]interface{}{
			"balance":          wallet.Balance,
			"total_deposited":  wallet.TotalDeposited,
			"last_activity_at": now,
			"version":          wallet.Version,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}

// debitTx decreases the wallet balance inside tx, failing before any
// mutation when the balance cannot cover the amount.
func debitTx(tx *gorm.DB, wallet *models.Wallet, amount int64, bucket spendBucket) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if wallet.Balance < amount {
		return ErrInsufficientFunds
	}

	now := time.Now()
	currentVersion := wallet.Version
	wallet.Balance -= amount
	wallet.LastActivityAt = &now
	wallet.Version++

	updates := map[string]interface{}{
		"balance":          wallet.Balance,
		"last_activity_at": now,
		"version":          wallet.Version,
	}
	switch bucket {
	case bucketWithdrawn:
		wallet.TotalWithdrawn += amount
		updates["total_withdrawn"] = wallet.TotalWithdrawn
	default:
		wallet.TotalSpent += amount
		updates["total_spent"] = wallet.TotalSpent
	}

	result := tx.Model(&models.Wallet{}).
		Where("id = ? AND version = ?", wallet.ID, currentVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}

// HasSufficientFunds is a read-only precheck used to fail fast before a
// multi-step operation starts. The authoritative check happens again under
// lock inside the atomic unit.
func HasSufficientFunds(userID uint, amount int64) (bool, error) {
	var wallet models.Wallet
	if err := database.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrWalletNotFound
		}
		return false, err
	}
	return wallet.HasBalance(amount), nil
}

func walletCacheKey(userID uint) string {
	return fmt.Sprintf("wallet:user:%d", userID)
}

// GetWallet returns the user's wallet, served from redis when possible.
func GetWallet(userID uint) (*models.Wallet, error) {
	cacheKey := walletCacheKey(userID)
	if database.RedisClient != nil {
		val, err := database.RedisClient.Get(database.Ctx, cacheKey).Result()
		if err == nil {
			var wallet models.Wallet
			if err := json.Unmarshal([]byte(val), &wallet); err == nil {
				return &wallet, nil
			}
		}
	}

	var wallet models.Wallet
	if err := database.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	if database.RedisClient != nil {
		if data, err := json.Marshal(wallet); err == nil {
			database.RedisClient.Set(database.Ctx, cacheKey, data, time.Minute)
		}
	}

	return &wallet, nil
}

func invalidateWalletCache(userID uint) {
	if database.RedisClient != nil {
		database.RedisClient.Del(database.Ctx, walletCacheKey(userID))
	}
}

// CreateDeposit registers a QPay invoice and records a pending deposit
// transaction. The wallet is only credited once the invoice is confirmed
// paid.
func CreateDeposit(userID uint, amount int64) (*models.Transaction, error) {
	if amount < MinDepositAmount {
		return nil, ErrDepositTooSmall
	}

	var wallet models.Wallet
	if err := database.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	invoice, err := Gateway.CreateInvoice(amount, userID, fmt.Sprintf("MZeel wallet top-up %d", amount))
	if err != nil {
		logger.Log.Error("deposit invoice creation failed",
			zap.Uint("user_id", userID), zap.Int64("amount", amount), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	expireAt := time.Now().Add(30 * time.Minute)
	balance := wallet.Balance
	transaction := &models.Transaction{
		UserID:          userID,
		WalletID:        &wallet.ID,
		Type:            models.TransactionTypeDeposit,
		Amount:          amount,
		BalanceBefore:   &balance,
		BalanceAfter:    &balance, // unchanged until the invoice is paid
		Status:          models.TransactionStatusPending,
		Description:     "Wallet top-up (QPay)",
		InvoiceID:       invoice.InvoiceID,
		InvoiceQR:       invoice.QRText,
		InvoiceDeeplink: invoice.Deeplink,
		InvoiceExpireAt: &expireAt,
	}

	err = database.DB.Transaction(func(tx *gorm.DB) error {
		return recordTx(tx, transaction)
	})
	if err != nil {
		return nil, err
	}

	if Watcher != nil {
		Watcher.Add(transaction.ID)
	}

	return transaction, nil
}

// ConfirmDeposit checks the invoice with the gateway and, when paid,
// credits the wallet and settles the transaction in one atomic unit.
// Confirming an already-settled deposit is a no-op; the bool result
// reports whether the wallet was credited by this call.
func ConfirmDeposit(transactionID uint) (*models.Transaction, bool, error) {
	var transaction models.Transaction
	if err := database.DB.First(&transaction, transactionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, ErrTransactionNotFound
		}
		return nil, false, err
	}

	if transaction.Type != models.TransactionTypeDeposit {
		return nil, false, ErrNotDepositPending
	}
	if transaction.Status != models.TransactionStatusPending {
		// Already settled, nothing to do.
		return &transaction, false, nil
	}

	paid, err := Gateway.CheckPayment(transaction.InvoiceID)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if !paid {
		return &transaction, false, nil
	}

	credited := false
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		// Re-read under lock: a concurrent confirmation may have settled
		// this transaction between the check above and now.
		var current models.Transaction
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			First(&current, transaction.ID).Error; err != nil {
			return err
		}
		if current.Status != models.TransactionStatusPending {
			transaction = current
			return nil
		}

		wallet, err := lockWalletForUser(tx, current.UserID)
		if err != nil {
			return err
		}

		balanceBefore := wallet.Balance
		if err := creditTx(tx, wallet, current.Amount); err != nil {
			return err
		}

		current.BalanceBefore = &balanceBefore
		balanceAfter := wallet.Balance
		current.BalanceAfter = &balanceAfter
		if err := markCompletedTx(tx, &current); err != nil {
			return err
		}

		transaction = current
		credited = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	if credited {
		invalidateWalletCache(transaction.UserID)
		logger.Log.Info("deposit settled",
			zap.Uint("transaction_id", transaction.ID),
			zap.Uint("user_id", transaction.UserID),
			zap.Int64("amount", transaction.Amount))
		Notify(transaction.UserID, EventDepositCompleted, map[string]interface{}{
			"transaction_id": transaction.ID,
			"amount":         transaction.Amount,
		})
	}

	return &transaction, credited, nil
}

// ExpireDeposit fails a pending deposit whose invoice lapsed unpaid. The
// wallet was never credited, so no balance movement is involved.
func ExpireDeposit(transactionID uint) error {
	return database.DB.Transaction(func(tx *gorm.DB) error {
		var transaction models.Transaction
		if err := tx.Set("gorm:query_option", "FOR UPDATE").
			First(&transaction, transactionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTransactionNotFound
			}
			return err
		}
		if transaction.Status != models.TransactionStatusPending {
			return nil
		}
		return markFailedTx(tx, &transaction, "invoice expired")
	})
}

// GetWalletHistory lists the ledger entries touching the user's wallet.
func GetWalletHistory(userID uint, page, limit int) ([]models.Transaction, int64, error) {
	var wallet models.Wallet
	if err := database.DB.Where("user_id = ?", userID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrWalletNotFound
		}
		return nil, 0, err
	}

	return FindTransactions(TransactionFilter{
		WalletID: &wallet.ID,
		Page:     page,
		Limit:    limit,
	})
}
