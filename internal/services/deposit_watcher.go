package services

import (
	"sync"
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/pkg/logger"

	"go.uber.org/zap"
)

// DepositWatcher polls the payment gateway for pending deposit invoices
// and settles or expires them. Payments confirmed through the callback
// endpoint remove themselves from the watch list; the watcher is the
// fallback for callbacks that never arrive.
type DepositWatcher struct {
	mu         sync.RWMutex
	pending    map[uint]time.Time // transaction ID -> invoice expiry
	addChan    chan uint
	removeChan chan uint
	stopChan   chan struct{}
	interval   time.Duration
}

// Watcher is the process-wide deposit watcher, started from main.
var Watcher *DepositWatcher

func NewDepositWatcher(interval time.Duration) *DepositWatcher {
	return &DepositWatcher{
		pending:    make(map[uint]time.Time),
		addChan:    make(chan uint, 100),
		removeChan: make(chan uint, 100),
		stopChan:   make(chan struct{}),
		interval:   interval,
	}
}

// Add puts a pending deposit transaction under watch.
func (w *DepositWatcher) Add(transactionID uint) {
	w.addChan <- transactionID
}

// Remove drops a transaction from the watch list.
func (w *DepositWatcher) Remove(transactionID uint) {
	w.removeChan <- transactionID
}

// Stop shuts the polling loop down.
func (w *DepositWatcher) Stop() {
	close(w.stopChan)
}

// Start runs the polling loop. It first reloads any pending deposits left
// over from a previous process, so a restart never strands an invoice.
func (w *DepositWatcher) Start() {
	w.bootstrap()
	logger.Log.Info("deposit watcher started", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case id := <-w.addChan:
			w.track(id)

		case id := <-w.removeChan:
			w.mu.Lock()
			delete(w.pending, id)
			w.mu.Unlock()

		case <-ticker.C:
			w.sweep()

		case <-w.stopChan:
			logger.Log.Info("deposit watcher stopped")
			return
		}
	}
}

func (w *DepositWatcher) bootstrap() {
	var transactions []models.Transaction
	err := database.DB.
		Where("type = ? AND status = ?",
			models.TransactionTypeDeposit, models.TransactionStatusPending).
		Find(&transactions).Error
	if err != nil {
		logger.Log.Error("deposit watcher bootstrap failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	for _, t := range transactions {
		expiry := time.Now().Add(30 * time.Minute)
		if t.InvoiceExpireAt != nil {
			expiry = *t.InvoiceExpireAt
		}
		w.pending[t.ID] = expiry
	}
	w.mu.Unlock()

	if len(transactions) > 0 {
		logger.Log.Info("deposit watcher reloaded pending deposits",
			zap.Int("count", len(transactions)))
	}
}

func (w *DepositWatcher) track(transactionID uint) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.pending[transactionID]; exists {
		return
	}

	var transaction models.Transaction
	if err := database.DB.First(&transaction, transactionID).Error; err != nil {
		logger.Log.Warn("deposit watcher could not load transaction",
			zap.Uint("transaction_id", transactionID), zap.Error(err))
		return
	}
	if transaction.Status != models.TransactionStatusPending {
		return
	}

	expiry := time.Now().Add(30 * time.Minute)
	if transaction.InvoiceExpireAt != nil {
		expiry = *transaction.InvoiceExpireAt
	}
	w.pending[transactionID] = expiry
}

func (w *DepositWatcher) sweep() {
	w.mu.RLock()
	snapshot := make(map[uint]time.Time, len(w.pending))
	for id, expiry := range w.pending {
		snapshot[id] = expiry
	}
	w.mu.RUnlock()

	now := time.Now()
	for id, expiry := range snapshot {
		if now.After(expiry) {
			if err := ExpireDeposit(id); err != nil {
				logger.Log.Error("deposit expiry failed",
					zap.Uint("transaction_id", id), zap.Error(err))
				continue
			}
			w.forget(id)
			logger.Log.Info("deposit invoice expired", zap.Uint("transaction_id", id))
			continue
		}

		transaction, _, err := ConfirmDeposit(id)
		if err != nil {
			logger.Log.Warn("deposit poll failed",
				zap.Uint("transaction_id", id), zap.Error(err))
			continue
		}
		// Settled by this poll or by the callback endpoint; either way the
		// invoice needs no further watching.
		if transaction.Status != models.TransactionStatusPending {
			w.forget(id)
		}
	}
}

func (w *DepositWatcher) forget(transactionID uint) {
	w.mu.Lock()
	delete(w.pending, transactionID)
	w.mu.Unlock()
}
