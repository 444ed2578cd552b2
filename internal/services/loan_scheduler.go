package services

import (
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/pkg/logger"

	"go.uber.org/zap"
)

// OverdueScheduler periodically sweeps disbursed and active loans past
// their due date and flips them to overdue.
type OverdueScheduler struct {
	interval time.Duration
	stopChan chan struct{}
}

func NewOverdueScheduler(interval time.Duration) *OverdueScheduler {
	return &OverdueScheduler{
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (s *OverdueScheduler) Stop() {
	close(s.stopChan)
}

// Start runs an immediate sweep, then one per interval.
func (s *OverdueScheduler) Start() {
	logger.Log.Info("overdue scheduler started", zap.Duration("interval", s.interval))

	if _, err := MarkOverdueLoans(); err != nil {
		logger.Log.Error("overdue sweep failed", zap.Error(err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := MarkOverdueLoans(); err != nil {
				logger.Log.Error("overdue sweep failed", zap.Error(err))
			}
		case <-s.stopChan:
			logger.Log.Info("overdue scheduler stopped")
			return
		}
	}
}
