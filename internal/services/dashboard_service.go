package services

import (
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
)

// DashboardStats is the admin overview of the platform.
type DashboardStats struct {
	TotalUsers       int64 `json:"total_users"`
	PendingProfiles  int64 `json:"pending_profiles"`
	ApprovedProfiles int64 `json:"approved_profiles"`

	PendingLoans       int64 `json:"pending_loans"`
	OutstandingLoans   int64 `json:"outstanding_loans"`
	OverdueLoans       int64 `json:"overdue_loans"`
	TotalDisbursed     int64 `json:"total_disbursed"`
	TotalOutstanding   int64 `json:"total_outstanding"`
	InterestCollected  int64 `json:"interest_collected"`
	PendingWithdrawals int64 `json:"pending_withdrawals"`

	TotalWalletBalance int64 `json:"total_wallet_balance"`
	DepositsToday      int64 `json:"deposits_today"`
}

// GetDashboardStats aggregates the figures shown on the admin dashboard.
func GetDashboardStats() (*DashboardStats, error) {
	stats := &DashboardStats{}
	db := database.DB

	if err := db.Model(&models.User{}).
		Where("role = ?", models.RoleCustomer).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Profile{}).
		Where("status = ?", models.ProfileStatusPending).Count(&stats.PendingProfiles).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Profile{}).
		Where("status = ?", models.ProfileStatusApproved).Count(&stats.ApprovedProfiles).Error; err != nil {
		return nil, err
	}

	pendingStatuses := []models.LoanStatus{
		models.LoanStatusPendingVerification,
		models.LoanStatusUnderReview,
		models.LoanStatusPendingDisbursement,
	}
	if err := db.Model(&models.Loan{}).
		Where("status IN ?", pendingStatuses).Count(&stats.PendingLoans).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Loan{}).
		Where("status IN ?", models.MoneyOwedStatuses).Count(&stats.OutstandingLoans).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Loan{}).
		Where("status = ?", models.LoanStatusOverdue).Count(&stats.OverdueLoans).Error; err != nil {
		return nil, err
	}

	type moneySums struct {
		Disbursed   int64
		Outstanding int64
		Interest    int64
	}
	var sums moneySums
	err := db.Model(&models.Loan{}).
		Select("COALESCE(SUM(disbursed_amount),0) as disbursed").
		Where("disbursed_at IS NOT NULL").Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&models.Loan{}).
		Select("COALESCE(SUM(remaining_amount),0) as outstanding").
		Where("status IN ?", models.MoneyOwedStatuses).Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	err = db.Model(&models.Loan{}).
		Select("COALESCE(SUM(interest_amount),0) as interest").
		Where("status = ?", models.LoanStatusPaid).Scan(&sums).Error
	if err != nil {
		return nil, err
	}
	stats.TotalDisbursed = sums.Disbursed
	stats.TotalOutstanding = sums.Outstanding
	stats.InterestCollected = sums.Interest

	if err := db.Model(&models.Withdrawal{}).
		Where("status = ?", models.WithdrawalStatusPending).Count(&stats.PendingWithdrawals).Error; err != nil {
		return nil, err
	}

	type walletSum struct {
		Balance int64
	}
	var ws walletSum
	if err := db.Model(&models.Wallet{}).
		Select("COALESCE(SUM(balance),0) as balance").Scan(&ws).Error; err != nil {
		return nil, err
	}
	stats.TotalWalletBalance = ws.Balance

	startOfDay := time.Now().Truncate(24 * time.Hour)
	type depositSum struct {
		Total int64
	}
	var ds depositSum
	err = db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount),0) as total").
		Where("type = ? AND status = ? AND processed_at >= ?",
			models.TransactionTypeDeposit, models.TransactionStatusCompleted, startOfDay).
		Scan(&ds).Error
	if err != nil {
		return nil, err
	}
	stats.DepositsToday = ds.Total

	return stats, nil
}
