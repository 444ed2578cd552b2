package services

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/config"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrLoanNotFound          = errors.New("loan not found")
	ErrActiveLoanExists      = errors.New("user already has an active loan")
	ErrInvalidTerm           = errors.New("unsupported loan term")
	ErrInvalidLoanState      = errors.New("operation not allowed in current loan status")
	ErrAmountOutOfRange      = errors.New("amount outside allowed range")
	ErrVerificationFeeUnpaid = errors.New("verification fee has not been paid")
	ErrOverpayment           = errors.New("payment exceeds remaining amount")
	ErrNotExtendable         = errors.New("loan term cannot be extended")
)

const (
	MinApprovedAmount int64 = 10000
	MaxApprovedAmount int64 = 5000000
	DefaultTermDays         = 30
)

// interestRates maps supported term lengths to monthly-style simple
// interest percentages.
var interestRates = map[int]float64{
	14: 2.8,
	30: 3.2,
	90: 3.8,
}

// InterestRateForTerm returns the interest percentage for a term length.
func InterestRateForTerm(termDays int) (float64, error) {
	rate, ok := interestRates[termDays]
	if !ok {
		return 0, ErrInvalidTerm
	}
	return rate, nil
}

// interestAmount computes simple interest on the principal, rounded to the
// nearest whole currency unit.
func interestAmount(principal int64, rate float64) int64 {
	return int64(math.Round(float64(principal) * rate / 100))
}

// nextLoanNumberTx assigns the next loan number for the current calendar
// year, e.g. MZ2026000042. The sequence is derived from the highest
// number already issued, so values are never reused after a deletion.
// Called inside the creating transaction so the read and the insert see
// the same state.
func nextLoanNumberTx(tx *gorm.DB) (string, error) {
	prefix := fmt.Sprintf("MZ%d", time.Now().Year())

	var numbers []string
	err := tx.Model(&models.Loan{}).
		Where("loan_number LIKE ?", prefix+"%").
		Order("loan_number DESC").
		Limit(1).
		Pluck("loan_number", &numbers).Error
	if err != nil {
		return "", err
	}

	seq := 1
	if len(numbers) > 0 {
		if n, err := strconv.Atoi(numbers[0][len(prefix):]); err == nil {
			seq = n + 1
		}
	}
	return fmt.Sprintf("%s%06d", prefix, seq), nil
}

// updateLoanTx applies a version-guarded update to the loan inside tx.
func updateLoanTx(tx *gorm.DB, loan *models.Loan, updates map[string]interface{}) error {
	currentVersion := loan.Version
	loan.Version++
	updates["version"] = loan.Version

	result := tx.Model(&models.Loan{}).
		Where("id = ? AND version = ?", loan.ID, currentVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrOptimisticLock
	}
	return nil
}

func lockLoanByID(tx *gorm.DB, loanID uint) (*models.Loan, error) {
	var loan models.Loan
	err := tx.Set("gorm:query_option", "FOR UPDATE").First(&loan, loanID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

// ApplyForLoan opens a new loan application and collects the verification
// fee in the same transaction. The applicant needs an approved KYC
// profile, no other loan in a non-terminal status, and a wallet balance
// covering the fee; when any of those fail no loan is created. The wallet
// row lock serializes concurrent applications by the same user, so the
// active-loan check and the insert cannot interleave.
func ApplyForLoan(userID uint, requestedAmount int64, purpose string) (*models.Loan, error) {
	if requestedAmount <= 0 {
		return nil, ErrAmountOutOfRange
	}

	profile, err := GetProfileByUserID(userID)
	if err != nil {
		return nil, err
	}
	if profile.Status != models.ProfileStatusApproved {
		return nil, ErrProfileNotApproved
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	fee := cfg.VerificationFee

	var loan *models.Loan
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		wallet, err := lockWalletForUser(tx, userID)
		if err != nil {
			return err
		}

		var count int64
		err = tx.Model(&models.Loan{}).
			Where("user_id = ? AND status IN ?", userID, models.ActiveLoanStatuses).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrActiveLoanExists
		}

		number, err := nextLoanNumberTx(tx)
		if err != nil {
			return err
		}

		balanceBefore := wallet.Balance
		if err := debitTx(tx, wallet, fee, bucketSpent); err != nil {
			return err
		}
		balanceAfter := wallet.Balance

		now := time.Now()
		loan = &models.Loan{
			UserID:             userID,
			LoanNumber:         number,
			RequestedAmount:    requestedAmount,
			TermDays:           DefaultTermDays,
			Status:             models.LoanStatusPendingVerification,
			VerificationFee:    fee,
			VerificationPaidAt: &now,
			Purpose:            purpose,
		}
		if err := tx.Create(loan).Error; err != nil {
			return err
		}

		transaction := &models.Transaction{
			UserID:        userID,
			WalletID:      &wallet.ID,
			LoanID:        &loan.ID,
			Type:          models.TransactionTypeVerificationFee,
			Amount:        fee,
			BalanceBefore: &balanceBefore,
			BalanceAfter:  &balanceAfter,
			Status:        models.TransactionStatusCompleted,
			Description:   fmt.Sprintf("Verification fee for loan %s", loan.LoanNumber),
			ProcessedAt:   &now,
		}
		return recordTx(tx, transaction)
	})
	if err != nil {
		return nil, err
	}

	invalidateWalletCache(userID)
	logger.Log.Info("loan application created",
		zap.Uint("user_id", userID),
		zap.String("loan_number", loan.LoanNumber),
		zap.Int64("requested_amount", requestedAmount),
		zap.Int64("verification_fee", fee))
	return loan, nil
}

// StartReview moves a fee-paid application into review.
func StartReview(loanID uint, adminID uint) (*models.Loan, error) {
	var loan *models.Loan
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		loan, err = lockLoanByID(tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != models.LoanStatusPendingVerification {
			return ErrInvalidLoanState
		}
		if loan.VerificationPaidAt == nil {
			return ErrVerificationFeeUnpaid
		}

		now := time.Now()
		loan.Status = models.LoanStatusUnderReview
		loan.ReviewStartedAt = &now
		loan.ReviewedBy = &adminID
		return updateLoanTx(tx, loan, map[string]interface{}{
			"status":            models.LoanStatusUnderReview,
			"review_started_at": now,
			"reviewed_by":       adminID,
		})
	})
	if err != nil {
		return nil, err
	}
	return loan, nil
}

// ApproveLoan grants a reviewed application. The approved amount becomes
// the user's available loan limit; actual borrowing happens through
// disbursement requests against that limit. Only the rate is recorded
// here, provisionally at the default term; interest, total and remaining
// amounts stay zero until the user requests disbursement and fixes the
// principal and term.
func ApproveLoan(loanID uint, adminID uint, approvedAmount int64, notes string) (*models.Loan, error) {
	if approvedAmount < MinApprovedAmount || approvedAmount > MaxApprovedAmount {
		return nil, ErrAmountOutOfRange
	}

	var loan *models.Loan
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		loan, err = lockLoanByID(tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != models.LoanStatusUnderReview {
			return ErrInvalidLoanState
		}

		profile, err := lockProfileForUser(tx, loan.UserID)
		if err != nil {
			return err
		}
		if err := setLoanLimitTx(tx, profile, approvedAmount); err != nil {
			return err
		}

		rate := interestRates[DefaultTermDays]
		now := time.Now()
		loan.Status = models.LoanStatusApproved
		loan.ApprovedAmount = approvedAmount
		loan.InterestRate = rate
		loan.ApprovedAt = &now
		loan.ApprovedBy = &adminID
		loan.AdminNotes = notes
		return updateLoanTx(tx, loan, map[string]interface{}{
			"status":          models.LoanStatusApproved,
			"approved_amount": approvedAmount,
			"interest_rate":   rate,
			"approved_at":     now,
			"approved_by":     adminID,
			"admin_notes":     notes,
		})
	})
	if err != nil {
		return nil, err
	}

	Notify(loan.UserID, EventLoanApproved, map[string]interface{}{
		"loan_id":         loan.ID,
		"approved_amount": approvedAmount,
	})
	logger.Log.Info("loan approved",
		zap.Uint("loan_id", loan.ID),
		zap.Uint("admin_id", adminID),
		zap.Int64("approved_amount", approvedAmount))
	return loan, nil
}

// RejectLoan cancels an application or an approved-but-undisbursed loan.
// Loans with money owed cannot be rejected away.
func RejectLoan(loanID uint, adminID uint, reason string) (*models.Loan, error) {
	if reason == "" {
		return nil, ErrReasonRequired
	}

	var loan *models.Loan
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		loan, err = lockLoanByID(tx, loanID)
		if err != nil {
			return err
		}
		switch loan.Status {
		case models.LoanStatusPendingVerification,
			models.LoanStatusUnderReview,
			models.LoanStatusApproved,
			models.LoanStatusPendingDisbursement:
			// rejectable
		default:
			return ErrInvalidLoanState
		}

		updates := map[string]interface{}{
			"status":           models.LoanStatusCancelled,
			"rejection_reason": reason,
			"reviewed_by":      adminID,
		}
		// Approval had granted a limit; revoke what remains.
		if loan.Status == models.LoanStatusApproved || loan.Status == models.LoanStatusPendingDisbursement {
			profile, err := lockProfileForUser(tx, loan.UserID)
			if err != nil {
				return err
			}
			if err := setLoanLimitTx(tx, profile, 0); err != nil {
				return err
			}
		}

		loan.Status = models.LoanStatusCancelled
		loan.RejectionReason = reason
		loan.ReviewedBy = &adminID
		return updateLoanTx(tx, loan, updates)
	})
	if err != nil {
		return nil, err
	}

	Notify(loan.UserID, EventLoanRejected, map[string]interface{}{
		"loan_id": loan.ID,
		"reason":  reason,
	})
	return loan, nil
}

// RequestDisbursement asks for part of the approved limit to be paid out
// over a chosen term. Interest is fixed here from the principal and term;
// the money moves only once an admin approves the payout.
func RequestDisbursement(userID uint, loanID uint, amount int64, termDays int) (*models.Loan, error) {
	rate, err := InterestRateForTerm(termDays)
	if err != nil {
		return nil, err
	}

	var loan *models.Loan
	err = database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		loan, err = lockLoanByID(tx, loanID)
		if err != nil {
			return err
		}
		if loan.UserID != userID {
			return ErrLoanNotFound
		}
		if loan.Status != models.LoanStatusApproved {
			return ErrInvalidLoanState
		}
		if amount < MinApprovedAmount || amount > loan.ApprovedAmount {
			return ErrAmountOutOfRange
		}

		profile, err := lockProfileForUser(tx, loan.UserID)
		if err != nil {
			return err
		}
		if amount > profile.AvailableLoanLimit {
			return ErrLimitExceeded
		}

		interest := interestAmount(amount, rate)
		loan.Status = models.LoanStatusPendingDisbursement
		loan.DisbursedAmount = amount
		loan.TermDays = termDays
		loan.InterestRate = rate
		loan.InterestAmount = interest
		loan.TotalAmount = amount + interest
		loan.RemainingAmount = loan.TotalAmount
		return updateLoanTx(tx, loan, map[string]interface{}{
			"status":           models.LoanStatusPendingDisbursement,
			"disbursed_amount": amount,
			"term_days":        termDays,
			"interest_rate":    rate,
			"interest_amount":  interest,
			"total_amount":     loan.TotalAmount,
			"remaining_amount": loan.RemainingAmount,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("disbursement requested",
		zap.Uint("loan_id", loan.ID),
		zap.Int64("amount", amount),
		zap.Int("term_days", termDays))
	return loan, nil
}

// ApproveDisbursement pays the requested principal into the borrower's
// wallet. Crediting the wallet, consuming the loan limit and marking the
// loan disbursed commit as one unit.
func ApproveDisbursement(loanID uint, adminID uint) (*models.Loan, error) {
	var loan *models.Loan
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		loan, err = lockLoanByID(tx, loanID)
		if err != nil {
			return err
		}
		if loan.Status != models.LoanStatusPendingDisbursement {
			return ErrInvalidLoanState
		}

		profile, err := lockProfileForUser(tx, loan.UserID)
		if err != nil {
			return err
		}
		if err := consumeLoanLimitTx(tx, profile, loan.DisbursedAmount); err != nil {
			return err
		}

		wallet, err := lockWalletForUser(tx, loan.UserID)
		if err != nil {
			return err
		}

		balanceBefore := wallet.Balance
		if err := creditTx(tx, wallet, loan.DisbursedAmount); err != nil {
			return err
		}
		balanceAfter := wallet.Balance

		now := time.Now()
		transaction := &models.Transaction{
			UserID:        loan.UserID,
			WalletID:      &wallet.ID,
			LoanID:        &loan.ID,
			Type:          models.TransactionTypeLoanDisbursement,
			Amount:        loan.DisbursedAmount,
			BalanceBefore: &balanceBefore,
			BalanceAfter:  &balanceAfter,
			Status:        models.TransactionStatusCompleted,
			Description:   fmt.Sprintf("Disbursement of loan %s", loan.LoanNumber),
			ProcessedAt:   &now,
		}
		if err := recordTx(tx, transaction); err != nil {
			return err
		}

		dueDate := now.AddDate(0, 0, loan.TermDays)
		loan.Status = models.LoanStatusDisbursed
		loan.DisbursedAt = &now
		loan.DueDate = &dueDate
		return updateLoanTx(tx, loan, map[string]interface{}{
			"status":       models.LoanStatusDisbursed,
			"disbursed_at": now,
			"due_date":     dueDate,
		})
	})
	if err != nil {
		return nil, err
	}

	invalidateWalletCache(loan.UserID)
	Notify(loan.UserID, EventLoanDisbursed, map[string]interface{}{
		"loan_id": loan.ID,
		"amount":  loan.DisbursedAmount,
		"due":     loan.DueDate,
	})
	logger.Log.Info("loan disbursed",
		zap.Uint("loan_id", loan.ID),
		zap.Uint("admin_id", adminID),
		zap.Int64("amount", loan.DisbursedAmount))
	return loan, nil
}

// PayLoan repays part or all of a loan from the borrower's wallet.
// Payments above the remaining amount are rejected before any state
// changes. Paying the loan down to exactly zero settles it and returns the
// principal to the user's available limit.
func PayLoan(userID uint, loanID uint, amount int64) (*models.Loan, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	settled := false
	var loan *models.Loan
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		loan, err = lockLoanByID(tx, loanID)
		if err != nil {
			return err
		}
		if loan.UserID != userID {
			return ErrLoanNotFound
		}
		if !loanOwesMoney(loan.Status) {
			return ErrInvalidLoanState
		}
		if amount > loan.RemainingAmount {
			return ErrOverpayment
		}

		wallet, err := lockWalletForUser(tx, userID)
		if err != nil {
			return err
		}

		balanceBefore := wallet.Balance
		if err := debitTx(tx, wallet, amount, bucketSpent); err != nil {
			return err
		}
		balanceAfter := wallet.Balance

		now := time.Now()
		transaction := &models.Transaction{
			UserID:        userID,
			WalletID:      &wallet.ID,
			LoanID:        &loan.ID,
			Type:          models.TransactionTypeLoanPayment,
			Amount:        amount,
			BalanceBefore: &balanceBefore,
			BalanceAfter:  &balanceAfter,
			Status:        models.TransactionStatusCompleted,
			Description:   fmt.Sprintf("Repayment on loan %s", loan.LoanNumber),
			ProcessedAt:   &now,
		}
		if err := recordTx(tx, transaction); err != nil {
			return err
		}

		loan.PaidAmount += amount
		loan.RemainingAmount -= amount
		updates := map[string]interface{}{
			"paid_amount":      loan.PaidAmount,
			"remaining_amount": loan.RemainingAmount,
		}

		if loan.RemainingAmount == 0 {
			settled = true
			loan.Status = models.LoanStatusPaid
			loan.PaidAt = &now
			updates["status"] = models.LoanStatusPaid
			updates["paid_at"] = now

			profile, err := lockProfileForUser(tx, userID)
			if err != nil {
				return err
			}
			if err := restoreLoanLimitTx(tx, profile, loan.DisbursedAmount); err != nil {
				return err
			}
		} else if loan.Status == models.LoanStatusDisbursed {
			loan.Status = models.LoanStatusActive
			updates["status"] = models.LoanStatusActive
		}

		return updateLoanTx(tx, loan, updates)
	})
	if err != nil {
		return nil, err
	}

	invalidateWalletCache(userID)
	if settled {
		Notify(userID, EventLoanPaid, map[string]interface{}{"loan_id": loan.ID})
		logger.Log.Info("loan settled", zap.Uint("loan_id", loan.ID))
	}
	return loan, nil
}

// ExtendLoan pushes the due date out by the loan's own term and adds one
// more term's interest on the disbursed principal, at the loan's own rate,
// to the amount owed. The status stays as it is; an overdue loan remains
// overdue until repaid. No wallet movement happens; the extension
// surcharge is collected with repayment. The 14-day product is not
// extendable.
func ExtendLoan(userID uint, loanID uint) (*models.Loan, error) {
	var loan *models.Loan
	err := database.DB.Transaction(func(tx *gorm.DB) error {
		var err error
		loan, err = lockLoanByID(tx, loanID)
		if err != nil {
			return err
		}
		if loan.UserID != userID {
			return ErrLoanNotFound
		}
		if !loanOwesMoney(loan.Status) {
			return ErrInvalidLoanState
		}
		if loan.TermDays == 14 {
			return ErrNotExtendable
		}

		extra := interestAmount(loan.DisbursedAmount, loan.InterestRate)
		now := time.Now()
		newDue := loan.DueDate.AddDate(0, 0, loan.TermDays)

		transaction := &models.Transaction{
			UserID:      userID,
			LoanID:      &loan.ID,
			Type:        models.TransactionTypeLoanExtension,
			Amount:      extra,
			Status:      models.TransactionStatusCompleted,
			Description: fmt.Sprintf("Extension of loan %s by %d days", loan.LoanNumber, loan.TermDays),
			ProcessedAt: &now,
		}
		if err := recordTx(tx, transaction); err != nil {
			return err
		}

		loan.InterestAmount += extra
		loan.TotalAmount += extra
		loan.RemainingAmount += extra
		loan.DueDate = &newDue
		loan.ExtensionCount++
		loan.LastExtendedAt = &now
		return updateLoanTx(tx, loan, map[string]interface{}{
			"interest_amount":  loan.InterestAmount,
			"total_amount":     loan.TotalAmount,
			"remaining_amount": loan.RemainingAmount,
			"due_date":         newDue,
			"extension_count":  loan.ExtensionCount,
			"last_extended_at": now,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("loan extended",
		zap.Uint("loan_id", loan.ID),
		zap.Int("term_days", loan.TermDays),
		zap.Int("extension_count", loan.ExtensionCount))
	return loan, nil
}

func loanOwesMoney(status models.LoanStatus) bool {
	for _, s := range models.MoneyOwedStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// MarkOverdueLoans flips loans past their due date to overdue and returns
// how many were affected. Run periodically by the scheduler.
func MarkOverdueLoans() (int64, error) {
	var loans []models.Loan
	err := database.DB.
		Where("status IN ? AND due_date < ?",
			[]models.LoanStatus{models.LoanStatusDisbursed, models.LoanStatusActive},
			time.Now()).
		Find(&loans).Error
	if err != nil {
		return 0, err
	}

	var marked int64
	for i := range loans {
		loan := &loans[i]
		err := database.DB.Transaction(func(tx *gorm.DB) error {
			loan.Status = models.LoanStatusOverdue
			return updateLoanTx(tx, loan, map[string]interface{}{
				"status": models.LoanStatusOverdue,
			})
		})
		if err != nil {
			if errors.Is(err, ErrOptimisticLock) {
				// Changed underneath us; the next sweep will catch it.
				continue
			}
			return marked, err
		}
		marked++
		Notify(loan.UserID, EventLoanOverdue, map[string]interface{}{"loan_id": loan.ID})
	}

	if marked > 0 {
		logger.Log.Info("overdue sweep finished", zap.Int64("marked", marked))
	}
	return marked, nil
}

// GetLoanByID returns a loan, optionally checking ownership.
func GetLoanByID(loanID uint) (*models.Loan, error) {
	var loan models.Loan
	if err := database.DB.First(&loan, loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

// GetActiveLoanForUser returns the user's current non-terminal loan.
func GetActiveLoanForUser(userID uint) (*models.Loan, error) {
	var loan models.Loan
	err := database.DB.
		Where("user_id = ? AND status IN ?", userID, models.ActiveLoanStatuses).
		Order("created_at desc").First(&loan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	return &loan, nil
}

// LoanFilter narrows loan listings.
type LoanFilter struct {
	UserID *uint
	Status string
	Page   int
	Limit  int
}

// FindLoans lists loans newest first.
func FindLoans(filter LoanFilter) ([]models.Loan, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 20
	}

	query := database.DB.Model(&models.Loan{})
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

	var loans []models.Loan
	offset := (filter.Page - 1) * filter.Limit
	if err := query.Order("created_at desc").Offset(offset).Limit(filter.Limit).Find(&loans).Error; err != nil {
		return nil, 0, err
	}
	return loans, total, nil
}

// LoanStats summarizes a user's borrowing history.
type LoanStats struct {
	TotalLoans     int64 `json:"total_loans"`
	PaidLoans      int64 `json:"paid_loans"`
	TotalBorrowed  int64 `json:"total_borrowed"`
	TotalRepaid    int64 `json:"total_repaid"`
	CurrentOwed    int64 `json:"current_owed"`
	AvailableLimit int64 `json:"available_limit"`
}

// GetUserLoanStats aggregates the user's loan history.
func GetUserLoanStats(userID uint) (*LoanStats, error) {
	stats := &LoanStats{}

	base := database.DB.Model(&models.Loan{}).Where("user_id = ?", userID)
	if err := base.Session(&gorm.Session{}).Count(&stats.TotalLoans).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).
		Where("status = ?", models.LoanStatusPaid).Count(&stats.PaidLoans).Error; err != nil {
		return nil, err
	}

	type sums struct {
		Borrowed int64
		Repaid   int64
		Owed     int64
	}
	var s sums
	err := database.DB.Model(&models.Loan{}).
		Select("COALESCE(SUM(disbursed_amount),0) as borrowed, COALESCE(SUM(paid_amount),0) as repaid").
		Where("user_id = ?", userID).Scan(&s).Error
	if err != nil {
		return nil, err
	}
	err = database.DB.Model(&models.Loan{}).
		Select("COALESCE(SUM(remaining_amount),0) as owed").
		Where("user_id = ? AND status IN ?", userID, models.MoneyOwedStatuses).
		Scan(&s).Error
	if err != nil {
		return nil, err
	}
	stats.TotalBorrowed = s.Borrowed
	stats.TotalRepaid = s.Repaid
	stats.CurrentOwed = s.Owed

	if profile, err := GetProfileByUserID(userID); err == nil {
		stats.AvailableLimit = profile.AvailableLoanLimit
	}
	return stats, nil
}
