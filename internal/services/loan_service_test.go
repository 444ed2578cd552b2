package services

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupLoanTestDB() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.Migrator().DropTable(&models.User{}, &models.Wallet{}, &models.Profile{}, &models.Loan{}, &models.Transaction{}, &models.Withdrawal{})
	db.AutoMigrate(&models.User{}, &models.Wallet{}, &models.Profile{}, &models.Loan{}, &models.Transaction{}, &models.Withdrawal{})

	database.DB = db
}

func setupLoanTestRedis() *miniredis.Miniredis {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	database.RedisClient = redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr
}

// seedBorrower creates a user with a wallet and an approved profile.
func seedBorrower(balance int64, limit int64) models.User {
	user := models.User{
		Phone:    fmt.Sprintf("9911%04d", time.Now().UnixNano()%10000),
		Email:    fmt.Sprintf("borrower%d@test.mn", time.Now().UnixNano()),
		Password: "hashed",
		Role:     models.RoleCustomer,
		IsActive: true,
		Version:  1,
	}
	database.DB.Create(&user)

	wallet := models.Wallet{
		UserID:   user.ID,
		Balance:  balance,
		Currency: "MNT",
		IsActive: true,
		Version:  1,
	}
	database.DB.Create(&wallet)

	profile := models.Profile{
		UserID:             user.ID,
		RegisterNumber:     fmt.Sprintf("AB%d", time.Now().UnixNano()),
		DateOfBirth:        "1995-01-01",
		Gender:             "male",
		Status:             models.ProfileStatusApproved,
		AvailableLoanLimit: limit,
		Version:            1,
	}
	database.DB.Create(&profile)

	return user
}

func seedAdmin() models.User {
	admin := models.User{
		Phone:    fmt.Sprintf("8800%04d", time.Now().UnixNano()%10000),
		Email:    fmt.Sprintf("admin%d@test.mn", time.Now().UnixNano()),
		Password: "hashed",
		Role:     models.RoleAdmin,
		IsActive: true,
		Version:  1,
	}
	database.DB.Create(&admin)
	return admin
}

func TestInterestRateForTerm(t *testing.T) {
	rate, err := InterestRateForTerm(14)
	assert.NoError(t, err)
	assert.Equal(t, 2.8, rate)

	rate, err = InterestRateForTerm(30)
	assert.NoError(t, err)
	assert.Equal(t, 3.2, rate)

	rate, err = InterestRateForTerm(90)
	assert.NoError(t, err)
	assert.Equal(t, 3.8, rate)

	_, err = InterestRateForTerm(60)
	assert.ErrorIs(t, err, ErrInvalidTerm)
}

func TestInterestAmount(t *testing.T) {
	assert.Equal(t, int64(1600), interestAmount(50000, 3.2))
	assert.Equal(t, int64(3200), interestAmount(100000, 3.2))
	assert.Equal(t, int64(2800), interestAmount(100000, 2.8))
	assert.Equal(t, int64(3800), interestAmount(100000, 3.8))
	// rounding, not truncation
	assert.Equal(t, int64(320), interestAmount(10001, 3.2))
}

func TestLoanLifecycle(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupLoanTestDB()
	mr := setupLoanTestRedis()
	defer mr.Close()

	user := seedBorrower(3000, 0)
	admin := seedAdmin()

	// Apply. The verification fee is collected in the same transaction.
	loan, err := ApplyForLoan(user.ID, 100000, "inventory purchase")
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusPendingVerification, loan.Status)
	assert.Equal(t, int64(3000), loan.VerificationFee)
	assert.NotNil(t, loan.VerificationPaidAt)
	assert.Contains(t, loan.LoanNumber, fmt.Sprintf("MZ%d", time.Now().Year()))

	invalidateWalletCache(user.ID)
	wallet, err := GetWallet(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), wallet.Balance)

	var feeTx models.Transaction
	database.DB.Where("type = ?", models.TransactionTypeVerificationFee).Last(&feeTx)
	assert.Equal(t, int64(3000), feeTx.Amount)
	assert.Equal(t, models.TransactionStatusCompleted, feeTx.Status)
	assert.Equal(t, int64(3000), *feeTx.BalanceBefore)
	assert.Equal(t, int64(0), *feeTx.BalanceAfter)

	// A second application while one is open is refused.
	_, err = ApplyForLoan(user.ID, 50000, "another")
	assert.ErrorIs(t, err, ErrActiveLoanExists)

	// Review and approve.
	loan, err = StartReview(loan.ID, admin.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusUnderReview, loan.Status)

	loan, err = ApproveLoan(loan.ID, admin.ID, 100000, "good standing")
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusApproved, loan.Status)

	profile, err := GetProfileByUserID(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(100000), profile.AvailableLoanLimit)

	// Request half the limit over 30 days.
	loan, err = RequestDisbursement(user.ID, loan.ID, 50000, 30)
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusPendingDisbursement, loan.Status)
	assert.Equal(t, int64(1600), loan.InterestAmount)
	assert.Equal(t, int64(51600), loan.TotalAmount)
	assert.Equal(t, int64(51600), loan.RemainingAmount)

	// Pay out.
	loan, err = ApproveDisbursement(loan.ID, admin.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusDisbursed, loan.Status)
	assert.NotNil(t, loan.DueDate)

	invalidateWalletCache(user.ID)
	wallet, _ = GetWallet(user.ID)
	assert.Equal(t, int64(50000), wallet.Balance)

	profile, _ = GetProfileByUserID(user.ID)
	assert.Equal(t, int64(50000), profile.AvailableLoanLimit)

	// Partial payment moves the loan to active.
	loan, err = PayLoan(user.ID, loan.ID, 20000)
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusActive, loan.Status)
	assert.Equal(t, int64(31600), loan.RemainingAmount)
	assert.Equal(t, int64(20000), loan.PaidAmount)

	// Overpayment is rejected before any state changes.
	_, err = PayLoan(user.ID, loan.ID, 40000)
	assert.ErrorIs(t, err, ErrOverpayment)

	invalidateWalletCache(user.ID)
	wallet, _ = GetWallet(user.ID)
	assert.Equal(t, int64(30000), wallet.Balance)

	var loanCheck models.Loan
	database.DB.First(&loanCheck, loan.ID)
	assert.Equal(t, int64(31600), loanCheck.RemainingAmount)

	// Top the wallet up directly and settle the loan in full.
	database.DB.Model(&models.Wallet{}).Where("user_id = ?", user.ID).
		Updates(map[string]interface{}{"balance": 31600, "version": gorm.Expr("version + 1")})
	invalidateWalletCache(user.ID)

	loan, err = PayLoan(user.ID, loan.ID, 31600)
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusPaid, loan.Status)
	assert.Equal(t, int64(0), loan.RemainingAmount)
	assert.NotNil(t, loan.PaidAt)

	// Full payoff restores the limit by the disbursed principal.
	profile, _ = GetProfileByUserID(user.ID)
	assert.Equal(t, int64(100000), profile.AvailableLoanLimit)

	// With the loan settled and the wallet refilled, a new application is
	// allowed.
	database.DB.Model(&models.Wallet{}).Where("user_id = ?", user.ID).
		Updates(map[string]interface{}{"balance": 3000, "version": gorm.Expr("version + 1")})
	invalidateWalletCache(user.ID)
	_, err = ApplyForLoan(user.ID, 80000, "restock")
	assert.NoError(t, err)
}

func TestApplyInsufficientFeeBalance(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupLoanTestDB()
	mr := setupLoanTestRedis()
	defer mr.Close()

	user := seedBorrower(2000, 0)

	_, err := ApplyForLoan(user.ID, 50000, "")
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// The refused application leaves nothing behind: no loan, no debit,
	// no ledger entry.
	var loanCount, txCount int64
	database.DB.Model(&models.Loan{}).Where("user_id = ?", user.ID).Count(&loanCount)
	database.DB.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&txCount)
	assert.Equal(t, int64(0), loanCount)
	assert.Equal(t, int64(0), txCount)

	invalidateWalletCache(user.ID)
	wallet, _ := GetWallet(user.ID)
	assert.Equal(t, int64(2000), wallet.Balance)
}

func TestStartReviewRequiresFeePaid(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupLoanTestDB()
	mr := setupLoanTestRedis()
	defer mr.Close()

	user := seedBorrower(10000, 0)
	admin := seedAdmin()

	loan, err := ApplyForLoan(user.ID, 100000, "")
	assert.NoError(t, err)

	// Clear the fee timestamp to simulate a record from before the fee
	// was collected; the review guard must hold.
	database.DB.Model(&models.Loan{}).Where("id = ?", loan.ID).
		Update("verification_paid_at", nil)

	_, err = StartReview(loan.ID, admin.ID)
	assert.ErrorIs(t, err, ErrVerificationFeeUnpaid)
}

func TestApproveLoanAmountBounds(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupLoanTestDB()
	mr := setupLoanTestRedis()
	defer mr.Close()

	user := seedBorrower(10000, 0)
	admin := seedAdmin()

	loan, err := ApplyForLoan(user.ID, 9000000, "big plans")
	assert.NoError(t, err)
	_, err = StartReview(loan.ID, admin.ID)
	assert.NoError(t, err)

	_, err = ApproveLoan(loan.ID, admin.ID, 9999, "")
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	_, err = ApproveLoan(loan.ID, admin.ID, 5000001, "")
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	approved, err := ApproveLoan(loan.ID, admin.ID, 5000000, "cap")
	assert.NoError(t, err)
	assert.Equal(t, int64(5000000), approved.ApprovedAmount)
}

func TestRejectLoanRevokesLimit(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupLoanTestDB()
	mr := setupLoanTestRedis()
	defer mr.Close()

	user := seedBorrower(10000, 0)
	admin := seedAdmin()

	loan, _ := ApplyForLoan(user.ID, 100000, "")
	StartReview(loan.ID, admin.ID)
	ApproveLoan(loan.ID, admin.ID, 100000, "")

	_, err := RejectLoan(loan.ID, admin.ID, "")
	assert.ErrorIs(t, err, ErrReasonRequired)

	rejected, err := RejectLoan(loan.ID, admin.ID, "income could not be verified")
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusCancelled, rejected.Status)

	profile, _ := GetProfileByUserID(user.ID)
	assert.Equal(t, int64(0), profile.AvailableLoanLimit)
}

func TestExtendLoan(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupLoanTestDB()
	mr := setupLoanTestRedis()
	defer mr.Close()

	user := seedBorrower(10000, 0)
	admin := seedAdmin()

	loan, _ := ApplyForLoan(user.ID, 100000, "")
	StartReview(loan.ID, admin.ID)
	ApproveLoan(loan.ID, admin.ID, 100000, "")
	RequestDisbursement(user.ID, loan.ID, 50000, 30)
	loan, err := ApproveDisbursement(loan.ID, admin.ID)
	assert.NoError(t, err)

	originalDue := *loan.DueDate

	// Extension uses the loan's own term and rate; the caller picks
	// nothing.
	extended, err := ExtendLoan(user.ID, loan.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, extended.ExtensionCount)
	// Interest on the disbursed principal at 3.2%, not on the running
	// balance and not at any other term's rate.
	assert.Equal(t, int64(3200), extended.InterestAmount)
	assert.Equal(t, int64(53200), extended.TotalAmount)
	assert.Equal(t, int64(53200), extended.RemainingAmount)
	assert.Equal(t, originalDue.AddDate(0, 0, 30), *extended.DueDate)
	assert.Equal(t, models.LoanStatusDisbursed, extended.Status)

	// No wallet movement on extension.
	invalidateWalletCache(user.ID)
	wallet, _ := GetWallet(user.ID)
	assert.Equal(t, int64(57000), wallet.Balance) // 10000 - 3000 fee + 50000

	// Extension transaction recorded without balance snapshots.
	var extTx models.Transaction
	database.DB.Where("type = ?", models.TransactionTypeLoanExtension).Last(&extTx)
	assert.Equal(t, int64(3200), extTx.Amount)
	assert.Nil(t, extTx.BalanceBefore)
	assert.Nil(t, extTx.BalanceAfter)
}

func TestExtendOverdueLoanKeepsStatus(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupLoanTestDB()
	mr := setupLoanTestRedis()
	defer mr.Close()

	user := seedBorrower(10000, 0)
	admin := seedAdmin()

	loan, _ := ApplyForLoan(user.ID, 100000, "")
	StartReview(loan.ID, admin.ID)
	ApproveLoan(loan.ID, admin.ID, 100000, "")
	RequestDisbursement(user.ID, loan.ID, 50000, 30)
	loan, _ = ApproveDisbursement(loan.ID, admin.ID)

	past := time.Now().AddDate(0, 0, -1)
	database.DB.Model(&models.Loan{}).Where("id = ?", loan.ID).Update("due_date", past)
	marked, err := MarkOverdueLoans()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	// Extending does not clear overdue standing; only payment does.
	extended, err := ExtendLoan(user.ID, loan.ID)
	assert.NoError(t, err)
	assert.Equal(t, models.LoanStatusOverdue, extended.Status)
	assert.Equal(t, int64(53200), extended.RemainingAmount)
}

func TestExtendLoan14DayRejected(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupLoanTestDB()
	mr := setupLoanTestRedis()
	defer mr.Close()

	user := seedBorrower(10000, 0)
	admin := seedAdmin()

	loan, _ := ApplyForLoan(user.ID, 100000, "")
	StartReview(loan.ID, admin.ID)
	ApproveLoan(loan.ID, admin.ID, 100000, "")
	RequestDisbursement(user.ID, loan.ID, 50000, 14)
	loan, err := ApproveDisbursement(loan.ID, admin.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(1400), loan.InterestAmount) // 50000 * 2.8%

	_, err = ExtendLoan(user.ID, loan.ID)
	assert.ErrorIs(t, err, ErrNotExtendable)
}

func TestRequestDisbursementGuards(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupLoanTestDB()
	mr := setupLoanTestRedis()
	defer mr.Close()

	user := seedBorrower(10000, 0)
	admin := seedAdmin()

	loan, _ := ApplyForLoan(user.ID, 100000, "")
	StartReview(loan.ID, admin.ID)
	ApproveLoan(loan.ID, admin.ID, 100000, "")

	_, err := RequestDisbursement(user.ID, loan.ID, 50000, 45)
	assert.ErrorIs(t, err, ErrInvalidTerm)

	_, err = RequestDisbursement(user.ID, loan.ID, 5000, 30)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)

	_, err = RequestDisbursement(user.ID, loan.ID, 150000, 30)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}

func TestLoanNumbersSkipDeletedRows(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupLoanTestDB()
	mr := setupLoanTestRedis()
	defer mr.Close()

	user := seedBorrower(10000, 0)
	admin := seedAdmin()

	first, err := ApplyForLoan(user.ID, 50000, "")
	assert.NoError(t, err)
	_, err = RejectLoan(first.ID, admin.ID, "duplicate request")
	assert.NoError(t, err)

	second, err := ApplyForLoan(user.ID, 50000, "")
	assert.NoError(t, err)
	assert.Greater(t, second.LoanNumber, first.LoanNumber)
	_, err = RejectLoan(second.ID, admin.ID, "duplicate request")
	assert.NoError(t, err)

	// Remove an older row outright. A count-derived sequence would hand
	// out the second loan's number again and trip the unique index; the
	// max-derived one keeps advancing.
	database.DB.Delete(&models.Loan{}, first.ID)

	third, err := ApplyForLoan(user.ID, 50000, "")
	assert.NoError(t, err)
	assert.NotEqual(t, second.LoanNumber, third.LoanNumber)
	assert.Greater(t, third.LoanNumber, second.LoanNumber)
}

func TestMarkOverdueLoans(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupLoanTestDB()
	mr := setupLoanTestRedis()
	defer mr.Close()

	user := seedBorrower(10000, 0)
	admin := seedAdmin()

	loan, _ := ApplyForLoan(user.ID, 100000, "")
	StartReview(loan.ID, admin.ID)
	ApproveLoan(loan.ID, admin.ID, 100000, "")
	RequestDisbursement(user.ID, loan.ID, 50000, 30)
	loan, _ = ApproveDisbursement(loan.ID, admin.ID)

	// Not yet due.
	marked, err := MarkOverdueLoans()
	assert.NoError(t, err)
	assert.Equal(t, int64(0), marked)

	// Force the due date into the past.
	past := time.Now().AddDate(0, 0, -1)
	database.DB.Model(&models.Loan{}).Where("id = ?", loan.ID).Update("due_date", past)

	marked, err = MarkOverdueLoans()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	var updated models.Loan
	database.DB.First(&updated, loan.ID)
	assert.Equal(t, models.LoanStatusOverdue, updated.Status)

	// Overdue loans still accept payment.
	_, err = PayLoan(user.ID, loan.ID, 10000)
	assert.NoError(t, err)
}

func TestApplyRequiresApprovedProfile(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupLoanTestDB()
	mr := setupLoanTestRedis()
	defer mr.Close()

	user := seedBorrower(10000, 0)
	database.DB.Model(&models.Profile{}).Where("user_id = ?", user.ID).
		Update("status", models.ProfileStatusPending)

	_, err := ApplyForLoan(user.ID, 50000, "")
	assert.ErrorIs(t, err, ErrProfileNotApproved)
}
