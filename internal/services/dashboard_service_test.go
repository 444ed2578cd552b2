package services

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetDashboardStats(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupWalletTestDB()
	mr := setupWalletTestRedis()
	defer mr.Close()

	gw := newFakeGateway()
	Gateway = gw

	user := seedBorrower(20000, 0)
	admin := seedAdmin()

	// One settled deposit today.
	transaction, err := CreateDeposit(user.ID, 25000)
	assert.NoError(t, err)
	gw.paid[transaction.InvoiceID] = true
	_, _, err = ConfirmDeposit(transaction.ID)
	assert.NoError(t, err)

	// One loan mid-flight; applying collects the verification fee.
	loan, err := ApplyForLoan(user.ID, 100000, "")
	assert.NoError(t, err)
	_, err = StartReview(loan.ID, admin.ID)
	assert.NoError(t, err)

	// One pending withdrawal.
	_, err = RequestWithdrawal(user.ID, WithdrawalInput{
		Amount: 10000, BankName: "Khan Bank", AccountNumber: "1", AccountName: "B. Bat",
	})
	assert.NoError(t, err)

	stats, err := GetDashboardStats()
	assert.NoError(t, err)

	assert.Equal(t, int64(1), stats.TotalUsers) // admin is not a customer
	assert.Equal(t, int64(1), stats.ApprovedProfiles)
	assert.Equal(t, int64(1), stats.PendingLoans)
	assert.Equal(t, int64(0), stats.OutstandingLoans)
	assert.Equal(t, int64(1), stats.PendingWithdrawals)
	assert.Equal(t, int64(25000), stats.DepositsToday)
	// 20000 seed + 25000 deposit - 3000 fee - 10000 held
	assert.Equal(t, int64(32000), stats.TotalWalletBalance)
}
