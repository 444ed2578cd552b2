package services

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/payment"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// fakeGateway stands in for QPay in tests.
type fakeGateway struct {
	paid        map[string]bool
	failCreate  bool
	failCheck   bool
	invoiceSeq  int
	checkCalls  int
	createCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{paid: make(map[string]bool)}
}

func (f *fakeGateway) CreateInvoice(amount int64, userID uint, description string) (*payment.Invoice, error) {
	f.createCalls++
	if f.failCreate {
		return nil, errors.New("gateway down")
	}
	f.invoiceSeq++
	id := fmt.Sprintf("INV-%d", f.invoiceSeq)
	return &payment.Invoice{
		InvoiceID: id,
		QRText:    "qr-" + id,
		Deeplink:  "qpay://" + id,
	}, nil
}

func (f *fakeGateway) CheckPayment(invoiceID string) (bool, error) {
	f.checkCalls++
	if f.failCheck {
		return false, errors.New("gateway down")
	}
	return f.paid[invoiceID], nil
}

func setupWalletTestDB() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.Migrator().DropTable(&models.User{}, &models.Wallet{}, &models.Profile{}, &models.Loan{}, &models.Transaction{}, &models.Withdrawal{})
	db.AutoMigrate(&models.User{}, &models.Wallet{}, &models.Profile{}, &models.Loan{}, &models.Transaction{}, &models.Withdrawal{})

	database.DB = db
}

func setupWalletTestRedis() *miniredis.Miniredis {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	database.RedisClient = redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	return mr
}

func TestCreateAndConfirmDeposit(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupWalletTestDB()
	mr := setupWalletTestRedis()
	defer mr.Close()

	gw := newFakeGateway()
	Gateway = gw

	user := seedBorrower(0, 0)

	// Below minimum.
	_, err := CreateDeposit(user.ID, 500)
	assert.ErrorIs(t, err, ErrDepositTooSmall)

	transaction, err := CreateDeposit(user.ID, 25000)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, transaction.Status)
	assert.Equal(t, "INV-1", transaction.InvoiceID)
	assert.NotNil(t, transaction.InvoiceExpireAt)
	assert.NotEmpty(t, transaction.Hash)

	// Unpaid invoice: no credit.
	checked, credited, err := ConfirmDeposit(transaction.ID)
	assert.NoError(t, err)
	assert.False(t, credited)
	assert.Equal(t, models.TransactionStatusPending, checked.Status)

	invalidateWalletCache(user.ID)
	wallet, _ := GetWallet(user.ID)
	assert.Equal(t, int64(0), wallet.Balance)

	// Pay the invoice on the gateway side and confirm.
	gw.paid["INV-1"] = true
	settled, credited, err := ConfirmDeposit(transaction.ID)
	assert.NoError(t, err)
	assert.True(t, credited)
	assert.Equal(t, models.TransactionStatusCompleted, settled.Status)
	assert.NotNil(t, settled.BalanceBefore)
	assert.NotNil(t, settled.BalanceAfter)
	assert.Equal(t, int64(0), *settled.BalanceBefore)
	assert.Equal(t, int64(25000), *settled.BalanceAfter)

	wallet, _ = GetWallet(user.ID)
	assert.Equal(t, int64(25000), wallet.Balance)
	assert.Equal(t, int64(25000), wallet.TotalDeposited)

	// Confirming again is a no-op.
	again, credited, err := ConfirmDeposit(transaction.ID)
	assert.NoError(t, err)
	assert.False(t, credited)
	assert.Equal(t, models.TransactionStatusCompleted, again.Status)

	invalidateWalletCache(user.ID)
	wallet, _ = GetWallet(user.ID)
	assert.Equal(t, int64(25000), wallet.Balance)
}

func TestCreateDepositGatewayFailure(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupWalletTestDB()
	mr := setupWalletTestRedis()
	defer mr.Close()

	gw := newFakeGateway()
	gw.failCreate = true
	Gateway = gw

	user := seedBorrower(0, 0)

	_, err := CreateDeposit(user.ID, 25000)
	assert.ErrorIs(t, err, ErrGatewayUnavailable)

	// No pending transaction was written.
	var count int64
	database.DB.Model(&models.Transaction{}).Where("user_id = ?", user.ID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestExpireDeposit(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupWalletTestDB()
	mr := setupWalletTestRedis()
	defer mr.Close()

	gw := newFakeGateway()
	Gateway = gw

	user := seedBorrower(0, 0)
	transaction, err := CreateDeposit(user.ID, 25000)
	assert.NoError(t, err)

	err = ExpireDeposit(transaction.ID)
	assert.NoError(t, err)

	var expired models.Transaction
	database.DB.First(&expired, transaction.ID)
	assert.Equal(t, models.TransactionStatusFailed, expired.Status)
	assert.Equal(t, "invoice expired", expired.FailedReason)

	// Expiring again is a no-op; a settled deposit cannot be expired.
	assert.NoError(t, ExpireDeposit(transaction.ID))

	invalidateWalletCache(user.ID)
	wallet, _ := GetWallet(user.ID)
	assert.Equal(t, int64(0), wallet.Balance)
}

func TestDebitInsufficientFunds(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupWalletTestDB()
	mr := setupWalletTestRedis()
	defer mr.Close()

	user := seedBorrower(1000, 0)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		wallet, err := lockWalletForUser(tx, user.ID)
		if err != nil {
			return err
		}
		return debitTx(tx, wallet, 2000, bucketSpent)
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	invalidateWalletCache(user.ID)
	wallet, _ := GetWallet(user.ID)
	assert.Equal(t, int64(1000), wallet.Balance)
}

func TestWalletOptimisticLock(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupWalletTestDB()
	mr := setupWalletTestRedis()
	defer mr.Close()

	user := seedBorrower(5000, 0)

	err := database.DB.Transaction(func(tx *gorm.DB) error {
		wallet, err := lockWalletForUser(tx, user.ID)
		if err != nil {
			return err
		}
		// Simulate a concurrent writer bumping the version underneath us.
		tx.Model(&models.Wallet{}).Where("id = ?", wallet.ID).
			Update("version", wallet.Version+1)
		return creditTx(tx, wallet, 1000)
	})
	assert.ErrorIs(t, err, ErrOptimisticLock)
}

func TestWalletCacheInvalidation(t *testing.T) {
	os.Setenv("JWT_SECRET", "test_secret")
	setupWalletTestDB()
	mr := setupWalletTestRedis()
	defer mr.Close()

	gw := newFakeGateway()
	Gateway = gw

	user := seedBorrower(0, 0)

	// Prime the cache.
	wallet, err := GetWallet(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), wallet.Balance)

	transaction, _ := CreateDeposit(user.ID, 25000)
	gw.paid[transaction.InvoiceID] = true
	_, credited, err := ConfirmDeposit(transaction.ID)
	assert.NoError(t, err)
	assert.True(t, credited)

	// Settlement invalidated the cache, so the fresh balance is served.
	wallet, err = GetWallet(user.ID)
	assert.NoError(t, err)
	assert.Equal(t, int64(25000), wallet.Balance)
}
