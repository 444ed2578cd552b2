package wallet_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/wallet"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/payment"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.Migrator().DropTable(&models.User{}, &models.Wallet{}, &models.Transaction{})
	if err := db.AutoMigrate(&models.User{}, &models.Wallet{}, &models.Transaction{}); err != nil {
		panic("failed to migrate database")
	}

	database.DB = db
}

func setupTestRedis() *miniredis.Miniredis {
	mr, err := miniredis.Run()
	if err != nil {
		panic(err)
	}
	database.RedisClient = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return mr
}

// stubGateway records check calls so tests can assert the gateway was
// never consulted.
type stubGateway struct {
	checkCalls int
}

func (s *stubGateway) CreateInvoice(amount int64, userID uint, description string) (*payment.Invoice, error) {
	return &payment.Invoice{InvoiceID: fmt.Sprintf("INV-%d", userID), QRText: "qr"}, nil
}

func (s *stubGateway) CheckPayment(invoiceID string) (bool, error) {
	s.checkCalls++
	return true, nil
}

func seedUserWithWallet(phone string, balance int64) models.User {
	user := models.User{
		Phone:    phone,
		Email:    phone + "@test.mn",
		Password: "hashed",
		Role:     models.RoleCustomer,
		IsActive: true,
		Version:  1,
	}
	database.DB.Create(&user)
	database.DB.Create(&models.Wallet{
		UserID:   user.ID,
		Balance:  balance,
		Currency: "MNT",
		IsActive: true,
		Version:  1,
	})
	return user
}

// routerAs builds the wallet routes behind a stub auth layer acting as
// the given user.
func routerAs(user models.User) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/api/v1")
	group.Use(func(c *gin.Context) {
		c.Set("user", user)
		c.Set("user_id", user.ID)
	})
	wallet.RegisterRoutes(group)
	return r
}

func TestCheckDepositOwnership(t *testing.T) {
	setupTestDB()
	mr := setupTestRedis()
	defer mr.Close()

	gw := &stubGateway{}
	services.Gateway = gw

	owner := seedUserWithWallet("99110001", 0)
	intruder := seedUserWithWallet("99110002", 0)

	deposit, err := services.CreateDeposit(owner.ID, 25000)
	assert.NoError(t, err)
	assert.Equal(t, models.TransactionStatusPending, deposit.Status)

	// Another user probing the deposit gets a 404 and must not trigger
	// settlement.
	r := routerAs(intruder)
	req := httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/wallet/deposit/%d/check", deposit.ID), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 0, gw.checkCalls)

	var stored models.Transaction
	database.DB.First(&stored, deposit.ID)
	assert.Equal(t, models.TransactionStatusPending, stored.Status)

	var ownerWallet models.Wallet
	database.DB.Where("user_id = ?", owner.ID).First(&ownerWallet)
	assert.Equal(t, int64(0), ownerWallet.Balance)

	// The owner's own check settles it.
	r = routerAs(owner)
	req = httptest.NewRequest(http.MethodPost,
		fmt.Sprintf("/api/v1/wallet/deposit/%d/check", deposit.ID), nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, gw.checkCalls)

	database.DB.First(&stored, deposit.ID)
	assert.Equal(t, models.TransactionStatusCompleted, stored.Status)

	database.DB.Where("user_id = ?", owner.ID).First(&ownerWallet)
	assert.Equal(t, int64(25000), ownerWallet.Balance)
}
