package transaction_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/api/v1/admin/transaction"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/database"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
	"github.com/AmarboldBazarsuren/mzeel-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB() {
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		panic("failed to connect database")
	}

	db.Migrator().DropTable(&models.User{}, &models.Transaction{})
	if err := db.AutoMigrate(&models.User{}, &models.Transaction{}); err != nil {
		panic("failed to migrate database")
	}

	db.Exec("DELETE FROM users")
	db.Exec("DELETE FROM transactions")

	database.DB = db
}

func intPtr(v int64) *int64 { return &v }

func seedTransactions() {
	t1 := models.Transaction{
		UserID:        1,
		Type:          models.TransactionTypeDeposit,
		Amount:        25000,
		BalanceBefore: intPtr(0),
		BalanceAfter:  intPtr(25000),
		Status:        models.TransactionStatusCompleted,
		Description:   "Wallet top-up (QPay)",
		CreatedAt:     time.Now().Add(-2 * time.Hour),
		Hash:          "hash1",
	}
	t2 := models.Transaction{
		UserID:        1,
		Type:          models.TransactionTypeVerificationFee,
		Amount:        3000,
		BalanceBefore: intPtr(25000),
		BalanceAfter:  intPtr(22000),
		Status:        models.TransactionStatusCompleted,
		Description:   "Verification fee for loan MZ2026000001",
		CreatedAt:     time.Now().Add(-1 * time.Hour),
		Hash:          "hash2",
	}
	t3 := models.Transaction{
		UserID:        2,
		Type:          models.TransactionTypeLoanDisbursement,
		Amount:        50000,
		BalanceBefore: intPtr(0),
		BalanceAfter:  intPtr(50000),
		Status:        models.TransactionStatusCompleted,
		Description:   "Disbursement of loan MZ2026000002",
		CreatedAt:     time.Now(),
		Hash:          "hash3",
	}
	database.DB.Create(&t1)
	database.DB.Create(&t2)
	database.DB.Create(&t3)
}

func decodeList(t *testing.T, body []byte) transaction.TransactionListResponse {
	var resp utils.Response
	err := json.Unmarshal(body, &resp)
	assert.NoError(t, err)

	data, err := json.Marshal(resp.Data)
	assert.NoError(t, err)

	var list transaction.TransactionListResponse
	err = json.Unmarshal(data, &list)
	assert.NoError(t, err)
	return list
}

func TestListTransactions(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)
	seedTransactions()

	r := gin.New()
	r.GET("/admin/transactions", transaction.ListTransactions)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedCount  int
		expectedTotal  int64
	}{
		{
			name:           "All transactions",
			query:          "",
			expectedStatus: http.StatusOK,
			expectedCount:  3,
			expectedTotal:  3,
		},
		{
			name:           "Filter by user",
			query:          "?user_id=1",
			expectedStatus: http.StatusOK,
			expectedCount:  2,
			expectedTotal:  2,
		},
		{
			name:           "Filter by type",
			query:          "?type=loan_disbursement",
			expectedStatus: http.StatusOK,
			expectedCount:  1,
			expectedTotal:  1,
		},
		{
			name:           "Filter by min amount",
			query:          "?min_amount=20000",
			expectedStatus: http.StatusOK,
			expectedCount:  2,
			expectedTotal:  2,
		},
		{
			name:           "Pagination",
			query:          "?page=1&limit=2",
			expectedStatus: http.StatusOK,
			expectedCount:  2,
			expectedTotal:  3,
		},
		{
			name:           "Invalid page",
			query:          "?page=0",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Invalid user_id",
			query:          "?user_id=abc",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, _ := http.NewRequest(http.MethodGet, "/admin/transactions"+tt.query, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusOK {
				list := decodeList(t, w.Body.Bytes())
				assert.Len(t, list.Transactions, tt.expectedCount)
				assert.Equal(t, tt.expectedTotal, list.Total)
			}
		})
	}
}

func TestListTransactionsOrder(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)
	seedTransactions()

	r := gin.New()
	r.GET("/admin/transactions", transaction.ListTransactions)

	req, _ := http.NewRequest(http.MethodGet, "/admin/transactions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	list := decodeList(t, w.Body.Bytes())
	// Newest first.
	assert.Equal(t, models.TransactionTypeLoanDisbursement, list.Transactions[0].Type)
}

func TestExportTransactions(t *testing.T) {
	setupTestDB()
	gin.SetMode(gin.TestMode)
	seedTransactions()

	r := gin.New()
	r.GET("/admin/transactions/export", transaction.ExportTransactions)

	req, _ := http.NewRequest(http.MethodGet, "/admin/transactions/export", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, w.Body.String(), "Balance Before")
	assert.Contains(t, w.Body.String(), "verification_fee")
}
