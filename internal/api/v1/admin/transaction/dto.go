package transaction

import (
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
)

type TransactionListItem struct {
	ID            uint                     `json:"id"`
	CreatedAt     time.Time                `json:"created_at"`
	UserID        uint                     `json:"user_id"`
	Type          models.TransactionType   `json:"type"`
	Amount        int64                    `json:"amount"`
	BalanceBefore *int64                   `json:"balance_before,omitempty"`
	BalanceAfter  *int64                   `json:"balance_after,omitempty"`
	Status        models.TransactionStatus `json:"status"`
	Description   string                   `json:"description"`
	InvoiceID     string                   `json:"invoice_id,omitempty"`
	Hash          string                   `json:"hash"`
}

type TransactionListResponse struct {
	Transactions []TransactionListItem `json:"transactions"`
	Total        int64                 `json:"total"`
	Page         int                   `json:"page"`
	Limit        int                   `json:"limit"`
}
