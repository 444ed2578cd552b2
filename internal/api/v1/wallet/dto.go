package wallet

import "time"

type WalletResponse struct {
	ID             uint       `json:"id"`
	Balance        int64      `json:"balance"`
	Currency       string     `json:"currency"`
	TotalDeposited int64      `json:"total_deposited"`
	TotalWithdrawn int64      `json:"total_withdrawn"`
	TotalSpent     int64      `json:"total_spent"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

type DepositInput struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type DepositResponse struct {
	TransactionID   uint       `json:"transaction_id"`
	Amount          int64      `json:"amount"`
	Status          string     `json:"status"`
	InvoiceID       string     `json:"invoice_id"`
	InvoiceQR       string     `json:"invoice_qr"`
	InvoiceDeeplink string     `json:"invoice_deeplink"`
	ExpireAt        *time.Time `json:"expire_at,omitempty"`
}

type TransactionItem struct {
	ID            uint      `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	Type          string    `json:"type"`
	Amount        int64     `json:"amount"`
	BalanceBefore *int64    `json:"balance_before,omitempty"`
	BalanceAfter  *int64    `json:"balance_after,omitempty"`
	Status        string    `json:"status"`
	Description   string    `json:"description"`
}

type HistoryResponse struct {
	Transactions []TransactionItem `json:"transactions"`
	Total        int64             `json:"total"`
	Page         int               `json:"page"`
	Limit        int               `json:"limit"`
}
