package withdrawal

import (
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
)

type RequestInput struct {
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	BankName      string `json:"bank_name" binding:"required"`
	AccountNumber string `json:"account_number" binding:"required"`
	AccountName   string `json:"account_name" binding:"required"`
	Notes         string `json:"notes"`
}

type WithdrawalResponse struct {
	ID            uint       `json:"id"`
	Amount        int64      `json:"amount"`
	BankName      string     `json:"bank_name"`
	AccountNumber string     `json:"account_number"`
	AccountName   string     `json:"account_name"`
	Status        string     `json:"status"`
	Notes         string     `json:"notes,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type WithdrawalListResponse struct {
	Withdrawals []WithdrawalResponse `json:"withdrawals"`
	Total       int64                `json:"total"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
}

func toResponse(w *models.Withdrawal) WithdrawalResponse {
	return WithdrawalResponse{
		ID:            w.ID,
		Amount:        w.Amount,
		BankName:      w.BankName,
		AccountNumber: w.AccountNumber,
		AccountName:   w.AccountName,
		Status:        string(w.Status),
		Notes:         w.Notes,
		FailureReason: w.FailureReason,
		ProcessedAt:   w.ProcessedAt,
		CreatedAt:     w.CreatedAt,
	}
}
