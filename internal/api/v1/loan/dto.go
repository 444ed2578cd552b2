package loan

import (
	"time"

	"github.com/AmarboldBazarsuren/mzeel-backend/internal/models"
)

type ApplyInput struct {
	RequestedAmount int64  `json:"requested_amount" binding:"required,gt=0"`
	Purpose         string `json:"purpose"`
}

type DisbursementInput struct {
	Amount   int64 `json:"amount" binding:"required,gt=0"`
	TermDays int   `json:"term_days" binding:"required,oneof=14 30 90"`
}

type PaymentInput struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

type LoanResponse struct {
	ID              uint       `json:"id"`
	LoanNumber      string     `json:"loan_number"`
	RequestedAmount int64      `json:"requested_amount"`
	ApprovedAmount  int64      `json:"approved_amount"`
	DisbursedAmount int64      `json:"disbursed_amount"`
	TermDays        int        `json:"term_days"`
	InterestRate    float64    `json:"interest_rate"`
	InterestAmount  int64      `json:"interest_amount"`
	TotalAmount     int64      `json:"total_amount"`
	PaidAmount      int64      `json:"paid_amount"`
	RemainingAmount int64      `json:"remaining_amount"`
	Status          string     `json:"status"`
	VerificationFee int64      `json:"verification_fee"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	DisbursedAt     *time.Time `json:"disbursed_at,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
	ExtensionCount  int        `json:"extension_count"`
	Purpose         string     `json:"purpose,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type LoanListResponse struct {
	Loans []LoanResponse `json:"loans"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type TermOption struct {
	TermDays     int     `json:"term_days"`
	InterestRate float64 `json:"interest_rate"`
	Extendable   bool    `json:"extendable"`
}

func toResponse(l *models.Loan) LoanResponse {
	return LoanResponse{
		ID:              l.ID,
		LoanNumber:      l.LoanNumber,
		RequestedAmount: l.RequestedAmount,
		ApprovedAmount:  l.ApprovedAmount,
		DisbursedAmount: l.DisbursedAmount,
		TermDays:        l.TermDays,
		InterestRate:    l.InterestRate,
		InterestAmount:  l.InterestAmount,
		TotalAmount:     l.TotalAmount,
		PaidAmount:      l.PaidAmount,
		RemainingAmount: l.RemainingAmount,
		Status:          string(l.Status),
		VerificationFee: l.VerificationFee,
		DueDate:         l.DueDate,
		DisbursedAt:     l.DisbursedAt,
		PaidAt:          l.PaidAt,
		ExtensionCount:  l.ExtensionCount,
		Purpose:         l.Purpose,
		RejectionReason: l.RejectionReason,
		CreatedAt:       l.CreatedAt,
	}
}
