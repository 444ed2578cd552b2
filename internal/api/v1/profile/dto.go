package profile

import (
	"encoding/json"
	"time"
)

type SubmitInput struct {
	RegisterNumber    string          `json:"register_number" binding:"required"`
	DateOfBirth       string          `json:"date_of_birth" binding:"required"`
	Gender            string          `json:"gender" binding:"required,oneof=male female other"`
	Address           json.RawMessage `json:"address" binding:"required"`
	EmergencyContact  json.RawMessage `json:"emergency_contact" binding:"required"`
	Education         json.RawMessage `json:"education"`
	Employment        json.RawMessage `json:"employment"`
	BankName          string          `json:"bank_name" binding:"required"`
	BankAccountNumber string          `json:"bank_account_number" binding:"required"`
	BankAccountName   string          `json:"bank_account_name" binding:"required"`
}

type ProfileResponse struct {
	ID                 uint            `json:"id"`
	UserID             uint            `json:"user_id"`
	RegisterNumber     string          `json:"register_number"`
	DateOfBirth        string          `json:"date_of_birth"`
	Gender             string          `json:"gender"`
	Address            json.RawMessage `json:"address,omitempty"`
	EmergencyContact   json.RawMessage `json:"emergency_contact,omitempty"`
	Education          json.RawMessage `json:"education,omitempty"`
	Employment         json.RawMessage `json:"employment,omitempty"`
	BankName           string          `json:"bank_name"`
	BankAccountNumber  string          `json:"bank_account_number"`
	BankAccountName    string          `json:"bank_account_name"`
	Status             string          `json:"status"`
	RejectionReason    string          `json:"rejection_reason,omitempty"`
	AvailableLoanLimit int64           `json:"available_loan_limit"`
	VerifiedAt         *time.Time      `json:"verified_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
}
