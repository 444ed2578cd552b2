package models

import (
	"time"

	"gorm.io/datatypes"
)

type ProfileStatus string

const (
	ProfileStatusPending  ProfileStatus = "pending"
	ProfileStatusApproved ProfileStatus = "approved"
	ProfileStatusRejected ProfileStatus = "rejected"
)

// Profile carries the KYC record for one user and the loan limit an admin
// has granted. AvailableLoanLimit is mutated only by the loan engine.
type Profile struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint `gorm:"uniqueIndex;not null"`

	RegisterNumber string `gorm:"uniqueIndex;not null"`
	DateOfBirth    string `gorm:"type:varchar(10);not null"`
	Gender         string `gorm:"type:varchar(10)"`

	// KYC sub-documents kept as JSON, mirroring the application form.
	Address          datatypes.JSON `gorm:"type:jsonb"`
	EmergencyContact datatypes.JSON `gorm:"type:jsonb"`
	Education        datatypes.JSON `gorm:"type:jsonb"`
	Employment       datatypes.JSON `gorm:"type:jsonb"`

	// Payout destination, prefilled into withdrawal requests.
	BankName          string `gorm:"not null"`
	BankAccountNumber string `gorm:"not null"`
	BankAccountName   string `gorm:"not null"`

	Status          ProfileStatus `gorm:"type:varchar(20);index;not null;default:'pending'"`
	VerifiedAt      *time.Time
	VerifiedBy      *uint
	RejectionReason string

	// Invariant: never negative.
	AvailableLoanLimit int64 `gorm:"not null;default:0"`

	Version int `gorm:"default:1"`
}
