package models

import "time"

type LoanStatus string

const (
	LoanStatusPendingVerification LoanStatus = "pending_verification"
	LoanStatusUnderReview         LoanStatus = "under_review"
	LoanStatusApproved            LoanStatus = "approved"
	LoanStatusPendingDisbursement LoanStatus = "pending_disbursement"
	LoanStatusDisbursed           LoanStatus = "disbursed"
	LoanStatusActive              LoanStatus = "active"
	LoanStatusPaid                LoanStatus = "paid"
	LoanStatusOverdue             LoanStatus = "overdue"
	LoanStatusDefaulted           LoanStatus = "defaulted"
	LoanStatusCancelled           LoanStatus = "cancelled"
)

// ActiveLoanStatuses are the non-terminal statuses. A user may hold at most
// one loan in any of these at a time.
var ActiveLoanStatuses = []LoanStatus{
	LoanStatusPendingVerification,
	LoanStatusUnderReview,
	LoanStatusApproved,
	LoanStatusPendingDisbursement,
	LoanStatusDisbursed,
	LoanStatusActive,
	LoanStatusOverdue,
}

// MoneyOwedStatuses are the statuses in which a repayment or extension is
// legal and paidAmount + remainingAmount == totalAmount holds.
var MoneyOwedStatuses = []LoanStatus{
	LoanStatusDisbursed,
	LoanStatusActive,
	LoanStatusOverdue,
}

func (s LoanStatus) IsTerminal() bool {
	switch s {
	case LoanStatusPaid, LoanStatusDefaulted, LoanStatusCancelled:
		return true
	}
	return false
}

type Loan struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UserID    uint `gorm:"index;not null"`

	// Human-readable number, e.g. MZ2026000042. Assigned once at creation,
	// sequential within the calendar year.
	LoanNumber string `gorm:"uniqueIndex;not null"`

	RequestedAmount int64 `gorm:"not null;default:0"`
	ApprovedAmount  int64 `gorm:"not null;default:0"`
	DisbursedAmount int64 `gorm:"not null;default:0"`

	TermDays     int     `gorm:"not null;default:30"`
	InterestRate float64 `gorm:"not null;default:0"`
	// Simple interest on the disbursed principal, already rounded.
	InterestAmount int64 `gorm:"not null;default:0"`

	TotalAmount     int64 `gorm:"not null;default:0"`
	PaidAmount      int64 `gorm:"not null;default:0"`
	RemainingAmount int64 `gorm:"not null;default:0"`

	Status LoanStatus `gorm:"type:varchar(30);index;not null;default:'pending_verification'"`

	VerificationFee    int64 `gorm:"not null;default:0"`
	VerificationPaidAt *time.Time

	ReviewStartedAt *time.Time
	ReviewedBy      *uint
	ApprovedAt      *time.Time
	ApprovedBy      *uint
	DisbursedAt     *time.Time
	DueDate         *time.Time
	PaidAt          *time.Time

	ExtensionCount int `gorm:"not null;default:0"`
	LastExtendedAt *time.Time

	Purpose         string
	AdminNotes      string
	RejectionReason string

	Version int `gorm:"default:1"`
}
