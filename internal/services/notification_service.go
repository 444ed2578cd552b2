package services

import (
	"github.com/AmarboldBazarsuren/mzeel-backend/pkg/logger"

	"go.uber.org/zap"
)

// NotificationEvent identifies what happened to the user's account.
type NotificationEvent string

const (
	EventDepositCompleted    NotificationEvent = "deposit.completed"
	EventProfileApproved     NotificationEvent = "profile.approved"
	EventProfileRejected     NotificationEvent = "profile.rejected"
	EventLoanApproved        NotificationEvent = "loan.approved"
	EventLoanRejected        NotificationEvent = "loan.rejected"
	EventLoanDisbursed       NotificationEvent = "loan.disbursed"
	EventLoanPaid            NotificationEvent = "loan.paid"
	EventLoanOverdue         NotificationEvent = "loan.overdue"
	EventWithdrawalCompleted NotificationEvent = "withdrawal.completed"
	EventWithdrawalRejected  NotificationEvent = "withdrawal.rejected"
)

// Notify records a user-facing event. Delivery is fire-and-forget: today it
// goes to the structured log, where an SMS or push pipeline can pick it up.
// TODO: wire to the SMS provider once the merchant account is provisioned.
func Notify(userID uint, event NotificationEvent, payload map[string]interface{}) {
	logger.Log.Info("notification",
		zap.Uint("user_id", userID),
		zap.String("event", string(event)),
		zap.Any("payload", payload))
}
