package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypePaymentSettled     = "payment.settled"
	EventTypeRegistrationPaid   = "registration.paid"
	EventTypeSettlementApproved = "settlement.approved"
)

type PaymentSettledEvent struct {
	BaseEvent
	PaymentID      int64  `json:"payment_id"`
	UserID         int64  `json:"user_id"`
	OrderID        string `json:"order_id"`
	VerifiedAmount int64  `json:"verified_amount"`
	CreditedAmount int64  `json:"credited_amount"`
	FeeDeducted    int64  `json:"fee_deducted"`
}

func NewPaymentSettledEvent(paymentID, userID int64, orderID string, verifiedAmount, creditedAmount, feeDeducted int64) *PaymentSettledEvent {
	return &PaymentSettledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypePaymentSettled,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":      paymentID,
				"user_id":         userID,
				"order_id":        orderID,
				"verified_amount": verifiedAmount,
				"credited_amount": creditedAmount,
				"fee_deducted":    feeDeducted,
			},
		},
		PaymentID:      paymentID,
		UserID:         userID,
		OrderID:        orderID,
		VerifiedAmount: verifiedAmount,
		CreditedAmount: creditedAmount,
		FeeDeducted:    feeDeducted,
	}
}

// RegistrationPaidEvent fires once per user, when the one-time registration
// fee is deducted from their first sufficient payment.
type RegistrationPaidEvent struct {
	BaseEvent
	UserID  int64 `json:"user_id"`
	FeePaid int64 `json:"fee_paid"`
}

func NewRegistrationPaidEvent(userID, feePaid int64) *RegistrationPaidEvent {
	return &RegistrationPaidEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeRegistrationPaid,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"user_id":  userID,
				"fee_paid": feePaid,
			},
		},
		UserID:  userID,
		FeePaid: feePaid,
	}
}

type SettlementApprovedEvent struct {
	BaseEvent
	SettlementID int64 `json:"settlement_id"`
	UserID       int64 `json:"user_id"`
	Amount       int64 `json:"amount"`
	ApprovedBy   int64 `json:"approved_by"`
}

func NewSettlementApprovedEvent(settlementID, userID, amount, approvedBy int64) *SettlementApprovedEvent {
	return &SettlementApprovedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeSettlementApproved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"settlement_id": settlementID,
				"user_id":       userID,
				"amount":        amount,
				"approved_by":   approvedBy,
			},
		},
		SettlementID: settlementID,
		UserID:       userID,
		Amount:       amount,
		ApprovedBy:   approvedBy,
	}
}
