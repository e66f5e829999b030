package payment

import (
	"encoding/json"
	"errors"
	"time"

	paymentDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/payment"
)

// PaymentStatus is the lifecycle state of a payment intent. A payment
// transitions out of PENDING exactly once and is never reopened.
type PaymentStatus string

const (
	StatusPending    PaymentStatus = "PENDING"
	StatusSuccessful PaymentStatus = "SUCCESSFUL"
	StatusFailed     PaymentStatus = "FAILED"
)

func (s PaymentStatus) IsTerminal() bool {
	return s == StatusSuccessful || s == StatusFailed
}

var (
	// ErrAlreadySettled is returned by the conditional status transition
	// when zero rows were affected: another settler got there first.
	ErrAlreadySettled = errors.New("payment already settled")

	// ErrDuplicateOrderID signals an order id unique violation on insert.
	ErrDuplicateOrderID = errors.New("order id already exists")
)

type Payment struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Amount        int64           `json:"amount"`
	Currency      string          `json:"currency"`
	OrderID       string          `json:"order_id"`
	Description   string          `json:"description,omitempty"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone"`
	FirstName     string          `json:"first_name"`
	LastName      string          `json:"last_name"`
	Status        PaymentStatus   `json:"status"`
	Metadata      json.RawMessage `json:"-"`
	VerifiedAt    *time.Time      `json:"verified_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

func FromDataModel(p *paymentDatamodel.Payment) *Payment {
	if p == nil {
		return nil
	}
	return &Payment{
		ID:            p.ID,
		UserID:        p.UserID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		OrderID:       p.OrderID,
		Description:   p.Description,
		CustomerEmail: p.CustomerEmail,
		CustomerPhone: p.CustomerPhone,
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		Status:        PaymentStatus(p.Status),
		Metadata:      p.Metadata,
		VerifiedAt:    p.VerifiedAt,
		CreatedAt:     p.CreatedAt,
	}
}

// SettlementResult is the summary returned by every verify call. Replaying
// a verify on a settled payment returns the stored summary without touching
// the gateway or the wallet.
type SettlementResult struct {
	OrderID        string        `json:"order_id"`
	Status         PaymentStatus `json:"status"`
	Amount         int64         `json:"amount"`
	VerifiedAmount int64         `json:"verified_amount"`
	CreditedAmount int64         `json:"credited_amount"`
	FeeDeducted    int64         `json:"fee_deducted"`
	VerifiedAt     *time.Time    `json:"verified_at,omitempty"`
}

// settlementMetadata is persisted into payments.metadata at settlement so a
// replayed verify can reconstruct the summary from the row alone.
type settlementMetadata struct {
	ProviderTransactionID string `json:"provider_transaction_id,omitempty"`
	ProviderReference     string `json:"provider_reference,omitempty"`
	ProviderStatus        string `json:"provider_status,omitempty"`
	VerifiedAmount        int64  `json:"verified_amount"`
	CreditedAmount        int64  `json:"credited_amount"`
	FeeDeducted           int64  `json:"fee_deducted"`
}

func (m settlementMetadata) marshal() json.RawMessage {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil
	}
	return raw
}

// resultFromRow rebuilds the settlement summary for an already-terminal
// payment. Metadata may be missing for failed payments; the zero values are
// correct there since nothing was credited.
func resultFromRow(p *paymentDatamodel.Payment) *SettlementResult {
	result := &SettlementResult{
		OrderID:    p.OrderID,
		Status:     PaymentStatus(p.Status),
		Amount:     p.Amount,
		VerifiedAt: p.VerifiedAt,
	}
	if len(p.Metadata) > 0 {
		var meta settlementMetadata
		if err := json.Unmarshal(p.Metadata, &meta); err == nil {
			result.VerifiedAmount = meta.VerifiedAmount
			result.CreditedAmount = meta.CreditedAmount
			result.FeeDeducted = meta.FeeDeducted
		}
	}
	return result
}
