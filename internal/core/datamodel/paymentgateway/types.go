package paymentgateway

import (
	"encoding/json"
	"fmt"
)

// TxStatus is the normalized provider transaction state. Anything the
// provider reports outside the known set maps to TxStatusUnknown rather
// than being guessed at.
type TxStatus string

const (
	TxStatusCompleted TxStatus = "completed"
	TxStatusPending   TxStatus = "pending"
	TxStatusFailed    TxStatus = "failed"
	TxStatusUnknown   TxStatus = "unknown"
)

// NormalizeStatus maps raw provider status strings onto TxStatus. The
// transactions endpoint reports "completed", the checkout-verify endpoint
// reports "success" for the same terminal state.
func NormalizeStatus(raw string) TxStatus {
	switch raw {
	case "completed", "success", "successful":
		return TxStatusCompleted
	case "pending", "processing":
		return TxStatusPending
	case "failed", "declined", "abandoned":
		return TxStatusFailed
	default:
		return TxStatusUnknown
	}
}

type Customer struct {
	Email     string            `json:"email"`
	Phone     string            `json:"phone"`
	FirstName string            `json:"firstName"`
	LastName  string            `json:"lastName"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type VirtualAccountRequest struct {
	BusinessID  string   `json:"businessId"`
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency"`
	OrderID     string   `json:"orderId"`
	Description string   `json:"description"`
	Customer    Customer `json:"customer"`
}

// VirtualAccount is the provider-issued collection account tagged with the
// order id; funds paid into it settle into the platform's pooled account.
type VirtualAccount struct {
	AccountNumber string          `json:"accountNumber"`
	AccountName   string          `json:"accountName"`
	BankName      string          `json:"bankName"`
	OrderID       string          `json:"orderId"`
	Reference     string          `json:"reference"`
	Raw           json.RawMessage `json:"-"`
}

type GatewayTransaction struct {
	TransactionID string          `json:"transactionId"`
	Reference     string          `json:"reference"`
	Status        TxStatus        `json:"status"`
	Amount        int64           `json:"amount"`
	UpdatedAt     string          `json:"updatedAt"`
	Description   string          `json:"description"`
	Raw           json.RawMessage `json:"-"`
}

// GatewayError carries the provider's failure verdict: non-2xx responses,
// {status:false} payloads and transport failures all end up here.
type GatewayError struct {
	Reason     string
	StatusCode int
	RawBody    []byte
}

func (e *GatewayError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gateway error (HTTP %d): %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("gateway error: %s", e.Reason)
}

// envelope is the provider's common response wrapper.
type Envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}
