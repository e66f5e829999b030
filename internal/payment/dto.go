package payment

import (
	errors "github.com/veedsify/mightyshare-api/internal"
	"github.com/veedsify/mightyshare-api/internal/core/common/validation"
	gatewayDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/paymentgateway"
)

// InitiatePaymentDTO is the request body for minting a virtual account.
type InitiatePaymentDTO struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
}

func (d *InitiatePaymentDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("amount", d.Amount).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	validator.Field("email", d.Email).Required().Email()
	validator.Field("phone", d.Phone).Required().Phone()
	validator.Field("first_name", d.FirstName).Required().MaxLength(100)
	validator.Field("last_name", d.LastName).Required().MaxLength(100)
	validator.Field("description", d.Description).MaxLength(255)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// InitiatePaymentResponse carries the virtual account the customer pays
// into, tagged with the order id used for reconciliation.
type InitiatePaymentResponse struct {
	OrderID        string                          `json:"order_id"`
	Amount         int64                           `json:"amount"`
	Currency       string                          `json:"currency"`
	Status         PaymentStatus                   `json:"status"`
	VirtualAccount *gatewayDatamodel.VirtualAccount `json:"virtual_account"`
}

// CallbackDTO is the provider webhook payload. The customer phone number is
// how the webhook resolves which user to credit.
type CallbackDTO struct {
	TransactionID string           `json:"transaction_id"`
	Reference     string           `json:"reference"`
	OrderID       string           `json:"order_id"`
	Amount        int64            `json:"amount_paid"`
	Status        string           `json:"transaction_status"`
	Customer      CallbackCustomer `json:"customer"`
}

type CallbackCustomer struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
	Name  string `json:"name"`
}

func (d *CallbackDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("transaction_status", d.Status).Required()
	validator.Field("amount_paid", d.Amount).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	validator.Field("customer.phone", d.Customer.Phone).Required()

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// CallbackAccount is the wallet snapshot echoed back to the provider.
type CallbackAccount struct {
	AccountNumber      string `json:"account_number"`
	Balance            int64  `json:"balance"`
	TotalContributions int64  `json:"total_contributions"`
	Rewards            int64  `json:"rewards"`
	ReferralEarnings   int64  `json:"referral_earnings"`
}

type CallbackUser struct {
	ID               int64             `json:"id"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	RegistrationPaid bool              `json:"registration_paid"`
	Accounts         []CallbackAccount `json:"accounts"`
}

type CallbackResponse struct {
	Success bool         `json:"success"`
	User    CallbackUser `json:"user"`
}
