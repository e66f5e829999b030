package settlement

import (
	errors "github.com/veedsify/mightyshare-api/internal"
	"github.com/veedsify/mightyshare-api/internal/core/common/validation"
)

type RequestSettlementDTO struct {
	Amount      int64  `json:"amount"`
	BankName    string `json:"bank_name"`
	BankAccount string `json:"bank_account"`
}

func (d *RequestSettlementDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("amount", d.Amount).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	validator.Field("bank_name", d.BankName).Required().MaxLength(100)
	validator.Field("bank_account", d.BankAccount).Required().MinLength(10).MaxLength(10)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type RejectSettlementDTO struct {
	Reason string `json:"reason"`
}

func (d *RejectSettlementDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("reason", d.Reason).Required().MaxLength(255)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
