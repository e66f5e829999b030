package wallet

import (
	"errors"
	"time"

	accountDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/account"
	transactionDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/transaction"
)

// TxType is a closed set: a ledger row either credits or debits an account.
type TxType string

const (
	TxTypeCredit TxType = "CREDIT"
	TxTypeDebit  TxType = "DEBIT"
)

type TxStatus string

const (
	TxStatusSuccessful TxStatus = "SUCCESSFUL"
	TxStatusFailed     TxStatus = "FAILED"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrDuplicateReference  = errors.New("transaction reference already recorded")
	ErrNegativeAmount      = errors.New("amount must not be negative")
)

type Account struct {
	ID                 int64     `json:"id"`
	UserID             int64     `json:"user_id"`
	AccountNumber      string    `json:"account_number"`
	Balance            int64     `json:"balance"`
	TotalContributions int64     `json:"total_contributions"`
	Rewards            int64     `json:"rewards"`
	TotalDebt          int64     `json:"total_debt"`
	ReferralEarnings   int64     `json:"referral_earnings"`
	CreatedAt          time.Time `json:"created_at"`
}

type Transaction struct {
	ID                int64     `json:"id"`
	AccountID         int64     `json:"account_id"`
	Amount            int64     `json:"amount"`
	Reference         string    `json:"reference"`
	Status            TxStatus  `json:"status"`
	Type              TxType    `json:"type"`
	PaymentMethod     string    `json:"payment_method,omitempty"`
	ProviderReference string    `json:"provider_reference,omitempty"`
	Description       string    `json:"description,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

func AccountFromDataModel(a *accountDatamodel.Account) *Account {
	return &Account{
		ID:                 a.ID,
		UserID:             a.UserID,
		AccountNumber:      a.AccountNumber,
		Balance:            a.Balance,
		TotalContributions: a.TotalContributions,
		Rewards:            a.Rewards,
		TotalDebt:          a.TotalDebt,
		ReferralEarnings:   a.ReferralEarnings,
		CreatedAt:          a.CreatedAt,
	}
}

func TransactionFromDataModel(t *transactionDatamodel.Transaction) *Transaction {
	return &Transaction{
		ID:                t.ID,
		AccountID:         t.AccountID,
		Amount:            t.Amount,
		Reference:         t.Reference,
		Status:            TxStatus(t.Status),
		Type:              TxType(t.TxType),
		PaymentMethod:     t.PaymentMethod,
		ProviderReference: t.ProviderReference,
		Description:       t.Description,
		CreatedAt:         t.CreatedAt,
	}
}

func TransactionsFromDataModel(ts []*transactionDatamodel.Transaction) []*Transaction {
	result := make([]*Transaction, len(ts))
	for i, t := range ts {
		result[i] = TransactionFromDataModel(t)
	}
	return result
}
