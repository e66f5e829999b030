package settlement

import (
	"time"

	settlementDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/settlement"
)

const (
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

type Settlement struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	AccountID   int64      `json:"account_id"`
	Amount      int64      `json:"amount"`
	BankName    string     `json:"bank_name"`
	BankAccount string     `json:"bank_account"`
	Status      string     `json:"status"`
	Reason      *string    `json:"reason,omitempty"`
	ProcessedBy *int64     `json:"processed_by,omitempty"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (s *Settlement) CanBeProcessed() bool {
	return s.Status == StatusPendingApproval
}

func FromDataModel(s *settlementDatamodel.Settlement) *Settlement {
	if s == nil {
		return nil
	}
	return &Settlement{
		ID:          s.ID,
		UserID:      s.UserID,
		AccountID:   s.AccountID,
		Amount:      s.Amount,
		BankName:    s.BankName,
		BankAccount: s.BankAccount,
		Status:      s.Status,
		Reason:      s.Reason,
		ProcessedBy: s.ProcessedBy,
		ProcessedAt: s.ProcessedAt,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*settlementDatamodel.Settlement) []*Settlement {
	result := make([]*Settlement, len(rows))
	for i, row := range rows {
		result[i] = FromDataModel(row)
	}
	return result
}
