package settlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/veedsify/mightyshare-api/internal"
	settlementDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/settlement"
	transactionDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/transaction"
	"github.com/veedsify/mightyshare-api/internal/core/events"
	"github.com/veedsify/mightyshare-api/internal/wallet"
)

type RepositoryAPI interface {
	Create(s *settlementDatamodel.Settlement) error
	GetByID(id int64) (*settlementDatamodel.Settlement, error)
	ListByUser(userID int64) ([]*settlementDatamodel.Settlement, error)
	ListAll(limit, offset int) ([]*settlementDatamodel.Settlement, error)
	MarkRejected(id, rejectedBy int64, reason string, at time.Time) error
}

// ApprovalStore is the transaction-scoped store for the approve sequence:
// settlement transition, balance debit and ledger row share one database
// transaction.
type ApprovalStore interface {
	MarkApproved(id, approvedBy int64, at time.Time) error
	DebitBalance(accountID, amount int64) error
	RecordTransaction(t *transactionDatamodel.Transaction) error
}

type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(store ApprovalStore) error) error
}

type WalletAPI interface {
	FirstAccountOf(userID int64) (*wallet.Account, error)
}

type Service struct {
	repo       RepositoryAPI
	transactor Transactor
	wallets    WalletAPI
	eventBus   *events.EventBus
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, transactor Transactor, wallets WalletAPI, eventBus *events.EventBus, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		transactor: transactor,
		wallets:    wallets,
		eventBus:   eventBus,
		logger:     logger,
	}
}

// RequestSettlement opens a payout request against the user's wallet. The
// balance is only checked here; the authoritative guard is the debit at
// approval time.
func (s *Service) RequestSettlement(userID int64, dto *RequestSettlementDTO) (*Settlement, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	account, err := s.wallets.FirstAccountOf(userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load wallet account", err)
	}
	if account == nil {
		return nil, apperrors.ErrAccountNotFound
	}

	if dto.Amount > account.Balance {
		return nil, apperrors.NewBusinessError("settlement amount exceeds wallet balance", apperrors.ErrCodeInsufficientBalance)
	}

	record := &settlementDatamodel.Settlement{
		UserID:      userID,
		AccountID:   account.ID,
		Amount:      dto.Amount,
		BankName:    dto.BankName,
		BankAccount: dto.BankAccount,
		Status:      StatusPendingApproval,
	}

	if err := s.repo.Create(record); err != nil {
		s.logger.Error("failed to create settlement", "error", err, "user_id", userID)
		return nil, apperrors.NewInternalError("failed to create settlement", err)
	}

	s.logger.Info("settlement requested",
		"settlement_id", record.ID,
		"user_id", userID,
		"amount", dto.Amount)

	return FromDataModel(record), nil
}

func (s *Service) ListForUser(userID int64) ([]*Settlement, error) {
	rows, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list settlements", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) ListAll(limit, offset int) ([]*Settlement, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.repo.ListAll(limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list settlements", err)
	}
	return FromDataModelSlice(rows), nil
}

// Approve debits the wallet and records the payout in one transaction. A
// settlement that is no longer pending cannot be approved again.
func (s *Service) Approve(ctx context.Context, settlementID, approverID int64) (*Settlement, error) {
	record, err := s.repo.GetByID(settlementID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load settlement", err)
	}
	if record == nil {
		return nil, apperrors.NewNotFoundError("settlement not found", apperrors.ErrCodeSettlementClosed)
	}
	if record.Status != StatusPendingApproval {
		return nil, apperrors.NewBusinessError("settlement has already been processed", apperrors.ErrCodeSettlementClosed)
	}

	now := time.Now().UTC()
	err = s.transactor.WithinTransaction(ctx, func(store ApprovalStore) error {
		if err := store.MarkApproved(record.ID, approverID, now); err != nil {
			return err
		}
		if err := store.DebitBalance(record.AccountID, record.Amount); err != nil {
			return err
		}
		return store.RecordTransaction(&transactionDatamodel.Transaction{
			AccountID:     record.AccountID,
			Amount:        record.Amount,
			Reference:     fmt.Sprintf("STL-%d", record.ID),
			Status:        string(wallet.TxStatusSuccessful),
			TxType:        string(wallet.TxTypeDebit),
			PaymentMethod: "bank_transfer",
			Description:   fmt.Sprintf("settlement to %s %s", record.BankName, record.BankAccount),
		})
	})
	if err != nil {
		if err == wallet.ErrInsufficientBalance {
			return nil, apperrors.NewBusinessError("wallet balance no longer covers the settlement", apperrors.ErrCodeInsufficientBalance)
		}
		s.logger.Error("settlement approval failed", "error", err, "settlement_id", settlementID)
		return nil, apperrors.NewInternalError("failed to approve settlement", err)
	}

	s.logger.Info("settlement approved",
		"settlement_id", record.ID,
		"user_id", record.UserID,
		"amount", record.Amount,
		"approved_by", approverID)

	s.eventBus.Publish(ctx, events.NewSettlementApprovedEvent(record.ID, record.UserID, record.Amount, approverID))

	record.Status = StatusApproved
	record.ProcessedBy = &approverID
	record.ProcessedAt = &now
	return FromDataModel(record), nil
}

// Reject closes the settlement with a reason. Nothing is debited.
func (s *Service) Reject(settlementID, rejectedBy int64, dto *RejectSettlementDTO) (*Settlement, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	record, err := s.repo.GetByID(settlementID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load settlement", err)
	}
	if record == nil {
		return nil, apperrors.NewNotFoundError("settlement not found", apperrors.ErrCodeSettlementClosed)
	}
	if record.Status != StatusPendingApproval {
		return nil, apperrors.NewBusinessError("settlement has already been processed", apperrors.ErrCodeSettlementClosed)
	}

	now := time.Now().UTC()
	if err := s.repo.MarkRejected(record.ID, rejectedBy, dto.Reason, now); err != nil {
		s.logger.Error("settlement rejection failed", "error", err, "settlement_id", settlementID)
		return nil, apperrors.NewInternalError("failed to reject settlement", err)
	}

	s.logger.Info("settlement rejected",
		"settlement_id", record.ID,
		"rejected_by", rejectedBy,
		"reason", dto.Reason)

	record.Status = StatusRejected
	record.Reason = &dto.Reason
	record.ProcessedBy = &rejectedBy
	record.ProcessedAt = &now
	return FromDataModel(record), nil
}
