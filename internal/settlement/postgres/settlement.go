package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	settlementDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/settlement"
	transactionDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/transaction"
	settlementpkg "github.com/veedsify/mightyshare-api/internal/settlement"
	walletPostgres "github.com/veedsify/mightyshare-api/internal/wallet/postgres"
)

type SettlementRepository struct {
	db *gorm.DB
}

func NewSettlementRepository(db *gorm.DB) *SettlementRepository {
	return &SettlementRepository{db: db}
}

func (r *SettlementRepository) Create(s *settlementDatamodel.Settlement) error {
	return r.db.Create(s).Error
}

func (r *SettlementRepository) GetByID(id int64) (*settlementDatamodel.Settlement, error) {
	var s settlementDatamodel.Settlement
	err := r.db.First(&s, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SettlementRepository) ListByUser(userID int64) ([]*settlementDatamodel.Settlement, error) {
	var rows []*settlementDatamodel.Settlement
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *SettlementRepository) ListAll(limit, offset int) ([]*settlementDatamodel.Settlement, error) {
	var rows []*settlementDatamodel.Settlement
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, err
}

func (r *SettlementRepository) MarkRejected(id, rejectedBy int64, reason string, at time.Time) error {
	result := r.db.Model(&settlementDatamodel.Settlement{}).
		Where("id = ? AND status = ?", id, settlementpkg.StatusPendingApproval).
		Updates(map[string]interface{}{
			"status":       settlementpkg.StatusRejected,
			"reason":       reason,
			"processed_by": rejectedBy,
			"processed_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GormTransactor scopes the approve sequence to one database transaction.
type GormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

func (t *GormTransactor) WithinTransaction(ctx context.Context, fn func(store settlementpkg.ApprovalStore) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&approvalStore{
			tx:      tx,
			wallets: walletPostgres.NewWalletRepository(tx),
		})
	})
}

type approvalStore struct {
	tx      *gorm.DB
	wallets *walletPostgres.WalletRepository
}

// MarkApproved only moves a pending settlement; zero rows affected means a
// concurrent approve or reject won.
func (s *approvalStore) MarkApproved(id, approvedBy int64, at time.Time) error {
	result := s.tx.Model(&settlementDatamodel.Settlement{}).
		Where("id = ? AND status = ?", id, settlementpkg.StatusPendingApproval).
		Updates(map[string]interface{}{
			"status":       settlementpkg.StatusApproved,
			"processed_by": approvedBy,
			"processed_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (s *approvalStore) DebitBalance(accountID, amount int64) error {
	return s.wallets.DebitBalance(accountID, amount)
}

func (s *approvalStore) RecordTransaction(t *transactionDatamodel.Transaction) error {
	return s.wallets.CreateTransaction(t)
}
