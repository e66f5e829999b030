package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	paymentDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/payment"
	transactionDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/transaction"
	userDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/user"
	paymentpkg "github.com/veedsify/mightyshare-api/internal/payment"
	walletPostgres "github.com/veedsify/mightyshare-api/internal/wallet/postgres"
)

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(p *paymentDatamodel.Payment) error {
	err := r.db.Create(p).Error
	if err != nil && isUniqueViolation(err) {
		return paymentpkg.ErrDuplicateOrderID
	}
	return err
}

func (r *PaymentRepository) GetByOrderID(orderID string) (*paymentDatamodel.Payment, error) {
	var p paymentDatamodel.Payment
	err := r.db.Where("order_id = ?", orderID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) GetByOrderIDAndUser(orderID string, userID int64) (*paymentDatamodel.Payment, error) {
	var p paymentDatamodel.Payment
	err := r.db.Where("order_id = ? AND user_id = ?", orderID, userID).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) LatestPendingByPhone(phone string) (*paymentDatamodel.Payment, error) {
	var p paymentDatamodel.Payment
	err := r.db.Where("customer_phone = ? AND status = ?", phone, string(paymentpkg.StatusPending)).
		Order("created_at DESC, id DESC").
		First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PaymentRepository) ListStalePending(olderThan time.Time, limit int) ([]*paymentDatamodel.Payment, error) {
	var payments []*paymentDatamodel.Payment
	err := r.db.Where("status = ? AND created_at < ?", string(paymentpkg.StatusPending), olderThan).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// MarkFailed only moves PENDING payments; a terminal payment is left alone.
func (r *PaymentRepository) MarkFailed(paymentID int64, metadata json.RawMessage) error {
	updates := map[string]interface{}{
		"status": string(paymentpkg.StatusFailed),
	}
	if metadata != nil {
		updates["metadata"] = metadata
	}

	result := r.db.Model(&paymentDatamodel.Payment{}).
		Where("id = ? AND status = ?", paymentID, string(paymentpkg.StatusPending)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return paymentpkg.ErrAlreadySettled
	}
	return nil
}

// GormTransactor runs the settlement sequence inside one database
// transaction, handing the callback a store whose every write shares it.
type GormTransactor struct {
	db *gorm.DB
}

func NewGormTransactor(db *gorm.DB) *GormTransactor {
	return &GormTransactor{db: db}
}

func (t *GormTransactor) WithinTransaction(ctx context.Context, fn func(store paymentpkg.SettlementStore) error) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&settlementStore{
			tx:      tx,
			wallets: walletPostgres.NewWalletRepository(tx),
		})
	})
}

type settlementStore struct {
	tx      *gorm.DB
	wallets *walletPostgres.WalletRepository
}

// MarkSuccessful is the conditional transition that closes the
// double-credit race: only a PENDING row moves, and zero rows affected
// means another settler already owns this payment.
func (s *settlementStore) MarkSuccessful(paymentID int64, metadata json.RawMessage, verifiedAt time.Time) error {
	result := s.tx.Model(&paymentDatamodel.Payment{}).
		Where("id = ? AND status = ?", paymentID, string(paymentpkg.StatusPending)).
		Updates(map[string]interface{}{
			"status":      string(paymentpkg.StatusSuccessful),
			"metadata":    metadata,
			"verified_at": verifiedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return paymentpkg.ErrAlreadySettled
	}
	return nil
}

func (s *settlementStore) RecordTransaction(t *transactionDatamodel.Transaction) error {
	return s.wallets.CreateTransaction(t)
}

func (s *settlementStore) CreditBalance(accountID, amount int64) error {
	return s.wallets.CreditBalance(accountID, amount)
}

func (s *settlementStore) CreditContribution(accountID, amount int64) error {
	return s.wallets.CreditContribution(accountID, amount)
}

func (s *settlementStore) MarkRegistrationPaid(userID int64) error {
	result := s.tx.Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Update("registration_paid", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
