package postgres

import (
	"errors"
	"strings"

	accountDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/account"
	transactionDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/transaction"
	"github.com/veedsify/mightyshare-api/internal/wallet"
	"gorm.io/gorm"
)

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{
		db: db,
	}
}

// WithTx returns a repository bound to the given transaction so balance
// mutations can join a larger unit of work.
func (r *WalletRepository) WithTx(tx *gorm.DB) *WalletRepository {
	return &WalletRepository{db: tx}
}

func (r *WalletRepository) CreateAccount(a *accountDatamodel.Account) error {
	return r.db.Create(a).Error
}

func (r *WalletRepository) FirstAccountOf(userID int64) (*accountDatamodel.Account, error) {
	var a accountDatamodel.Account
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC, id ASC").First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *WalletRepository) GetAccountByNumber(number string) (*accountDatamodel.Account, error) {
	var a accountDatamodel.Account
	err := r.db.Where("account_number = ?", number).First(&a).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, wallet.ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

// CreditBalance is a single atomic increment; concurrent callers crediting
// the same account serialize at the row, not in application code.
func (r *WalletRepository) CreditBalance(accountID int64, amount int64) error {
	if amount < 0 {
		return wallet.ErrNegativeAmount
	}

	result := r.db.Model(&accountDatamodel.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance + ?", amount),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return wallet.ErrAccountNotFound
	}
	return nil
}

// CreditContribution credits the balance and bumps the lifetime
// contribution counter in the same statement.
func (r *WalletRepository) CreditContribution(accountID int64, amount int64) error {
	if amount < 0 {
		return wallet.ErrNegativeAmount
	}

	result := r.db.Model(&accountDatamodel.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"balance":             gorm.Expr("balance + ?", amount),
			"total_contributions": gorm.Expr("total_contributions + ?", amount),
			"updated_at":          gorm.Expr("CURRENT_TIMESTAMP"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return wallet.ErrAccountNotFound
	}
	return nil
}

// DebitBalance deducts only when the balance covers the amount; a zero
// rows-affected result distinguishes a short balance from a missing row.
func (r *WalletRepository) DebitBalance(accountID int64, amount int64) error {
	if amount < 0 {
		return wallet.ErrNegativeAmount
	}

	result := r.db.Model(&accountDatamodel.Account{}).
		Where("id = ? AND balance >= ?", accountID, amount).
		Updates(map[string]interface{}{
			"balance":    gorm.Expr("balance - ?", amount),
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var a accountDatamodel.Account
		if err := r.db.First(&a, accountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return wallet.ErrAccountNotFound
			}
			return err
		}
		return wallet.ErrInsufficientBalance
	}
	return nil
}

func (r *WalletRepository) CreditReferralEarnings(accountID int64, amount int64) error {
	if amount < 0 {
		return wallet.ErrNegativeAmount
	}

	result := r.db.Model(&accountDatamodel.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"referral_earnings": gorm.Expr("referral_earnings + ?", amount),
			"updated_at":        gorm.Expr("CURRENT_TIMESTAMP"),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return wallet.ErrAccountNotFound
	}
	return nil
}

func (r *WalletRepository) CreateTransaction(t *transactionDatamodel.Transaction) error {
	err := r.db.Create(t).Error
	if err != nil && isUniqueViolation(err) {
		return wallet.ErrDuplicateReference
	}
	return err
}

func (r *WalletRepository) TransactionsByAccount(accountID int64, limit int) ([]*transactionDatamodel.Transaction, error) {
	var txs []*transactionDatamodel.Transaction
	err := r.db.Where("account_id = ?", accountID).
		Order("created_at DESC").
		Limit(limit).
		Find(&txs).Error
	return txs, err
}

// isUniqueViolation matches both the postgres and sqlite phrasings so the
// repository behaves the same under the test driver.
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
