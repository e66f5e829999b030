package wallet

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"

	accountDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/account"
	transactionDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/transaction"
)

// RepositoryAPI is the wallet store. CreditBalance and friends must be
// single-statement atomic increments at the database, never a
// read-modify-write in application code.
type RepositoryAPI interface {
	CreateAccount(a *accountDatamodel.Account) error
	FirstAccountOf(userID int64) (*accountDatamodel.Account, error)
	GetAccountByNumber(number string) (*accountDatamodel.Account, error)
	CreditBalance(accountID int64, amount int64) error
	CreditContribution(accountID int64, amount int64) error
	DebitBalance(accountID int64, amount int64) error
	CreditReferralEarnings(accountID int64, amount int64) error
	CreateTransaction(t *transactionDatamodel.Transaction) error
	TransactionsByAccount(accountID int64, limit int) ([]*transactionDatamodel.Transaction, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

const accountNumberLength = 10

// GenerateAccountNumber produces a 10-digit NUBAN-style number. Uniqueness
// is enforced by the accounts.account_number constraint; collisions retry.
func GenerateAccountNumber() (string, error) {
	max := big.NewInt(0).Exp(big.NewInt(10), big.NewInt(accountNumberLength), nil)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", fmt.Errorf("generate account number: %w", err)
	}
	return fmt.Sprintf("%0*d", accountNumberLength, n), nil
}

// OpenAccount creates the user's wallet at registration time. Accounts are
// never created by the payment flow itself.
func (s *Service) OpenAccount(userID int64) (*Account, error) {
	const maxAttempts = 5

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		number, err := GenerateAccountNumber()
		if err != nil {
			return nil, err
		}

		acct := &accountDatamodel.Account{
			UserID:        userID,
			AccountNumber: number,
		}

		if err := s.repo.CreateAccount(acct); err != nil {
			lastErr = err
			s.logger.Warn("account number collision, retrying",
				"user_id", userID,
				"attempt", attempt+1,
				"error", err)
			continue
		}

		s.logger.Info("wallet account opened",
			"user_id", userID,
			"account_id", acct.ID,
			"account_number", number)
		return AccountFromDataModel(acct), nil
	}

	return nil, fmt.Errorf("failed to open account after %d attempts: %w", maxAttempts, lastErr)
}

func (s *Service) GetWallet(userID int64) (*Account, []*Transaction, error) {
	acct, err := s.repo.FirstAccountOf(userID)
	if err != nil {
		return nil, nil, err
	}
	if acct == nil {
		return nil, nil, ErrAccountNotFound
	}

	txs, err := s.repo.TransactionsByAccount(acct.ID, 50)
	if err != nil {
		s.logger.Error("failed to list transactions", "account_id", acct.ID, "error", err)
		return nil, nil, err
	}

	return AccountFromDataModel(acct), TransactionsFromDataModel(txs), nil
}

func (s *Service) FirstAccountOf(userID int64) (*Account, error) {
	acct, err := s.repo.FirstAccountOf(userID)
	if err != nil {
		return nil, err
	}
	if acct == nil {
		return nil, nil
	}
	return AccountFromDataModel(acct), nil
}
