package settlement

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	apperrors "github.com/veedsify/mightyshare-api/internal"
	settlementDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/settlement"
	transactionDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/transaction"
	"github.com/veedsify/mightyshare-api/internal/core/events"
	"github.com/veedsify/mightyshare-api/internal/wallet"
)

func TestSettlement(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Settlement Module Suite")
}

type mockSettlementRepository struct {
	settlements map[int64]*settlementDatamodel.Settlement
	nextID      int64
}

func newMockSettlementRepository() *mockSettlementRepository {
	return &mockSettlementRepository{
		settlements: make(map[int64]*settlementDatamodel.Settlement),
		nextID:      1,
	}
}

func (m *mockSettlementRepository) Create(s *settlementDatamodel.Settlement) error {
	s.ID = m.nextID
	m.nextID++
	s.CreatedAt = time.Now()
	m.settlements[s.ID] = s
	return nil
}

func (m *mockSettlementRepository) GetByID(id int64) (*settlementDatamodel.Settlement, error) {
	if s, ok := m.settlements[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, nil
}

func (m *mockSettlementRepository) ListByUser(userID int64) ([]*settlementDatamodel.Settlement, error) {
	var rows []*settlementDatamodel.Settlement
	for _, s := range m.settlements {
		if s.UserID == userID {
			rows = append(rows, s)
		}
	}
	return rows, nil
}

func (m *mockSettlementRepository) ListAll(limit, offset int) ([]*settlementDatamodel.Settlement, error) {
	var rows []*settlementDatamodel.Settlement
	for _, s := range m.settlements {
		rows = append(rows, s)
	}
	if offset >= len(rows) {
		return nil, nil
	}
	rows = rows[offset:]
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (m *mockSettlementRepository) MarkRejected(id, rejectedBy int64, reason string, at time.Time) error {
	s := m.settlements[id]
	s.Status = StatusRejected
	s.Reason = &reason
	s.ProcessedBy = &rejectedBy
	s.ProcessedAt = &at
	return nil
}

type mockApprovalStore struct {
	repo     *mockSettlementRepository
	balances map[int64]int64

	transactions []*transactionDatamodel.Transaction
}

func (m *mockApprovalStore) MarkApproved(id, approvedBy int64, at time.Time) error {
	s := m.repo.settlements[id]
	if s.Status != StatusPendingApproval {
		return apperrors.NewBusinessError("settlement has already been processed", apperrors.ErrCodeSettlementClosed)
	}
	s.Status = StatusApproved
	s.ProcessedBy = &approvedBy
	s.ProcessedAt = &at
	return nil
}

func (m *mockApprovalStore) DebitBalance(accountID, amount int64) error {
	balance, ok := m.balances[accountID]
	if !ok {
		return wallet.ErrAccountNotFound
	}
	if balance < amount {
		return wallet.ErrInsufficientBalance
	}
	m.balances[accountID] = balance - amount
	return nil
}

func (m *mockApprovalStore) RecordTransaction(t *transactionDatamodel.Transaction) error {
	m.transactions = append(m.transactions, t)
	return nil
}

type mockApprovalTransactor struct {
	store *mockApprovalStore
}

func (m *mockApprovalTransactor) WithinTransaction(ctx context.Context, fn func(store ApprovalStore) error) error {
	// snapshot so a failed sequence rolls back like the real transactor
	statuses := make(map[int64]string)
	for id, s := range m.store.repo.settlements {
		statuses[id] = s.Status
	}
	balances := make(map[int64]int64)
	for id, b := range m.store.balances {
		balances[id] = b
	}
	txCount := len(m.store.transactions)

	if err := fn(m.store); err != nil {
		for id, status := range statuses {
			m.store.repo.settlements[id].Status = status
		}
		m.store.balances = balances
		m.store.transactions = m.store.transactions[:txCount]
		return err
	}
	return nil
}

type mockSettlementWallets struct {
	accounts map[int64]*wallet.Account
}

func (m *mockSettlementWallets) FirstAccountOf(userID int64) (*wallet.Account, error) {
	return m.accounts[userID], nil
}

var _ = ginkgo.Describe("Settlement Service", func() {
	var (
		repo    *mockSettlementRepository
		store   *mockApprovalStore
		wallets *mockSettlementWallets
		service *Service
	)

	requestDTO := func(amount int64) *RequestSettlementDTO {
		return &RequestSettlementDTO{
			Amount:      amount,
			BankName:    "Test Bank",
			BankAccount: "0123456789",
		}
	}

	ginkgo.BeforeEach(func() {
		repo = newMockSettlementRepository()
		store = &mockApprovalStore{repo: repo, balances: map[int64]int64{10: 10000}}
		wallets = &mockSettlementWallets{accounts: map[int64]*wallet.Account{
			1: {ID: 10, UserID: 1, AccountNumber: "1234567890", Balance: 10000},
		}}

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = NewService(repo, &mockApprovalTransactor{store: store}, wallets, events.NewEventBus(logger), logger)
	})

	ginkgo.Describe("RequestSettlement", func() {
		ginkgo.It("should open a pending settlement against the wallet", func() {
			record, err := service.RequestSettlement(1, requestDTO(5000))

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(record.Status).To(gomega.Equal(StatusPendingApproval))
			gomega.Expect(record.AccountID).To(gomega.Equal(int64(10)))
			gomega.Expect(record.Amount).To(gomega.Equal(int64(5000)))
		})

		ginkgo.It("should reject an amount above the wallet balance", func() {
			_, err := service.RequestSettlement(1, requestDTO(20000))

			appErr, ok := err.(*apperrors.AppError)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(apperrors.ErrCodeInsufficientBalance))
		})

		ginkgo.It("should reject a user without a wallet", func() {
			_, err := service.RequestSettlement(404, requestDTO(5000))
			gomega.Expect(err).To(gomega.Equal(apperrors.ErrAccountNotFound))
		})

		ginkgo.It("should reject a malformed bank account", func() {
			dto := requestDTO(5000)
			dto.BankAccount = "123"

			_, err := service.RequestSettlement(1, dto)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("Approve", func() {
		ginkgo.It("should debit the wallet and record a payout ledger row", func() {
			record, err := service.RequestSettlement(1, requestDTO(5000))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			approved, err := service.Approve(context.Background(), record.ID, 99)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(approved.Status).To(gomega.Equal(StatusApproved))
			gomega.Expect(*approved.ProcessedBy).To(gomega.Equal(int64(99)))

			gomega.Expect(store.balances[10]).To(gomega.Equal(int64(5000)))
			gomega.Expect(store.transactions).To(gomega.HaveLen(1))
			gomega.Expect(store.transactions[0].TxType).To(gomega.Equal(string(wallet.TxTypeDebit)))
			gomega.Expect(store.transactions[0].Reference).To(gomega.Equal("STL-1"))
		})

		ginkgo.It("should not double process a settlement", func() {
			record, err := service.RequestSettlement(1, requestDTO(5000))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.Approve(context.Background(), record.ID, 99)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.Approve(context.Background(), record.ID, 99)
			appErr, ok := err.(*apperrors.AppError)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(apperrors.ErrCodeSettlementClosed))

			// the wallet was debited exactly once
			gomega.Expect(store.balances[10]).To(gomega.Equal(int64(5000)))
		})

		ginkgo.It("should roll back when the balance no longer covers the amount", func() {
			record, err := service.RequestSettlement(1, requestDTO(5000))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			// balance drained between request and approval
			store.balances[10] = 1000

			_, err = service.Approve(context.Background(), record.ID, 99)

			appErr, ok := err.(*apperrors.AppError)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(apperrors.ErrCodeInsufficientBalance))

			reloaded, loadErr := repo.GetByID(record.ID)
			gomega.Expect(loadErr).NotTo(gomega.HaveOccurred())
			gomega.Expect(reloaded.Status).To(gomega.Equal(StatusPendingApproval))
			gomega.Expect(store.balances[10]).To(gomega.Equal(int64(1000)))
			gomega.Expect(store.transactions).To(gomega.BeEmpty())
		})

		ginkgo.It("should return not found for an unknown settlement", func() {
			_, err := service.Approve(context.Background(), 404, 99)

			appErr, ok := err.(*apperrors.AppError)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.StatusCode).To(gomega.Equal(404))
		})
	})

	ginkgo.Describe("Reject", func() {
		ginkgo.It("should close the settlement with a reason and debit nothing", func() {
			record, err := service.RequestSettlement(1, requestDTO(5000))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			rejected, err := service.Reject(record.ID, 99, &RejectSettlementDTO{Reason: "account name mismatch"})

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(rejected.Status).To(gomega.Equal(StatusRejected))
			gomega.Expect(*rejected.Reason).To(gomega.Equal("account name mismatch"))
			gomega.Expect(store.balances[10]).To(gomega.Equal(int64(10000)))
		})

		ginkgo.It("should require a reason", func() {
			record, err := service.RequestSettlement(1, requestDTO(5000))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.Reject(record.ID, 99, &RejectSettlementDTO{})
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should not reject an approved settlement", func() {
			record, err := service.RequestSettlement(1, requestDTO(5000))
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			_, err = service.Approve(context.Background(), record.ID, 99)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			_, err = service.Reject(record.ID, 99, &RejectSettlementDTO{Reason: "too late"})
			appErr, ok := err.(*apperrors.AppError)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(apperrors.ErrCodeSettlementClosed))
		})
	})

	ginkgo.Describe("ListAll", func() {
		ginkgo.It("should clamp an out-of-range limit", func() {
			for i := 0; i < 3; i++ {
				_, err := service.RequestSettlement(1, requestDTO(1000))
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
			}

			rows, err := service.ListAll(-5, 0)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(rows).To(gomega.HaveLen(3))
		})
	})
})
