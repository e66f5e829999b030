package referral

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	accountDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/account"
	transactionDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/transaction"
	userDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/user"
	"github.com/veedsify/mightyshare-api/internal/core/events"
	"github.com/veedsify/mightyshare-api/internal/wallet"
)

func TestReferral(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Referral Module Suite")
}

type mockUserReader struct {
	users map[int64]*userDatamodel.User
}

func (m *mockUserReader) GetByID(userID int64) (*userDatamodel.User, error) {
	return m.users[userID], nil
}

type mockReferralWallets struct {
	accounts     map[int64]*accountDatamodel.Account
	transactions []*transactionDatamodel.Transaction
	earnings     map[int64]int64
}

func newMockReferralWallets() *mockReferralWallets {
	return &mockReferralWallets{
		accounts: make(map[int64]*accountDatamodel.Account),
		earnings: make(map[int64]int64),
	}
}

func (m *mockReferralWallets) FirstAccountOf(userID int64) (*accountDatamodel.Account, error) {
	for _, a := range m.accounts {
		if a.UserID == userID {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockReferralWallets) CreditReferralEarnings(accountID, amount int64) error {
	m.earnings[accountID] += amount
	return nil
}

func (m *mockReferralWallets) CreateTransaction(t *transactionDatamodel.Transaction) error {
	for _, existing := range m.transactions {
		if existing.Reference == t.Reference {
			return wallet.ErrDuplicateReference
		}
	}
	m.transactions = append(m.transactions, t)
	return nil
}

var _ = ginkgo.Describe("Referral EventHandler", func() {
	var (
		users   *mockUserReader
		wallets *mockReferralWallets
		handler *EventHandler

		referrerID int64
		referredID int64
	)

	ginkgo.BeforeEach(func() {
		referrerID = 1
		referredID = 2

		users = &mockUserReader{users: map[int64]*userDatamodel.User{
			referrerID: {ID: referrerID, Email: "referrer@example.com"},
			referredID: {ID: referredID, Email: "referred@example.com", ReferredBy: &referrerID},
		}}
		wallets = newMockReferralWallets()
		wallets.accounts[10] = &accountDatamodel.Account{ID: 10, UserID: referrerID, AccountNumber: "1111111111"}

		handler = NewEventHandler(users, wallets, 500, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	ginkgo.It("should credit the referrer when the referred user's fee lands", func() {
		err := handler.HandleRegistrationPaid(context.Background(), events.NewRegistrationPaidEvent(referredID, 2500))

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(wallets.earnings[10]).To(gomega.Equal(int64(500)))
		gomega.Expect(wallets.transactions).To(gomega.HaveLen(1))
		gomega.Expect(wallets.transactions[0].Reference).To(gomega.Equal(fmt.Sprintf("REF-%d", referredID)))
		gomega.Expect(wallets.transactions[0].TxType).To(gomega.Equal(string(wallet.TxTypeCredit)))
	})

	ginkgo.It("should credit at most once per referred user", func() {
		gomega.Expect(handler.HandleRegistrationPaid(context.Background(),
			events.NewRegistrationPaidEvent(referredID, 2500))).To(gomega.Succeed())
		gomega.Expect(handler.HandleRegistrationPaid(context.Background(),
			events.NewRegistrationPaidEvent(referredID, 2500))).To(gomega.Succeed())

		gomega.Expect(wallets.earnings[10]).To(gomega.Equal(int64(500)))
		gomega.Expect(wallets.transactions).To(gomega.HaveLen(1))
	})

	ginkgo.It("should ignore users who were not referred", func() {
		err := handler.HandleRegistrationPaid(context.Background(), events.NewRegistrationPaidEvent(referrerID, 2500))

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(wallets.transactions).To(gomega.BeEmpty())
	})

	ginkgo.It("should skip the bonus when the referrer has no wallet", func() {
		delete(wallets.accounts, 10)

		err := handler.HandleRegistrationPaid(context.Background(), events.NewRegistrationPaidEvent(referredID, 2500))

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(wallets.transactions).To(gomega.BeEmpty())
	})

	ginkgo.It("should do nothing when the bonus is disabled", func() {
		handler = NewEventHandler(users, wallets, 0, slog.New(slog.NewTextHandler(io.Discard, nil)))

		err := handler.HandleRegistrationPaid(context.Background(), events.NewRegistrationPaidEvent(referredID, 2500))

		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(wallets.transactions).To(gomega.BeEmpty())
	})

	ginkgo.It("should reject an event of the wrong type", func() {
		err := handler.HandleRegistrationPaid(context.Background(),
			events.NewPaymentSettledEvent(1, referredID, "ORD1", 5000, 2500, 2500))
		gomega.Expect(err).To(gomega.HaveOccurred())
	})
})
