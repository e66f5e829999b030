package postgres

import (
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	accountDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/account"
	transactionDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/transaction"
	"github.com/veedsify/mightyshare-api/internal/wallet"
)

func TestWalletRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "WalletRepository Suite")
}

type SQLiteAccount struct {
	ID                 int64     `gorm:"primaryKey"`
	UserID             int64     `gorm:"column:user_id;not null"`
	AccountNumber      string    `gorm:"column:account_number;uniqueIndex;not null"`
	Balance            int64     `gorm:"column:balance;default:0"`
	TotalContributions int64     `gorm:"column:total_contributions;default:0"`
	Rewards            int64     `gorm:"column:rewards;default:0"`
	TotalDebt          int64     `gorm:"column:total_debt;default:0"`
	ReferralEarnings   int64     `gorm:"column:referral_earnings;default:0"`
	CreatedAt          time.Time `gorm:"column:created_at"`
	UpdatedAt          time.Time `gorm:"column:updated_at"`
}

func (SQLiteAccount) TableName() string {
	return "accounts"
}

type SQLiteTransaction struct {
	ID                int64     `gorm:"primaryKey"`
	AccountID         int64     `gorm:"column:account_id;not null"`
	Amount            int64     `gorm:"column:amount;not null"`
	Reference         string    `gorm:"column:reference;uniqueIndex;not null"`
	Status            string    `gorm:"column:status;not null"`
	TxType            string    `gorm:"column:tx_type;not null"`
	PaymentMethod     string    `gorm:"column:payment_method"`
	ProviderReference string    `gorm:"column:provider_reference"`
	Description       string    `gorm:"column:description"`
	CreatedAt         time.Time `gorm:"column:created_at"`
}

func (SQLiteTransaction) TableName() string {
	return "transactions"
}

var _ = Describe("WalletRepository", func() {
	var (
		db   *gorm.DB
		repo *WalletRepository
	)

	newAccount := func(userID int64, number string) *accountDatamodel.Account {
		a := &accountDatamodel.Account{UserID: userID, AccountNumber: number}
		Expect(repo.CreateAccount(a)).To(Succeed())
		return a
	}

	BeforeEach(func() {
		var err error

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&SQLiteAccount{}, &SQLiteTransaction{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewWalletRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("FirstAccountOf", func() {
		It("should return the oldest account for the user", func() {
			first := newAccount(1, "1111111111")
			newAccount(1, "2222222222")

			got, err := repo.FirstAccountOf(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ID).To(Equal(first.ID))
		})

		It("should return nil for a user with no account", func() {
			got, err := repo.FirstAccountOf(404)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeNil())
		})
	})

	Describe("CreditBalance", func() {
		It("should increment the balance", func() {
			a := newAccount(1, "1111111111")

			Expect(repo.CreditBalance(a.ID, 5000)).To(Succeed())
			Expect(repo.CreditBalance(a.ID, 2500)).To(Succeed())

			got, err := repo.FirstAccountOf(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Balance).To(Equal(int64(7500)))
			Expect(got.TotalContributions).To(Equal(int64(0)))
		})

		It("should reject a negative amount", func() {
			a := newAccount(1, "1111111111")
			Expect(repo.CreditBalance(a.ID, -1)).To(Equal(wallet.ErrNegativeAmount))
		})

		It("should report a missing account", func() {
			Expect(repo.CreditBalance(404, 100)).To(Equal(wallet.ErrAccountNotFound))
		})
	})

	Describe("CreditContribution", func() {
		It("should bump balance and lifetime contributions together", func() {
			a := newAccount(1, "1111111111")

			Expect(repo.CreditContribution(a.ID, 2500)).To(Succeed())

			got, err := repo.FirstAccountOf(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Balance).To(Equal(int64(2500)))
			Expect(got.TotalContributions).To(Equal(int64(2500)))
		})
	})

	Describe("DebitBalance", func() {
		It("should deduct when the balance covers the amount", func() {
			a := newAccount(1, "1111111111")
			Expect(repo.CreditBalance(a.ID, 5000)).To(Succeed())

			Expect(repo.DebitBalance(a.ID, 3000)).To(Succeed())

			got, err := repo.FirstAccountOf(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Balance).To(Equal(int64(2000)))
		})

		It("should refuse to overdraw", func() {
			a := newAccount(1, "1111111111")
			Expect(repo.CreditBalance(a.ID, 1000)).To(Succeed())

			Expect(repo.DebitBalance(a.ID, 3000)).To(Equal(wallet.ErrInsufficientBalance))

			got, err := repo.FirstAccountOf(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Balance).To(Equal(int64(1000)))
		})

		It("should distinguish a missing account from a short balance", func() {
			Expect(repo.DebitBalance(404, 100)).To(Equal(wallet.ErrAccountNotFound))
		})
	})

	Describe("CreditReferralEarnings", func() {
		It("should bump referral earnings without touching the balance", func() {
			a := newAccount(1, "1111111111")

			Expect(repo.CreditReferralEarnings(a.ID, 500)).To(Succeed())

			got, err := repo.FirstAccountOf(1)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.ReferralEarnings).To(Equal(int64(500)))
			Expect(got.Balance).To(Equal(int64(0)))
		})
	})

	Describe("CreateTransaction", func() {
		It("should reject a duplicate reference", func() {
			a := newAccount(1, "1111111111")

			tx := &transactionDatamodel.Transaction{
				AccountID: a.ID,
				Amount:    2500,
				Reference: "ORD0001",
				Status:    string(wallet.TxStatusSuccessful),
				TxType:    string(wallet.TxTypeCredit),
			}
			Expect(repo.CreateTransaction(tx)).To(Succeed())

			dup := &transactionDatamodel.Transaction{
				AccountID: a.ID,
				Amount:    2500,
				Reference: "ORD0001",
				Status:    string(wallet.TxStatusSuccessful),
				TxType:    string(wallet.TxTypeCredit),
			}
			Expect(repo.CreateTransaction(dup)).To(Equal(wallet.ErrDuplicateReference))
		})
	})

	Describe("TransactionsByAccount", func() {
		It("should return newest first within the limit", func() {
			a := newAccount(1, "1111111111")

			for i, ref := range []string{"ORDA", "ORDB", "ORDC"} {
				tx := &transactionDatamodel.Transaction{
					AccountID: a.ID,
					Amount:    int64(1000 * (i + 1)),
					Reference: ref,
					Status:    string(wallet.TxStatusSuccessful),
					TxType:    string(wallet.TxTypeCredit),
					CreatedAt: time.Now().Add(time.Duration(i) * time.Minute),
				}
				Expect(repo.CreateTransaction(tx)).To(Succeed())
			}

			txs, err := repo.TransactionsByAccount(a.ID, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(txs).To(HaveLen(2))
			Expect(txs[0].Reference).To(Equal("ORDC"))
		})
	})
})
