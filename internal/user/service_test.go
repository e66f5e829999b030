package user

import (
	"io"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/veedsify/mightyshare-api/internal"
	accountDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/account"
	userDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/user"
	"github.com/veedsify/mightyshare-api/internal/thrift"
	"github.com/veedsify/mightyshare-api/internal/wallet"
)

func TestUser(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "User Module Suite")
}

type mockUserRepository struct {
	users       map[int64]*userDatamodel.User
	permissions map[int64][]string
	nextID      int64

	// duplicateFailures makes the first N CreateUserWithAccount calls
	// return ErrDuplicate, exercising the collision retry.
	duplicateFailures int
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		users:       make(map[int64]*userDatamodel.User),
		permissions: make(map[int64][]string),
		nextID:      1,
	}
}

func (m *mockUserRepository) CreateUserWithAccount(u *userDatamodel.User, a *accountDatamodel.Account) error {
	if m.duplicateFailures > 0 {
		m.duplicateFailures--
		return ErrDuplicate
	}
	u.ID = m.nextID
	m.nextID++
	m.users[u.ID] = u
	a.UserID = u.ID
	return nil
}

func (m *mockUserRepository) GetByID(userID int64) (*userDatamodel.User, error) {
	return m.users[userID], nil
}

func (m *mockUserRepository) GetByEmail(email string) (*userDatamodel.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) GetByPhone(phone string) (*userDatamodel.User, error) {
	for _, u := range m.users {
		if u.Phone == phone {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) GetByReferralCode(code string) (*userDatamodel.User, error) {
	for _, u := range m.users {
		if u.ReferralCode == code {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepository) GetPermissions(userID int64) ([]string, error) {
	return m.permissions[userID], nil
}

type mockProfileWallets struct {
	accounts map[int64]*wallet.Account
}

func (m *mockProfileWallets) FirstAccountOf(userID int64) (*wallet.Account, error) {
	return m.accounts[userID], nil
}

type mockSubscriptions struct {
	subs map[int64]*thrift.Subscription
}

func (m *mockSubscriptions) ActiveSubscription(userID int64) (*thrift.Subscription, error) {
	return m.subs[userID], nil
}

var _ = ginkgo.Describe("User Service", func() {
	var (
		repo    *mockUserRepository
		wallets *mockProfileWallets
		subs    *mockSubscriptions
		service *Service
	)

	registerDTO := func() *RegisterDTO {
		return &RegisterDTO{
			Email:     "ada@example.com",
			Phone:     "+2348011111111",
			FirstName: "Ada",
			LastName:  "Obi",
			Password:  "correct horse battery",
		}
	}

	ginkgo.BeforeEach(func() {
		repo = newMockUserRepository()
		wallets = &mockProfileWallets{accounts: make(map[int64]*wallet.Account)}
		subs = &mockSubscriptions{subs: make(map[int64]*thrift.Subscription)}
		service = NewService(repo, wallets, subs, bcrypt.MinCost, slog.New(slog.NewTextHandler(io.Discard, nil)))
	})

	ginkgo.Describe("Register", func() {
		ginkgo.It("should register a user with a hashed password and referral code", func() {
			registered, err := service.Register(registerDTO())

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(registered.ID).To(gomega.BeNumerically(">", 0))
			gomega.Expect(registered.ReferralCode).To(gomega.HavePrefix("MS"))
			gomega.Expect(registered.RegistrationPaid).To(gomega.BeFalse())
			gomega.Expect(registered.IsActive).To(gomega.BeTrue())

			stored := repo.users[registered.ID]
			gomega.Expect(stored.PasswordHash).NotTo(gomega.Equal("correct horse battery"))
			gomega.Expect(bcrypt.CompareHashAndPassword(
				[]byte(stored.PasswordHash), []byte("correct horse battery"))).To(gomega.Succeed())
		})

		ginkgo.It("should link the new user to their referrer", func() {
			referrer, err := service.Register(registerDTO())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			dto := registerDTO()
			dto.Email = "chidi@example.com"
			dto.Phone = "+2348022222222"
			dto.ReferralCode = referrer.ReferralCode

			referred, err := service.Register(dto)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(referred.ReferredBy).NotTo(gomega.BeNil())
			gomega.Expect(*referred.ReferredBy).To(gomega.Equal(referrer.ID))
		})

		ginkgo.It("should reject an unknown referral code", func() {
			dto := registerDTO()
			dto.ReferralCode = "MSNOSUCH"

			_, err := service.Register(dto)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should reject a duplicate email", func() {
			_, err := service.Register(registerDTO())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			dto := registerDTO()
			dto.Phone = "+2348033333333"

			_, err = service.Register(dto)
			appErr, ok := err.(*apperrors.AppError)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(apperrors.ErrCodeEmailTaken))
		})

		ginkgo.It("should reject a duplicate phone number", func() {
			_, err := service.Register(registerDTO())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			dto := registerDTO()
			dto.Email = "other@example.com"

			_, err = service.Register(dto)
			appErr, ok := err.(*apperrors.AppError)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(apperrors.ErrCodePhoneTaken))
		})

		ginkgo.It("should retry past a registration code collision", func() {
			repo.duplicateFailures = 2

			registered, err := service.Register(registerDTO())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(registered).NotTo(gomega.BeNil())
		})

		ginkgo.It("should give up after exhausting collision retries", func() {
			repo.duplicateFailures = 3

			_, err := service.Register(registerDTO())
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("should reject a short password", func() {
			dto := registerDTO()
			dto.Password = "short"

			_, err := service.Register(dto)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})
	})

	ginkgo.Describe("GetProfile", func() {
		ginkgo.It("should assemble user, wallet and subscription", func() {
			registered, err := service.Register(registerDTO())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			wallets.accounts[registered.ID] = &wallet.Account{ID: 10, UserID: registered.ID, Balance: 5000}
			subs.subs[registered.ID] = &thrift.Subscription{ID: 1, UserID: registered.ID, Status: thrift.SubscriptionActive}
			repo.permissions[registered.ID] = []string{"admin"}

			profile, err := service.GetProfile(registered.ID)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(profile.User.Email).To(gomega.Equal("ada@example.com"))
			gomega.Expect(profile.User.IsAdmin()).To(gomega.BeTrue())
			gomega.Expect(profile.Account.Balance).To(gomega.Equal(int64(5000)))
			gomega.Expect(profile.Subscription).NotTo(gomega.BeNil())
		})

		ginkgo.It("should return the profile without wallet or subscription when absent", func() {
			registered, err := service.Register(registerDTO())
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			profile, err := service.GetProfile(registered.ID)

			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(profile.Account).To(gomega.BeNil())
			gomega.Expect(profile.Subscription).To(gomega.BeNil())
		})

		ginkgo.It("should return user not found for an unknown id", func() {
			_, err := service.GetProfile(404)
			gomega.Expect(err).To(gomega.Equal(apperrors.ErrUserNotFound))
		})
	})
})
