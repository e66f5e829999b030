package user

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/veedsify/mightyshare-api/internal"
	accountDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/account"
	userDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/user"
	"github.com/veedsify/mightyshare-api/internal/thrift"
	"github.com/veedsify/mightyshare-api/internal/wallet"
)

// ErrDuplicate is returned by the repository on any unique violation during
// registration. The service pre-checks email and phone, so a duplicate at
// insert time means a referral code or account number collision.
type duplicateError struct{}

func (duplicateError) Error() string { return "duplicate value" }

var ErrDuplicate error = duplicateError{}

type RepositoryAPI interface {
	CreateUserWithAccount(u *userDatamodel.User, a *accountDatamodel.Account) error
	GetByID(userID int64) (*userDatamodel.User, error)
	GetByEmail(email string) (*userDatamodel.User, error)
	GetByPhone(phone string) (*userDatamodel.User, error)
	GetByReferralCode(code string) (*userDatamodel.User, error)
	GetPermissions(userID int64) ([]string, error)
}

type WalletAPI interface {
	FirstAccountOf(userID int64) (*wallet.Account, error)
}

type SubscriptionAPI interface {
	ActiveSubscription(userID int64) (*thrift.Subscription, error)
}

type Service struct {
	repo       RepositoryAPI
	wallets    WalletAPI
	subs       SubscriptionAPI
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo RepositoryAPI, wallets WalletAPI, subs SubscriptionAPI, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		wallets:    wallets,
		subs:       subs,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func generateReferralCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "MS" + strings.ToUpper(raw[:8])
}

// Register creates the user, their wallet account and their referral code
// in one database transaction. An optional referral code links the new
// user to whoever referred them.
func (s *Service) Register(dto *RegisterDTO) (*User, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(dto.Email)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check email", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("email is already registered", apperrors.ErrCodeEmailTaken)
	}

	existing, err = s.repo.GetByPhone(dto.Phone)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to check phone", err)
	}
	if existing != nil {
		return nil, apperrors.NewConflictError("phone number is already registered", apperrors.ErrCodePhoneTaken)
	}

	var referredBy *int64
	if dto.ReferralCode != "" {
		referrer, err := s.repo.GetByReferralCode(dto.ReferralCode)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to resolve referral code", err)
		}
		if referrer == nil {
			return nil, apperrors.NewBusinessError("referral code does not exist", apperrors.ErrCodeValidationFailed)
		}
		referredBy = &referrer.ID
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to hash password", err)
	}

	const maxAttempts = 3
	var record *userDatamodel.User
	for attempt := 0; attempt < maxAttempts; attempt++ {
		number, err := wallet.GenerateAccountNumber()
		if err != nil {
			return nil, apperrors.NewInternalError("failed to generate account number", err)
		}

		record = &userDatamodel.User{
			Email:        dto.Email,
			Phone:        dto.Phone,
			FirstName:    dto.FirstName,
			LastName:     dto.LastName,
			PasswordHash: string(hash),
			ReferralCode: generateReferralCode(),
			ReferredBy:   referredBy,
			IsActive:     true,
		}
		account := &accountDatamodel.Account{AccountNumber: number}

		err = s.repo.CreateUserWithAccount(record, account)
		if err == nil {
			s.logger.Info("user registered",
				"user_id", record.ID,
				"email", record.Email,
				"account_number", number,
				"referred", referredBy != nil)
			return FromDataModel(record), nil
		}
		if err == ErrDuplicate {
			s.logger.Warn("registration collision, retrying", "attempt", attempt+1)
			continue
		}
		s.logger.Error("registration failed", "error", err, "email", dto.Email)
		return nil, apperrors.NewInternalError("failed to register user", err)
	}

	return nil, apperrors.NewInternalError("could not allocate unique registration codes", nil)
}

// GetProfile loads the user together with their wallet account and active
// thrift subscription.
func (s *Service) GetProfile(userID int64) (*Profile, error) {
	record, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load user", err)
	}
	if record == nil {
		return nil, apperrors.ErrUserNotFound
	}

	perms, err := s.repo.GetPermissions(userID)
	if err != nil {
		s.logger.Error("failed to load permissions", "error", err, "user_id", userID)
		perms = []string{}
	}

	profile := &Profile{User: FromDataModelWithPermissions(record, perms)}

	account, err := s.wallets.FirstAccountOf(userID)
	if err != nil {
		s.logger.Error("failed to load account for profile", "error", err, "user_id", userID)
	} else {
		profile.Account = account
	}

	sub, err := s.subs.ActiveSubscription(userID)
	if err != nil {
		s.logger.Error("failed to load subscription for profile", "error", err, "user_id", userID)
	} else {
		profile.Subscription = sub
	}

	return profile, nil
}

func (s *Service) GetByID(userID int64) (*User, error) {
	record, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, apperrors.ErrUserNotFound
	}
	perms, err := s.repo.GetPermissions(userID)
	if err != nil {
		return nil, err
	}
	return FromDataModelWithPermissions(record, perms), nil
}
