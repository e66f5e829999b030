package postgres

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	accountDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/account"
	userDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/user"
	userpkg "github.com/veedsify/mightyshare-api/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUserWithAccount inserts the user and their wallet account in one
// transaction so registration never leaves a user without a wallet.
func (r *UserRepository) CreateUserWithAccount(u *userDatamodel.User, a *accountDatamodel.Account) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(u).Error; err != nil {
			return err
		}
		a.UserID = u.ID
		return tx.Create(a).Error
	})
	if err != nil && isUniqueViolation(err) {
		return userpkg.ErrDuplicate
	}
	return err
}

func (r *UserRepository) GetByID(userID int64) (*userDatamodel.User, error) {
	return r.getOne("id = ?", userID)
}

func (r *UserRepository) GetByEmail(email string) (*userDatamodel.User, error) {
	return r.getOne("email = ?", email)
}

func (r *UserRepository) GetByPhone(phone string) (*userDatamodel.User, error) {
	return r.getOne("phone = ?", phone)
}

func (r *UserRepository) GetByReferralCode(code string) (*userDatamodel.User, error) {
	return r.getOne("referral_code = ?", code)
}

func (r *UserRepository) getOne(query string, arg interface{}) (*userDatamodel.User, error) {
	var u userDatamodel.User
	err := r.db.Where(query, arg).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetPermissions(userID int64) ([]string, error) {
	var names []string
	err := r.db.Table("permissions").
		Select("permissions.name").
		Joins("JOIN user_permissions ON user_permissions.permission_id = permissions.id").
		Where("user_permissions.user_id = ?", userID).
		Scan(&names).Error
	if err != nil {
		return nil, err
	}
	return names, nil
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
