package user

import (
	"time"

	userDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/user"
)

type User struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	FirstName        string    `json:"first_name"`
	LastName         string    `json:"last_name"`
	PasswordHash     string    `json:"-"`
	RegistrationPaid bool      `json:"registration_paid"`
	ReferralCode     string    `json:"referral_code"`
	ReferredBy       *int64    `json:"referred_by,omitempty"`
	IsActive         bool      `json:"is_active"`
	Permissions      []string  `json:"permissions,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) HasAnyPermission(permissions []string) bool {
	for _, userPerm := range u.Permissions {
		for _, requiredPerm := range permissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasPermission("admin")
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:               u.ID,
		Email:            u.Email,
		Phone:            u.Phone,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		PasswordHash:     u.PasswordHash,
		RegistrationPaid: u.RegistrationPaid,
		ReferralCode:     u.ReferralCode,
		ReferredBy:       u.ReferredBy,
		IsActive:         u.IsActive,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	if u == nil {
		return nil
	}
	return &User{
		ID:               u.ID,
		Email:            u.Email,
		Phone:            u.Phone,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		PasswordHash:     u.PasswordHash,
		RegistrationPaid: u.RegistrationPaid,
		ReferralCode:     u.ReferralCode,
		ReferredBy:       u.ReferredBy,
		IsActive:         u.IsActive,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
		Permissions:      []string{},
	}
}

func FromDataModelWithPermissions(u *userDatamodel.User, permissions []string) *User {
	domainUser := FromDataModel(u)
	if domainUser != nil {
		domainUser.Permissions = permissions
	}
	return domainUser
}
