package user

import (
	"github.com/veedsify/mightyshare-api/internal/core/common/validation"
	"github.com/veedsify/mightyshare-api/internal/thrift"
	"github.com/veedsify/mightyshare-api/internal/wallet"
)

type RegisterDTO struct {
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Password     string `json:"password"`
	ReferralCode string `json:"referral_code,omitempty"`
}

func (d *RegisterDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("email", d.Email).Required().Email()
	validator.Field("phone", d.Phone).Required().Phone()
	validator.Field("first_name", d.FirstName).Required().MaxLength(100)
	validator.Field("last_name", d.LastName).Required().MaxLength(100)
	validator.Field("password", d.Password).Required().MinLength(8).MaxLength(72)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// Profile is the GET /users/me payload: the user with their wallet and
// whichever thrift subscription is active.
type Profile struct {
	User         *User                `json:"user"`
	Account      *wallet.Account      `json:"account,omitempty"`
	Subscription *thrift.Subscription `json:"subscription,omitempty"`
}
