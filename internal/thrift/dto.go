package thrift

import (
	errors "github.com/veedsify/mightyshare-api/internal"
	"github.com/veedsify/mightyshare-api/internal/core/common/validation"
)

// CreatePackageDTO is the admin request body for adding a thrift plan.
type CreatePackageDTO struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Price        int64  `json:"price"`
	Contribution int64  `json:"contribution"`
	Interval     string `json:"interval"`
}

func (d *CreatePackageDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("name", d.Name).Required().MaxLength(100)
	validator.Field("price", d.Price).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	validator.Field("contribution", d.Contribution).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	validator.Field("description", d.Description).MaxLength(255)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}

	switch d.Interval {
	case "", "weekly", "monthly":
	default:
		return errors.NewValidationError("interval must be weekly or monthly", errors.ErrCodeValidationFailed)
	}
	return nil
}

// UpdatePackageDTO patches a plan. Nil fields are left untouched.
type UpdatePackageDTO struct {
	Description  *string `json:"description"`
	Price        *int64  `json:"price"`
	Contribution *int64  `json:"contribution"`
	Interval     *string `json:"interval"`
	IsActive     *bool   `json:"is_active"`
}

func (d *UpdatePackageDTO) Validate() error {
	if d.Price != nil && *d.Price <= 0 {
		return errors.NewValidationError("price must be positive", errors.ErrCodeInvalidAmount)
	}
	if d.Contribution != nil && *d.Contribution <= 0 {
		return errors.NewValidationError("contribution must be positive", errors.ErrCodeInvalidAmount)
	}
	if d.Interval != nil {
		switch *d.Interval {
		case "weekly", "monthly":
		default:
			return errors.NewValidationError("interval must be weekly or monthly", errors.ErrCodeValidationFailed)
		}
	}
	return nil
}
