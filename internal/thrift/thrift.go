package thrift

import (
	"errors"
	"time"

	thriftDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/thrift"
)

type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionInactive SubscriptionStatus = "INACTIVE"
)

// DefaultRegistrationFee is the fallback fee in minor units when a user has
// no active subscription package to derive it from.
const DefaultRegistrationFee int64 = 2500

var (
	ErrPackageNotFound  = errors.New("thrift package not found")
	ErrPackageInactive  = errors.New("thrift package is not active")
	ErrPackageNameTaken = errors.New("thrift package name already exists")
)

type Package struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	Contribution int64     `json:"contribution"`
	Interval     string    `json:"interval"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type Subscription struct {
	ID        int64              `json:"id"`
	UserID    int64              `json:"user_id"`
	PackageID int64              `json:"package_id"`
	Status    SubscriptionStatus `json:"status"`
	Package   *Package           `json:"package,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

func (s *Subscription) IsActive() bool {
	return s.Status == SubscriptionActive
}

func PackageFromDataModel(p *thriftDatamodel.Package) *Package {
	return &Package{
		ID:           p.ID,
		Name:         p.Name,
		Description:  p.Description,
		Price:        p.Price,
		Contribution: p.Contribution,
		Interval:     p.Interval,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
	}
}

func SubscriptionFromDataModel(s *thriftDatamodel.Subscription) *Subscription {
	return &Subscription{
		ID:        s.ID,
		UserID:    s.UserID,
		PackageID: s.PackageID,
		Status:    SubscriptionStatus(s.Status),
		CreatedAt: s.CreatedAt,
	}
}
