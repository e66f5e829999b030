package thrift

import "time"

// Package is a thrift plan. Price is the one-time registration fee charged
// on a subscriber's first successful payment; Contribution is the periodic
// savings amount. Both in minor units.
type Package struct {
	ID           int64     `gorm:"primaryKey"`
	Name         string    `gorm:"column:name;uniqueIndex;not null"`
	Description  string    `gorm:"column:description"`
	Price        int64     `gorm:"column:price;not null"`
	Contribution int64     `gorm:"column:contribution;not null"`
	Interval     string    `gorm:"column:interval;default:weekly"`
	IsActive     bool      `gorm:"column:is_active;default:true"`
	CreatedAt    time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `gorm:"column:updated_at;default:now()"`
}

func (Package) TableName() string {
	return "thrift_packages"
}

type Subscription struct {
	ID        int64     `gorm:"primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index"`
	PackageID int64     `gorm:"column:package_id;not null"`
	Status    string    `gorm:"column:status;default:ACTIVE"`
	CreatedAt time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `gorm:"column:updated_at;default:now()"`
}

func (Subscription) TableName() string {
	return "thrift_subscriptions"
}
