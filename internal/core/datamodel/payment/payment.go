package payment

import (
	"encoding/json"
	"time"
)

// Payment is a money-collection intent. created_at is immutable and there
// is deliberately no updated_at: the row transitions status exactly once.
type Payment struct {
	ID            int64           `gorm:"primaryKey"`
	UserID        int64           `gorm:"column:user_id;not null;index"`
	Amount        int64           `gorm:"column:amount;not null"`
	Currency      string          `gorm:"column:currency;not null"`
	OrderID       string          `gorm:"column:order_id;uniqueIndex;not null"`
	Description   string          `gorm:"column:description"`
	CustomerEmail string          `gorm:"column:customer_email"`
	CustomerPhone string          `gorm:"column:customer_phone;index"`
	FirstName     string          `gorm:"column:first_name"`
	LastName      string          `gorm:"column:last_name"`
	Status        string          `gorm:"column:status;default:PENDING"`
	Metadata      json.RawMessage `gorm:"column:metadata;type:jsonb"`
	VerifiedAt    *time.Time      `gorm:"column:verified_at"`
	CreatedAt     time.Time       `gorm:"column:created_at;default:now()"`
}

func (Payment) TableName() string {
	return "payments"
}
