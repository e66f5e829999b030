package settlement

import "time"

type Settlement struct {
	ID          int64      `gorm:"primaryKey"`
	UserID      int64      `gorm:"column:user_id;not null;index"`
	AccountID   int64      `gorm:"column:account_id;not null"`
	Amount      int64      `gorm:"column:amount;not null"`
	BankName    string     `gorm:"column:bank_name"`
	BankAccount string     `gorm:"column:bank_account"`
	Status      string     `gorm:"column:status;default:pending_approval"`
	Reason      *string    `gorm:"column:reason"`
	ProcessedBy *int64     `gorm:"column:processed_by"`
	ProcessedAt *time.Time `gorm:"column:processed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;default:now()"`
}

func (Settlement) TableName() string {
	return "settlements"
}
