package account

import "time"

// Account is a user's wallet. All amounts are integer minor units (kobo).
type Account struct {
	ID                 int64     `gorm:"primaryKey"`
	UserID             int64     `gorm:"column:user_id;not null;index"`
	AccountNumber      string    `gorm:"column:account_number;uniqueIndex;not null"`
	Balance            int64     `gorm:"column:balance;default:0"`
	TotalContributions int64     `gorm:"column:total_contributions;default:0"`
	Rewards            int64     `gorm:"column:rewards;default:0"`
	TotalDebt          int64     `gorm:"column:total_debt;default:0"`
	ReferralEarnings   int64     `gorm:"column:referral_earnings;default:0"`
	CreatedAt          time.Time `gorm:"column:created_at;default:now()"`
	UpdatedAt          time.Time `gorm:"column:updated_at;default:now()"`
}

func (Account) TableName() string {
	return "accounts"
}
