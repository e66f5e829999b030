package transaction

import "time"

// Transaction is an immutable ledger row: created once at settlement time,
// never updated. The unique reference is what makes a double credit for the
// same order id a constraint violation rather than a silent duplicate.
type Transaction struct {
	ID                int64     `gorm:"primaryKey"`
	AccountID         int64     `gorm:"column:account_id;not null;index"`
	Amount            int64     `gorm:"column:amount;not null"`
	Reference         string    `gorm:"column:reference;uniqueIndex;not null"`
	Status            string    `gorm:"column:status;not null"`
	TxType            string    `gorm:"column:tx_type;not null"`
	PaymentMethod     string    `gorm:"column:payment_method"`
	ProviderReference string    `gorm:"column:provider_reference"`
	Description       string    `gorm:"column:description"`
	CreatedAt         time.Time `gorm:"column:created_at;default:now()"`
}

func (Transaction) TableName() string {
	return "transactions"
}
