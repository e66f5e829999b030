package complaint

import "time"

type Complaint struct {
	ID         int64      `gorm:"primaryKey"`
	UserID     int64      `gorm:"column:user_id;not null;index"`
	Subject    string     `gorm:"column:subject;not null"`
	Body       string     `gorm:"column:body;not null"`
	Status     string     `gorm:"column:status;default:open"`
	Resolution *string    `gorm:"column:resolution"`
	ResolvedBy *int64     `gorm:"column:resolved_by"`
	ResolvedAt *time.Time `gorm:"column:resolved_at"`
	CreatedAt  time.Time  `gorm:"column:created_at;default:now()"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;default:now()"`
}

func (Complaint) TableName() string {
	return "complaints"
}
