package complaint

import (
	"time"

	complaintDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/complaint"
)

const (
	StatusOpen     = "open"
	StatusResolved = "resolved"
)

type Complaint struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	Subject    string     `json:"subject"`
	Body       string     `json:"body"`
	Status     string     `json:"status"`
	Resolution *string    `json:"resolution,omitempty"`
	ResolvedBy *int64     `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func FromDataModel(c *complaintDatamodel.Complaint) *Complaint {
	if c == nil {
		return nil
	}
	return &Complaint{
		ID:         c.ID,
		UserID:     c.UserID,
		Subject:    c.Subject,
		Body:       c.Body,
		Status:     c.Status,
		Resolution: c.Resolution,
		ResolvedBy: c.ResolvedBy,
		ResolvedAt: c.ResolvedAt,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func FromDataModelSlice(rows []*complaintDatamodel.Complaint) []*Complaint {
	result := make([]*Complaint, len(rows))
	for i, row := range rows {
		result[i] = FromDataModel(row)
	}
	return result
}
