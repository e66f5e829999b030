package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	complaintpkg "github.com/veedsify/mightyshare-api/internal/complaint"
	complaintDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/complaint"
)

type ComplaintRepository struct {
	db *gorm.DB
}

func NewComplaintRepository(db *gorm.DB) *ComplaintRepository {
	return &ComplaintRepository{db: db}
}

func (r *ComplaintRepository) Create(c *complaintDatamodel.Complaint) error {
	return r.db.Create(c).Error
}

func (r *ComplaintRepository) GetByID(id int64) (*complaintDatamodel.Complaint, error) {
	var c complaintDatamodel.Complaint
	err := r.db.First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *ComplaintRepository) ListByUser(userID int64) ([]*complaintDatamodel.Complaint, error) {
	var rows []*complaintDatamodel.Complaint
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *ComplaintRepository) ListAll(limit, offset int) ([]*complaintDatamodel.Complaint, error) {
	var rows []*complaintDatamodel.Complaint
	err := r.db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&rows).Error
	return rows, err
}

func (r *ComplaintRepository) MarkResolved(id, resolvedBy int64, resolution string, at time.Time) error {
	result := r.db.Model(&complaintDatamodel.Complaint{}).
		Where("id = ? AND status = ?", id, complaintpkg.StatusOpen).
		Updates(map[string]interface{}{
			"status":      complaintpkg.StatusResolved,
			"resolution":  resolution,
			"resolved_by": resolvedBy,
			"resolved_at": at,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
