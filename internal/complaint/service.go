package complaint

import (
	"log/slog"
	"time"

	apperrors "github.com/veedsify/mightyshare-api/internal"
	"github.com/veedsify/mightyshare-api/internal/core/common/validation"
	complaintDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/complaint"
)

type OpenComplaintDTO struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (d *OpenComplaintDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("subject", d.Subject).Required().MaxLength(150)
	validator.Field("body", d.Body).Required().MaxLength(2000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type ResolveComplaintDTO struct {
	Resolution string `json:"resolution"`
}

func (d *ResolveComplaintDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("resolution", d.Resolution).Required().MaxLength(2000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type RepositoryAPI interface {
	Create(c *complaintDatamodel.Complaint) error
	GetByID(id int64) (*complaintDatamodel.Complaint, error)
	ListByUser(userID int64) ([]*complaintDatamodel.Complaint, error)
	ListAll(limit, offset int) ([]*complaintDatamodel.Complaint, error)
	MarkResolved(id, resolvedBy int64, resolution string, at time.Time) error
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Open(userID int64, dto *OpenComplaintDTO) (*Complaint, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	record := &complaintDatamodel.Complaint{
		UserID:  userID,
		Subject: dto.Subject,
		Body:    dto.Body,
		Status:  StatusOpen,
	}

	if err := s.repo.Create(record); err != nil {
		s.logger.Error("failed to create complaint", "error", err, "user_id", userID)
		return nil, apperrors.NewInternalError("failed to open complaint", err)
	}

	s.logger.Info("complaint opened", "complaint_id", record.ID, "user_id", userID)
	return FromDataModel(record), nil
}

func (s *Service) ListForUser(userID int64) ([]*Complaint, error) {
	rows, err := s.repo.ListByUser(userID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list complaints", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) ListAll(limit, offset int) ([]*Complaint, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.repo.ListAll(limit, offset)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list complaints", err)
	}
	return FromDataModelSlice(rows), nil
}

// Resolve closes an open complaint with a note. Resolving twice is an
// error so resolutions are never silently overwritten.
func (s *Service) Resolve(complaintID, resolvedBy int64, dto *ResolveComplaintDTO) (*Complaint, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	record, err := s.repo.GetByID(complaintID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load complaint", err)
	}
	if record == nil {
		return nil, apperrors.NewNotFoundError("complaint not found", apperrors.ErrCodeComplaintResolved)
	}
	if record.Status != StatusOpen {
		return nil, apperrors.NewBusinessError("complaint has already been resolved", apperrors.ErrCodeComplaintResolved)
	}

	now := time.Now().UTC()
	if err := s.repo.MarkResolved(record.ID, resolvedBy, dto.Resolution, now); err != nil {
		s.logger.Error("failed to resolve complaint", "error", err, "complaint_id", complaintID)
		return nil, apperrors.NewInternalError("failed to resolve complaint", err)
	}

	s.logger.Info("complaint resolved",
		"complaint_id", record.ID,
		"resolved_by", resolvedBy)

	record.Status = StatusResolved
	record.Resolution = &dto.Resolution
	record.ResolvedBy = &resolvedBy
	record.ResolvedAt = &now
	return FromDataModel(record), nil
}
