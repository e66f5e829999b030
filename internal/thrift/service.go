package thrift

import (
	"log/slog"

	thriftDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/thrift"
)

type RepositoryAPI interface {
	GetAllPackages() ([]*thriftDatamodel.Package, error)
	GetPackageByID(id int64) (*thriftDatamodel.Package, error)
	CreatePackage(p *thriftDatamodel.Package) error
	UpdatePackage(p *thriftDatamodel.Package) error
	CreateSubscription(sub *thriftDatamodel.Subscription) error
	DeactivateSubscriptions(userID int64) error
	ActiveSubscription(userID int64) (*thriftDatamodel.Subscription, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) ListPackages() ([]*Package, error) {
	dataPackages, err := s.repo.GetAllPackages()
	if err != nil {
		s.logger.Error("failed to list thrift packages", "error", err)
		return nil, err
	}

	var packages []*Package
	for _, dp := range dataPackages {
		p := PackageFromDataModel(dp)
		if p.IsActive {
			packages = append(packages, p)
		}
	}
	return packages, nil
}

// CreatePackage adds a new thrift plan. The plan starts active.
func (s *Service) CreatePackage(dto *CreatePackageDTO) (*Package, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	interval := dto.Interval
	if interval == "" {
		interval = "weekly"
	}

	dataPkg := &thriftDatamodel.Package{
		Name:         dto.Name,
		Description:  dto.Description,
		Price:        dto.Price,
		Contribution: dto.Contribution,
		Interval:     interval,
		IsActive:     true,
	}
	if err := s.repo.CreatePackage(dataPkg); err != nil {
		if err == ErrPackageNameTaken {
			return nil, err
		}
		s.logger.Error("failed to create thrift package", "name", dto.Name, "error", err)
		return nil, err
	}

	s.logger.Info("thrift package created", "package_id", dataPkg.ID, "name", dataPkg.Name)
	return PackageFromDataModel(dataPkg), nil
}

// UpdatePackage patches an existing plan. Price changes only affect future
// registrations; fees already settled keep their recorded amounts.
func (s *Service) UpdatePackage(packageID int64, dto *UpdatePackageDTO) (*Package, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	dataPkg, err := s.repo.GetPackageByID(packageID)
	if err != nil {
		return nil, err
	}
	if dataPkg == nil {
		return nil, ErrPackageNotFound
	}

	if dto.Description != nil {
		dataPkg.Description = *dto.Description
	}
	if dto.Price != nil {
		dataPkg.Price = *dto.Price
	}
	if dto.Contribution != nil {
		dataPkg.Contribution = *dto.Contribution
	}
	if dto.Interval != nil {
		dataPkg.Interval = *dto.Interval
	}
	if dto.IsActive != nil {
		dataPkg.IsActive = *dto.IsActive
	}

	if err := s.repo.UpdatePackage(dataPkg); err != nil {
		s.logger.Error("failed to update thrift package", "package_id", packageID, "error", err)
		return nil, err
	}

	s.logger.Info("thrift package updated", "package_id", packageID)
	return PackageFromDataModel(dataPkg), nil
}

// Subscribe activates a package for the user. A user holds at most one
// ACTIVE subscription; any previous one is deactivated first.
func (s *Service) Subscribe(userID, packageID int64) (*Subscription, error) {
	dataPkg, err := s.repo.GetPackageByID(packageID)
	if err != nil {
		return nil, err
	}
	if dataPkg == nil {
		return nil, ErrPackageNotFound
	}
	if !dataPkg.IsActive {
		return nil, ErrPackageInactive
	}

	if err := s.repo.DeactivateSubscriptions(userID); err != nil {
		s.logger.Error("failed to deactivate previous subscriptions", "user_id", userID, "error", err)
		return nil, err
	}

	sub := &thriftDatamodel.Subscription{
		UserID:    userID,
		PackageID: packageID,
		Status:    string(SubscriptionActive),
	}
	if err := s.repo.CreateSubscription(sub); err != nil {
		s.logger.Error("failed to create subscription", "user_id", userID, "package_id", packageID, "error", err)
		return nil, err
	}

	s.logger.Info("user subscribed to thrift package",
		"user_id", userID,
		"package_id", packageID,
		"package", dataPkg.Name)

	result := SubscriptionFromDataModel(sub)
	result.Package = PackageFromDataModel(dataPkg)
	return result, nil
}

func (s *Service) ActiveSubscription(userID int64) (*Subscription, error) {
	dataSub, err := s.repo.ActiveSubscription(userID)
	if err != nil {
		return nil, err
	}
	if dataSub == nil {
		return nil, nil
	}

	sub := SubscriptionFromDataModel(dataSub)
	if dataPkg, err := s.repo.GetPackageByID(dataSub.PackageID); err == nil && dataPkg != nil {
		sub.Package = PackageFromDataModel(dataPkg)
	}
	return sub, nil
}

// RegistrationFee resolves the one-time fee for a user: the price of their
// active package, or DefaultRegistrationFee when they have none.
func (s *Service) RegistrationFee(userID int64) int64 {
	sub, err := s.ActiveSubscription(userID)
	if err != nil {
		s.logger.Warn("failed to resolve active subscription, using fallback fee",
			"user_id", userID,
			"error", err)
		return DefaultRegistrationFee
	}
	if sub == nil || sub.Package == nil || sub.Package.Price <= 0 {
		return DefaultRegistrationFee
	}
	return sub.Package.Price
}
