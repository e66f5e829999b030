package postgres

import (
	"errors"
	"strings"

	thriftDatamodel "github.com/veedsify/mightyshare-api/internal/core/datamodel/thrift"
	thriftpkg "github.com/veedsify/mightyshare-api/internal/thrift"
	"gorm.io/gorm"
)

type ThriftRepository struct {
	db *gorm.DB
}

func NewThriftRepository(db *gorm.DB) thriftpkg.RepositoryAPI {
	return &ThriftRepository{
		db: db,
	}
}

func (r *ThriftRepository) GetAllPackages() ([]*thriftDatamodel.Package, error) {
	var packages []*thriftDatamodel.Package
	err := r.db.Order("price ASC").Find(&packages).Error
	return packages, err
}

func (r *ThriftRepository) GetPackageByID(id int64) (*thriftDatamodel.Package, error) {
	var p thriftDatamodel.Package
	err := r.db.First(&p, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ThriftRepository) CreatePackage(p *thriftDatamodel.Package) error {
	err := r.db.Create(p).Error
	if err != nil && isUniqueViolation(err) {
		return thriftpkg.ErrPackageNameTaken
	}
	return err
}

func (r *ThriftRepository) UpdatePackage(p *thriftDatamodel.Package) error {
	return r.db.Save(p).Error
}

func (r *ThriftRepository) CreateSubscription(sub *thriftDatamodel.Subscription) error {
	return r.db.Create(sub).Error
}

func (r *ThriftRepository) DeactivateSubscriptions(userID int64) error {
	return r.db.Model(&thriftDatamodel.Subscription{}).
		Where("user_id = ? AND status = ?", userID, "ACTIVE").
		Update("status", "INACTIVE").Error
}

func (r *ThriftRepository) ActiveSubscription(userID int64) (*thriftDatamodel.Subscription, error) {
	var sub thriftDatamodel.Subscription
	err := r.db.Where("user_id = ? AND status = ?", userID, "ACTIVE").
		Order("created_at DESC").
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "UNIQUE constraint failed")
}
