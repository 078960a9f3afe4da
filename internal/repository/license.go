package repository

import (
	"errors"
	"strings"

	"license-auth-api/internal/model"

	"gorm.io/gorm"
)

// LicenseRepository is the narrow persistence surface the lifecycle
// engine depends on. Implementations carry no policy: every branching
// decision belongs to the engine.
type LicenseRepository interface {
	// GetByKey returns the license, or (nil, nil) when the key is unknown.
	GetByKey(key string) (*model.License, error)

	// Insert stores a new license and returns false on a key conflict.
	Insert(license *model.License) (bool, error)

	// BindHwidIfUnbound atomically sets hwid for the key only while the
	// stored value is still NULL, returning the number of rows changed.
	// Zero means a concurrent caller bound the key first (or it vanished).
	BindHwidIfUnbound(key, hwid string) (int64, error)

	// ResetHwid clears the binding, returning false when the key is unknown.
	ResetHwid(key string) (bool, error)

	// Delete removes the license and all of its usage rows, returning
	// false when the key is unknown.
	Delete(key string) (bool, error)

	// AppendUsage stores one verification event.
	AppendUsage(usage *model.UsageLog) error

	// UsageSummary folds the usage rows for a key, or returns (nil, nil)
	// when the key has never been verified.
	UsageSummary(key string) (*model.UsageSummary, error)
}

type GormLicenseRepository struct {
	db *gorm.DB
}

func NewGormLicenseRepository(db *gorm.DB) *GormLicenseRepository {
	return &GormLicenseRepository{db: db}
}

func (r *GormLicenseRepository) GetByKey(key string) (*model.License, error) {
	var license model.License
	result := r.db.Where("key = ?", key).First(&license)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &license, nil
}

func (r *GormLicenseRepository) Insert(license *model.License) (bool, error) {
	result := r.db.Create(license)
	if result.Error != nil {
		if isDuplicateKey(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return true, nil
}

func (r *GormLicenseRepository) BindHwidIfUnbound(key, hwid string) (int64, error) {
	result := r.db.Model(&model.License{}).
		Where("key = ? AND hwid IS NULL", key).
		Update("hwid", hwid)
	return result.RowsAffected, result.Error
}

func (r *GormLicenseRepository) ResetHwid(key string) (bool, error) {
	result := r.db.Model(&model.License{}).
		Where("key = ?", key).
		Update("hwid", nil)
	return result.RowsAffected > 0, result.Error
}

func (r *GormLicenseRepository) Delete(key string) (bool, error) {
	var deleted int64
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("license_key = ?", key).Delete(&model.UsageLog{}).Error; err != nil {
			return err
		}
		result := tx.Where("key = ?", key).Delete(&model.License{})
		if result.Error != nil {
			return result.Error
		}
		deleted = result.RowsAffected
		return nil
	})
	return deleted > 0, err
}

func (r *GormLicenseRepository) AppendUsage(usage *model.UsageLog) error {
	return r.db.Create(usage).Error
}

func (r *GormLicenseRepository) UsageSummary(key string) (*model.UsageSummary, error) {
	var summary model.UsageSummary
	result := r.db.Raw(`
		SELECT
			ip_address, user_agent, hwid, geo_country,
			MIN(timestamp) AS first_login,
			MAX(timestamp) AS last_login,
			COUNT(*) AS login_count
		FROM usage_logs
		WHERE license_key = ?
		GROUP BY license_key
	`, key).Scan(&summary)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &summary, nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}
