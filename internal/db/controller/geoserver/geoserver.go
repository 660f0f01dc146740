// Package geoserver provides CRUD operations for GeoServer connections.
package geoserver

import (
	"errors"

	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrGeoserverNotFound is returned when a geoserver is not found.
	ErrGeoserverNotFound = errors.New("geoserver not found")
	// ErrDuplicate is returned when another geoserver has the same name or url.
	ErrDuplicate = errors.New("geoserver name or url already exists")
	// ErrLocal is returned when the local geoserver would be changed or deleted.
	ErrLocal = errors.New("the local geoserver can not be changed")
	// ErrInUse is returned when a watershed still references the geoserver.
	ErrInUse = errors.New("geoserver is referenced by a watershed")
)

// List returns all geoservers, the local one first.
func List(db *gorm.DB) ([]models.Geoserver, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var geoservers []models.Geoserver
	if err := db.Order("is_local DESC, name").Find(&geoservers).Error; err != nil {
		return nil, err //nolint:wrapcheck
	}

	return geoservers, nil
}

// Get retrieves a geoserver by its ID.
func Get(db *gorm.DB, id uint64) (*models.Geoserver, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var geoserver models.Geoserver
	if err := db.First(&geoserver, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGeoserverNotFound
		}

		return nil, err //nolint:wrapcheck
	}

	return &geoserver, nil
}

// CheckUnique returns ErrDuplicate when a geoserver other than exceptID uses name or url.
func CheckUnique(db *gorm.DB, name, url string, exceptID uint64) error {
	if db == nil {
		return ErrDBNil
	}

	var count int64
	if err := db.Model(&models.Geoserver{}).
		Where("name = ? OR url = ?", name, url).
		Where("id <> ?", exceptID).
		Count(&count).Error; err != nil {
		return err //nolint:wrapcheck
	}

	if count > 0 {
		return ErrDuplicate
	}

	return nil
}

// Create inserts a new remote geoserver.
func Create(db *gorm.DB, geoserver *models.Geoserver) error {
	if db == nil {
		return ErrDBNil
	}

	geoserver.IsLocal = false

	if err := CheckUnique(db, geoserver.Name, geoserver.URL, 0); err != nil {
		return err
	}

	return translate(db.Create(geoserver).Error)
}

// Update stores the connection settings of an existing remote geoserver.
func Update(db *gorm.DB, geoserver *models.Geoserver) error {
	if db == nil {
		return ErrDBNil
	}

	existing, err := Get(db, geoserver.ID)
	if err != nil {
		return err
	}

	if existing.IsLocal {
		return ErrLocal
	}

	if err = CheckUnique(db, geoserver.Name, geoserver.URL, geoserver.ID); err != nil {
		return err
	}

	return translate(db.Model(existing).Select("Name", "URL", "Username", "Password").Updates(models.Geoserver{
		Name:     geoserver.Name,
		URL:      geoserver.URL,
		Username: geoserver.Username,
		Password: geoserver.Password,
	}).Error)
}

// Delete removes a geoserver no watershed references.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	existing, err := Get(db, id)
	if err != nil {
		return err
	}

	if existing.IsLocal {
		return ErrLocal
	}

	var refs int64
	if err = db.Model(&models.Watershed{}).Where("geoserver_id = ?", id).Count(&refs).Error; err != nil {
		return err //nolint:wrapcheck
	}

	if refs > 0 {
		return ErrInUse
	}

	return translate(db.Delete(&models.Geoserver{}, id).Error)
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrInUse
	default:
		return err
	}
}
