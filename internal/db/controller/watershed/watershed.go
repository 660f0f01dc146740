// Package watershed provides queries and persistence for watershed rows.
// External resources (KML files, GeoServer layers, forecast files) are handled by the caller.
package watershed

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ci-water/adhydro-streamflow/internal/db/models"
)

const orderByNames = "watershed_name, subbasin_name"

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrWatershedNotFound is returned when a watershed is not found.
	ErrWatershedNotFound = errors.New("watershed not found")
	// ErrDuplicate is returned when another watershed has the same folder and file name.
	ErrDuplicate = errors.New("watershed folder and file name already exist")
)

func withConnections(db *gorm.DB) *gorm.DB {
	return db.Preload("DataStore").Preload("Geoserver")
}

// Get retrieves a watershed by its ID with its data store and geoserver.
func Get(db *gorm.DB, id uint64) (*models.Watershed, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var watershed models.Watershed
	if err := withConnections(db).First(&watershed, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWatershedNotFound
		}

		return nil, err //nolint:wrapcheck
	}

	return &watershed, nil
}

// List returns all watersheds ordered by watershed and subbasin name.
func List(db *gorm.DB) ([]models.Watershed, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var watersheds []models.Watershed
	if err := withConnections(db).Order(orderByNames).Find(&watersheds).Error; err != nil {
		return nil, err //nolint:wrapcheck
	}

	return watersheds, nil
}

// ListByIDs returns the watersheds with the given ids, unknown ids are skipped.
func ListByIDs(db *gorm.DB, ids []uint64) ([]models.Watershed, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var watersheds []models.Watershed
	if len(ids) == 0 {
		return watersheds, nil
	}

	if err := withConnections(db).Where("id IN ?", ids).Order(orderByNames).Find(&watersheds).Error; err != nil {
		return nil, err //nolint:wrapcheck
	}

	return watersheds, nil
}

// ListByGroup returns the members of a watershed group.
func ListByGroup(db *gorm.DB, groupID uint64) ([]models.Watershed, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var watersheds []models.Watershed

	err := withConnections(db).
		Joins("JOIN watershed_group_members m ON m.watershed_id = watersheds.id").
		Where("m.watershed_group_id = ?", groupID).
		Order(orderByNames).
		Find(&watersheds).Error
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return watersheds, nil
}

// CheckUnique returns ErrDuplicate when a watershed other than exceptID uses folder and file.
func CheckUnique(db *gorm.DB, folderName, fileName string, exceptID uint64) error {
	if db == nil {
		return ErrDBNil
	}

	var count int64
	if err := db.Model(&models.Watershed{}).
		Where("folder_name = ? AND file_name = ?", folderName, fileName).
		Where("id <> ?", exceptID).
		Count(&count).Error; err != nil {
		return err //nolint:wrapcheck
	}

	if count > 0 {
		return ErrDuplicate
	}

	return nil
}

// CountForecastSharing counts watersheds other than exceptID using the same forecast names.
func CountForecastSharing(db *gorm.DB, watershedName, subbasinName string, exceptID uint64) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var count int64

	err := db.Model(&models.Watershed{}).
		Where("forecast_watershed_name = ? AND forecast_subbasin_name = ?", watershedName, subbasinName).
		Where("id <> ?", exceptID).
		Count(&count).Error

	return count, err //nolint:wrapcheck
}

// Create inserts a new watershed row.
func Create(db *gorm.DB, watershed *models.Watershed) error {
	if db == nil {
		return ErrDBNil
	}

	if err := CheckUnique(db, watershed.FolderName, watershed.FileName, 0); err != nil {
		return err
	}

	return translate(db.Omit(clause.Associations).Create(watershed).Error)
}

// Save stores every column of an existing watershed row.
func Save(db *gorm.DB, watershed *models.Watershed) error {
	if db == nil {
		return ErrDBNil
	}

	return translate(db.Omit(clause.Associations).Save(watershed).Error)
}

// Delete removes a watershed row and its group memberships.
func Delete(db *gorm.DB, id uint64) error {
	if db == nil {
		return ErrDBNil
	}

	watershed := models.Watershed{ID: id}

	if err := db.Model(&watershed).Association("Groups").Clear(); err != nil {
		return err //nolint:wrapcheck
	}

	result := db.Delete(&watershed)
	if result.Error != nil {
		return result.Error //nolint:wrapcheck
	}

	if result.RowsAffected == 0 {
		return ErrWatershedNotFound
	}

	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}

	return err
}
