// Package datastore provides CRUD operations for forecast data store connections.
package datastore

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ci-water/adhydro-streamflow/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrDataStoreNotFound is returned when a data store is not found.
	ErrDataStoreNotFound = errors.New("data store not found")
	// ErrDuplicate is returned when another data store has the same name or endpoint.
	ErrDuplicate = errors.New("data store name or api endpoint already exists")
	// ErrLocal is returned when the local data store would be changed or deleted.
	ErrLocal = errors.New("the local data store can not be changed")
	// ErrInUse is returned when a watershed still references the data store.
	ErrInUse = errors.New("data store is referenced by a watershed")
	// ErrUnknownType is returned when the data store type does not exist.
	ErrUnknownType = errors.New("data store type not found")
)

// List returns all data stores with their type, the local one first.
func List(db *gorm.DB) ([]models.DataStore, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var dataStores []models.DataStore
	if err := db.Preload("DataStoreType").Order("is_local DESC, name").Find(&dataStores).Error; err != nil {
		return nil, err //nolint:wrapcheck
	}

	return dataStores, nil
}

// Get retrieves a data store by its ID.
func Get(db *gorm.DB, id uint64) (*models.DataStore, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var dataStore models.DataStore
	if err := db.Preload("DataStoreType").First(&dataStore, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDataStoreNotFound
		}

		return nil, err //nolint:wrapcheck
	}

	return &dataStore, nil
}

// Types returns the selectable data store types.
func Types(db *gorm.DB) ([]models.DataStoreType, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var types []models.DataStoreType
	if err := db.Where("code <> ?", models.DataStoreTypeLocal).Order("name").Find(&types).Error; err != nil {
		return nil, err //nolint:wrapcheck
	}

	return types, nil
}

// CountDuplicates counts data stores other than exceptID using name or endpoint.
func CountDuplicates(db *gorm.DB, name, endpoint string, exceptID uint64) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	var count int64

	err := db.Model(&models.DataStore{}).
		Where("name = ? OR api_endpoint = ?", name, endpoint).
		Where("id <> ?", exceptID).
		Count(&count).Error

	return count, err //nolint:wrapcheck
}

// CheckUnique returns ErrDuplicate when another data store has the same name or endpoint.
func CheckUnique(db *gorm.DB, name, endpoint string, exceptID uint64) error {
	count, err := CountDuplicates(db, name, endpoint, exceptID)
	if err != nil {
		return err
	}

	if count > 0 {
		return ErrDuplicate
	}

	return nil
}

// Create inserts a new catalog data store.
func Create(db *gorm.DB, dataStore *models.DataStore) error {
	if db == nil {
		return ErrDBNil
	}

	dataStore.IsLocal = false

	var typeCount int64
	if err := db.Model(&models.DataStoreType{}).
		Where("id = ? AND code <> ?", dataStore.DataStoreTypeID, models.DataStoreTypeLocal).
		Count(&typeCount).Error; err != nil {
		return err //nolint:wrapcheck
	}

	if typeCount == 0 {
		return ErrUnknownType
	}

	if err := CheckUnique(db, dataStore.Name, dataStore.APIEndpoint, 0); err != nil {
		return err
	}

	return translate(db.Omit(clause.Associations).Create(dataStore).Error)
}

// Update stores name, endpoint and key of an existing data store.
func Update(db *gorm.DB, dataStore *models.DataStore) error {
	if db == nil {
		return ErrDBNil
	}

	existing, err := Get(db, dataStore.ID)
	if err != nil {
		return err
	}

	if existing.IsLocal {
		return ErrLocal
	}

	if err = CheckUnique(db, dataStore.Name, dataStore.APIEndpoint, dataStore.ID); err != nil {
		return err
	}

	return translate(db.Model(existing).Select("Name", "APIEndpoint", "APIKey").Updates(models.DataStore{
		Name:        dataStore.Name,
		APIEndpoint: dataStore.APIEndpoint,
		APIKey:      dataStore.APIKey,
	}).Error)
}

// Delete removes a data store no watershed references.
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
	if err = db.Model(&models.Watershed{}).Where("data_store_id = ?", id).Count(&refs).Error; err != nil {
		return err //nolint:wrapcheck
	}

	if refs > 0 {
		return ErrInUse
	}

	return translate(db.Delete(&models.DataStore{}, id).Error)
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
