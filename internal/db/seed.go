package db

import (
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/uniuri"
)

const (
	// LocalDataStoreName is the name of the "no data store" row.
	LocalDataStoreName = "None"
	// LocalGeoserverName is the name of the "local KML files" row.
	LocalGeoserverName = "Local Server"
	// DefaultAdminUsername is the superuser created on an empty users table.
	DefaultAdminUsername = "admin"
)

// baseLayerNames are the map base layers offered in the settings.
var baseLayerNames = []string{"BingMaps", "MapQuest", "OpenStreetMap"} //nolint:gochecknoglobals

// Seed inserts the reference rows a fresh database needs. It is idempotent.
// The local data store and local geoserver are inserted first so they take id 1 on an empty table.
func Seed(database *gorm.DB) error {
	return database.Transaction(func(tx *gorm.DB) error {
		localType := models.DataStoreType{Name: "None", Code: models.DataStoreTypeLocal}
		if err := tx.Where(models.DataStoreType{Code: localType.Code}).FirstOrCreate(&localType).Error; err != nil {
			return err //nolint:wrapcheck
		}

		ckanType := models.DataStoreType{Name: "CKAN", Code: models.DataStoreTypeCKAN}
		if err := tx.Where(models.DataStoreType{Code: ckanType.Code}).FirstOrCreate(&ckanType).Error; err != nil {
			return err //nolint:wrapcheck
		}

		if err := firstOrCreateLocal(tx, &models.DataStore{
			Name:            LocalDataStoreName,
			DataStoreTypeID: localType.ID,
			IsLocal:         true,
		}); err != nil {
			return err
		}

		if err := firstOrCreateLocal(tx, &models.Geoserver{
			Name:    LocalGeoserverName,
			URL:     "/",
			IsLocal: true,
		}); err != nil {
			return err
		}

		var first models.BaseLayer

		for _, name := range baseLayerNames {
			layer := models.BaseLayer{Name: name}
			if err := tx.Where(models.BaseLayer{Name: name}).FirstOrCreate(&layer).Error; err != nil {
				return err //nolint:wrapcheck
			}

			if first.ID == 0 {
				first = layer
			}
		}

		var count int64
		if err := tx.Model(&models.MainSettings{}).Count(&count).Error; err != nil {
			return err //nolint:wrapcheck
		}

		if count == 0 {
			if err := tx.Create(&models.MainSettings{
				BaseLayerID:   first.ID,
				AppInstanceID: uuid.NewString(),
			}).Error; err != nil {
				return err //nolint:wrapcheck
			}
		}

		return seedAdmin(tx)
	})
}

// firstOrCreateLocal creates the local row unless one already exists.
func firstOrCreateLocal[T models.DataStore | models.Geoserver](tx *gorm.DB, row *T) error {
	var existing T

	err := tx.Where("is_local = ?", true).First(&existing).Error

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return tx.Create(row).Error //nolint:wrapcheck
	default:
		return err //nolint:wrapcheck
	}
}

func seedAdmin(tx *gorm.DB) error {
	var count int64
	if err := tx.Model(&models.User{}).Count(&count).Error; err != nil {
		return err //nolint:wrapcheck
	}

	if count > 0 {
		return nil
	}

	password, err := uniuri.New()
	if err != nil {
		return err //nolint:wrapcheck
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if err = tx.Create(&models.User{
		Username:    DefaultAdminUsername,
		Password:    hash,
		Active:      true,
		IsSuperuser: true,
	}).Error; err != nil {
		return err //nolint:wrapcheck
	}

	log.Warn().Str("username", DefaultAdminUsername).Str("password", password).
		Msg("created initial superuser, change the password")

	return nil
}
