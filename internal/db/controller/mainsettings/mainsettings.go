// Package mainsettings reads and updates the singleton settings row.
package mainsettings

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/db/models"
)

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrSettingsNotFound is returned when the settings row was never seeded.
	ErrSettingsNotFound = errors.New("main settings not found")
	// ErrBaseLayerNotFound is returned when the selected base layer does not exist.
	ErrBaseLayerNotFound = errors.New("base layer not found")
)

// Update holds the editable settings.
type Update struct {
	BaseLayerID       uint64
	BaseLayerAPIKey   string
	ForecastDirectory string
}

// Load returns the settings row with its base layer.
func Load(db *gorm.DB) (*models.MainSettings, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var settings models.MainSettings
	if err := db.Preload("BaseLayer").Order("id").First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}

		return nil, err //nolint:wrapcheck
	}

	return &settings, nil
}

// ForecastDirectory returns the configured forecast root, empty if unset.
func ForecastDirectory(db *gorm.DB) (string, error) {
	settings, err := Load(db)
	if err != nil {
		return "", err
	}

	return settings.ForecastDirectory, nil
}

// BaseLayers returns the selectable base layers.
func BaseLayers(db *gorm.DB) ([]models.BaseLayer, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var layers []models.BaseLayer
	if err := db.Order("name").Find(&layers).Error; err != nil {
		return nil, err //nolint:wrapcheck
	}

	return layers, nil
}

// Save selects the base layer, stores its api key and the forecast directory in one transaction.
func Save(db *gorm.DB, in Update) (*models.MainSettings, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		settings, err := Load(tx)
		if err != nil {
			return err
		}

		var layer models.BaseLayer
		if err = tx.First(&layer, in.BaseLayerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBaseLayerNotFound
			}

			return err //nolint:wrapcheck
		}

		if err = tx.Model(&models.MainSettings{ID: settings.ID}).Updates(map[string]any{
			"base_layer_id":      layer.ID,
			"forecast_directory": strings.TrimSpace(in.ForecastDirectory),
		}).Error; err != nil {
			return err //nolint:wrapcheck
		}

		return tx.Model(&layer).Update("api_key", strings.TrimSpace(in.BaseLayerAPIKey)).Error //nolint:wrapcheck
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return Load(db)
}
