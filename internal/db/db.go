// Package db opens the settings database, migrates the schema and seeds reference rows.
package db

import (
	"errors"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ci-water/adhydro-streamflow/internal/config"
	"github.com/ci-water/adhydro-streamflow/internal/db/dsn"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
)

// ErrConfigNil is returned when Open is called without a configuration.
var ErrConfigNil = errors.New("config is nil")

// Dialector returns the gorm dialector of the configured engine.
func Dialector(cfg *config.Config) gorm.Dialector {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return gormmysql.Open(dsn.Create(cfg))
	case config.EnginePostgres:
		return gormpostgres.Open(dsn.Create(cfg))
	default:
		return sqlite.Open(dsn.Create(cfg))
	}
}

// Open connects to the configured database and migrates the schema.
func Open(cfg *config.Config) (*gorm.DB, error) {
	if cfg == nil {
		return nil, ErrConfigNil
	}

	gormCfg := &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	}

	if cfg.DevMode {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Info)
	}

	database, err := gorm.Open(Dialector(cfg), gormCfg)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	if cfg.DB.GormEngine == config.EngineSQLite {
		// sqlite allows a single writer
		sqlDB, errDB := database.DB()
		if errDB != nil {
			return nil, errDB //nolint:wrapcheck
		}

		sqlDB.SetMaxOpenConns(1)
	}

	if err = Migrate(database); err != nil {
		return nil, err
	}

	log.Info().Str("engine", cfg.DB.GormEngine).Msg("settings database ready")

	return database, nil
}

// Migrate creates or updates all tables.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate( //nolint:wrapcheck
		&models.User{},
		&models.DataStoreType{},
		&models.DataStore{},
		&models.Geoserver{},
		&models.BaseLayer{},
		&models.MainSettings{},
		&models.Watershed{},
		&models.WatershedGroup{},
	)
}
