// Package daemon assembles the database, the session store and the web service.
package daemon

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	sessionmysql "github.com/gofiber/storage/mysql/v2"
	sessionpostgres "github.com/gofiber/storage/postgres/v3"
	"github.com/rs/zerolog/log"

	"github.com/ci-water/adhydro-streamflow/internal/ckan"
	"github.com/ci-water/adhydro-streamflow/internal/config"
	"github.com/ci-water/adhydro-streamflow/internal/cron"
	"github.com/ci-water/adhydro-streamflow/internal/db"
	"github.com/ci-water/adhydro-streamflow/internal/db/dsn"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/web"
	"github.com/ci-water/adhydro-streamflow/internal/web/session"
)

// sessionTable keeps sessions next to the settings tables.
const sessionTable = "sessions"

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the web service and blocks until it is shut down.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// sessionStorage returns the fiber storage for the configured engine.
// nil keeps the sessions in memory.
func sessionStorage(cfg *config.Config) fiber.Storage {
	switch cfg.DB.GormEngine {
	case config.EngineMySQL:
		return sessionmysql.New(sessionmysql.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         sessionTable,
		})
	case config.EnginePostgres:
		return sessionpostgres.New(sessionpostgres.Config{
			ConnectionURI: dsn.Create(cfg),
			Table:         sessionTable,
		})
	default:
		return nil
	}
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, db.ErrConfigNil
	}

	database, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Seed(database); err != nil {
		return nil, fmt.Errorf("failed to seed database: %w", err)
	}

	session.Init(sessionStorage(cfg))

	var registrar cron.Registrar = cron.Noop{}
	if cfg.Forecast.CronEnabled {
		registrar = cron.Crontab{}
	}

	webService, err := web.New(cfg, database, web.Deps{
		Geoservers: geoserver.NewFactory(cfg.GeoServer.Workspace, cfg.GeoServer.Timeout),
		Catalogs:   ckan.NewFactory(cfg.Catalog.Timeout),
		Cron:       registrar,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Int("port", cfg.Webserver.Port).Msg("adhydro streamflow service ready")

	return &Daemon{cfg: cfg, webService: webService}, nil
}
