// Package web wires the fiber app, its middleware and every handler.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/auth"
	"github.com/ci-water/adhydro-streamflow/internal/ckan"
	"github.com/ci-water/adhydro-streamflow/internal/config"
	"github.com/ci-water/adhydro-streamflow/internal/cron"
	"github.com/ci-water/adhydro-streamflow/internal/forecast"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/kml"
	fiberlogger "github.com/ci-water/adhydro-streamflow/internal/logger/adapter/fiber"
	"github.com/ci-water/adhydro-streamflow/internal/watershed"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler"
	admindatastore "github.com/ci-water/adhydro-streamflow/internal/web/handler/admin/datastore"
	admingeoserver "github.com/ci-water/adhydro-streamflow/internal/web/handler/admin/geoserver"
	admingroup "github.com/ci-water/adhydro-streamflow/internal/web/handler/admin/group"
	adminsettings "github.com/ci-water/adhydro-streamflow/internal/web/handler/admin/settings"
	adminwatershed "github.com/ci-water/adhydro-streamflow/internal/web/handler/admin/watershed"
	forecasthandler "github.com/ci-water/adhydro-streamflow/internal/web/handler/forecast"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler/home"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler/login"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler/logout"
	authmiddleware "github.com/ci-water/adhydro-streamflow/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers 503 once a shutdown started.
	CheckAlivePath = "/checkalive"
	// MetricsPath serves the prometheus metrics.
	MetricsPath = "/metrics"

	// uploads carry whole shapefile sets
	bodyLimit = 256 << 20
)

// Deps are the external systems the handlers talk to.
type Deps struct {
	Geoservers geoserver.Factory
	Catalogs   ckan.Factory
	Cron       cron.Registrar
}

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
	authService  *auth.Service
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for SIGINT or SIGTERM and stops the server gracefully.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// checkAlive answers 200 while the service accepts traffic.
func (s *Service) checkAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// New creates the web service and registers every route.
func New(cfg *config.Config, db *gorm.DB, deps Deps) (*Service, error) {
	if cfg == nil || db == nil {
		return nil, errors.New(handler.ErrNilACDFatalLogMsg) //nolint:goerr113
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			BodyLimit:      bodyLimit,
		},
	)

	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	authService := auth.NewService(db)

	service := &Service{
		cfg:          cfg,
		App:          app,
		db:           db,
		authService:  authService,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))
	app.Static(kml.URLPrefix, cfg.Layers.KMLDirectory)

	app.Use(authmiddleware.Middleware)

	watersheds := &watershed.Service{
		DB:           db,
		KML:          kml.NewStore(cfg.Layers.KMLDirectory),
		Geoservers:   deps.Geoservers,
		Workspace:    cfg.GeoServer.Workspace,
		NamespaceURI: cfg.GeoServer.NamespaceURI,
	}

	logout.Handler.Init(app, cfg)
	forecasthandler.Handler.Init(app, forecast.NewLookup(db))

	for _, err := range []error{
		login.Handler.Init(app, cfg, db),
		home.Handler.Init(app, db, watersheds),
		adminwatershed.Handler.Init(app, db, authService, watersheds),
		admingroup.Handler.Init(app, db, authService),
		admindatastore.Handler.Init(app, db, authService, deps.Catalogs),
		admingeoserver.Handler.Init(app, cfg, db, authService, deps.Geoservers),
		adminsettings.Handler.Init(app, cfg, db, authService, deps.Cron),
	} {
		if err != nil {
			return nil, err
		}
	}

	return service, nil
}
