// Package settings provides the staff handlers reading and updating the main settings.
package settings

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/auth"
	"github.com/ci-water/adhydro-streamflow/internal/config"
	"github.com/ci-water/adhydro-streamflow/internal/cron"
	"github.com/ci-water/adhydro-streamflow/internal/db/controller/mainsettings"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler/view"
)

const (
	// Path is the path of the settings routes.
	Path = handler.AdminPath + "/settings"

	msgFaulty    = "Settings input faulty."
	msgBaseLayer = "The base layer does not exist."
	msgUpdated   = "Settings Sucessfully Updated!"
)

type formInput struct {
	BaseLayerID       uint64 `form:"base_layer_id" validate:"required"`
	APIKey            string `form:"api_key" validate:"max=255"`
	ForecastDirectory string `form:"adhydro_location" validate:"max=1024"`
}

// Current is the settings answer.
type Current struct {
	BaseLayerID       uint64 `json:"base_layer_id"`
	BaseLayerName     string `json:"base_layer_name"`
	APIKey            string `json:"api_key"`
	ForecastDirectory string `json:"adhydro_location"`
}

// Service reads and updates the main settings.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	registrar cron.Registrar
	validator handler.XValidator
}

// Handler is the exported instance.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service, registrar cron.Registrar) error {
	if app == nil || cfg == nil || db == nil || authService == nil || registrar == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg) //nolint:goerr113
	}

	s.cfg = cfg
	s.db = db
	s.registrar = registrar

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireStaff(authService))
		router.Get(handler.RouterRootPath, s.Get)
		router.Post(handler.RouterRootPath, s.Post)
	})

	return nil
}

// Get returns the settings and the selectable base layers.
func (s *Service) Get(c *fiber.Ctx) error {
	db := s.db.WithContext(c.UserContext())

	current, err := mainsettings.Load(db)
	if err != nil {
		return handler.Internal(c, err, "failed to load settings")
	}

	layers, err := mainsettings.BaseLayers(db)
	if err != nil {
		return handler.Internal(c, err, "failed to list base layers")
	}

	options := make([]view.Option, 0, len(layers))
	for _, l := range layers {
		options = append(options, view.Option{Name: l.Name, Value: l.ID})
	}

	return c.JSON(fiber.Map{
		"settings": Current{
			BaseLayerID:       current.BaseLayerID,
			BaseLayerName:     current.BaseLayer.Name,
			APIKey:            current.BaseLayer.APIKey,
			ForecastDirectory: current.ForecastDirectory,
		},
		"base_layers": options,
	})
}

// Post reconciles the download job, then stores the settings. A cron failure leaves the settings unchanged.
func (s *Service) Post(c *fiber.Ctx) error {
	in := new(formInput)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, msgFaulty)
	}

	if errs := s.validator.Validate(in); len(errs) > 0 {
		return handler.Error(c, fiber.StatusBadRequest, msgFaulty)
	}

	if err := cron.Reconcile(c.UserContext(), s.registrar, s.cfg.Forecast.DownloadCommand, in.ForecastDirectory); err != nil {
		return handler.Error(c, fiber.StatusInternalServerError, cron.ErrSetup.Error())
	}

	_, err := mainsettings.Save(s.db.WithContext(c.UserContext()), mainsettings.Update{
		BaseLayerID:       in.BaseLayerID,
		BaseLayerAPIKey:   in.APIKey,
		ForecastDirectory: in.ForecastDirectory,
	})

	switch {
	case errors.Is(err, mainsettings.ErrBaseLayerNotFound):
		return handler.Error(c, fiber.StatusBadRequest, msgBaseLayer)
	case err != nil:
		return handler.Internal(c, err, "failed to save settings")
	}

	log.Info().Uint64("base_layer_id", in.BaseLayerID).Str("adhydro_location", in.ForecastDirectory).Msg("settings updated")

	return handler.Success(c, msgUpdated, nil)
}
