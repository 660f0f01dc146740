// Package geoserver provides the staff handlers managing GeoServer connections.
package geoserver

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/auth"
	"github.com/ci-water/adhydro-streamflow/internal/config"
	geoserverdb "github.com/ci-water/adhydro-streamflow/internal/db/controller/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler/view"
)

const (
	// Path is the base path for geoserver management.
	Path = handler.AdminPath + "/geoservers"

	msgMissingData    = "Missing input data."
	msgDuplicate      = "A geoserver with the same name or url exists."
	msgFaultyID       = "Geoserver id is faulty."
	msgLocal          = "Cannot change this geoserver."
	msgDeleteNotFound = "The geoserver to delete does not exist."
	msgUpdateNotFound = "The geoserver to update does not exist."
	msgNotFound       = "The geoserver does not exist."
	msgInUse          = "This geoserver is connected with a watershed! Must remove connection to delete."
	msgAdded          = "Geoserver Sucessfully Added!"
	msgDeleted        = "Geoserver sucessfully deleted!"
	msgUpdated        = "Geoserver sucessfully updated!"
)

type formInput struct {
	Name     string `form:"geoserver_name" validate:"required,max=255"`
	URL      string `form:"geoserver_url" validate:"required,max=255"`
	Username string `form:"geoserver_username" validate:"required,max=255"`
	Password string `form:"geoserver_password" validate:"required,max=255"`
}

// connection returns the trimmed connection the form describes.
func (in *formInput) connection() *models.Geoserver {
	return &models.Geoserver{
		Name:     strings.TrimSpace(in.Name),
		URL:      geoserver.NormalizeURL(in.URL),
		Username: strings.TrimSpace(in.Username),
		Password: strings.TrimSpace(in.Password),
	}
}

// Service provides CRUD operations for geoservers.
type Service struct {
	cfg       *config.Config
	db        *gorm.DB
	engines   geoserver.Factory
	validator handler.XValidator
}

// Handler is the exported instance.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, db *gorm.DB, authService *auth.Service, engines geoserver.Factory) error {
	if app == nil || cfg == nil || db == nil || authService == nil || engines == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg) //nolint:goerr113
	}

	s.cfg = cfg
	s.db = db
	s.engines = engines

	app.Route(Path, func(router fiber.Router) {
		router.Use(auth.RequireStaff(authService))
		router.Get(handler.RouterRootPath, s.List)
		router.Post(handler.RouterRootPath, s.Add)
		router.Get("/:id", s.Get)
		router.Post("/:id", s.Update)
		router.Post("/:id/delete", s.Delete)
	})

	return nil
}

// List returns one page of geoservers.
func (s *Service) List(c *fiber.Ctx) error {
	page, tx, err := handler.Paginate(c, s.db.WithContext(c.UserContext()).Model(&models.Geoserver{}))
	if err != nil {
		return handler.Internal(c, err, "failed to count geoservers")
	}

	var geoservers []models.Geoserver
	if err = tx.Order("is_local DESC, name").Find(&geoservers).Error; err != nil {
		return handler.Internal(c, err, "failed to list geoservers")
	}

	out := make([]view.Geoserver, 0, len(geoservers))
	for i := range geoservers {
		out = append(out, view.NewGeoserver(&geoservers[i]))
	}

	return c.JSON(fiber.Map{"geoservers": out, "pagination": page})
}

// Get returns one geoserver.
func (s *Service) Get(c *fiber.Ctx) error {
	id, ok := handler.ParseID(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyID)
	}

	conn, err := geoserverdb.Get(s.db.WithContext(c.UserContext()), id)
	if err != nil {
		return s.fail(c, err, msgNotFound)
	}

	return c.JSON(fiber.Map{"geoserver": view.NewGeoserver(conn)})
}

// probe creates the workspace on conn. The error message is "GeoServer Error: ...".
func (s *Service) probe(c *fiber.Ctx, conn *models.Geoserver) error {
	return geoserver.Probe(c.UserContext(), s.engines(*conn), s.cfg.GeoServer.Workspace, s.cfg.GeoServer.NamespaceURI) //nolint:wrapcheck
}

func (s *Service) fail(c *fiber.Ctx, err error, notFoundMsg string) error {
	switch {
	case errors.Is(err, geoserverdb.ErrGeoserverNotFound):
		return handler.Error(c, fiber.StatusNotFound, notFoundMsg)
	case errors.Is(err, geoserverdb.ErrDuplicate):
		return handler.Error(c, fiber.StatusConflict, msgDuplicate)
	case errors.Is(err, geoserverdb.ErrLocal):
		return handler.Error(c, fiber.StatusBadRequest, msgLocal)
	case errors.Is(err, geoserverdb.ErrInUse):
		return handler.Error(c, fiber.StatusConflict, msgInUse)
	case errors.Is(err, geoserver.ErrGeoServer):
		log.Warn().Err(err).Msg("geoserver probe failed")

		return handler.Error(c, fiber.StatusBadGateway, err.Error())
	default:
		return handler.Internal(c, err, "geoserver operation failed")
	}
}

func (s *Service) parse(c *fiber.Ctx) (*models.Geoserver, bool) {
	in := new(formInput)
	if err := c.BodyParser(in); err != nil {
		return nil, false
	}

	if errs := s.validator.Validate(in); len(errs) > 0 {
		return nil, false
	}

	conn := in.connection()
	if conn.Name == "" || conn.URL == "" || conn.Username == "" || conn.Password == "" {
		return nil, false
	}

	return conn, true
}

// Add stores a remote geoserver once its credentials were checked.
func (s *Service) Add(c *fiber.Ctx) error {
	conn, ok := s.parse(c)
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgMissingData)
	}

	db := s.db.WithContext(c.UserContext())

	if err := geoserverdb.CheckUnique(db, conn.Name, conn.URL, 0); err != nil {
		return s.fail(c, err, msgNotFound)
	}

	if err := s.probe(c, conn); err != nil {
		return s.fail(c, err, msgNotFound)
	}

	if err := geoserverdb.Create(db, conn); err != nil {
		return s.fail(c, err, msgNotFound)
	}

	log.Info().Uint64("id", conn.ID).Str("url", conn.URL).Msg("geoserver added")

	return handler.Success(c, msgAdded, fiber.Map{"geoserver_id": conn.ID})
}

// Update changes the connection settings of a remote geoserver once the new credentials were checked.
func (s *Service) Update(c *fiber.Ctx) error {
	conn, ok := s.parse(c)
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgMissingData)
	}

	id, ok := handler.ParseID(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyID)
	}

	conn.ID = id
	db := s.db.WithContext(c.UserContext())

	existing, err := geoserverdb.Get(db, id)
	if err != nil {
		return s.fail(c, err, msgUpdateNotFound)
	}

	if existing.IsLocal {
		return handler.Error(c, fiber.StatusBadRequest, msgLocal)
	}

	if err = geoserverdb.CheckUnique(db, conn.Name, conn.URL, id); err != nil {
		return s.fail(c, err, msgUpdateNotFound)
	}

	if err = s.probe(c, conn); err != nil {
		return s.fail(c, err, msgUpdateNotFound)
	}

	if err = geoserverdb.Update(db, conn); err != nil {
		return s.fail(c, err, msgUpdateNotFound)
	}

	log.Info().Uint64("id", id).Str("url", conn.URL).Msg("geoserver updated")

	return handler.Success(c, msgUpdated, nil)
}

// Delete removes a geoserver no watershed uses.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, ok := handler.ParseID(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyID)
	}

	if err := geoserverdb.Delete(s.db.WithContext(c.UserContext()), id); err != nil {
		return s.fail(c, err, msgDeleteNotFound)
	}

	log.Info().Uint64("id", id).Msg("geoserver deleted")

	return handler.Success(c, msgDeleted, nil)
}
