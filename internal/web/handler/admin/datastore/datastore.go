// Package datastore provides the staff handlers managing forecast data store connections.
package datastore

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/auth"
	"github.com/ci-water/adhydro-streamflow/internal/ckan"
	"github.com/ci-water/adhydro-streamflow/internal/db/controller/datastore"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler/view"
)

const (
	// Path is the base path for data store management.
	Path = handler.AdminPath + "/data-stores"

	msgMissingData       = "Request missing data."
	msgDuplicate         = "A data store with the same name or api endpoint exists."
	msgAddCredentials    = "Data Store Credentials Invalid"
	msgUpdateCredentials = "Data store credentials invalid."
	msgLocal             = "Cannot change this data store."
	msgInUse             = "This data store is connected with a watershed! Must remove connection to delete."
	msgNotFound          = "The data store does not exist."
	msgUnknownType       = "Data store type is faulty."
	msgFaultyID          = "Data store id is faulty."
	msgAdded             = "Data Store Sucessfully Added!"
	msgDeleted           = "Data Store Sucessfully Deleted!"
	msgUpdated           = "Data Store Sucessfully Updated!"
)

type addInput struct {
	Name        string `form:"data_store_name" validate:"required,max=255"`
	TypeID      uint64 `form:"data_store_type_id" validate:"required"`
	APIEndpoint string `form:"data_store_endpoint" validate:"required,max=255"`
	APIKey      string `form:"data_store_api_key" validate:"required,max=255"`
}

type updateInput struct {
	Name        string `form:"data_store_name" validate:"required,max=255"`
	APIEndpoint string `form:"data_store_api_endpoint" validate:"required,max=255"`
	APIKey      string `form:"data_store_api_key" validate:"required,max=255"`
}

// Service provides CRUD operations for data stores.
type Service struct {
	db        *gorm.DB
	catalogs  ckan.Factory
	validator handler.XValidator
}

// Handler is the exported instance.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers routes.
func (s *Service) Init(app *fiber.App, db *gorm.DB, authService *auth.Service, catalogs ckan.Factory) error {
	if app == nil || db == nil || authService == nil || catalogs == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg) //nolint:goerr113
	}

	s.db = db
	s.catalogs = catalogs

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

// List returns one page of data stores and the selectable types.
func (s *Service) List(c *fiber.Ctx) error {
	db := s.db.WithContext(c.UserContext())

	page, tx, err := handler.Paginate(c, db.Model(&models.DataStore{}))
	if err != nil {
		return handler.Internal(c, err, "failed to count data stores")
	}

	var dataStores []models.DataStore
	if err = tx.Preload("DataStoreType").Order("is_local DESC, name").Find(&dataStores).Error; err != nil {
		return handler.Internal(c, err, "failed to list data stores")
	}

	types, err := datastore.Types(db)
	if err != nil {
		return handler.Internal(c, err, "failed to list data store types")
	}

	out := make([]view.DataStore, 0, len(dataStores))
	for i := range dataStores {
		out = append(out, view.NewDataStore(&dataStores[i]))
	}

	typeOptions := make([]view.Option, 0, len(types))
	for _, t := range types {
		typeOptions = append(typeOptions, view.Option{Name: t.Name, Value: t.ID})
	}

	return c.JSON(fiber.Map{
		"data_stores":      out,
		"data_store_types": typeOptions,
		"pagination":       page,
	})
}

// Get returns one data store.
func (s *Service) Get(c *fiber.Ctx) error {
	id, ok := handler.ParseID(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyID)
	}

	dataStore, err := datastore.Get(s.db.WithContext(c.UserContext()), id)
	if err != nil {
		return s.fail(c, err, msgAddCredentials)
	}

	return c.JSON(fiber.Map{"data_store": view.NewDataStore(dataStore)})
}

// probe lists the catalog datasets to check endpoint and key.
func (s *Service) probe(c *fiber.Ctx, endpoint, apiKey string) error {
	_, err := s.catalogs(endpoint, apiKey).ListDatasets(c.UserContext())

	return err //nolint:wrapcheck
}

// fail maps a data store error to its answer.
func (s *Service) fail(c *fiber.Ctx, err error, credentialsMsg string) error {
	switch {
	case errors.Is(err, datastore.ErrDataStoreNotFound):
		return handler.Error(c, fiber.StatusNotFound, msgNotFound)
	case errors.Is(err, datastore.ErrDuplicate):
		return handler.Error(c, fiber.StatusConflict, msgDuplicate)
	case errors.Is(err, datastore.ErrLocal):
		return handler.Error(c, fiber.StatusBadRequest, msgLocal)
	case errors.Is(err, datastore.ErrInUse):
		return handler.Error(c, fiber.StatusConflict, msgInUse)
	case errors.Is(err, datastore.ErrUnknownType):
		return handler.Error(c, fiber.StatusBadRequest, msgUnknownType)
	case errors.Is(err, ckan.ErrInvalidCredentials):
		return handler.Error(c, fiber.StatusBadRequest, credentialsMsg)
	case errors.Is(err, ckan.ErrCatalog):
		log.Warn().Err(err).Msg("data store probe failed")

		return handler.Error(c, fiber.StatusBadGateway, err.Error())
	default:
		return handler.Internal(c, err, "data store operation failed")
	}
}

// Add creates a catalog data store once its credentials were checked.
func (s *Service) Add(c *fiber.Ctx) error {
	in := new(addInput)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, msgMissingData)
	}

	if errs := s.validator.Validate(in); len(errs) > 0 {
		return handler.Error(c, fiber.StatusBadRequest, msgMissingData)
	}

	db := s.db.WithContext(c.UserContext())

	if err := datastore.CheckUnique(db, in.Name, in.APIEndpoint, 0); err != nil {
		return s.fail(c, err, msgAddCredentials)
	}

	if err := s.probe(c, in.APIEndpoint, in.APIKey); err != nil {
		return s.fail(c, err, msgAddCredentials)
	}

	dataStore := &models.DataStore{
		Name:            in.Name,
		DataStoreTypeID: in.TypeID,
		APIEndpoint:     in.APIEndpoint,
		APIKey:          in.APIKey,
	}

	if err := datastore.Create(db, dataStore); err != nil {
		return s.fail(c, err, msgAddCredentials)
	}

	log.Info().Uint64("id", dataStore.ID).Str("name", dataStore.Name).Msg("data store added")

	return handler.Success(c, msgAdded, fiber.Map{"data_store_id": dataStore.ID})
}

// Update changes name, endpoint and key of a catalog data store once the new credentials were checked.
func (s *Service) Update(c *fiber.Ctx) error {
	id, ok := handler.ParseID(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyID)
	}

	in := new(updateInput)
	if err := c.BodyParser(in); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, msgMissingData)
	}

	if errs := s.validator.Validate(in); len(errs) > 0 {
		return handler.Error(c, fiber.StatusBadRequest, msgMissingData)
	}

	db := s.db.WithContext(c.UserContext())

	existing, err := datastore.Get(db, id)
	if err != nil {
		return s.fail(c, err, msgUpdateCredentials)
	}

	if existing.IsLocal {
		return handler.Error(c, fiber.StatusBadRequest, msgLocal)
	}

	if err = datastore.CheckUnique(db, in.Name, in.APIEndpoint, id); err != nil {
		return s.fail(c, err, msgUpdateCredentials)
	}

	if err = s.probe(c, in.APIEndpoint, in.APIKey); err != nil {
		return s.fail(c, err, msgUpdateCredentials)
	}

	existing.Name = in.Name
	existing.APIEndpoint = in.APIEndpoint
	existing.APIKey = in.APIKey

	if err = datastore.Update(db, existing); err != nil {
		return s.fail(c, err, msgUpdateCredentials)
	}

	log.Info().Uint64("id", id).Str("name", in.Name).Msg("data store updated")

	return handler.Success(c, msgUpdated, nil)
}

// Delete removes a data store no watershed uses.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, ok := handler.ParseID(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyID)
	}

	if err := datastore.Delete(s.db.WithContext(c.UserContext()), id); err != nil {
		return s.fail(c, err, msgUpdateCredentials)
	}

	log.Info().Uint64("id", id).Msg("data store deleted")

	return handler.Success(c, msgDeleted, nil)
}
