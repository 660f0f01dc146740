// Package watershed provides the staff handlers adding, updating and deleting watersheds.
package watershed

import (
	"errors"
	"io"
	"mime/multipart"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/auth"
	"github.com/ci-water/adhydro-streamflow/internal/cleanup"
	"github.com/ci-water/adhydro-streamflow/internal/db/controller/datastore"
	geoserverdb "github.com/ci-water/adhydro-streamflow/internal/db/controller/geoserver"
	watersheddb "github.com/ci-water/adhydro-streamflow/internal/db/controller/watershed"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/shapefile"
	"github.com/ci-water/adhydro-streamflow/internal/watershed"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler/view"
)

const (
	// Path is the base path for watershed management.
	Path = handler.AdminPath + "/watersheds"

	msgMissingData         = "Request input missing data."
	msgFaultyIDs           = "One or more ids are faulty."
	msgForecastNames       = "Must have an ADHydro watershed/subbasin name to continue"
	msgMissingKML          = "Missing drainage line KML file."
	msgMissingDrainageLine = "Missing geoserver drainage line."
	msgDuplicate           = "A watershed with the same name exists."
	msgUpdateNotFound      = "The watershed to update does not exist."
	msgDeleteNotFound      = "The watershed to delete does not exist."
	msgFaultyID            = "Watershed id is faulty."
	msgUpload              = "Uploaded files could not be read."
	msgAdded               = "Watershed Sucessfully Added!"
	msgUpdated             = "Watershed sucessfully updated!"
	msgDeleted             = "Watershed sucessfully deleted!"
)

// Service provides the watershed management routes.
type Service struct {
	db         *gorm.DB
	watersheds *watershed.Service
}

// Handler is the exported instance.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers routes.
func (s *Service) Init(app *fiber.App, db *gorm.DB, authService *auth.Service, watersheds *watershed.Service) error {
	if app == nil || db == nil || authService == nil || watersheds == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg) //nolint:goerr113
	}

	s.db = db
	s.watersheds = watersheds

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

// List returns one page of watersheds and the connections a watershed can use.
func (s *Service) List(c *fiber.Ctx) error {
	db := s.db.WithContext(c.UserContext())

	page, tx, err := handler.Paginate(c, db.Model(&models.Watershed{}))
	if err != nil {
		return handler.Internal(c, err, "failed to count watersheds")
	}

	var watersheds []models.Watershed
	if err = tx.Preload("DataStore").Preload("Geoserver").Order("watershed_name, subbasin_name").Find(&watersheds).Error; err != nil {
		return handler.Internal(c, err, "failed to list watersheds")
	}

	dataStores, err := datastore.List(db)
	if err != nil {
		return handler.Internal(c, err, "failed to list data stores")
	}

	geoservers, err := geoserverdb.List(db)
	if err != nil {
		return handler.Internal(c, err, "failed to list geoservers")
	}

	dataStoreOptions := make([]view.Option, 0, len(dataStores))
	for _, d := range dataStores {
		dataStoreOptions = append(dataStoreOptions, view.Option{Name: d.Name, Value: d.ID})
	}

	geoserverOptions := make([]view.Option, 0, len(geoservers))
	for _, g := range geoservers {
		geoserverOptions = append(geoserverOptions, view.Option{Name: g.Name, Value: g.ID})
	}

	return c.JSON(fiber.Map{
		"watersheds":  view.Watersheds(watersheds),
		"data_stores": dataStoreOptions,
		"geoservers":  geoserverOptions,
		"pagination":  page,
	})
}

// Get returns one watershed with its group ids.
func (s *Service) Get(c *fiber.Ctx) error {
	id, ok := handler.ParseID(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyID)
	}

	var w models.Watershed

	err := s.db.WithContext(c.UserContext()).
		Preload("DataStore").Preload("Geoserver").Preload("Groups").
		First(&w, id).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return handler.Error(c, fiber.StatusNotFound, msgUpdateNotFound)
	case err != nil:
		return handler.Internal(c, err, "failed to load watershed")
	}

	return c.JSON(fiber.Map{"watershed": view.NewWatershed(&w)})
}

func readFile(h *multipart.FileHeader) (shapefile.File, error) {
	f, err := h.Open()
	if err != nil {
		return shapefile.File{}, err //nolint:wrapcheck
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return shapefile.File{}, err //nolint:wrapcheck
	}

	return shapefile.File{Name: h.Filename, Content: content}, nil
}

// input reads the watershed form. Uploads are only read from multipart requests.
func input(c *fiber.Ctx) (watershed.Input, error) {
	in := watershed.Input{
		WatershedName:         c.FormValue("watershed_name"),
		SubbasinName:          c.FormValue("subbasin_name"),
		DataStoreID:           c.FormValue("data_store_id"),
		GeoserverID:           c.FormValue("geoserver_id"),
		ForecastWatershedName: c.FormValue("adhydro_data_store_watershed_name"),
		ForecastSubbasinName:  c.FormValue("adhydro_data_store_subbasin_name"),
		GeoserverLayers:       map[models.LayerKind]string{},
		Shapefiles:            map[models.LayerKind][]shapefile.File{},
		KMLFiles:              map[models.LayerKind][]byte{},
	}

	for _, k := range models.LayerKinds {
		in.GeoserverLayers[k] = c.FormValue("geoserver_" + string(k) + "_layer")
	}

	form, err := c.MultipartForm()
	if err != nil {
		return in, nil //nolint:nilerr
	}

	for _, k := range models.LayerKinds {
		for _, h := range form.File[string(k)+"_shp_file"] {
			f, err := readFile(h)
			if err != nil {
				return in, err
			}

			in.Shapefiles[k] = append(in.Shapefiles[k], f)
		}

		if headers := form.File[string(k)+"_kml_file"]; len(headers) > 0 {
			f, err := readFile(headers[0])
			if err != nil {
				return in, err
			}

			in.KMLFiles[k] = f.Content
		}
	}

	return in, nil
}

// fail maps a watershed error to its answer.
func fail(c *fiber.Ctx, err error, notFoundMsg string) error {
	var missingFiles *watershed.MissingFilesError

	switch {
	case errors.Is(err, watershed.ErrMissingData):
		return handler.Error(c, fiber.StatusBadRequest, msgMissingData)
	case errors.Is(err, watershed.ErrFaultyIDs):
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyIDs)
	case errors.Is(err, watershed.ErrForecastNames):
		return handler.Error(c, fiber.StatusBadRequest, msgForecastNames)
	case errors.Is(err, watershed.ErrMissingKML):
		return handler.Error(c, fiber.StatusBadRequest, msgMissingKML)
	case errors.Is(err, watershed.ErrMissingDrainageLine):
		return handler.Error(c, fiber.StatusBadRequest, msgMissingDrainageLine)
	case errors.As(err, &missingFiles):
		return handler.Error(c, fiber.StatusBadRequest, missingFiles.Error())
	case errors.Is(err, watershed.ErrDuplicate):
		return handler.Error(c, fiber.StatusConflict, msgDuplicate)
	case errors.Is(err, watersheddb.ErrWatershedNotFound):
		return handler.Error(c, fiber.StatusNotFound, notFoundMsg)
	case errors.Is(err, geoserver.ErrGeoServer):
		return handler.Error(c, fiber.StatusBadGateway, err.Error())
	default:
		return handler.Internal(c, err, "watershed operation failed")
	}
}

// Add creates a watershed, storing its KML files or publishing its shapefiles.
func (s *Service) Add(c *fiber.Ctx) error {
	in, err := input(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, msgUpload)
	}

	w, err := s.watersheds.Add(c.UserContext(), in)
	if err != nil {
		return fail(c, err, msgUpdateNotFound)
	}

	extra := view.NewLayers(w).Map()
	extra["watershed_id"] = w.ID

	return handler.Success(c, msgAdded, extra)
}

// Update changes a watershed and reports cleanup steps that failed.
func (s *Service) Update(c *fiber.Ctx) error {
	id, ok := handler.ParseID(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyID)
	}

	in, err := input(c)
	if err != nil {
		return handler.Error(c, fiber.StatusBadRequest, msgUpload)
	}

	w, report, err := s.watersheds.Update(c.UserContext(), id, in)
	if err != nil {
		return fail(c, err, msgUpdateNotFound)
	}

	extra := view.NewLayers(w).Map()
	extra["cleanup_failures"] = report.Count(cleanup.Failed)

	return handler.Success(c, msgUpdated, extra)
}

// Delete removes a watershed with its files, layers and cached forecasts.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, ok := handler.ParseID(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyID)
	}

	report, err := s.watersheds.Delete(c.UserContext(), id)
	if err != nil {
		return fail(c, err, msgDeleteNotFound)
	}

	return handler.Success(c, msgDeleted, fiber.Map{"cleanup_failures": report.Count(cleanup.Failed)})
}
