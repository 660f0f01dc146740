// Package home serves the public watershed listing and the map layer information.
package home

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/db/controller/mainsettings"
	watersheddb "github.com/ci-water/adhydro-streamflow/internal/db/controller/watershed"
	"github.com/ci-water/adhydro-streamflow/internal/db/controller/watershedgroup"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/watershed"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler/view"
)

const (
	// RouteWatersheds lists the watersheds and groups.
	RouteWatersheds = handler.APIPath + "/watersheds"
	// RouteMap returns the layers of the selected watersheds.
	RouteMap = handler.APIPath + "/map"

	// QueryWatershed selects watersheds by id, repeatable.
	QueryWatershed = "watershed_select"
	// QueryGroup selects the members of a group.
	QueryGroup = "watershed_group_select"

	msgNoSelection = "Please select at least one watershed or a watershed group."
)

// BaseLayer is the base map shown beneath the watershed layers.
type BaseLayer struct {
	Name   string `json:"name"`
	APIKey string `json:"api_key"`
}

// Service serves the public map routes.
type Service struct {
	db         *gorm.DB
	watersheds *watershed.Service
}

// Handler is the exported instance.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers routes.
func (s *Service) Init(app *fiber.App, db *gorm.DB, watersheds *watershed.Service) error {
	if app == nil || db == nil || watersheds == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg) //nolint:goerr113
	}

	s.db = db
	s.watersheds = watersheds

	app.Get(RouteWatersheds, s.Watersheds)
	app.Get(RouteMap, s.Map)

	return nil
}

// Watersheds lists every watershed as "Watershed (Subbasin)" and every group.
func (s *Service) Watersheds(c *fiber.Ctx) error {
	db := s.db.WithContext(c.UserContext())

	watersheds, err := watersheddb.List(db)
	if err != nil {
		return handler.Internal(c, err, "failed to list watersheds")
	}

	groups, err := watershedgroup.List(db)
	if err != nil {
		return handler.Internal(c, err, "failed to list watershed groups")
	}

	watershedOptions := make([]view.Option, 0, len(watersheds))
	for i := range watersheds {
		watershedOptions = append(watershedOptions, view.Option{Name: view.Label(&watersheds[i]), Value: watersheds[i].ID})
	}

	groupOptions := make([]view.Option, 0, len(groups))
	for _, g := range groups {
		groupOptions = append(groupOptions, view.Option{Name: g.Name, Value: g.ID})
	}

	return c.JSON(fiber.Map{
		"watersheds":       watershedOptions,
		"watershed_groups": groupOptions,
	})
}

// selected returns the watersheds picked by id, falling back to the members of the picked group.
// A nil slice means nothing was selected.
func (s *Service) selected(c *fiber.Ctx, db *gorm.DB) ([]models.Watershed, bool, error) {
	if raw := handler.QueryValues(c, QueryWatershed); len(raw) > 0 {
		ids, ok := handler.ParseIDs(raw)
		if !ok {
			return nil, false, nil
		}

		watersheds, err := watersheddb.ListByIDs(db, ids)

		return watersheds, true, err //nolint:wrapcheck
	}

	if raw := c.Query(QueryGroup); raw != "" {
		id, ok := handler.ParseID(raw)
		if !ok {
			return nil, false, nil
		}

		watersheds, err := watersheddb.ListByGroup(db, id)

		return watersheds, true, err //nolint:wrapcheck
	}

	return nil, false, nil
}

// Map returns the layer information of the selected watersheds and the configured base layer.
func (s *Service) Map(c *fiber.Ctx) error {
	db := s.db.WithContext(c.UserContext())

	watersheds, ok, err := s.selected(c, db)
	if err != nil {
		return handler.Internal(c, err, "failed to load selected watersheds")
	}

	if !ok || len(watersheds) == 0 {
		return handler.Error(c, fiber.StatusBadRequest, msgNoSelection)
	}

	settings, err := mainsettings.Load(db)
	if err != nil {
		return handler.Internal(c, err, "failed to load settings")
	}

	selectOptions := make([]view.Option, 0, len(watersheds))
	for i := range watersheds {
		selectOptions = append(selectOptions, view.Option{
			Name:  view.Label(&watersheds[i]),
			Value: watersheds[i].FolderName + ":" + watersheds[i].FileName,
		})
	}

	return c.JSON(fiber.Map{
		"layers_info":      s.watersheds.Layers(c.UserContext(), watersheds),
		"base_layer_info":  BaseLayer{Name: settings.BaseLayer.Name, APIKey: settings.BaseLayer.APIKey},
		"watershed_select": selectOptions,
	})
}
