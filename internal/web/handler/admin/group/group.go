// Package group provides the staff handlers managing watershed groups.
package group

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/auth"
	"github.com/ci-water/adhydro-streamflow/internal/db/controller/watershedgroup"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler/view"
)

const (
	// Path is the base path for watershed group management.
	Path = handler.AdminPath + "/watershed-groups"

	// FieldName is the group name form field.
	FieldName = "watershed_group_name"
	// FieldWatershedIDs is the repeated member id form field.
	FieldWatershedIDs = "watershed_group_watershed_ids[]"

	msgAddFaulty    = "AJAX request input faulty"
	msgUpdateFaulty = "Data missing for this watershed group."
	msgFaultyID     = "Watershed group id is faulty."
	msgDuplicate    = "A watershed group with the same name exists."
	msgNotFound     = "The watershed group does not exist."
	msgAdded        = "Watershed group sucessfully added!"
	msgDeleted      = "Watershed group sucessfully deleted!"
	msgUpdated      = "Watershed group successfully updated."
)

// Service provides CRUD operations for watershed groups.
type Service struct {
	db *gorm.DB
}

// Handler is the exported instance.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers routes.
func (s *Service) Init(app *fiber.App, db *gorm.DB, authService *auth.Service) error {
	if app == nil || db == nil || authService == nil {
		return errors.New(handler.ErrNilACDFatalLogMsg) //nolint:goerr113
	}

	s.db = db

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

// List returns one page of groups with their members.
func (s *Service) List(c *fiber.Ctx) error {
	page, tx, err := handler.Paginate(c, s.db.WithContext(c.UserContext()).Model(&models.WatershedGroup{}))
	if err != nil {
		return handler.Internal(c, err, "failed to count watershed groups")
	}

	var groups []models.WatershedGroup

	err = tx.Preload("Watersheds", func(db *gorm.DB) *gorm.DB {
		return db.Order("watershed_name, subbasin_name")
	}).Order("name").Find(&groups).Error
	if err != nil {
		return handler.Internal(c, err, "failed to list watershed groups")
	}

	out := make([]view.Group, 0, len(groups))
	for i := range groups {
		out = append(out, view.NewGroup(&groups[i]))
	}

	return c.JSON(fiber.Map{"watershed_groups": out, "pagination": page})
}

// Get returns one group with its members.
func (s *Service) Get(c *fiber.Ctx) error {
	id, ok := handler.ParseID(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyID)
	}

	group, err := watershedgroup.Get(s.db.WithContext(c.UserContext()), id)
	if err != nil {
		return fail(c, err, msgAddFaulty)
	}

	return c.JSON(fiber.Map{"watershed_group": view.NewGroup(group)})
}

func fail(c *fiber.Ctx, err error, missingMsg string) error {
	switch {
	case errors.Is(err, watershedgroup.ErrMissingData):
		return handler.Error(c, fiber.StatusBadRequest, missingMsg)
	case errors.Is(err, watershedgroup.ErrDuplicate):
		return handler.Error(c, fiber.StatusConflict, msgDuplicate)
	case errors.Is(err, watershedgroup.ErrGroupNotFound):
		return handler.Error(c, fiber.StatusNotFound, msgNotFound)
	default:
		return handler.Internal(c, err, "watershed group operation failed")
	}
}

// input reads the name and the member ids, accepting the ids with or without the "[]" suffix.
func input(c *fiber.Ctx) (string, []uint64, bool) {
	raw := handler.FormValues(c, FieldWatershedIDs)
	if len(raw) == 0 {
		raw = handler.FormValues(c, FieldWatershedIDs[:len(FieldWatershedIDs)-2])
	}

	ids, ok := handler.ParseIDs(raw)

	return c.FormValue(FieldName), ids, ok
}

// Add creates a group.
func (s *Service) Add(c *fiber.Ctx) error {
	name, ids, ok := input(c)
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgAddFaulty)
	}

	group, err := watershedgroup.Create(s.db.WithContext(c.UserContext()), name, ids)
	if err != nil {
		return fail(c, err, msgAddFaulty)
	}

	log.Info().Uint64("id", group.ID).Str("name", group.Name).Msg("watershed group added")

	return handler.Success(c, msgAdded, fiber.Map{"watershed_group_id": group.ID})
}

// Update renames a group and replaces its members.
func (s *Service) Update(c *fiber.Ctx) error {
	id, ok := handler.ParseID(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyID)
	}

	name, ids, ok := input(c)
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgUpdateFaulty)
	}

	group, err := watershedgroup.Update(s.db.WithContext(c.UserContext()), id, name, ids)
	if err != nil {
		return fail(c, err, msgUpdateFaulty)
	}

	log.Info().Uint64("id", id).Int("members", len(group.Watersheds)).Msg("watershed group updated")

	return handler.Success(c, msgUpdated, nil)
}

// Delete removes a group, its watersheds stay.
func (s *Service) Delete(c *fiber.Ctx) error {
	id, ok := handler.ParseID(c.Params("id"))
	if !ok {
		return handler.Error(c, fiber.StatusBadRequest, msgFaultyID)
	}

	if err := watershedgroup.Delete(s.db.WithContext(c.UserContext()), id); err != nil {
		return fail(c, err, msgAddFaulty)
	}

	log.Info().Uint64("id", id).Msg("watershed group deleted")

	return handler.Success(c, msgDeleted, nil)
}
