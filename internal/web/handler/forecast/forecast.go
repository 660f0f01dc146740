// Package forecast serves the forecast dates and hydrographs read from NetCDF files.
package forecast

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ci-water/adhydro-streamflow/internal/forecast"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler"
)

const (
	// Path is the base path of the forecast routes.
	Path = handler.APIPath + "/forecast"
	// RouteDates lists the forecast dates of a watershed.
	RouteDates = Path + "/dates"
	// RouteHydrograph returns a reach hydrograph.
	RouteHydrograph = Path + "/hydrograph"
)

type datesQuery struct {
	WatershedName string `query:"watershed_name"`
	SubbasinName  string `query:"subbasin_name"`
}

type hydrographQuery struct {
	WatershedName string `query:"watershed_name"`
	SubbasinName  string `query:"subbasin_name"`
	ReachID       string `query:"reach_id"`
	DateString    string `query:"date_string"`
}

// Service serves the forecast routes.
type Service struct {
	lookup *forecast.Lookup
}

// Handler is the exported instance.
var Handler = Service{} //nolint:gochecknoglobals

// Init registers routes.
func (s *Service) Init(app *fiber.App, lookup *forecast.Lookup) {
	if app == nil || lookup == nil {
		log.Fatal().Msg(handler.ErrNilACDFatalLogMsg)
		return
	}

	s.lookup = lookup

	app.Get(RouteDates, s.Dates)
	app.Get(RouteHydrograph, s.Hydrograph)
}

func status(err error) int {
	switch {
	case errors.Is(err, forecast.ErrDatesInput), errors.Is(err, forecast.ErrHydrographInput):
		return fiber.StatusBadRequest
	case errors.Is(err, forecast.ErrForecastNotFound), errors.Is(err, forecast.ErrReachNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, forecast.ErrInvalidFile):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	code := status(err)
	if code == fiber.StatusInternalServerError && !errors.Is(err, forecast.ErrDirectory) {
		return handler.Internal(c, err, "forecast lookup failed")
	}

	return handler.Error(c, code, err.Error())
}

// Dates lists the available forecast dates, newest first.
func (s *Service) Dates(c *fiber.Ctx) error {
	q := new(datesQuery)
	if err := c.QueryParser(q); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, forecast.ErrDatesInput.Error())
	}

	dates, err := s.lookup.Dates(c.UserContext(), q.WatershedName, q.SubbasinName)
	if err != nil {
		return fail(c, err)
	}

	return handler.Success(c, "File search complete!", fiber.Map{"output_files": dates})
}

// Hydrograph returns the [time ms, value] series of one reach.
func (s *Service) Hydrograph(c *fiber.Ctx) error {
	q := new(hydrographQuery)
	if err := c.QueryParser(q); err != nil {
		return handler.Error(c, fiber.StatusBadRequest, forecast.ErrHydrographInput.Error())
	}

	points, err := s.lookup.Hydrograph(c.UserContext(), q.WatershedName, q.SubbasinName, q.ReachID, q.DateString)
	if err != nil {
		return fail(c, err)
	}

	return handler.Success(c, "ADHydro data analysis complete!", fiber.Map{"adhydro": points})
}
