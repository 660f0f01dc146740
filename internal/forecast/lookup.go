// Package forecast resolves ADHydro RAPID forecast files and extracts reach hydrographs.
package forecast

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/db/controller/mainsettings"
	"github.com/ci-water/adhydro-streamflow/internal/names"
)

var requests = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Name: "forecast_requests_total",
		Help: "Number of forecast requests, differentiated by endpoint and result.",
	},
	[]string{"endpoint", "result"},
)

// Lookup answers the forecast read endpoints from the forecast root stored in the settings.
type Lookup struct {
	DB   *gorm.DB
	Open Opener
}

// NewLookup returns a lookup reading NetCDF files.
func NewLookup(db *gorm.DB) *Lookup {
	return &Lookup{DB: db, Open: Open}
}

func (l *Lookup) root(ctx context.Context) (string, error) {
	dir, err := mainsettings.ForecastDirectory(l.DB.WithContext(ctx))
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	if dir == "" || !exists(dir) {
		return "", ErrDirectory
	}

	return dir, nil
}

func count(endpoint string, err error) {
	result := "ok"

	switch {
	case err == nil:
	case errors.Is(err, ErrForecastNotFound), errors.Is(err, ErrReachNotFound):
		result = "not_found"
	default:
		result = "error"
	}

	requests.WithLabelValues(endpoint, result).Inc()
}

// Dates lists the forecast runs of a watershed and subbasin, newest first.
func (l *Lookup) Dates(ctx context.Context, watershedName, subbasinName string) (dates []Date, err error) {
	defer func() { count("dates", err) }()

	root, err := l.root(ctx)
	if err != nil {
		return nil, err
	}

	watershed, subbasin := names.Format(watershedName), names.Format(subbasinName)
	if watershed == "" || subbasin == "" {
		return nil, ErrDatesInput
	}

	dir := filepath.Join(root, watershed, subbasin)
	if !exists(dir) {
		return nil, &NotFoundError{Watershed: watershed, Subbasin: subbasin}
	}

	dates, err = AvailableDates(dir)
	if err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("can't list forecast files")

		return nil, &NotFoundError{Watershed: watershed, Subbasin: subbasin}
	}

	if len(dates) == 0 {
		return nil, &NotFoundError{Watershed: watershed, Subbasin: subbasin, Recent: true}
	}

	return dates, nil
}

// Hydrograph extracts the series of reachID from the forecast run dateString, or the newest one for MostRecent.
func (l *Lookup) Hydrograph(ctx context.Context, watershedName, subbasinName, reachID, dateString string) (points []Point, err error) {
	defer func() { count("hydrograph", err) }()

	root, err := l.root(ctx)
	if err != nil {
		return nil, err
	}

	watershed, subbasin := names.Format(watershedName), names.Format(subbasinName)
	if reachID == "" || watershed == "" || subbasin == "" || dateString == "" {
		return nil, ErrHydrographInput
	}

	file := FindMostCurrentFile(filepath.Join(root, watershed, subbasin), dateString)
	if file == "" {
		return nil, &NotFoundError{Watershed: watershed, Subbasin: subbasin}
	}

	index, err := ReachIndex(reachID)
	if err != nil {
		return nil, err
	}

	ds, err := l.Open(file)
	if err != nil {
		log.Warn().Err(err).Str("file", file).Msg("can't open forecast file")

		return nil, ErrInvalidFile
	}
	defer ds.Close()

	return ReadHydrograph(ds, index)
}
