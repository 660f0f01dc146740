package watershed

import (
	"errors"
	"fmt"

	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/shapefile"
)

var (
	// ErrMissingData is returned when a name or id is empty.
	ErrMissingData = errors.New("request input missing data")
	// ErrFaultyIDs is returned when a data store or geoserver id is not a known id.
	ErrFaultyIDs = errors.New("one or more ids are faulty")
	// ErrForecastNames is returned when a catalog data store is chosen without forecast names.
	ErrForecastNames = errors.New("forecast watershed and subbasin names are required")
	// ErrMissingKML is returned when a local watershed has no drainage line KML file.
	ErrMissingKML = errors.New("missing drainage line KML file")
	// ErrMissingDrainageLine is returned when a GeoServer watershed has neither a drainage line layer nor a shapefile.
	ErrMissingDrainageLine = errors.New("missing geoserver drainage line")
	// ErrMissingFiles matches every MissingFilesError.
	ErrMissingFiles = errors.New("missing shapefile files")
	// ErrDuplicate is returned when another watershed has the same folder and file name.
	ErrDuplicate = errors.New("a watershed with the same name exists")
)

// MissingFilesError lists the shapefile extensions missing from the upload of a layer.
type MissingFilesError struct {
	Kind       models.LayerKind
	Extensions []string
}

func (e *MissingFilesError) Error() string {
	return fmt.Sprintf("Missing geoserver %s files with extensions %s.", e.Kind.Label(), shapefile.JoinExtensions(e.Extensions))
}

// Is matches ErrMissingFiles.
func (e *MissingFilesError) Is(target error) bool {
	return target == ErrMissingFiles //nolint:errorlint
}
