// Package watershed keeps the KML files, GeoServer layers and cached forecasts of a watershed
// in step with its settings row.
package watershed

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/cleanup"
	"github.com/ci-water/adhydro-streamflow/internal/db/controller/datastore"
	gscontroller "github.com/ci-water/adhydro-streamflow/internal/db/controller/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/db/controller/mainsettings"
	watersheddb "github.com/ci-water/adhydro-streamflow/internal/db/controller/watershed"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/forecast"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/kml"
	"github.com/ci-water/adhydro-streamflow/internal/names"
	"github.com/ci-water/adhydro-streamflow/internal/shapefile"
)

// Input is a submitted watershed form.
type Input struct {
	WatershedName string
	SubbasinName  string
	DataStoreID   string
	GeoserverID   string

	ForecastWatershedName string
	ForecastSubbasinName  string

	// GeoserverLayers are layer ids typed in by the user.
	GeoserverLayers map[models.LayerKind]string
	// Shapefiles are uploaded shapefile sets to publish.
	Shapefiles map[models.LayerKind][]shapefile.File
	// KMLFiles are uploaded KML documents.
	KMLFiles map[models.LayerKind][]byte
}

func (in *Input) layer(k models.LayerKind) string {
	return strings.TrimSpace(in.GeoserverLayers[k])
}

func (in *Input) hasShapefile(k models.LayerKind) bool {
	return len(in.Shapefiles[k]) > 0
}

func (in *Input) hasKML(k models.LayerKind) bool {
	return in.KMLFiles[k] != nil
}

// Service runs the watershed lifecycle.
type Service struct {
	DB           *gorm.DB
	KML          *kml.Store
	Geoservers   geoserver.Factory
	Workspace    string
	NamespaceURI string
}

// resolved is a validated Input.
type resolved struct {
	watershedName, subbasinName string
	folderName, fileName        string
	dataStore                   *models.DataStore
	geoserver                   *models.Geoserver
	forecastWatershed           string
	forecastSubbasin            string
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, ErrFaultyIDs
	}

	return id, nil
}

// resolve checks names, ids and forecast names and loads the connections.
func (s *Service) resolve(tx *gorm.DB, in *Input) (*resolved, error) {
	r := resolved{
		watershedName: strings.TrimSpace(in.WatershedName),
		subbasinName:  strings.TrimSpace(in.SubbasinName),
		folderName:    names.Format(in.WatershedName),
		fileName:      names.Format(in.SubbasinName),
	}

	if r.watershedName == "" || r.subbasinName == "" || r.folderName == "" || r.fileName == "" ||
		strings.TrimSpace(in.DataStoreID) == "" || strings.TrimSpace(in.GeoserverID) == "" {
		return nil, ErrMissingData
	}

	dataStoreID, err := parseID(in.DataStoreID)
	if err != nil {
		return nil, err
	}

	geoserverID, err := parseID(in.GeoserverID)
	if err != nil {
		return nil, err
	}

	if r.dataStore, err = datastore.Get(tx, dataStoreID); err != nil {
		if errors.Is(err, datastore.ErrDataStoreNotFound) {
			return nil, ErrFaultyIDs
		}

		return nil, err //nolint:wrapcheck
	}

	if r.geoserver, err = gscontroller.Get(tx, geoserverID); err != nil {
		if errors.Is(err, gscontroller.ErrGeoserverNotFound) {
			return nil, ErrFaultyIDs
		}

		return nil, err //nolint:wrapcheck
	}

	if !r.dataStore.IsLocal {
		r.forecastWatershed = names.Format(in.ForecastWatershedName)
		r.forecastSubbasin = names.Format(in.ForecastSubbasinName)

		if r.forecastWatershed == "" || r.forecastSubbasin == "" {
			return nil, ErrForecastNames
		}
	}

	return &r, nil
}

// checkLayers validates the layer sources for the target geoserver.
// hasDrainageKML tells whether a local watershed already owns a drainage line KML file.
func checkLayers(in *Input, target *models.Geoserver, hasDrainageKML bool) error {
	if target.IsLocal {
		if !in.hasKML(models.LayerDrainageLine) && !hasDrainageKML {
			return ErrMissingKML
		}

		return nil
	}

	if !in.hasShapefile(models.LayerDrainageLine) && in.layer(models.LayerDrainageLine) == "" {
		return ErrMissingDrainageLine
	}

	for _, k := range models.LayerKinds {
		if !in.hasShapefile(k) {
			continue
		}

		if missing := shapefile.MissingExtensions(shapefile.Names(in.Shapefiles[k])); len(missing) > 0 {
			return &MissingFilesError{Kind: k, Extensions: missing}
		}
	}

	return nil
}

func (s *Service) engine(conn *models.Geoserver) geoserver.Engine {
	return s.Geoservers(*conn)
}

// publish uploads the shapefile of kind k under the watershed identity and returns the layer id.
func (s *Service) publish(ctx context.Context, engine geoserver.Engine, r *resolved, k models.LayerKind, files []shapefile.File) (string, error) {
	resource := geoserver.ResourceName(r.folderName, r.fileName, k)
	layerID := geoserver.LayerName(s.Workspace, r.folderName, r.fileName, k)

	if err := engine.CreateShapefileResource(ctx, layerID, shapefile.Rename(files, resource), true); err != nil {
		return "", geoserver.Wrap(err)
	}

	log.Info().Str("layer", layerID).Msg("published shapefile")

	return layerID, nil
}

// Add validates in, places its layers and inserts the watershed row.
func (s *Service) Add(ctx context.Context, in Input) (*models.Watershed, error) {
	tx := s.DB.WithContext(ctx)

	r, err := s.resolve(tx, &in)
	if err != nil {
		return nil, err
	}

	if err = checkLayers(&in, r.geoserver, false); err != nil {
		return nil, err
	}

	if err = watersheddb.CheckUnique(tx, r.folderName, r.fileName, 0); err != nil {
		if errors.Is(err, watersheddb.ErrDuplicate) {
			return nil, ErrDuplicate
		}

		return nil, err //nolint:wrapcheck
	}

	w := &models.Watershed{
		WatershedName:         r.watershedName,
		SubbasinName:          r.subbasinName,
		FolderName:            r.folderName,
		FileName:              r.fileName,
		DataStoreID:           r.dataStore.ID,
		ForecastWatershedName: r.forecastWatershed,
		ForecastSubbasinName:  r.forecastSubbasin,
		GeoserverID:           r.geoserver.ID,
	}

	if r.geoserver.IsLocal {
		for _, k := range models.LayerKinds {
			if !in.hasKML(k) {
				continue
			}

			name := kml.FileName(r.fileName, k)
			if err = s.KML.Save(r.folderName, name, in.KMLFiles[k]); err != nil {
				return nil, err //nolint:wrapcheck
			}

			w.SetKMLLayer(k, name)
		}
	} else {
		for _, k := range models.LayerKinds {
			w.SetGeoserverLayer(k, in.layer(k), false)
		}

		if err = s.publishUploads(ctx, r, &in, w); err != nil {
			return nil, err
		}
	}

	if err = watersheddb.Create(tx, w); err != nil {
		if errors.Is(err, watersheddb.ErrDuplicate) {
			return nil, ErrDuplicate
		}

		return nil, err //nolint:wrapcheck
	}

	log.Info().Uint64("id", w.ID).Str("folder", w.FolderName).Str("file", w.FileName).Msg("watershed added")

	return w, nil
}

// publishUploads creates the workspace and publishes every uploaded shapefile.
func (s *Service) publishUploads(ctx context.Context, r *resolved, in *Input, w *models.Watershed) error {
	uploads := false

	for _, k := range models.LayerKinds {
		uploads = uploads || in.hasShapefile(k)
	}

	if !uploads {
		return nil
	}

	engine := s.engine(r.geoserver)

	if err := engine.CreateWorkspace(ctx, s.Workspace, s.NamespaceURI); err != nil {
		return geoserver.Wrap(err)
	}

	for _, k := range models.LayerKinds {
		if !in.hasShapefile(k) {
			continue
		}

		layerID, err := s.publish(ctx, engine, r, k, in.Shapefiles[k])
		if err != nil {
			return err
		}

		w.SetGeoserverLayer(k, layerID, true)
	}

	return nil
}

// removeKMLFiles deletes the KML files of w and its folder when empty.
func (s *Service) removeKMLFiles(w *models.Watershed) cleanup.Report {
	var report cleanup.Report

	for _, k := range models.LayerKinds {
		if name := w.KMLLayer(k); name != "" {
			report.Add(w.FolderName+"/"+name, s.KML.Remove(w.FolderName, name))
		}
	}

	s.removeFolder(&report, w.FolderName)

	return report
}

func (s *Service) removeFolder(report *cleanup.Report, folder string) {
	if err := s.KML.RemoveFolder(folder); !errors.Is(err, kml.ErrFolderNotEmpty) {
		report.Add(folder, err)
	}
}

// purgeUploaded removes every layer w published on its geoserver.
func (s *Service) purgeUploaded(ctx context.Context, w *models.Watershed) cleanup.Report {
	var report cleanup.Report

	if w.Geoserver.IsLocal || w.Geoserver.ID == 0 {
		return report
	}

	engine := s.engine(&w.Geoserver)

	for _, k := range models.LayerKinds {
		if w.GeoserverUploaded(k) {
			report.Merge(geoserver.PurgeLayer(ctx, engine, w.GeoserverLayer(k)))
		}
	}

	return report
}

// removeForecasts deletes the cached forecast files of w unless another watershed uses the same forecast names.
func (s *Service) removeForecasts(tx *gorm.DB, w *models.Watershed) cleanup.Report {
	var report cleanup.Report

	if w.ForecastWatershedName == "" || w.ForecastSubbasinName == "" {
		return report
	}

	sharing, err := watersheddb.CountForecastSharing(tx, w.ForecastWatershedName, w.ForecastSubbasinName, w.ID)
	if err != nil {
		report.Add("forecast sharing count", err)

		return report
	}

	if sharing > 0 {
		return report
	}

	root, err := mainsettings.ForecastDirectory(tx)
	if err != nil {
		report.Add("forecast directory", err)

		return report
	}

	return forecast.RemoveCachedFiles(root, w.ForecastWatershedName, w.ForecastSubbasinName)
}

// Delete removes the external resources of a watershed, then its row.
// Cleanup failures are logged and reported, never returned.
func (s *Service) Delete(ctx context.Context, id uint64) (cleanup.Report, error) {
	var report cleanup.Report

	tx := s.DB.WithContext(ctx)

	w, err := watersheddb.Get(tx, id)
	if err != nil {
		return report, err //nolint:wrapcheck
	}

	report.Merge(s.removeKMLFiles(w))
	report.Merge(s.purgeUploaded(ctx, w))
	report.Merge(s.removeForecasts(tx, w))
	report.Log("watershed cleanup")

	if err = watersheddb.Delete(tx, id); err != nil {
		return report, err //nolint:wrapcheck
	}

	log.Info().Uint64("id", id).Str("folder", w.FolderName).Str("file", w.FileName).Msg("watershed deleted")

	return report, nil
}
