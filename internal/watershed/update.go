package watershed

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/ci-water/adhydro-streamflow/internal/cleanup"
	watersheddb "github.com/ci-water/adhydro-streamflow/internal/db/controller/watershed"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/kml"
)

// Update validates in, migrates the layers of watershed id to the new identity and target, and saves the row.
func (s *Service) Update(ctx context.Context, id uint64, in Input) (*models.Watershed, cleanup.Report, error) {
	var report cleanup.Report

	tx := s.DB.WithContext(ctx)

	r, err := s.resolve(tx, &in)
	if err != nil {
		return nil, report, err
	}

	if err = watersheddb.CheckUnique(tx, r.folderName, r.fileName, id); err != nil {
		if errors.Is(err, watersheddb.ErrDuplicate) {
			return nil, report, ErrDuplicate
		}

		return nil, report, err //nolint:wrapcheck
	}

	old, err := watersheddb.Get(tx, id)
	if err != nil {
		return nil, report, err //nolint:wrapcheck
	}

	if err = checkLayers(&in, r.geoserver, old.KMLLayer(models.LayerDrainageLine) != ""); err != nil {
		return nil, report, err
	}

	w := *old
	identityChanged := old.FolderName != r.folderName || old.FileName != r.fileName

	// the identity is needed by publish and the KML names
	w.FolderName, w.FileName = r.folderName, r.fileName

	if r.geoserver.IsLocal {
		err = s.updateLocal(ctx, old, &w, &in, identityChanged, &report)
	} else {
		err = s.updateGeoserver(ctx, old, &w, r, &in, identityChanged, &report)
	}

	if err != nil {
		report.Log("watershed update cleanup")

		return nil, report, err
	}

	if old.ForecastWatershedName != r.forecastWatershed || old.ForecastSubbasinName != r.forecastSubbasin {
		report.Merge(s.removeForecasts(tx, old))
	}

	report.Log("watershed update cleanup")

	w.WatershedName = r.watershedName
	w.SubbasinName = r.subbasinName
	w.DataStoreID = r.dataStore.ID
	w.DataStore = *r.dataStore
	w.ForecastWatershedName = r.forecastWatershed
	w.ForecastSubbasinName = r.forecastSubbasin
	w.GeoserverID = r.geoserver.ID
	w.Geoserver = *r.geoserver

	if err = watersheddb.Save(tx, &w); err != nil {
		if errors.Is(err, watersheddb.ErrDuplicate) {
			return nil, report, ErrDuplicate
		}

		return nil, report, err //nolint:wrapcheck
	}

	log.Info().Uint64("id", w.ID).Str("folder", w.FolderName).Str("file", w.FileName).Msg("watershed updated")

	return &w, report, nil
}

// updateLocal moves a watershed to local KML files.
// Layers published by the previous geoserver are purged, existing KML files follow a renamed identity.
func (s *Service) updateLocal(ctx context.Context, old, w *models.Watershed, in *Input, identityChanged bool, report *cleanup.Report) error {
	report.Merge(s.purgeUploaded(ctx, old))

	for _, k := range models.LayerKinds {
		w.SetGeoserverLayer(k, "", false)
	}

	if err := s.KML.MkdirFolder(w.FolderName); err != nil {
		report.Add(w.FolderName, err)
	}

	if identityChanged && old.Geoserver.IsLocal {
		for _, k := range models.LayerKinds {
			if name := old.KMLLayer(k); name != "" {
				report.Add(old.FolderName+"/"+name, s.KML.Move(old.FolderName, name, w.FolderName, kml.FileName(w.FileName, k)))
			}
		}

		s.removeFolder(report, old.FolderName)
	}

	for _, k := range models.LayerKinds {
		name := kml.FileName(w.FileName, k)

		switch {
		case in.hasKML(k):
			if err := s.KML.Save(w.FolderName, name, in.KMLFiles[k]); err != nil {
				return err //nolint:wrapcheck
			}

			w.SetKMLLayer(k, name)
		case old.KMLLayer(k) != "":
			w.SetKMLLayer(k, name)
		default:
			w.SetKMLLayer(k, "")
		}
	}

	return nil
}

// updateGeoserver moves a watershed to a geoserver.
// A previously published layer is purged when its id is replaced or cleared, or before it is
// republished under a new identity.
func (s *Service) updateGeoserver(
	ctx context.Context, old, w *models.Watershed, r *resolved, in *Input, identityChanged bool, report *cleanup.Report,
) error {
	engine := s.engine(r.geoserver)

	oldEngine := engine
	if old.GeoserverID != r.geoserver.ID && !old.Geoserver.IsLocal {
		oldEngine = s.engine(&old.Geoserver)
	}

	if err := engine.CreateWorkspace(ctx, s.Workspace, s.NamespaceURI); err != nil {
		return geoserver.Wrap(err)
	}

	for _, k := range models.LayerKinds {
		previous, uploaded := old.GeoserverLayer(k), old.GeoserverUploaded(k)

		if !in.hasShapefile(k) {
			layer := in.layer(k)
			if layer != previous {
				if uploaded {
					report.Merge(geoserver.PurgeLayer(ctx, oldEngine, previous))
				}

				uploaded = false
			}

			w.SetGeoserverLayer(k, layer, uploaded)

			continue
		}

		if uploaded && (identityChanged || old.GeoserverID != r.geoserver.ID) {
			report.Merge(geoserver.PurgeLayer(ctx, oldEngine, previous))
		}

		layerID, err := s.publish(ctx, engine, r, k, in.Shapefiles[k])
		if err != nil {
			return err
		}

		w.SetGeoserverLayer(k, layerID, true)
	}

	report.Merge(s.removeKMLFiles(old))

	for _, k := range models.LayerKinds {
		w.SetKMLLayer(k, "")
	}

	return nil
}
