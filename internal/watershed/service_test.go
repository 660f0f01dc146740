package watershed

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/db/controller/datastore"
	gscontroller "github.com/ci-water/adhydro-streamflow/internal/db/controller/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/db/controller/mainsettings"
	watersheddb "github.com/ci-water/adhydro-streamflow/internal/db/controller/watershed"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/db/testdb"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver/geoservertest"
	"github.com/ci-water/adhydro-streamflow/internal/kml"
	"github.com/ci-water/adhydro-streamflow/internal/shapefile"
)

const (
	localID   = "1"
	workspace = "erfp"
)

type fixture struct {
	db        *gorm.DB
	fake      *geoservertest.Fake
	service   *Service
	kmlDir    string
	forecasts string
	catalogID string
	remoteID  string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testdb.New(t)

	var ckanType models.DataStoreType
	require.NoError(t, db.Where("code = ?", models.DataStoreTypeCKAN).First(&ckanType).Error)

	catalog := &models.DataStore{Name: "CKAN", DataStoreTypeID: ckanType.ID, APIEndpoint: "http://ckan/api/3", APIKey: "key"}
	require.NoError(t, datastore.Create(db, catalog))

	remote := &models.Geoserver{Name: "Remote", URL: "http://geoserver/geoserver/"}
	require.NoError(t, gscontroller.Create(db, remote))

	settings, err := mainsettings.Load(db)
	require.NoError(t, err)

	forecasts := t.TempDir()
	_, err = mainsettings.Save(db, mainsettings.Update{BaseLayerID: settings.BaseLayerID, ForecastDirectory: forecasts})
	require.NoError(t, err)

	fake := geoservertest.New()
	kmlDir := t.TempDir()

	return &fixture{
		db:   db,
		fake: fake,
		service: &Service{
			DB:           db,
			KML:          kml.NewStore(kmlDir),
			Geoservers:   fake.Factory(),
			Workspace:    workspace,
			NamespaceURI: "http://erfp.example",
		},
		kmlDir:    kmlDir,
		forecasts: forecasts,
		catalogID: idString(catalog.ID),
		remoteID:  idString(remote.ID),
	}
}

func idString(id uint64) string {
	return strconv.FormatUint(id, 10)
}

func shapefileSet(base string) []shapefile.File {
	files := make([]shapefile.File, 0, len(shapefile.RequiredExtensions))
	for _, ext := range shapefile.RequiredExtensions {
		files = append(files, shapefile.File{Name: base + ext, Content: []byte(ext)})
	}

	return files
}

func localInput(watershedName, subbasinName string) Input {
	return Input{
		WatershedName: watershedName,
		SubbasinName:  subbasinName,
		DataStoreID:   localID,
		GeoserverID:   localID,
		KMLFiles: map[models.LayerKind][]byte{
			models.LayerDrainageLine: []byte("<kml/>"),
			models.LayerGage:         []byte("<kml/>"),
		},
	}
}

func countWatersheds(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(&models.Watershed{}).Count(&count).Error)

	return count
}

func TestAddValidation(t *testing.T) {
	f := newFixture(t)

	testCases := []struct {
		name    string
		input   Input
		wantErr error
	}{
		{
			name:    "missing names",
			input:   Input{WatershedName: " ", SubbasinName: "El Banco", DataStoreID: localID, GeoserverID: localID},
			wantErr: ErrMissingData,
		},
		{
			name:    "name without usable characters",
			input:   Input{WatershedName: "???", SubbasinName: "El Banco", DataStoreID: localID, GeoserverID: localID},
			wantErr: ErrMissingData,
		},
		{
			name:    "faulty data store id",
			input:   Input{WatershedName: "Magdalena", SubbasinName: "El Banco", DataStoreID: "x", GeoserverID: localID},
			wantErr: ErrFaultyIDs,
		},
		{
			name:    "unknown geoserver id",
			input:   Input{WatershedName: "Magdalena", SubbasinName: "El Banco", DataStoreID: localID, GeoserverID: "99"},
			wantErr: ErrFaultyIDs,
		},
		{
			name:    "catalog without forecast names",
			input:   Input{WatershedName: "Magdalena", SubbasinName: "El Banco", DataStoreID: f.catalogID, GeoserverID: localID},
			wantErr: ErrForecastNames,
		},
		{
			name:    "local without drainage line KML",
			input:   Input{WatershedName: "Magdalena", SubbasinName: "El Banco", DataStoreID: localID, GeoserverID: localID},
			wantErr: ErrMissingKML,
		},
		{
			name:    "geoserver without drainage line",
			input:   Input{WatershedName: "Magdalena", SubbasinName: "El Banco", DataStoreID: localID, GeoserverID: f.remoteID},
			wantErr: ErrMissingDrainageLine,
		},
		{
			name: "incomplete shapefile",
			input: Input{
				WatershedName: "Magdalena", SubbasinName: "El Banco", DataStoreID: localID, GeoserverID: f.remoteID,
				Shapefiles: map[models.LayerKind][]shapefile.File{
					models.LayerDrainageLine: {{Name: "river.shp"}, {Name: "river.dbf"}},
				},
			},
			wantErr: ErrMissingFiles,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.service.Add(context.Background(), tc.input)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Zero(t, countWatersheds(t, f.db))
		})
	}

	assert.Empty(t, f.fake.Calls)
}

func TestAddLocal(t *testing.T) {
	f := newFixture(t)

	w, err := f.service.Add(context.Background(), localInput("Magdalena", "El Banco"))
	require.NoError(t, err)

	assert.Equal(t, "magdalena", w.FolderName)
	assert.Equal(t, "el_banco", w.FileName)
	assert.Equal(t, "el_banco-drainage_line.kml", w.KMLDrainageLineLayer)
	assert.Equal(t, "el_banco-gage.kml", w.KMLGageLayer)
	assert.Empty(t, w.KMLCatchmentLayer)
	assert.FileExists(t, filepath.Join(f.kmlDir, "magdalena", "el_banco-drainage_line.kml"))

	_, err = f.service.Add(context.Background(), localInput("magdalena", "el banco"))
	require.ErrorIs(t, err, ErrDuplicate)
	assert.EqualValues(t, 1, countWatersheds(t, f.db))
}

func TestAddGeoserver(t *testing.T) {
	f := newFixture(t)

	in := Input{
		WatershedName:         "Magdalena",
		SubbasinName:          "El Banco",
		DataStoreID:           f.catalogID,
		GeoserverID:           f.remoteID,
		ForecastWatershedName: "Magdalena",
		ForecastSubbasinName:  "El Banco",
		GeoserverLayers:       map[models.LayerKind]string{models.LayerGage: " erfp:gages "},
		Shapefiles: map[models.LayerKind][]shapefile.File{
			models.LayerDrainageLine: shapefileSet("river"),
		},
	}

	w, err := f.service.Add(context.Background(), in)
	require.NoError(t, err)

	layerID := geoserver.LayerName(workspace, "magdalena", "el_banco", models.LayerDrainageLine)
	assert.Equal(t, layerID, w.GeoserverDrainageLineLayer)
	assert.True(t, w.GeoserverDrainageLineUploaded)
	assert.Equal(t, "erfp:gages", w.GeoserverGageLayer)
	assert.False(t, w.GeoserverGageUploaded)
	assert.Equal(t, "magdalena", w.ForecastWatershedName)

	assert.Equal(t, []string{workspace}, f.fake.CallsTo("CreateWorkspace"))
	assert.ElementsMatch(t, []string{
		"magdalena-el_banco-drainage_line.shp",
		"magdalena-el_banco-drainage_line.shx",
		"magdalena-el_banco-drainage_line.prj",
		"magdalena-el_banco-drainage_line.dbf",
	}, f.fake.Uploads[layerID])
}

func TestAddGeoserverError(t *testing.T) {
	f := newFixture(t)
	f.fake.WorkspaceErr = os.ErrDeadlineExceeded

	_, err := f.service.Add(context.Background(), Input{
		WatershedName: "Magdalena", SubbasinName: "El Banco", DataStoreID: localID, GeoserverID: f.remoteID,
		Shapefiles: map[models.LayerKind][]shapefile.File{models.LayerDrainageLine: shapefileSet("river")},
	})
	require.ErrorIs(t, err, geoserver.ErrGeoServer)
	assert.Zero(t, countWatersheds(t, f.db))
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	local, err := f.service.Add(ctx, localInput("Magdalena", "El Banco"))
	require.NoError(t, err)

	remote, err := f.service.Add(ctx, Input{
		WatershedName: "Nfie", SubbasinName: "Texas", DataStoreID: f.catalogID, GeoserverID: f.remoteID,
		ForecastWatershedName: "nfie", ForecastSubbasinName: "texas",
		Shapefiles: map[models.LayerKind][]shapefile.File{models.LayerDrainageLine: shapefileSet("river")},
	})
	require.NoError(t, err)

	forecastDir := filepath.Join(f.forecasts, "nfie", "texas")
	require.NoError(t, os.MkdirAll(forecastDir, 0o755))

	report, err := f.service.Delete(ctx, local.ID)
	require.NoError(t, err)
	assert.False(t, report.Failed())
	assert.NoDirExists(t, filepath.Join(f.kmlDir, "magdalena"))

	report, err = f.service.Delete(ctx, remote.ID)
	require.NoError(t, err)
	assert.False(t, report.Failed())

	layerID := geoserver.LayerName(workspace, "nfie", "texas", models.LayerDrainageLine)
	assert.Equal(t, []string{layerID}, f.fake.CallsTo("DeleteLayer"))
	assert.Equal(t, []string{layerID}, f.fake.CallsTo("DeleteStore"))
	assert.NoDirExists(t, filepath.Join(f.forecasts, "nfie"))

	_, err = f.service.Delete(ctx, remote.ID)
	require.ErrorIs(t, err, watersheddb.ErrWatershedNotFound)
	assert.Zero(t, countWatersheds(t, f.db))
}

func TestDeleteKeepsSharedForecasts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := localInput("Magdalena", "El Banco")
	in.DataStoreID = f.catalogID
	in.ForecastWatershedName, in.ForecastSubbasinName = "magdalena", "el_banco"

	first, err := f.service.Add(ctx, in)
	require.NoError(t, err)

	in.SubbasinName = "Calamar"
	_, err = f.service.Add(ctx, in)
	require.NoError(t, err)

	forecastDir := filepath.Join(f.forecasts, "magdalena", "el_banco")
	require.NoError(t, os.MkdirAll(forecastDir, 0o755))

	_, err = f.service.Delete(ctx, first.ID)
	require.NoError(t, err)

	assert.DirExists(t, forecastDir)
	// the folder still holds the other subbasin
	assert.DirExists(t, filepath.Join(f.kmlDir, "magdalena"))
}

func TestUpdateLocalRename(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.service.Add(ctx, localInput("Magdalena", "El Banco"))
	require.NoError(t, err)

	w, report, err := f.service.Update(ctx, w.ID, Input{
		WatershedName: "Magdalena", SubbasinName: "Calamar", DataStoreID: localID, GeoserverID: localID,
	})
	require.NoError(t, err)
	assert.False(t, report.Failed())

	assert.Equal(t, "calamar", w.FileName)
	assert.Equal(t, "calamar-drainage_line.kml", w.KMLDrainageLineLayer)
	assert.Equal(t, "calamar-gage.kml", w.KMLGageLayer)
	assert.FileExists(t, filepath.Join(f.kmlDir, "magdalena", "calamar-drainage_line.kml"))
	assert.NoFileExists(t, filepath.Join(f.kmlDir, "magdalena", "el_banco-drainage_line.kml"))

	stored, err := watersheddb.Get(f.db, w.ID)
	require.NoError(t, err)
	assert.Equal(t, "Calamar", stored.SubbasinName)
}

func TestUpdateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.service.Add(ctx, localInput("Magdalena", "El Banco"))
	require.NoError(t, err)

	_, err = f.service.Add(ctx, localInput("Magdalena", "Calamar"))
	require.NoError(t, err)

	_, _, err = f.service.Update(ctx, first.ID, localInput("Magdalena", "Calamar"))
	require.ErrorIs(t, err, ErrDuplicate)

	_, _, err = f.service.Update(ctx, 99, localInput("Nfie", "Texas"))
	require.ErrorIs(t, err, watersheddb.ErrWatershedNotFound)

	_, _, err = f.service.Update(ctx, first.ID, Input{
		WatershedName: "Magdalena", SubbasinName: "El Banco", DataStoreID: localID, GeoserverID: f.remoteID,
	})
	require.ErrorIs(t, err, ErrMissingDrainageLine)
}

func TestUpdateToGeoserverAndBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	w, err := f.service.Add(ctx, localInput("Magdalena", "El Banco"))
	require.NoError(t, err)

	w, _, err = f.service.Update(ctx, w.ID, Input{
		WatershedName: "Magdalena", SubbasinName: "El Banco", DataStoreID: localID, GeoserverID: f.remoteID,
		Shapefiles: map[models.LayerKind][]shapefile.File{models.LayerDrainageLine: shapefileSet("river")},
	})
	require.NoError(t, err)

	layerID := geoserver.LayerName(workspace, "magdalena", "el_banco", models.LayerDrainageLine)
	assert.Equal(t, layerID, w.GeoserverDrainageLineLayer)
	assert.True(t, w.GeoserverDrainageLineUploaded)
	assert.Empty(t, w.KMLDrainageLineLayer)
	assert.NoDirExists(t, filepath.Join(f.kmlDir, "magdalena"))

	// a typed layer replaces the uploaded one
	w, _, err = f.service.Update(ctx, w.ID, Input{
		WatershedName: "Magdalena", SubbasinName: "El Banco", DataStoreID: localID, GeoserverID: f.remoteID,
		GeoserverLayers: map[models.LayerKind]string{models.LayerDrainageLine: "erfp:rivers"},
	})
	require.NoError(t, err)
	assert.Equal(t, "erfp:rivers", w.GeoserverDrainageLineLayer)
	assert.False(t, w.GeoserverDrainageLineUploaded)
	assert.Equal(t, []string{layerID}, f.fake.CallsTo("DeleteLayer"))

	w, _, err = f.service.Update(ctx, w.ID, localInput("Magdalena", "El Banco"))
	require.NoError(t, err)
	assert.Empty(t, w.GeoserverDrainageLineLayer)
	assert.Equal(t, "el_banco-drainage_line.kml", w.KMLDrainageLineLayer)
	// typed layers are never purged
	assert.Len(t, f.fake.CallsTo("DeleteLayer"), 1)
}

func TestUpdateGeoserverRenameReupload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := func(subbasin string) Input {
		return Input{
			WatershedName: "Magdalena", SubbasinName: subbasin, DataStoreID: localID, GeoserverID: f.remoteID,
			Shapefiles: map[models.LayerKind][]shapefile.File{models.LayerDrainageLine: shapefileSet("river")},
		}
	}

	w, err := f.service.Add(ctx, input("El Banco"))
	require.NoError(t, err)

	oldID := geoserver.LayerName(workspace, "magdalena", "el_banco", models.LayerDrainageLine)
	newID := geoserver.LayerName(workspace, "magdalena", "plato", models.LayerDrainageLine)
	require.Equal(t, oldID, w.GeoserverDrainageLineLayer)

	f.fake.Calls = nil

	w, _, err = f.service.Update(ctx, w.ID, input("Plato"))
	require.NoError(t, err)
	assert.Equal(t, newID, w.GeoserverDrainageLineLayer)
	assert.True(t, w.GeoserverDrainageLineUploaded)

	var steps []string

	for _, call := range f.fake.Calls {
		if strings.HasPrefix(call, "Delete") || strings.HasPrefix(call, "CreateShapefileResource") {
			steps = append(steps, call)
		}
	}

	assert.Equal(t, []string{
		"DeleteLayer " + oldID,
		"DeleteResource " + oldID,
		"DeleteStore " + oldID,
		"CreateShapefileResource " + newID,
	}, steps)

	assert.NotContains(t, f.fake.Resources, oldID)
	assert.ElementsMatch(t, []string{
		"magdalena-plato-drainage_line.shp",
		"magdalena-plato-drainage_line.shx",
		"magdalena-plato-drainage_line.prj",
		"magdalena-plato-drainage_line.dbf",
	}, f.fake.Uploads[newID])
}

func TestUpdateForecastNames(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := localInput("Magdalena", "El Banco")
	in.DataStoreID = f.catalogID
	in.ForecastWatershedName, in.ForecastSubbasinName = "magdalena", "el_banco"

	w, err := f.service.Add(ctx, in)
	require.NoError(t, err)

	forecastDir := filepath.Join(f.forecasts, "magdalena", "el_banco")
	require.NoError(t, os.MkdirAll(forecastDir, 0o755))

	in.KMLFiles = nil
	in.ForecastSubbasinName = "calamar"

	w, _, err = f.service.Update(ctx, w.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "calamar", w.ForecastSubbasinName)
	assert.NoDirExists(t, forecastDir)
}

func TestLayers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Add(ctx, localInput("Magdalena", "El Banco"))
	require.NoError(t, err)

	_, err = f.service.Add(ctx, Input{
		WatershedName: "Nfie", SubbasinName: "Texas", DataStoreID: localID, GeoserverID: f.remoteID,
		GeoserverLayers: map[models.LayerKind]string{
			models.LayerDrainageLine: "erfp:rivers",
			models.LayerCatchment:    "erfp:missing",
		},
	})
	require.NoError(t, err)

	f.fake.Resources["erfp:rivers"] = &geoserver.Resource{
		Name:       "rivers",
		Attributes: []string{"comid", "Watershed", "subbasin", "Natur_Flow"},
		LatLonBBox: [4]float64{-100, -90, 30, 35},
		Projection: "EPSG:4326",
		GeoJSONP:   "http://geoserver/geoserver/wfs?typeName=erfp:rivers",
	}

	watersheds, err := watersheddb.List(f.db)
	require.NoError(t, err)

	layers := f.service.Layers(ctx, watersheds)
	require.Len(t, layers, 2)

	local := layers[0]
	assert.Equal(t, "Magdalena (El Banco)", local.Title)
	require.NotNil(t, local.DrainageLine)
	assert.Equal(t, "/static/kml/magdalena/el_banco-drainage_line.kml", local.DrainageLine.URL)
	assert.Nil(t, local.Catchment)
	require.NotNil(t, local.Gage)

	remote := layers[1]
	assert.Equal(t, "http://geoserver/geoserver/wms", remote.GeoserverURL)
	require.NotNil(t, remote.DrainageLine)
	assert.Equal(t, MethodNaturFlowQuery, remote.DrainageLine.GeoserverMethod)
	assert.Equal(t, []string{"comid", "Watershed", "subbasin"}, remote.DrainageLine.ContainedAttributes)
	assert.Empty(t, remote.DrainageLine.MissingAttributes)
	assert.Equal(t, &[4]float64{-100, 30, -90, 35}, remote.DrainageLine.LatLonBBox)
	assert.Nil(t, remote.Catchment)
}

func TestCheckAttributes(t *testing.T) {
	testCases := []struct {
		name          string
		attributes    []string
		wantContained []string
		wantMissing   []string
	}{
		{
			name:          "hydro id fallback",
			attributes:    []string{"HYDROID", "watershed", "subbasin", "usgs_id"},
			wantContained: []string{"HYDROID", "watershed", "subbasin", "usgs_id"},
			wantMissing:   []string{"COMID"},
		},
		{
			name:          "no reach id",
			attributes:    []string{"watershed"},
			wantContained: []string{"watershed"},
			wantMissing:   []string{"COMID", "HydroID", "watershed", "subbasin"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			contained, missing := CheckAttributes(&geoserver.Resource{Attributes: tc.attributes})
			assert.Equal(t, tc.wantContained, contained)
			assert.Equal(t, tc.wantMissing, missing)
		})
	}
}
