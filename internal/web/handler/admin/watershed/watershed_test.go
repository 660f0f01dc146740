package watershed

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/auth"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/db/testdb"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver/geoservertest"
	"github.com/ci-water/adhydro-streamflow/internal/kml"
	"github.com/ci-water/adhydro-streamflow/internal/shapefile"
	"github.com/ci-water/adhydro-streamflow/internal/watershed"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler/handlertest"
)

type fixture struct {
	app      *fiber.App
	db       *gorm.DB
	fake     *geoservertest.Fake
	kmlDir   string
	staff    string
	remoteID string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testdb.New(t)

	remote := &models.Geoserver{Name: "Remote", URL: "http://geoserver/geoserver"}
	require.NoError(t, db.Create(remote).Error)

	fake := geoservertest.New()
	kmlDir := t.TempDir()

	app := handlertest.NewApp()

	s := &Service{}
	require.NoError(t, s.Init(app, db, auth.NewService(db), &watershed.Service{
		DB:           db,
		KML:          kml.NewStore(kmlDir),
		Geoservers:   fake.Factory(),
		Workspace:    "erfp",
		NamespaceURI: "http://erfp.example",
	}))

	return &fixture{
		app:      app,
		db:       db,
		fake:     fake,
		kmlDir:   kmlDir,
		staff:    handlertest.Staff(t, db),
		remoteID: strconv.FormatUint(remote.ID, 10),
	}
}

func (f *fixture) post(t *testing.T, target string, values url.Values, files ...handlertest.File) (int, map[string]any) {
	t.Helper()

	return handlertest.Do(t, f.app, handlertest.WithSession(handlertest.Multipart(t, target, values, files...), f.staff))
}

func fields(watershedName, subbasinName, geoserverID string) url.Values {
	return url.Values{
		"watershed_name": {watershedName},
		"subbasin_name":  {subbasinName},
		"data_store_id":  {"1"},
		"geoserver_id":   {geoserverID},
	}
}

var drainageKML = handlertest.File{Field: "drainage_line_kml_file", Name: "drainage.kml", Content: []byte("<kml/>")} //nolint:gochecknoglobals

func shapefiles(field string, extensions []string) []handlertest.File {
	files := make([]handlertest.File, 0, len(extensions))
	for _, ext := range extensions {
		files = append(files, handlertest.File{Field: field, Name: "rivers" + ext, Content: []byte(ext)})
	}

	return files
}

func TestAdd(t *testing.T) {
	testCases := []struct {
		name       string
		values     url.Values
		files      []handlertest.File
		publishErr error
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing name",
			values:     fields("", "El Banco", "1"),
			files:      []handlertest.File{drainageKML},
			wantStatus: fiber.StatusBadRequest,
			wantError:  msgMissingData,
		},
		{
			name:       "faulty ids",
			values:     fields("Magdalena", "El Banco", "999"),
			files:      []handlertest.File{drainageKML},
			wantStatus: fiber.StatusBadRequest,
			wantError:  msgFaultyIDs,
		},
		{
			name:       "missing kml",
			values:     fields("Magdalena", "El Banco", "1"),
			wantStatus: fiber.StatusBadRequest,
			wantError:  msgMissingKML,
		},
		{
			name:       "missing drainage line",
			values:     fields("Magdalena", "El Banco", "2"),
			wantStatus: fiber.StatusBadRequest,
			wantError:  msgMissingDrainageLine,
		},
		{
			name:       "incomplete shapefile",
			values:     fields("Magdalena", "El Banco", "2"),
			files:      shapefiles("drainage_line_shp_file", []string{".shp"}),
			wantStatus: fiber.StatusBadRequest,
			wantError:  "Missing geoserver drainage line files with extensions .shx, .prj, .dbf.",
		},
		{
			name:       "geoserver failure",
			values:     fields("Magdalena", "El Banco", "2"),
			files:      shapefiles("drainage_line_shp_file", shapefile.RequiredExtensions),
			publishErr: errors.New("503 Service Unavailable"),
			wantStatus: fiber.StatusBadGateway,
			wantError:  "GeoServer Error: 503 Service Unavailable",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.fake.PublishErr = tc.publishErr

			values := tc.values
			if values.Get("geoserver_id") == "2" {
				values.Set("geoserver_id", f.remoteID)
			}

			status, body := f.post(t, Path, values, tc.files...)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantError, body["error"])

			var count int64
			require.NoError(t, f.db.Model(&models.Watershed{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestAddLocalUpdateDelete(t *testing.T) {
	f := newFixture(t)

	status, body := f.post(t, Path, fields("Magdalena", "El Banco", "1"), drainageKML)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, msgAdded, body["success"])
	assert.Equal(t, "el_banco-drainage_line.kml", body["kml_drainage_line_layer"])
	assert.FileExists(t, filepath.Join(f.kmlDir, "magdalena", "el_banco-drainage_line.kml"))

	id := strconv.FormatUint(uint64(body["watershed_id"].(float64)), 10)

	status, body = f.post(t, Path, fields("magdalena", "el banco", "1"), drainageKML)
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, msgDuplicate, body["error"])

	status, body = f.post(t, Path+"/999", fields("Nile", "Blue", "1"))
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, msgUpdateNotFound, body["error"])

	status, body = f.post(t, Path+"/"+id, fields("Magdalena", "Mompox", "1"))
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, msgUpdated, body["success"])
	assert.Equal(t, "mompox-drainage_line.kml", body["kml_drainage_line_layer"])
	assert.Equal(t, float64(0), body["cleanup_failures"])
	assert.FileExists(t, filepath.Join(f.kmlDir, "magdalena", "mompox-drainage_line.kml"))

	status, body = handlertest.Do(t, f.app, handlertest.WithSession(handlertest.Get(Path+"/"+id), f.staff))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Mompox", body["watershed"].(map[string]any)["subbasin_name"])

	status, body = handlertest.Do(t, f.app, handlertest.WithSession(handlertest.Get(Path), f.staff))
	require.Equal(t, fiber.StatusOK, status)
	assert.Len(t, body["watersheds"], 1)
	assert.Len(t, body["geoservers"], 2)

	status, body = f.post(t, Path+"/"+id+"/delete", url.Values{})
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, msgDeleted, body["success"])

	_, err := os.Stat(filepath.Join(f.kmlDir, "magdalena"))
	assert.True(t, os.IsNotExist(err))

	status, body = f.post(t, Path+"/"+id+"/delete", url.Values{})
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Equal(t, msgDeleteNotFound, body["error"])
}

func TestAddGeoserver(t *testing.T) {
	f := newFixture(t)

	values := fields("Magdalena", "El Banco", f.remoteID)
	values.Set("geoserver_gage_layer", "erfp:gages")

	status, body := f.post(t, Path, values, shapefiles("drainage_line_shp_file", shapefile.RequiredExtensions)...)
	require.Equal(t, fiber.StatusOK, status, body)

	assert.Equal(t, "erfp:magdalena-el_banco-drainage_line", body["geoserver_drainage_line_layer"])
	assert.Equal(t, "erfp:gages", body["geoserver_gage_layer"])
	assert.Equal(t, []string{"erfp:magdalena-el_banco-drainage_line"}, f.fake.CallsTo("CreateShapefileResource"))
}
