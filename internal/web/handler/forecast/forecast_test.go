package forecast

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ci-water/adhydro-streamflow/internal/db/controller/mainsettings"
	"github.com/ci-water/adhydro-streamflow/internal/db/testdb"
	"github.com/ci-water/adhydro-streamflow/internal/forecast"
	"github.com/ci-water/adhydro-streamflow/internal/web/handler/handlertest"
)

type dataset map[string]any

func (d dataset) Variables() []string {
	out := make([]string, 0, len(d))
	for k := range d {
		out = append(out, k)
	}

	return out
}

func (d dataset) Values(name string) (any, error) {
	v, ok := d[name]
	if !ok {
		return nil, os.ErrNotExist
	}

	return v, nil
}

func (d dataset) Close() error { return nil }

func newApp(t *testing.T) (*fiber.App, string) {
	t.Helper()

	db := testdb.New(t)
	root := t.TempDir()

	settings, err := mainsettings.Load(db)
	require.NoError(t, err)

	_, err = mainsettings.Save(db, mainsettings.Update{BaseLayerID: settings.BaseLayerID, ForecastDirectory: root})
	require.NoError(t, err)

	dir := filepath.Join(root, "magdalena", "el_banco")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "RapidResult_20150405T2300Z_CF.nc"), nil, 0o600))

	lookup := &forecast.Lookup{DB: db, Open: func(string) (forecast.Dataset, error) {
		return dataset{
			forecast.VarDepth:         [][]float64{{1.5}, {2.5}},
			forecast.VarReferenceDate: 2440587.5,
			forecast.VarCurrentTime:   []float64{0, 3600},
		}, nil
	}}

	app := handlertest.NewApp()

	s := &Service{}
	s.Init(app, lookup)

	return app, root
}

func TestDates(t *testing.T) {
	app, _ := newApp(t)

	testCases := []struct {
		name       string
		target     string
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing subbasin",
			target:     RouteDates + "?watershed_name=Magdalena",
			wantStatus: fiber.StatusBadRequest,
			wantError:  "AJAX request input faulty",
		},
		{
			name:       "unknown watershed",
			target:     RouteDates + "?watershed_name=Nile&subbasin_name=Blue",
			wantStatus: fiber.StatusNotFound,
			wantError:  "ADHydro forecast for nile (blue) not found.",
		},
		{
			name:       "found",
			target:     RouteDates + "?watershed_name=Magdalena&subbasin_name=El%20Banco",
			wantStatus: fiber.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := handlertest.Do(t, app, handlertest.Get(tc.target))
			assert.Equal(t, tc.wantStatus, status)

			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, body["error"])
				return
			}

			assert.Equal(t, "File search complete!", body["success"])
			require.Len(t, body["output_files"], 1)
			assert.Equal(t, map[string]any{"id": "20150405T2300Z", "text": "2015-04-05 23:00 UTC"}, body["output_files"].([]any)[0])
		})
	}
}

func TestHydrograph(t *testing.T) {
	app, _ := newApp(t)

	base := RouteHydrograph + "?watershed_name=magdalena&subbasin_name=el_banco"

	testCases := []struct {
		name       string
		target     string
		wantStatus int
		wantError  string
	}{
		{
			name:       "missing reach",
			target:     base + "&date_string=most_recent",
			wantStatus: fiber.StatusBadRequest,
			wantError:  "ADHydro AJAX request input faulty.",
		},
		{
			name:       "bad reach",
			target:     base + "&date_string=most_recent&reach_id=abc",
			wantStatus: fiber.StatusNotFound,
			wantError:  "ADHydro reach with id: abc not found.",
		},
		{
			name:       "unknown date",
			target:     base + "&date_string=20990101T0000Z&reach_id=0",
			wantStatus: fiber.StatusNotFound,
			wantError:  "ADHydro forecast for magdalena (el_banco) not found.",
		},
		{
			name:       "most recent",
			target:     base + "&date_string=most_recent&reach_id=0",
			wantStatus: fiber.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := handlertest.Do(t, app, handlertest.Get(tc.target))
			assert.Equal(t, tc.wantStatus, status)

			if tc.wantError != "" {
				assert.Equal(t, tc.wantError, body["error"])
				return
			}

			assert.Equal(t, []any{
				[]any{float64(0), 1.5},
				[]any{float64(3600000), 2.5},
			}, body["adhydro"])
		})
	}
}
