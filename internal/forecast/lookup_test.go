package forecast

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/db/controller/mainsettings"
	"github.com/ci-water/adhydro-streamflow/internal/db/testdb"
)

func setRoot(t *testing.T, db *gorm.DB, dir string) {
	t.Helper()

	settings, err := mainsettings.Load(db)
	require.NoError(t, err)

	_, err = mainsettings.Save(db, mainsettings.Update{BaseLayerID: settings.BaseLayerID, ForecastDirectory: dir})
	require.NoError(t, err)
}

func newLookup(t *testing.T) (*Lookup, string, *memDataset) {
	t.Helper()

	db := testdb.New(t)
	root := t.TempDir()
	setRoot(t, db, root)

	ds := &memDataset{vars: map[string]any{
		VarDepth:         [][]float64{{1, 2}, {3, 4}},
		VarReferenceDate: 2440587.5,
		VarCurrentTime:   []float64{0, 60},
	}}

	lookup := &Lookup{DB: db, Open: func(path string) (Dataset, error) {
		if filepath.Base(path) == "RapidResult_broken_CF.nc" {
			return nil, errors.New("not a netcdf file")
		}

		return ds, nil
	}}

	return lookup, root, ds
}

func TestLookupDates(t *testing.T) {
	lookup, root, _ := newLookup(t)
	touch(t, filepath.Join(root, "magdalena", "el_banco"), "RapidResult_20150405T2300Z_CF.nc")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "magdalena", "empty"), 0o755))

	testCases := []struct {
		name          string
		watershed     string
		subbasin      string
		wantLen       int
		expectedError error
		message       string
	}{
		{name: "display names are formatted", watershed: "Magdalena", subbasin: "El Banco", wantLen: 1},
		{name: "missing subbasin", watershed: "Magdalena", expectedError: ErrDatesInput, message: "AJAX request input faulty"},
		{
			name: "unknown watershed", watershed: "Amazon", subbasin: "x",
			expectedError: ErrForecastNotFound, message: "ADHydro forecast for amazon (x) not found.",
		},
		{
			name: "no files", watershed: "magdalena", subbasin: "empty",
			expectedError: ErrForecastNotFound, message: "Recent ADHydro forecasts for magdalena (empty) not found.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dates, err := lookup.Dates(context.Background(), tc.watershed, tc.subbasin)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.EqualError(t, err, tc.message)
				return
			}

			require.NoError(t, err)
			assert.Len(t, dates, tc.wantLen)
		})
	}
}

func TestLookupHydrograph(t *testing.T) {
	lookup, root, ds := newLookup(t)
	touch(t, filepath.Join(root, "magdalena", "el_banco"), "RapidResult_20150405T2300Z_CF.nc", "RapidResult_broken_CF.nc")

	testCases := []struct {
		name          string
		reachID       string
		dateString    string
		want          []Point
		expectedError error
	}{
		{name: "specific run", reachID: "1", dateString: "20150405T2300Z", want: []Point{{Time: 0, Value: 2}, {Time: 60000, Value: 4}}},
		{name: "missing reach", dateString: MostRecent, expectedError: ErrHydrographInput},
		{name: "unknown run", reachID: "1", dateString: "20990101T0000Z", expectedError: ErrForecastNotFound},
		{name: "bad reach", reachID: "COMID", dateString: "20150405T2300Z", expectedError: ErrReachNotFound},
		{name: "unreadable file", reachID: "0", dateString: "broken", expectedError: ErrInvalidFile},
		{name: "reach outside file", reachID: "9", dateString: "20150405T2300Z", expectedError: ErrInvalidFile},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			points, err := lookup.Hydrograph(context.Background(), "magdalena", "el_banco", tc.reachID, tc.dateString)
			if tc.expectedError != nil {
				assert.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, points)
			assert.True(t, ds.closed)
		})
	}
}

func TestLookupDirectory(t *testing.T) {
	lookup, root, _ := newLookup(t)
	setRoot(t, lookup.DB, filepath.Join(root, "missing"))

	_, err := lookup.Dates(context.Background(), "magdalena", "el_banco")
	assert.ErrorIs(t, err, ErrDirectory)

	setRoot(t, lookup.DB, "")

	_, err = lookup.Hydrograph(context.Background(), "magdalena", "el_banco", "1", MostRecent)
	assert.ErrorIs(t, err, ErrDirectory)
}
