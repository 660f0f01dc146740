package geoserver_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ci-water/adhydro-streamflow/internal/cleanup"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver/geoservertest"
	"github.com/ci-water/adhydro-streamflow/internal/shapefile"
)

func newClient(t *testing.T, handler http.HandlerFunc) *geoserver.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return geoserver.NewClient(models.Geoserver{URL: srv.URL + "/geoserver/", Username: "admin", Password: "secret"}, "erfp", 0)
}

func TestCreateWorkspace(t *testing.T) {
	testCases := []struct {
		name          string
		getStatus     int
		wantPost      bool
		expectedError bool
	}{
		{name: "workspace exists", getStatus: http.StatusOK},
		{name: "workspace created", getStatus: http.StatusNotFound, wantPost: true},
		{name: "bad credentials", getStatus: http.StatusUnauthorized, expectedError: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var posted map[string]map[string]string

			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				user, pass, ok := r.BasicAuth()
				assert.True(t, ok)
				assert.Equal(t, "admin", user)
				assert.Equal(t, "secret", pass)

				switch {
				case r.Method == http.MethodGet && r.URL.Path == "/geoserver/rest/workspaces/erfp.json":
					w.WriteHeader(tc.getStatus)
				case r.Method == http.MethodPost && r.URL.Path == "/geoserver/rest/namespaces":
					assert.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
					w.WriteHeader(http.StatusCreated)
				default:
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
			})

			err := geoserver.Probe(context.Background(), client, "erfp", "tethys.ci-water.org")
			if tc.expectedError {
				require.ErrorIs(t, err, geoserver.ErrGeoServer)
				assert.Contains(t, err.Error(), "GeoServer Error: ")
				return
			}

			require.NoError(t, err)

			if tc.wantPost {
				assert.Equal(t, "erfp", posted["namespace"]["prefix"])
				assert.Equal(t, "tethys.ci-water.org", posted["namespace"]["uri"])
			} else {
				assert.Nil(t, posted)
			}
		})
	}
}

func TestCreateShapefileResource(t *testing.T) {
	var names []string

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/geoserver/rest/workspaces/erfp/datastores/magdalena-el_banco-gage/file.shp", r.URL.Path)
		assert.Equal(t, "overwrite", r.URL.Query().Get("update"))
		assert.Equal(t, "application/zip", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)

		zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
		assert.NoError(t, err)

		for _, f := range zr.File {
			names = append(names, f.Name)
		}

		w.WriteHeader(http.StatusCreated)
	})

	files := shapefile.Rename([]shapefile.File{{Name: "x.shp"}, {Name: "x.dbf"}}, "magdalena-el_banco-gage")

	err := client.CreateShapefileResource(context.Background(), "erfp:magdalena-el_banco-gage", files, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"magdalena-el_banco-gage.shp", "magdalena-el_banco-gage.dbf"}, names)
}

func TestGetResource(t *testing.T) {
	testCases := []struct {
		name       string
		attributes string
		want       []string
	}{
		{
			name:       "attribute list",
			attributes: `[{"name":"the_geom"},{"name":"COMID"},{"name":"Natur_Flow"}]`,
			want:       []string{"the_geom", "COMID", "Natur_Flow"},
		},
		{
			name:       "single attribute",
			attributes: `{"name":"the_geom"}`,
			want:       []string{"the_geom"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/geoserver/rest/workspaces/erfp/featuretypes/magdalena-el_banco-drainage_line.json", r.URL.Path)

				_, _ = io.WriteString(w, `{"featureType":{"name":"magdalena-el_banco-drainage_line","srs":"EPSG:4326",`+
					`"latLonBoundingBox":{"minx":-75,"maxx":-73,"miny":8,"maxy":10},`+
					`"attributes":{"attribute":`+tc.attributes+`}}}`)
			})

			resource, err := client.GetResource(context.Background(), "magdalena-el_banco-drainage_line")
			require.NoError(t, err)

			assert.Equal(t, "erfp:magdalena-el_banco-drainage_line", resource.Name)
			assert.Equal(t, tc.want, resource.Attributes)
			assert.Equal(t, "EPSG:4326", resource.Projection)
			assert.Equal(t, [4]float64{-75, 8, -73, 10}, resource.MapBBox())
			assert.Contains(t, resource.GeoJSONP, "/geoserver/wfs?")
			assert.Contains(t, resource.GeoJSONP, "outputFormat=text%2Fjavascript")
		})
	}
}

func TestDeleteNotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	report := geoserver.PurgeLayer(context.Background(), client, "erfp:gone")

	require.Len(t, report.Steps, 3)
	assert.Equal(t, 3, report.Count(cleanup.NotFound))
	assert.False(t, report.Failed())
}

func TestPurgeLayer(t *testing.T) {
	fake := geoservertest.New()
	fake.Resources["erfp:a-b-gage"] = &geoserver.Resource{}

	report := geoserver.PurgeLayer(context.Background(), fake, " erfp:a-b-gage ")

	assert.Equal(t, []string{
		"DeleteLayer erfp:a-b-gage",
		"DeleteResource erfp:a-b-gage",
		"DeleteStore erfp:a-b-gage",
	}, fake.Calls)
	assert.Equal(t, 3, report.Count(cleanup.Removed))

	empty := geoserver.PurgeLayer(context.Background(), fake, "")
	assert.Empty(t, empty.Steps)
}

func TestNames(t *testing.T) {
	assert.Equal(t, "http://geo.example/geoserver", geoserver.NormalizeURL(" http://geo.example/geoserver/ "))
	assert.Equal(t, "erfp:magdalena-el_banco-catchment",
		geoserver.LayerName("erfp", "magdalena", "el_banco", models.LayerCatchment))

	workspace, name := geoserver.SplitID("erfp:layer")
	assert.Equal(t, "erfp", workspace)
	assert.Equal(t, "layer", name)

	workspace, name = geoserver.SplitID("layer")
	assert.Empty(t, workspace)
	assert.Equal(t, "layer", name)

	resource := geoserver.Resource{Attributes: []string{"comid", "Natur_Flow"}}
	attr, ok := resource.FindAttribute("COMID")
	assert.True(t, ok)
	assert.Equal(t, "comid", attr)
	assert.True(t, resource.HasAttribute("Natur_Flow"))
	assert.False(t, resource.HasAttribute("natur_flow"))
}
