package geoserver

import (
	"errors"
	"net/url"
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
	"github.com/ci-water/adhydro-streamflow/internal/web/handler/handlertest"
)

func newApp(t *testing.T) (*fiber.App, *gorm.DB, *geoservertest.Fake, string) {
	t.Helper()

	db := testdb.New(t)
	fake := geoservertest.New()
	app := handlertest.NewApp()

	s := &Service{}
	require.NoError(t, s.Init(app, handlertest.Config(), db, auth.NewService(db), fake.Factory()))

	return app, db, fake, handlertest.Staff(t, db)
}

func form(name, rawURL string) url.Values {
	return url.Values{
		"geoserver_name":     {name},
		"geoserver_url":      {rawURL},
		"geoserver_username": {"admin"},
		"geoserver_password": {" geoserver "},
	}
}

func TestAdd(t *testing.T) {
	app, db, fake, staff := newApp(t)

	post := func(values url.Values) (int, map[string]any) {
		return handlertest.Do(t, app, handlertest.WithSession(handlertest.Form(Path, values), staff))
	}

	status, body := post(url.Values{"geoserver_name": {"remote"}, "geoserver_url": {"http://gs/geoserver"}})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, msgMissingData, body["error"])

	fake.WorkspaceErr = errors.New("connection refused")
	status, body = post(form("remote", "http://gs/geoserver/"))
	assert.Equal(t, fiber.StatusBadGateway, status)
	assert.Equal(t, "GeoServer Error: connection refused", body["error"])

	fake.WorkspaceErr = nil
	status, body = post(form("remote", " http://gs/geoserver/ "))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, msgAdded, body["success"])
	assert.Equal(t, []string{"erfp", "erfp"}, fake.CallsTo("CreateWorkspace"))

	var stored models.Geoserver
	require.NoError(t, db.First(&stored, uint64(body["geoserver_id"].(float64))).Error)
	assert.Equal(t, "http://gs/geoserver", stored.URL)
	assert.Equal(t, "geoserver", stored.Password)

	status, body = post(form("other", "http://gs/geoserver"))
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, msgDuplicate, body["error"])
}

func TestUpdateAndDelete(t *testing.T) {
	app, db, _, staff := newApp(t)

	remote := &models.Geoserver{Name: "remote", URL: "http://gs/geoserver", Username: "admin", Password: "pw"}
	require.NoError(t, db.Create(remote).Error)

	id := strconv.FormatUint(remote.ID, 10)

	post := func(target string, values url.Values) (int, map[string]any) {
		return handlertest.Do(t, app, handlertest.WithSession(handlertest.Form(target, values), staff))
	}

	testCases := []struct {
		name       string
		target     string
		values     url.Values
		wantStatus int
		wantBody   string
	}{
		{name: "faulty id", target: Path + "/abc", values: form("x", "http://x"), wantStatus: fiber.StatusBadRequest, wantBody: msgFaultyID},
		{name: "local", target: Path + "/1", values: form("x", "http://x"), wantStatus: fiber.StatusBadRequest, wantBody: msgLocal},
		{name: "unknown", target: Path + "/999", values: form("x", "http://x"), wantStatus: fiber.StatusNotFound, wantBody: msgUpdateNotFound},
		{name: "duplicate of local", target: Path + "/" + id, values: form("Local Server", "http://x"), wantStatus: fiber.StatusConflict, wantBody: msgDuplicate},
		{name: "updated", target: Path + "/" + id, values: form("renamed", "http://gs2/geoserver/"), wantStatus: fiber.StatusOK, wantBody: msgUpdated},
		{name: "delete local", target: Path + "/1/delete", wantStatus: fiber.StatusBadRequest, wantBody: msgLocal},
		{name: "delete unknown", target: Path + "/999/delete", wantStatus: fiber.StatusNotFound, wantBody: msgDeleteNotFound},
		{name: "delete", target: Path + "/" + id + "/delete", wantStatus: fiber.StatusOK, wantBody: msgDeleted},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := post(tc.target, tc.values)
			assert.Equal(t, tc.wantStatus, status)

			if tc.wantStatus == fiber.StatusOK {
				assert.Equal(t, tc.wantBody, body["success"])
				return
			}

			assert.Equal(t, tc.wantBody, body["error"])
		})
	}
}

func TestDeleteInUse(t *testing.T) {
	app, db, _, staff := newApp(t)

	remote := &models.Geoserver{Name: "remote", URL: "http://gs/geoserver"}
	require.NoError(t, db.Create(remote).Error)
	require.NoError(t, db.Create(&models.Watershed{
		WatershedName: "Magdalena",
		SubbasinName:  "El Banco",
		FolderName:    "magdalena",
		FileName:      "el_banco",
		DataStoreID:   1,
		GeoserverID:   remote.ID,
	}).Error)

	target := Path + "/" + strconv.FormatUint(remote.ID, 10) + "/delete"

	status, body := handlertest.Do(t, app, handlertest.WithSession(handlertest.Form(target, url.Values{}), staff))
	assert.Equal(t, fiber.StatusConflict, status)
	assert.Equal(t, msgInUse, body["error"])
}

func TestList(t *testing.T) {
	app, _, _, staff := newApp(t)

	status, body := handlertest.Do(t, app, handlertest.WithSession(handlertest.Get(Path), staff))
	require.Equal(t, fiber.StatusOK, status)

	assert.Equal(t, []any{map[string]any{
		"id": float64(1), "name": "Local Server", "url": "/", "username": "", "is_local": true,
	}}, body["geoservers"])
}
