// Package handlertest builds fiber apps, sessions and requests for handler tests.
package handlertest

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ci-water/adhydro-streamflow/internal/config"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	authmiddleware "github.com/ci-water/adhydro-streamflow/internal/web/middleware/auth"
	"github.com/ci-water/adhydro-streamflow/internal/web/session"
)

// Password is the password of every user created by User.
const Password = "secret-password"

// File is a multipart upload.
type File struct {
	Field   string
	Name    string
	Content []byte
}

// Config returns a minimal valid configuration.
func Config() *config.Config {
	return &config.Config{
		Title: "test",
		Webserver: config.Webserver{
			URL:     "http://localhost",
			Port:    3000,
			Session: config.Session{ExpiryTime: time.Minute},
		},
		GeoServer: config.GeoServer{Workspace: "erfp", NamespaceURI: "http://erfp.example"},
	}
}

// NewApp returns a fiber app with in-memory sessions and the session middleware.
func NewApp() *fiber.App {
	session.Init(nil)

	app := fiber.New(fiber.Config{CaseSensitive: true, Immutable: true})
	app.Use(authmiddleware.Middleware)

	return app
}

// User creates an active user with Password.
func User(t *testing.T, db *gorm.DB, username string, staff bool) *models.User {
	t.Helper()

	hash, err := models.HashPassword(Password)
	require.NoError(t, err)

	user := &models.User{Active: true, Username: username, Password: hash, IsStaff: staff}
	require.NoError(t, db.Create(user).Error)

	return user
}

// Session writes a session for user and returns its cookie value.
func Session(t *testing.T, user *models.User) string {
	t.Helper()

	id, err := session.GenerateSessionID()
	require.NoError(t, err)

	data := session.Data{User: session.User{ID: user.ID, Username: user.Username}}
	require.NoError(t, data.Write(id, time.Minute))

	return id
}

// Staff creates a staff user and returns its session cookie value.
func Staff(t *testing.T, db *gorm.DB) string {
	t.Helper()

	return Session(t, User(t, db, "staff", true))
}

// Get returns a GET request for target.
func Get(target string) *http.Request {
	return httptest.NewRequest(fiber.MethodGet, target, nil)
}

// Form returns a url encoded POST request.
func Form(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(fiber.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationForm)

	return req
}

// Multipart returns a multipart POST request with fields and files.
func Multipart(t *testing.T, target string, values url.Values, files ...File) *http.Request {
	t.Helper()

	var body bytes.Buffer

	w := multipart.NewWriter(&body)

	for key, vs := range values {
		for _, v := range vs {
			require.NoError(t, w.WriteField(key, v))
		}
	}

	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Name)
		require.NoError(t, err)

		_, err = part.Write(f.Content)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())

	req := httptest.NewRequest(fiber.MethodPost, target, &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())

	return req
}

// WithSession adds the session cookie to req.
func WithSession(req *http.Request, sessionID string) *http.Request {
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: sessionID})

	return req
}

// Do runs req against app and decodes the JSON object answer.
func Do(t *testing.T, app *fiber.App, req *http.Request) (int, map[string]any) {
	t.Helper()

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	body := map[string]any{}
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}

	return resp.StatusCode, body
}
