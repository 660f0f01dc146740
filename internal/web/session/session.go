// Package session keeps the logged in user in the fiber session storage.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

const (
	// CookieName is the name of the session cookie.
	CookieName = "session"
	// LocalUser is the fiber.Locals key of the authenticated models.User.
	LocalUser = "CurrentUser"
)

// ErrSessionNotFound is returned when the session id is unknown or expired.
var ErrSessionNotFound = errors.New("session not found")

// Store is the global session store instance.
var Store *session.Store //nolint:gochecknoglobals

// Data represents the session data structure.
type Data struct {
	User User
}

// User is the part of a user kept in the session.
type User struct {
	ID       uint64
	Username string
}

// Write writes the session data for the given session ID with an expiration duration.
func (s *Data) Write(sessionID string, exp time.Duration) error {
	out, err := json.Marshal(s)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return Store.Storage.Set(sessionID, out, exp) //nolint:wrapcheck
}

// Read reads the session data for the given session ID.
func (s *Data) Read(sessionID string) error {
	byteData, err := Store.Storage.Get(sessionID)
	if err != nil {
		return err //nolint:wrapcheck
	}

	if len(byteData) == 0 {
		return ErrSessionNotFound
	}

	return json.Unmarshal(byteData, s) //nolint:wrapcheck
}

// Delete removes the session data of sessionID.
func Delete(sessionID string) error {
	return Store.Storage.Delete(sessionID) //nolint:wrapcheck
}

// Init initializes the session store with the provided storage backend.
// A nil storage keeps sessions in memory.
func Init(storage fiber.Storage) {
	Store = session.New(session.Config{
		Storage: storage,
	})
}

// GenerateSessionID generates a new secure random session ID.
func GenerateSessionID() (string, error) {
	// 32 bytes = 256 bits
	b := make([]byte, 32) //nolint:mnd
	if _, err := rand.Read(b); err != nil {
		return "", err //nolint:wrapcheck
	}

	return hex.EncodeToString(b), nil
}
