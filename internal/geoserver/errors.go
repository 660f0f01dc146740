package geoserver

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrGeoServer prefixes every failure reported by a remote GeoServer.
	ErrGeoServer = errors.New("GeoServer Error")
	// ErrClientNotInitialized is returned by a nil Client.
	ErrClientNotInitialized = errors.New("GeoServer client not initialized")
	// ErrInvalidResponse is returned when GeoServer answers with an unexpected body.
	ErrInvalidResponse = errors.New("invalid GeoServer response")
)

// StatusError is a non successful REST response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
	}

	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// NotFound reports whether the resource did not exist.
func (e *StatusError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Wrap marks err as a GeoServer failure, e.g. "GeoServer Error: connection refused".
func Wrap(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrGeoServer, err)
}
