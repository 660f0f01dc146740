// Package ckan checks data store credentials against a CKAN action API.
package ckan

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultTimeout = 30 * time.Second

var (
	// ErrInvalidCredentials is returned when the catalog answer is not a CKAN action result.
	ErrInvalidCredentials = errors.New("data store credentials invalid")
	// ErrCatalog is returned for transport and server failures.
	ErrCatalog = errors.New("catalog request failed")
)

// Lister lists the datasets of a catalog. It is used as a credential probe.
type Lister interface {
	ListDatasets(ctx context.Context) (*Result, error)
}

// Factory returns the lister of an endpoint and api key.
type Factory func(endpoint, apiKey string) Lister

// Result is the envelope of a CKAN action response.
type Result struct {
	Success bool     `json:"success"`
	Result  []string `json:"result"`
}

// Client calls <Endpoint>/action/package_list.
type Client struct {
	Endpoint string
	APIKey   string
	HTTP     *http.Client
}

// NewClient returns a client for endpoint, e.g. "http://ckan.example/api/3".
func NewClient(endpoint, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		Endpoint: strings.TrimSuffix(strings.TrimSpace(endpoint), "/"),
		APIKey:   strings.TrimSpace(apiKey),
		HTTP:     &http.Client{Timeout: timeout},
	}
}

// NewFactory returns a Factory creating HTTP clients.
func NewFactory(timeout time.Duration) Factory {
	return func(endpoint, apiKey string) Lister {
		return NewClient(endpoint, apiKey, timeout)
	}
}

// catalogError keeps ErrCatalog as the cause and err as the message.
func catalogError(err error) error {
	return errors.WithMessage(ErrCatalog, err.Error())
}

// ListDatasets returns the dataset names. A body without a "success" field means the
// endpoint or key is wrong and yields ErrInvalidCredentials.
func (c *Client) ListDatasets(ctx context.Context) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint+"/action/package_list", nil)
	if err != nil {
		return nil, catalogError(err)
	}

	req.Header.Set("Authorization", c.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, catalogError(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, catalogError(err)
	}

	var envelope map[string]json.RawMessage
	if err = json.Unmarshal(data, &envelope); err != nil {
		return nil, ErrInvalidCredentials
	}

	if _, ok := envelope["success"]; !ok {
		return nil, ErrInvalidCredentials
	}

	var result Result
	if err = json.Unmarshal(data, &result); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &result, nil
}
