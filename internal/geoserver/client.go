package geoserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/shapefile"
)

const (
	defaultTimeout = 30 * time.Second
	maxErrorBody   = 512
)

// Client talks to the REST API below BaseURL + "/rest".
type Client struct {
	BaseURL  string
	Username string
	Password string
	// Workspace is used for ids without a workspace prefix.
	Workspace string
	HTTP      *http.Client
}

// NewClient returns a client for a geoserver connection.
func NewClient(conn models.Geoserver, workspace string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		BaseURL:   NormalizeURL(conn.URL),
		Username:  conn.Username,
		Password:  conn.Password,
		Workspace: workspace,
		HTTP:      &http.Client{Timeout: timeout},
	}
}

// NewFactory returns a Factory creating REST clients.
func NewFactory(workspace string, timeout time.Duration) Factory {
	return func(conn models.Geoserver) Engine {
		return NewClient(conn, workspace, timeout)
	}
}

func (c *Client) split(id string) (string, string) {
	workspace, name := SplitID(strings.TrimSpace(id))
	if workspace == "" {
		workspace = c.Workspace
	}

	return workspace, name
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, contentType string, body io.Reader) ([]byte, error) {
	if c == nil {
		return nil, ErrClientNotInitialized
	}

	target := c.BaseURL + "/rest/" + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrap(err, "can't build request")
	}

	req.SetBasicAuth(c.Username, c.Password)
	req.Header.Set("Accept", "application/json")

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	client := c.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "can't read response")
	}

	log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).Msg("geoserver request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(data))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}

		return nil, &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: msg}
	}

	return data, nil
}

// CreateWorkspace creates workspace with namespace uri unless it exists.
func (c *Client) CreateWorkspace(ctx context.Context, workspace, uri string) error {
	_, err := c.do(ctx, http.MethodGet, "workspaces/"+url.PathEscape(workspace)+".json", nil, "", nil)
	if err == nil {
		return nil
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || !statusErr.NotFound() {
		return err
	}

	body, err := json.Marshal(map[string]any{
		"namespace": map[string]string{"prefix": workspace, "uri": uri},
	})
	if err != nil {
		return errors.Wrap(err, "can't encode namespace")
	}

	_, err = c.do(ctx, http.MethodPost, "namespaces", nil, "application/json", bytes.NewReader(body))

	return err
}

// CreateShapefileResource uploads files as a zipped shapefile into the datastore named by storeID.
func (c *Client) CreateShapefileResource(ctx context.Context, storeID string, files []shapefile.File, overwrite bool) error {
	workspace, store := c.split(storeID)

	archive, err := shapefile.Zip(files)
	if err != nil {
		return err //nolint:wrapcheck
	}

	query := url.Values{}
	if overwrite {
		query.Set("update", "overwrite")
	}

	path := "workspaces/" + url.PathEscape(workspace) + "/datastores/" + url.PathEscape(store) + "/file.shp"
	_, err = c.do(ctx, http.MethodPut, path, query, "application/zip", bytes.NewReader(archive))

	return err
}

type featureTypeResponse struct {
	FeatureType struct {
		Name              string `json:"name"`
		SRS               string `json:"srs"`
		LatLonBoundingBox struct {
			MinX float64 `json:"minx"`
			MaxX float64 `json:"maxx"`
			MinY float64 `json:"miny"`
			MaxY float64 `json:"maxy"`
		} `json:"latLonBoundingBox"`
		Attributes struct {
			Attribute json.RawMessage `json:"attribute"`
		} `json:"attributes"`
	} `json:"featureType"`
}

type attribute struct {
	Name string `json:"name"`
}

// parseAttributes accepts both a list and a single object, GeoServer collapses one element lists.
func parseAttributes(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var list []attribute
	if err := json.Unmarshal(raw, &list); err != nil {
		var single attribute
		if err = json.Unmarshal(raw, &single); err != nil {
			return nil, ErrInvalidResponse
		}

		list = []attribute{single}
	}

	out := make([]string, 0, len(list))
	for _, a := range list {
		out = append(out, a.Name)
	}

	return out, nil
}

// GetResource returns the feature type behind resourceID.
func (c *Client) GetResource(ctx context.Context, resourceID string) (*Resource, error) {
	workspace, name := c.split(resourceID)
	if name == "" {
		return nil, &StatusError{Method: http.MethodGet, Path: "featuretypes", StatusCode: http.StatusNotFound}
	}

	path := "workspaces/" + url.PathEscape(workspace) + "/featuretypes/" + url.PathEscape(name) + ".json"

	data, err := c.do(ctx, http.MethodGet, path, nil, "", nil)
	if err != nil {
		return nil, err
	}

	var resp featureTypeResponse
	if err = json.Unmarshal(data, &resp); err != nil {
		return nil, ErrInvalidResponse
	}

	attributes, err := parseAttributes(resp.FeatureType.Attributes.Attribute)
	if err != nil {
		return nil, err
	}

	box := resp.FeatureType.LatLonBoundingBox

	wfs := url.Values{}
	wfs.Set("service", "wfs")
	wfs.Set("version", "2.0.0")
	wfs.Set("request", "GetFeature")
	wfs.Set("typeNames", workspace+":"+name)
	wfs.Set("outputFormat", "text/javascript")

	return &Resource{
		Name:       workspace + ":" + name,
		Attributes: attributes,
		LatLonBBox: [4]float64{box.MinX, box.MaxX, box.MinY, box.MaxY},
		Projection: resp.FeatureType.SRS,
		GeoJSONP:   c.BaseURL + "/wfs?" + wfs.Encode(),
	}, nil
}

// DeleteLayer removes the published layer.
func (c *Client) DeleteLayer(ctx context.Context, layerID string) error {
	workspace, name := c.split(layerID)

	_, err := c.do(ctx, http.MethodDelete, "layers/"+url.PathEscape(workspace+":"+name),
		url.Values{"recurse": {"true"}}, "", nil)

	return err
}

// DeleteResource removes the feature type.
func (c *Client) DeleteResource(ctx context.Context, resourceID string) error {
	workspace, name := c.split(resourceID)

	_, err := c.do(ctx, http.MethodDelete,
		"workspaces/"+url.PathEscape(workspace)+"/featuretypes/"+url.PathEscape(name),
		url.Values{"recurse": {"true"}}, "", nil)

	return err
}

// DeleteStore removes the datastore and purges its files.
func (c *Client) DeleteStore(ctx context.Context, storeID string) error {
	workspace, name := c.split(storeID)

	_, err := c.do(ctx, http.MethodDelete,
		"workspaces/"+url.PathEscape(workspace)+"/datastores/"+url.PathEscape(name),
		url.Values{"recurse": {"true"}, "purge": {"all"}}, "", nil)

	return err
}
