// Package geoserver publishes and removes watershed layers on a GeoServer through its REST API.
package geoserver

import (
	"context"
	"strings"

	"github.com/ci-water/adhydro-streamflow/internal/cleanup"
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/shapefile"
)

// Engine is the part of GeoServer the service talks to.
// Resource ids have the form "workspace:name".
type Engine interface {
	CreateWorkspace(ctx context.Context, workspace, uri string) error
	CreateShapefileResource(ctx context.Context, storeID string, files []shapefile.File, overwrite bool) error
	GetResource(ctx context.Context, resourceID string) (*Resource, error)
	DeleteLayer(ctx context.Context, layerID string) error
	DeleteResource(ctx context.Context, resourceID string) error
	DeleteStore(ctx context.Context, storeID string) error
}

// Factory returns the engine of a geoserver connection.
type Factory func(conn models.Geoserver) Engine

// Resource describes a published feature type.
type Resource struct {
	Name       string
	Attributes []string
	// LatLonBBox is minx, maxx, miny, maxy as GeoServer reports it.
	LatLonBBox [4]float64
	Projection string
	GeoJSONP   string
}

// MapBBox returns the bounding box as minx, miny, maxx, maxy.
func (r *Resource) MapBBox() [4]float64 {
	return [4]float64{r.LatLonBBox[0], r.LatLonBBox[2], r.LatLonBBox[1], r.LatLonBBox[3]}
}

// HasAttribute reports whether the resource has attribute name, compared case-sensitively.
func (r *Resource) HasAttribute(name string) bool {
	for _, a := range r.Attributes {
		if a == name {
			return true
		}
	}

	return false
}

// FindAttribute returns the resource attribute matching name case-insensitively.
func (r *Resource) FindAttribute(name string) (string, bool) {
	for _, a := range r.Attributes {
		if strings.EqualFold(a, name) {
			return a, true
		}
	}

	return "", false
}

// NormalizeURL trims blanks and one trailing slash.
func NormalizeURL(raw string) string {
	return strings.TrimSuffix(strings.TrimSpace(raw), "/")
}

// ResourceName returns the store and resource name of a watershed layer, e.g. "magdalena-el_banco-gage".
func ResourceName(folderName, fileName string, kind models.LayerKind) string {
	return folderName + "-" + fileName + "-" + string(kind)
}

// LayerName returns the workspace qualified layer id of a watershed layer.
func LayerName(workspace, folderName, fileName string, kind models.LayerKind) string {
	return workspace + ":" + ResourceName(folderName, fileName, kind)
}

// SplitID splits "workspace:name". An id without workspace returns an empty workspace.
func SplitID(id string) (workspace, name string) {
	if i := strings.Index(id, ":"); i >= 0 {
		return id[:i], id[i+1:]
	}

	return "", id
}

// Probe checks a connection by creating the workspace. Failures are wrapped with ErrGeoServer.
func Probe(ctx context.Context, engine Engine, workspace, uri string) error {
	return Wrap(engine.CreateWorkspace(ctx, workspace, uri))
}

// PurgeLayer removes the layer, its resource and its store, in that order.
// Every step is attempted even if an earlier one failed.
func PurgeLayer(ctx context.Context, engine Engine, layerID string) cleanup.Report {
	var report cleanup.Report

	layerID = strings.TrimSpace(layerID)
	if layerID == "" {
		return report
	}

	report.Add("layer "+layerID, engine.DeleteLayer(ctx, layerID))
	report.Add("resource "+layerID, engine.DeleteResource(ctx, layerID))
	report.Add("store "+layerID, engine.DeleteStore(ctx, layerID))

	return report
}
