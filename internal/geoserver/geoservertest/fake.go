// Package geoservertest provides an in-memory geoserver.Engine for tests.
package geoservertest

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/ci-water/adhydro-streamflow/internal/db/models"
	"github.com/ci-water/adhydro-streamflow/internal/geoserver"
	"github.com/ci-water/adhydro-streamflow/internal/shapefile"
)

// Fake records every call and keeps published resources in memory.
type Fake struct {
	mu sync.Mutex

	// Calls lists the calls in order, e.g. "DeleteLayer erfp:a-b-gage".
	Calls []string
	// Resources are returned by GetResource.
	Resources map[string]*geoserver.Resource
	// Uploads holds the file names of every CreateShapefileResource call by store id.
	Uploads map[string][]string
	// WorkspaceErr is returned by CreateWorkspace.
	WorkspaceErr error
	// PublishErr is returned by CreateShapefileResource.
	PublishErr error
}

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		Resources: map[string]*geoserver.Resource{},
		Uploads:   map[string][]string{},
	}
}

// Factory returns a factory handing out f for every connection.
func (f *Fake) Factory() geoserver.Factory {
	return func(models.Geoserver) geoserver.Engine {
		return f
	}
}

func (f *Fake) record(call, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, call+" "+id)
}

// CallsTo returns the ids passed to method, in order.
func (f *Fake) CallsTo(method string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var ids []string

	for _, c := range f.Calls {
		var m, id string
		if _, err := fmt.Sscan(c, &m, &id); err == nil && m == method {
			ids = append(ids, id)
		}
	}

	return ids
}

func notFound(path string) error {
	return &geoserver.StatusError{Method: http.MethodDelete, Path: path, StatusCode: http.StatusNotFound}
}

// CreateWorkspace implements geoserver.Engine.
func (f *Fake) CreateWorkspace(_ context.Context, workspace, _ string) error {
	f.record("CreateWorkspace", workspace)

	return f.WorkspaceErr
}

// CreateShapefileResource implements geoserver.Engine.
func (f *Fake) CreateShapefileResource(_ context.Context, storeID string, files []shapefile.File, _ bool) error {
	f.record("CreateShapefileResource", storeID)

	if f.PublishErr != nil {
		return f.PublishErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.Uploads[storeID] = shapefile.Names(files)
	f.Resources[storeID] = &geoserver.Resource{Name: storeID}

	return nil
}

// GetResource implements geoserver.Engine.
func (f *Fake) GetResource(_ context.Context, resourceID string) (*geoserver.Resource, error) {
	f.record("GetResource", resourceID)

	f.mu.Lock()
	defer f.mu.Unlock()

	r, ok := f.Resources[resourceID]
	if !ok {
		return nil, notFound(resourceID)
	}

	return r, nil
}

// DeleteLayer implements geoserver.Engine.
func (f *Fake) DeleteLayer(_ context.Context, layerID string) error {
	f.record("DeleteLayer", layerID)

	return nil
}

// DeleteResource implements geoserver.Engine.
func (f *Fake) DeleteResource(_ context.Context, resourceID string) error {
	f.record("DeleteResource", resourceID)

	return nil
}

// DeleteStore implements geoserver.Engine.
func (f *Fake) DeleteStore(_ context.Context, storeID string) error {
	f.record("DeleteStore", storeID)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.Resources[storeID]; !ok {
		return notFound(storeID)
	}

	delete(f.Resources, storeID)

	return nil
}
