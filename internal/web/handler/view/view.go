// Package view holds the JSON shapes the handlers answer with.
package view

import (
	"github.com/ci-water/adhydro-streamflow/internal/db/models"
)

// Option is one entry of a select list.
type Option struct {
	Name  string `json:"name"`
	Value any    `json:"value"`
}

// Label returns the "Watershed (Subbasin)" label of w.
func Label(w *models.Watershed) string {
	return w.WatershedName + " (" + w.SubbasinName + ")"
}

// Watershed is the admin representation of a watershed.
type Watershed struct {
	ID                    uint64   `json:"id"`
	WatershedName         string   `json:"watershed_name"`
	SubbasinName          string   `json:"subbasin_name"`
	FolderName            string   `json:"folder_name"`
	FileName              string   `json:"file_name"`
	DataStoreID           uint64   `json:"data_store_id"`
	DataStoreName         string   `json:"data_store_name"`
	GeoserverID           uint64   `json:"geoserver_id"`
	GeoserverName         string   `json:"geoserver_name"`
	ForecastWatershedName string   `json:"adhydro_data_store_watershed_name"`
	ForecastSubbasinName  string   `json:"adhydro_data_store_subbasin_name"`
	Layers                Layers   `json:"layers"`
	Groups                []uint64 `json:"watershed_group_ids,omitempty"`
}

// Layers lists the layer names of a watershed.
type Layers struct {
	GeoserverDrainageLine string `json:"geoserver_drainage_line_layer"`
	GeoserverCatchment    string `json:"geoserver_catchment_layer"`
	GeoserverGage         string `json:"geoserver_gage_layer"`
	KMLDrainageLine       string `json:"kml_drainage_line_layer"`
	KMLCatchment          string `json:"kml_catchment_layer"`
	KMLGage               string `json:"kml_gage_layer"`
}

// NewLayers returns the layer names of w.
func NewLayers(w *models.Watershed) Layers {
	return Layers{
		GeoserverDrainageLine: w.GeoserverDrainageLineLayer,
		GeoserverCatchment:    w.GeoserverCatchmentLayer,
		GeoserverGage:         w.GeoserverGageLayer,
		KMLDrainageLine:       w.KMLDrainageLineLayer,
		KMLCatchment:          w.KMLCatchmentLayer,
		KMLGage:               w.KMLGageLayer,
	}
}

// Map returns the layer names as response fields.
func (l Layers) Map() map[string]any {
	return map[string]any{
		"geoserver_drainage_line_layer": l.GeoserverDrainageLine,
		"geoserver_catchment_layer":     l.GeoserverCatchment,
		"geoserver_gage_layer":          l.GeoserverGage,
		"kml_drainage_line_layer":       l.KMLDrainageLine,
		"kml_catchment_layer":           l.KMLCatchment,
		"kml_gage_layer":                l.KMLGage,
	}
}

// NewWatershed converts w.
func NewWatershed(w *models.Watershed) Watershed {
	out := Watershed{
		ID:                    w.ID,
		WatershedName:         w.WatershedName,
		SubbasinName:          w.SubbasinName,
		FolderName:            w.FolderName,
		FileName:              w.FileName,
		DataStoreID:           w.DataStoreID,
		DataStoreName:         w.DataStore.Name,
		GeoserverID:           w.GeoserverID,
		GeoserverName:         w.Geoserver.Name,
		ForecastWatershedName: w.ForecastWatershedName,
		ForecastSubbasinName:  w.ForecastSubbasinName,
		Layers:                NewLayers(w),
	}

	for _, g := range w.Groups {
		out.Groups = append(out.Groups, g.ID)
	}

	return out
}

// Watersheds converts ws.
func Watersheds(ws []models.Watershed) []Watershed {
	out := make([]Watershed, 0, len(ws))
	for i := range ws {
		out = append(out, NewWatershed(&ws[i]))
	}

	return out
}

// DataStore is the admin representation of a data store. The api key is never returned.
type DataStore struct {
	ID          uint64 `json:"id"`
	Name        string `json:"name"`
	TypeID      uint64 `json:"data_store_type_id"`
	TypeName    string `json:"data_store_type"`
	APIEndpoint string `json:"api_endpoint"`
	HasAPIKey   bool   `json:"has_api_key"`
	IsLocal     bool   `json:"is_local"`
}

// NewDataStore converts d.
func NewDataStore(d *models.DataStore) DataStore {
	return DataStore{
		ID:          d.ID,
		Name:        d.Name,
		TypeID:      d.DataStoreTypeID,
		TypeName:    d.DataStoreType.Name,
		APIEndpoint: d.APIEndpoint,
		HasAPIKey:   d.APIKey != "",
		IsLocal:     d.IsLocal,
	}
}

// Geoserver is the admin representation of a geoserver connection. The password is never returned.
type Geoserver struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Username string `json:"username"`
	IsLocal  bool   `json:"is_local"`
}

// NewGeoserver converts g.
func NewGeoserver(g *models.Geoserver) Geoserver {
	return Geoserver{ID: g.ID, Name: g.Name, URL: g.URL, Username: g.Username, IsLocal: g.IsLocal}
}

// Group is a watershed group with its members.
type Group struct {
	ID         uint64   `json:"id"`
	Name       string   `json:"name"`
	Watersheds []Option `json:"watersheds"`
}

// NewGroup converts g.
func NewGroup(g *models.WatershedGroup) Group {
	out := Group{ID: g.ID, Name: g.Name, Watersheds: make([]Option, 0, len(g.Watersheds))}
	for i := range g.Watersheds {
		out.Watersheds = append(out.Watersheds, Option{Name: Label(&g.Watersheds[i]), Value: g.Watersheds[i].ID})
	}

	return out
}
