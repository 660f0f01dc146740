package models

import "time"

// LayerKind names one of the three spatial layers a watershed can carry.
type LayerKind string

const (
	// LayerDrainageLine is the stream network layer. Every watershed has one.
	LayerDrainageLine LayerKind = "drainage_line"
	// LayerCatchment is the drainage boundary layer.
	LayerCatchment LayerKind = "catchment"
	// LayerGage is the observation station layer.
	LayerGage LayerKind = "gage"
)

// LayerKinds lists the layer kinds in publishing order.
var LayerKinds = []LayerKind{LayerDrainageLine, LayerCatchment, LayerGage} //nolint:gochecknoglobals

// Label returns the human readable name used in error messages.
func (k LayerKind) Label() string {
	switch k {
	case LayerDrainageLine:
		return "drainage line"
	default:
		return string(k)
	}
}

// Watershed is one forecast region and subbasin pairing shown on the map.
type Watershed struct {
	// ID is the unique identifier for the watershed.
	ID uint64 `gorm:"primaryKey"`
	// WatershedName is the display name of the watershed.
	WatershedName string `gorm:"size:255;not null"`
	// SubbasinName is the display name of the subbasin.
	SubbasinName string `gorm:"size:255;not null"`
	// FolderName is the normalized watershed name, used for file paths and layer names.
	FolderName string `gorm:"size:255;not null;uniqueIndex:idx_watershed_folder_file"`
	// FileName is the normalized subbasin name, used for file paths and layer names.
	FileName string `gorm:"size:255;not null;uniqueIndex:idx_watershed_folder_file"`
	// DataStoreID references the forecast data store.
	DataStoreID uint64 `gorm:"not null"`
	// DataStore is the associated data store (deleting a referenced data store is refused).
	DataStore DataStore `gorm:"foreignKey:DataStoreID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`
	// ForecastWatershedName is the normalized watershed name inside the forecast catalog.
	ForecastWatershedName string `gorm:"size:255"`
	// ForecastSubbasinName is the normalized subbasin name inside the forecast catalog.
	ForecastSubbasinName string `gorm:"size:255"`
	// GeoserverID references the geoserver the layers live on.
	GeoserverID uint64 `gorm:"not null"`
	// Geoserver is the associated geoserver (deleting a referenced geoserver is refused).
	Geoserver Geoserver `gorm:"foreignKey:GeoserverID;references:ID;constraint:OnDelete:RESTRICT,OnUpdate:CASCADE"`

	GeoserverDrainageLineLayer    string `gorm:"size:255"`
	GeoserverCatchmentLayer       string `gorm:"size:255"`
	GeoserverGageLayer            string `gorm:"size:255"`
	GeoserverDrainageLineUploaded bool
	GeoserverCatchmentUploaded    bool
	GeoserverGageUploaded         bool

	KMLDrainageLineLayer string `gorm:"size:255"`
	KMLCatchmentLayer    string `gorm:"size:255"`
	KMLGageLayer         string `gorm:"size:255"`

	// Groups are the watershed groups this watershed is a member of.
	Groups []WatershedGroup `gorm:"many2many:watershed_group_members;constraint:OnDelete:CASCADE" json:",omitempty"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Watershed model.
func (Watershed) TableName() string {
	return "watersheds"
}

func (w *Watershed) layerFields(k LayerKind) (geoserverLayer *string, uploaded *bool, kmlLayer *string) {
	switch k {
	case LayerCatchment:
		return &w.GeoserverCatchmentLayer, &w.GeoserverCatchmentUploaded, &w.KMLCatchmentLayer
	case LayerGage:
		return &w.GeoserverGageLayer, &w.GeoserverGageUploaded, &w.KMLGageLayer
	default:
		return &w.GeoserverDrainageLineLayer, &w.GeoserverDrainageLineUploaded, &w.KMLDrainageLineLayer
	}
}

// GeoserverLayer returns the geoserver layer id of kind k, empty if none.
func (w *Watershed) GeoserverLayer(k LayerKind) string {
	layer, _, _ := w.layerFields(k)
	return *layer
}

// GeoserverUploaded reports whether the layer of kind k was published by this service.
func (w *Watershed) GeoserverUploaded(k LayerKind) bool {
	_, uploaded, _ := w.layerFields(k)
	return *uploaded
}

// SetGeoserverLayer sets the geoserver layer id of kind k and its uploaded flag.
func (w *Watershed) SetGeoserverLayer(k LayerKind, layerID string, uploaded bool) {
	layer, up, _ := w.layerFields(k)
	*layer = layerID
	*up = uploaded
}

// KMLLayer returns the KML file name of kind k, empty if none.
func (w *Watershed) KMLLayer(k LayerKind) string {
	_, _, kml := w.layerFields(k)
	return *kml
}

// SetKMLLayer sets the KML file name of kind k.
func (w *Watershed) SetKMLLayer(k LayerKind, name string) {
	_, _, kml := w.layerFields(k)
	*kml = name
}

// WatershedGroup is a named collection of watersheds selected together on the map.
type WatershedGroup struct {
	// ID is the unique identifier for the group.
	ID uint64 `gorm:"primaryKey"`
	// Name is the unique group name.
	Name string `gorm:"size:255;not null;uniqueIndex"`
	// Watersheds are the group members.
	Watersheds []Watershed `gorm:"many2many:watershed_group_members;constraint:OnDelete:CASCADE" json:",omitempty"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the database table name for the WatershedGroup model.
func (WatershedGroup) TableName() string {
	return "watershed_groups"
}
