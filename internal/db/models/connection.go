package models

// DataStoreType codes.
const (
	DataStoreTypeLocal = "local"
	DataStoreTypeCKAN  = "ckan"
)

// DataStoreType is the kind of catalog a data store talks to.
type DataStoreType struct {
	ID   uint64 `gorm:"primaryKey"`
	Name string `gorm:"size:100;not null"`
	Code string `gorm:"size:20;not null;uniqueIndex"`
}

// TableName specifies the database table name for the DataStoreType model.
func (DataStoreType) TableName() string {
	return "data_store_types"
}

// DataStore is a forecast data catalog connection.
// The row seeded with IsLocal set stands for "no data store" and is never changed or deleted.
type DataStore struct {
	ID              uint64        `gorm:"primaryKey"`
	Name            string        `gorm:"size:255;not null;uniqueIndex"`
	DataStoreTypeID uint64        `gorm:"not null"`
	DataStoreType   DataStoreType `gorm:"foreignKey:DataStoreTypeID;references:ID;constraint:OnDelete:RESTRICT"`
	APIEndpoint     string        `gorm:"size:255;uniqueIndex"`
	APIKey          string        `gorm:"size:255" json:"-"`
	IsLocal         bool          `gorm:"not null;default:false"`
}

// TableName specifies the database table name for the DataStore model.
func (DataStore) TableName() string {
	return "data_stores"
}

// Geoserver is a GeoServer connection.
// The row seeded with IsLocal set stands for "local KML files" and is never changed or deleted.
type Geoserver struct {
	ID       uint64 `gorm:"primaryKey"`
	Name     string `gorm:"size:255;not null;uniqueIndex"`
	URL      string `gorm:"size:255;not null;uniqueIndex"`
	Username string `gorm:"size:255"`
	Password string `gorm:"size:255" json:"-"`
	IsLocal  bool   `gorm:"not null;default:false"`
}

// TableName specifies the database table name for the Geoserver model.
func (Geoserver) TableName() string {
	return "geoservers"
}
