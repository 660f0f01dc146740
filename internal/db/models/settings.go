package models

// BaseLayer is a map base layer choice.
type BaseLayer struct {
	ID     uint64 `gorm:"primaryKey"`
	Name   string `gorm:"size:100;not null;uniqueIndex"`
	APIKey string `gorm:"size:255"`
}

// TableName specifies the database table name for the BaseLayer model.
func (BaseLayer) TableName() string {
	return "base_layers"
}

// MainSettings is the singleton global configuration row.
type MainSettings struct {
	ID uint64 `gorm:"primaryKey"`
	// BaseLayerID references the selected map base layer.
	BaseLayerID uint64 `gorm:"not null"`
	// BaseLayer is the selected map base layer.
	BaseLayer BaseLayer `gorm:"foreignKey:BaseLayerID;references:ID;constraint:OnDelete:RESTRICT"`
	// ForecastDirectory is the root folder of the downloaded forecast files.
	ForecastDirectory string `gorm:"size:1024"`
	// AppInstanceID identifies this installation.
	AppInstanceID string `gorm:"size:36"`
}

// TableName specifies the database table name for the MainSettings model.
func (MainSettings) TableName() string {
	return "main_settings"
}
