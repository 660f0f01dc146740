package config

import (
	"time"

	"github.com/ci-water/adhydro-streamflow/internal/logger"
)

const (
	// EngineMySQL selects the gorm mysql driver.
	EngineMySQL = "mysql"
	// EnginePostgres selects the gorm postgres driver.
	EnginePostgres = "postgres"
	// EngineSQLite selects the pure go sqlite driver.
	EngineSQLite = "sqlite"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	DB        DB
	Log       logger.Log
	Webserver Webserver
	GeoServer GeoServer
	Catalog   Catalog
	Layers    Layers
	Forecast  Forecast
}

// DB holds the database configuration settings.
type DB struct {
	GormEngine string // mysql, postgres or sqlite
	Host       string
	Port       int
	User       string
	Password   string
	Name       string // database name, or the file path for sqlite
	Extras     string // driver specific query parameters
}

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Webserver implement webserver settings.
type Webserver struct {
	Port         int     // listening port for the webserver
	URL          string  // base url for the webserver
	ShutDownTime int     // wait time for shutdown
	Session      Session // session settings
}

// GeoServer holds the settings shared by every remote GeoServer connection.
type GeoServer struct {
	Workspace    string        // workspace all watershed layers are published to
	NamespaceURI string        // namespace uri used when the workspace is created
	Timeout      time.Duration // timeout of a single REST call
}

// Catalog holds the settings of the CKAN data store probe.
type Catalog struct {
	Timeout time.Duration
}

// Layers holds the local layer file settings.
type Layers struct {
	KMLDirectory string // root folder of the per watershed KML files
}

// Forecast holds the settings of the forecast download job.
type Forecast struct {
	// DownloadCommand is installed in the user crontab once a forecast directory is set.
	// Leave empty to skip the cron entry.
	DownloadCommand string
	CronEnabled     bool
}
