// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/ci-water/adhydro-streamflow/internal/config"
)

// Create builds the Data Source Name for the configured gorm engine.
func Create(cfg *config.Config) string {
	db := cfg.DB

	switch db.GormEngine {
	case config.EnginePostgres:
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(db.User, db.Password),
			Host:     fmt.Sprintf("%s:%d", db.Host, db.Port),
			Path:     "/" + db.Name,
			RawQuery: db.Extras,
		}

		return u.String()
	case config.EngineSQLite:
		extras := "_pragma=foreign_keys(1)"
		if db.Extras != "" {
			extras = db.Extras + "&" + extras
		}

		sep := "?"
		if strings.Contains(db.Name, "?") {
			sep = "&"
		}

		return db.Name + sep + extras
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
			db.User,
			db.Password,
			db.Host,
			db.Port,
			db.Name,
			db.Extras,
		)
	}
}
