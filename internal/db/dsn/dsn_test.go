package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ci-water/adhydro-streamflow/internal/config"
)

func TestCreate(t *testing.T) {
	testCases := []struct {
		name string
		db   config.DB
		want string
	}{
		{
			name: "mysql",
			db: config.DB{
				GormEngine: config.EngineMySQL, User: "adhydro", Password: "secret",
				Host: "localhost", Port: 3306, Name: "streamflow", Extras: "parseTime=true",
			},
			want: "adhydro:secret@tcp(localhost:3306)/streamflow?parseTime=true",
		},
		{
			name: "postgres",
			db: config.DB{
				GormEngine: config.EnginePostgres, User: "adhydro", Password: "p@ss",
				Host: "db", Port: 5432, Name: "streamflow", Extras: "sslmode=disable",
			},
			want: "postgres://adhydro:p%40ss@db:5432/streamflow?sslmode=disable",
		},
		{
			name: "sqlite file",
			db:   config.DB{GormEngine: config.EngineSQLite, Name: "./streamflow.db"},
			want: "./streamflow.db?_pragma=foreign_keys(1)",
		},
		{
			name: "sqlite memory with extras",
			db:   config.DB{GormEngine: config.EngineSQLite, Name: "file::memory:?cache=shared", Extras: "_txlock=immediate"},
			want: "file::memory:?cache=shared&_txlock=immediate&_pragma=foreign_keys(1)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Create(&config.Config{DB: tc.db}))
		})
	}
}
