package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
)

func TestMySQL(t *testing.T) {
	cfg := config.DB{User: "u", Password: "p", Host: "db", Port: 3306, Name: "settings"}
	assert.Equal(t, "u:p@tcp(db:3306)/settings", MySQL(&cfg))

	cfg.Extras = "parseTime=True"
	assert.Equal(t, "u:p@tcp(db:3306)/settings?parseTime=True", MySQL(&cfg))
}

func TestPostgres(t *testing.T) {
	cfg := config.DB{User: "u", Password: "p", Host: "db", Port: 5432, Name: "settings", Extras: "sslmode=disable"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=settings sslmode=disable", Postgres(&cfg))
	assert.Equal(t, "postgres://u:p@db:5432/settings?sslmode=disable", PostgresURI(&cfg))
}
