// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
)

// MySQL builds the go-sql-driver DSN from the configuration.
func MySQL(dbCfg *config.DB) string {
	out := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		dbCfg.User,
		dbCfg.Password,
		dbCfg.Host,
		dbCfg.Port,
		dbCfg.Name,
	)

	if dbCfg.Extras != "" {
		out += "?" + dbCfg.Extras
	}

	return out
}

// Postgres builds a key=value DSN for pgx. Extras holds further
// space separated key=value pairs, for example "sslmode=disable".
func Postgres(dbCfg *config.DB) string {
	parts := []string{
		"host=" + dbCfg.Host,
		"port=" + strconv.Itoa(dbCfg.Port),
		"user=" + dbCfg.User,
		"password=" + dbCfg.Password,
		"dbname=" + dbCfg.Name,
	}

	if dbCfg.Extras != "" {
		parts = append(parts, dbCfg.Extras)
	}

	return strings.Join(parts, " ")
}

// PostgresURI builds a postgres:// connection URI, as the fiber storage
// driver expects. Extras in key=value form become query parameters.
func PostgresURI(dbCfg *config.DB) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(dbCfg.User, dbCfg.Password),
		Host:   net.JoinHostPort(dbCfg.Host, strconv.Itoa(dbCfg.Port)),
		Path:   "/" + dbCfg.Name,
	}

	q := url.Values{}
	for _, pair := range strings.Fields(dbCfg.Extras) {
		if k, v, ok := strings.Cut(pair, "="); ok {
			q.Set(k, v)
		}
	}

	u.RawQuery = q.Encode()

	return u.String()
}
