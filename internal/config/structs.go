package config

import (
	"time"

	"github.com/GoPowerDNS-Admin/go-settings/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Settings  Settings
}

// Webserver implement webserver settings.
type Webserver struct {
	DisableRecover bool   // disable recover middleware
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown in seconds
	URL            string // base url of the API, informational
}

// Settings configures the resolution engine.
type Settings struct {
	// Manifest is the path of the declaration file (.yaml, .yml, .json or .toml).
	Manifest string `validate:"required"`
	// Owners lists the entity kinds that own scoped settings, e.g. "User".
	Owners []string
	Cache  Cache
	Events Events
}

// Cache configures the read-through cache in front of the engine.
type Cache struct {
	Enabled bool
	TTL     time.Duration `validate:"gte=0"`
	// Driver selects the backend: memory, mysql or postgres. The SQL
	// backends reuse the DB connection settings.
	Driver string `validate:"omitempty,oneof=memory mysql postgres"`
	// Table is used by the SQL backends.
	Table string
}

// Events configures change notification.
type Events struct {
	Enabled bool
	Buffer  int `validate:"gte=0"`
}
