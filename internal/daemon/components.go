package daemon

import (
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/db"
	"github.com/GoPowerDNS-Admin/go-settings/internal/db/controller/setting"
	"github.com/GoPowerDNS-Admin/go-settings/internal/manifest"
	"github.com/GoPowerDNS-Admin/go-settings/internal/notify"
	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/cache"
	"github.com/GoPowerDNS-Admin/go-settings/internal/web/handler"
)

// Components is the wired settings engine shared by the daemon and the
// command line.
type Components struct {
	DB       *gorm.DB
	Manifest *manifest.Manifest
	Registry *scope.Registry
	Engine   *settings.Service
	// Resolver is the cache when enabled, else Engine.
	Resolver   settings.Resolver
	Cache      *cache.Service
	Dispatcher *notify.Dispatcher
}

// Build loads the manifest, opens the database and assembles the engine
// with the optional cache and event dispatcher.
func Build(cfg *config.Config) (*Components, error) {
	if cfg == nil {
		return nil, pkgerrors.New("config is nil")
	}

	m, err := manifest.LoadFile(filepath.Clean(cfg.Settings.Manifest))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to load manifest '%s'", cfg.Settings.Manifest)
	}

	if err := m.Validate(); err != nil {
		// invalid declarations only fail when they are resolved
		log.Warn().Err(err).Str("manifest", cfg.Settings.Manifest).Msg("manifest has invalid declarations")
	}

	conn, err := db.Open(cfg)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	c := &Components{
		DB:       conn,
		Manifest: m,
		Registry: scope.NewRegistry(cfg.Settings.Owners...),
	}

	var opts []settings.Option

	if cfg.Settings.Events.Enabled {
		c.Dispatcher = notify.NewDispatcher(cfg.Settings.Events.Buffer, notify.NewLogSink(), notify.MetricsSink{})
		opts = append(opts, settings.WithNotifier(c.Dispatcher))
	}

	c.Engine = settings.New(m, setting.NewStore(conn), opts...)
	c.Resolver = c.Engine

	if cfg.Settings.Cache.Enabled {
		store, err := cache.NewStore(cfg)
		if err != nil {
			return nil, multierror.Append(err, c.Close())
		}

		c.Cache = cache.New(c.Engine, store, cfg.Settings.Cache.TTL)
		c.Resolver = c.Cache
	}

	log.Info().
		Strs("scopes", m.Scopes()).
		Bool("cache", c.Cache != nil).
		Bool("events", c.Dispatcher != nil).
		Msg("settings engine ready")

	return c, nil
}

// Deps returns the web handler dependencies.
func (c *Components) Deps() handler.Deps {
	return handler.Deps{
		Resolver: c.Resolver,
		Manifest: c.Manifest,
		Registry: c.Registry,
		DB:       c.DB,
	}
}

// Close drains pending events and releases the cache and the database.
func (c *Components) Close() error {
	var result *multierror.Error

	if c.Dispatcher != nil {
		c.Dispatcher.Close()
	}

	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := db.Close(c.DB); err != nil {
		result = multierror.Append(result, err)
	}

	return result.ErrorOrNil()
}
