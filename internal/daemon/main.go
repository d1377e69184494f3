// Package daemon runs the settings HTTP service.
package daemon

import (
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	components *Components
	webService *web.Service
}

// Start serves the API until SIGINT or SIGTERM, then shuts down and
// releases the engine.
func (d *Daemon) Start() error {
	errCh := make(chan error, 1)

	go func() { errCh <- d.webService.Start() }()
	go d.webService.WaitShutdown()

	err := <-errCh

	if cerr := d.components.Close(); cerr != nil {
		log.Error().Err(cerr).Msg("failed to release settings engine")
	}

	return err
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil, nil
	}

	c, err := Build(cfg)
	if err != nil {
		return nil, err
	}

	return &Daemon{
		components: c,
		webService: web.New(cfg, c.Deps()),
	}, nil
}
