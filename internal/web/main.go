// Package web serves the settings HTTP API.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	fiberlog "github.com/GoPowerDNS-Admin/go-settings/internal/logger/adapter/fiber"
	"github.com/GoPowerDNS-Admin/go-settings/internal/web/handler"
	"github.com/GoPowerDNS-Admin/go-settings/internal/web/handler/scopes"
	"github.com/GoPowerDNS-Admin/go-settings/internal/web/handler/settings"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Addr returns the listen address for the configured port.
func (s *Service) Addr() string {
	return ":" + strconv.Itoa(s.cfg.Webserver.Port)
}

// Start serves until the app is shut down.
func (s *Service) Start() error {
	var doneFiber = make(chan error, 1)

	go func() {
		err := s.App.Listen(s.Addr(), fiber.ListenConfig{DisableStartupMessage: true})
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			doneFiber <- err
			return
		}

		doneFiber <- nil
	}()

	log.Info().Str("addr", s.Addr()).Msg("http server started")

	return <-doneFiber // wait for fiber to stop
}

// WaitShutdown blocks until SIGINT or SIGTERM and shuts the server down.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	s.Shutdown()
}

// Shutdown fails health checks for the configured grace period, then stops
// the http server.
func (s *Service) Shutdown() {
	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	log.Info().Msg("stopping http server ...")

	if err := s.App.Shutdown(); err != nil {
		log.Error().Err(err).Msg("")
	}

	log.Info().Msg("http server was stopped ... good bye...")
}

func (s *Service) checkAlive(c fiber.Ctx) error {
	if !s.alive.Load() {
		return c.SendStatus(fiber.StatusServiceUnavailable)
	}

	return c.SendString("OK")
}

// New creates the web service. It panics when cfg or a dependency is nil.
func New(cfg *config.Config, deps handler.Deps) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if !deps.Valid() {
		panic("web dependencies cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Immutable:      true,
			ErrorHandler:   handler.ErrorHandler,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recoverer.New())
	}

	app.Use(fiberlog.New(fiberlog.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
	}))

	service := &Service{
		cfg:          cfg,
		App:          app,
		fastShutDown: cfg.DevMode || cfg.Webserver.ShutDownTime == 0,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, service.checkAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	scopes.Handler.Init(app, cfg, deps)
	settings.Handler.Init(app, cfg, deps)

	return service
}
