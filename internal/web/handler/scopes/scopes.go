// Package scopes lists the declared scopes.
package scopes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/db/controller/setting"
	"github.com/GoPowerDNS-Admin/go-settings/internal/web/handler"
)

// Path is the route of the scope list, below handler.APIPath.
const Path = "/scopes"

// Service is the scopes handler service.
type Service struct {
	handler.Service
	deps handler.Deps
}

// Scope summarizes one scope. Customized counts overrides of all owners.
type Scope struct {
	Name       string `json:"name"`
	Kind       string `json:"kind,omitempty"`
	Settings   int    `json:"settings"`
	Customized int64  `json:"customized"`
}

var (
	// Handler is the scopes handler.
	Handler = Service{}
)

// Init registers the scopes route.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps handler.Deps) {
	if app == nil || cfg == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.deps = deps

	app.Get(handler.APIPath+Path, s.List)
}

// List returns every scope in manifest order.
func (s *Service) List(c fiber.Ctx) error {
	counts, err := setting.CountByScope(s.deps.DB.WithContext(c.Context()))
	if err != nil {
		return err //nolint:wrapcheck
	}

	names := s.deps.Manifest.Scopes()
	out := make([]Scope, 0, len(names))

	for _, name := range names {
		kind, _ := s.deps.Registry.KindFor(name)

		out = append(out, Scope{
			Name:       name,
			Kind:       kind,
			Settings:   s.deps.Manifest.Count(name),
			Customized: counts[name],
		})
	}

	return c.JSON(out)
}
