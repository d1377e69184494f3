// Package settings serves the per scope settings API.
package settings

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v3"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
	"github.com/GoPowerDNS-Admin/go-settings/internal/web/handler"
)

const (
	// Path is the route group of the settings API, below handler.APIPath.
	Path = "/scopes/:" + handler.ParamScope + "/settings"

	queryFilter     = "filter"
	queryOnlyCustom = "only_custom"

	defaultTimeout = 30 * time.Second
)

// Service is the settings API handler service.
type Service struct {
	handler.Service
	cfg  *config.Config
	deps handler.Deps
}

// SetRequest is the body of a PUT request. Value is decoded with the
// declared type of the setting.
type SetRequest struct {
	Value json.RawMessage `json:"value"`
}

var (
	// Handler is the settings API handler.
	Handler = Service{}
)

// Init registers the settings routes.
func (s *Service) Init(app *fiber.App, cfg *config.Config, deps handler.Deps) {
	if app == nil || cfg == nil || !deps.Valid() {
		log.Fatal().Msg(handler.ErrNilDepsFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.deps = deps

	group := app.Group(handler.APIPath + Path)
	group.Get("/", s.List)
	group.Get("/:"+handler.ParamKey, s.Get)
	group.Put("/:"+handler.ParamKey, s.Put)
	group.Delete("/:"+handler.ParamKey, s.Delete)
}

func (s *Service) scope(c fiber.Ctx) (scope.Scope, error) {
	return s.deps.Registry.Resolve(c.Params(handler.ParamScope), c.Query(handler.QueryOwner)) //nolint:wrapcheck
}

func timeout(c fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Context(), defaultTimeout)
}

// List returns all settings of the scope, or the ones below ?filter=.
// With ?only_custom=true only overrides are returned.
func (s *Service) List(c fiber.Ctx) error {
	sc, err := s.scope(c)
	if err != nil {
		return err
	}

	ctx, cancel := timeout(c)
	defer cancel()

	filter := c.Query(queryFilter)

	if fiber.Query[bool](c, queryOnlyCustom) {
		out, err := s.deps.Resolver.Overrides(ctx, sc)
		if err != nil {
			return err //nolint:wrapcheck
		}

		if filter == "" {
			return c.JSON(out)
		}

		// narrow overrides with the manifest leaves under filter
		leaves, err := s.deps.Manifest.Leaves(sc.Name, filter)
		if err != nil {
			return err //nolint:wrapcheck
		}

		keep := make(map[string]bool, len(leaves))
		for _, k := range leaves {
			keep[k] = true
		}

		filtered := out[:0]

		for _, r := range out {
			if keep[r.Key] {
				filtered = append(filtered, r)
			}
		}

		return c.JSON(filtered)
	}

	if filter != "" {
		out, err := s.deps.Resolver.Filtered(ctx, sc, filter)
		if err != nil {
			return err //nolint:wrapcheck
		}

		return c.JSON(out)
	}

	out, err := s.deps.Resolver.All(ctx, sc)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(out)
}

// Get returns one resolved setting.
func (s *Service) Get(c fiber.Ctx) error {
	sc, err := s.scope(c)
	if err != nil {
		return err
	}

	ctx, cancel := timeout(c)
	defer cancel()

	out, err := s.deps.Resolver.Get(ctx, c.Params(handler.ParamKey), sc)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(out)
}

// Put stores a new value. Writing the default removes the override.
func (s *Service) Put(c fiber.Ctx) error {
	sc, err := s.scope(c)
	if err != nil {
		return err
	}

	key := c.Params(handler.ParamKey)

	decl, err := s.deps.Manifest.Resolve(sc.Name, key)
	if err != nil {
		return err //nolint:wrapcheck
	}

	var req SetRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return pkgerrors.Wrap(handler.ErrBadBody, err.Error())
	}

	if len(req.Value) == 0 {
		return pkgerrors.Wrap(handler.ErrBadBody, "missing value")
	}

	v, err := value.Decode(decl.Type, req.Value)
	if err != nil {
		return value.WithKey(err, key)
	}

	ctx, cancel := timeout(c)
	defer cancel()

	out, err := s.deps.Resolver.Set(ctx, key, v, sc)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(out)
}

// Delete resets a setting to its default.
func (s *Service) Delete(c fiber.Ctx) error {
	sc, err := s.scope(c)
	if err != nil {
		return err
	}

	ctx, cancel := timeout(c)
	defer cancel()

	out, err := s.deps.Resolver.Reset(ctx, c.Params(handler.ParamKey), sc)
	if err != nil {
		return err //nolint:wrapcheck
	}

	return c.JSON(out)
}
