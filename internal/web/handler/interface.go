package handler

import (
	"github.com/gofiber/fiber/v3"
	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/manifest"
	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings"
)

// Deps bundles what API handlers need.
type Deps struct {
	Resolver settings.Resolver
	Manifest *manifest.Manifest
	Registry *scope.Registry
	DB       *gorm.DB
}

// Valid reports whether every dependency is set.
func (d Deps) Valid() bool {
	return d.Resolver != nil && d.Manifest != nil && d.Registry != nil && d.DB != nil
}

// Service is the interface for an API handler service.
type Service interface {
	Init(app *fiber.App, cfg *config.Config, deps Deps)
}
