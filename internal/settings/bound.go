package settings

import (
	"context"

	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
)

// Bound is a Resolver fixed to one scope, the per-entity view of settings.
type Bound struct {
	r     Resolver
	scope scope.Scope
}

// For binds r to the scope of entity. entity is a scope.Scope, a scope name
// or a scope.Provider.
func For(r Resolver, entity any) (*Bound, error) {
	sc, err := scope.Of(entity)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &Bound{r: r, scope: sc}, nil
}

// For binds the service to the scope of entity.
func (s *Service) For(entity any) (*Bound, error) {
	return For(s, entity)
}

// Scope returns the bound scope.
func (b *Bound) Scope() scope.Scope { return b.scope }

// Get resolves key in the bound scope.
func (b *Bound) Get(ctx context.Context, key string) (Resolved, error) {
	return b.r.Get(ctx, key, b.scope)
}

// Set stores v as the value of key in the bound scope.
func (b *Bound) Set(ctx context.Context, key string, v any) (Resolved, error) {
	return b.r.Set(ctx, key, v, b.scope)
}

// Reset reverts key to its declared default.
func (b *Bound) Reset(ctx context.Context, key string) (Resolved, error) {
	return b.r.Reset(ctx, key, b.scope)
}

// All returns every declared setting of the bound scope.
func (b *Bound) All(ctx context.Context) ([]Resolved, error) {
	return b.r.All(ctx, b.scope)
}

// Filtered returns the settings at or below prefix.
func (b *Bound) Filtered(ctx context.Context, prefix string) ([]Resolved, error) {
	return b.r.Filtered(ctx, b.scope, prefix)
}

// Overrides returns the customized settings only.
func (b *Bound) Overrides(ctx context.Context) ([]Resolved, error) {
	return b.r.Overrides(ctx, b.scope)
}
