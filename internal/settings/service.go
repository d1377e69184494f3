// Package settings resolves the effective value of declared settings.
//
// A setting is declared once in the manifest with a type and a default. A
// scope may override the default; only overrides are stored. Writing the
// default back removes the override again, so the store never holds a row
// that equals its default.
package settings

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/go-settings/internal/db/models"
	"github.com/GoPowerDNS-Admin/go-settings/internal/manifest"
	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

// Store persists overrides. Find returns nil without error when there is no
// override. ListAll and ListPrefixed return rows in insertion order.
type Store interface {
	Find(ctx context.Context, key string, sc scope.Scope) (*models.Setting, error)
	Create(ctx context.Context, key string, typ value.Type, raw []byte, sc scope.Scope) (*models.Setting, error)
	Delete(ctx context.Context, key string, sc scope.Scope) (bool, error)
	ListAll(ctx context.Context, sc scope.Scope) ([]models.Setting, error)
	ListPrefixed(ctx context.Context, sc scope.Scope, prefix string) ([]models.Setting, error)
}

// Resolver is the read and write surface of the engine. *Service implements
// it, and so does the caching decorator.
type Resolver interface {
	Get(ctx context.Context, key string, sc scope.Scope) (Resolved, error)
	Set(ctx context.Context, key string, v any, sc scope.Scope) (Resolved, error)
	Reset(ctx context.Context, key string, sc scope.Scope) (Resolved, error)
	All(ctx context.Context, sc scope.Scope) ([]Resolved, error)
	Filtered(ctx context.Context, sc scope.Scope, prefix string) ([]Resolved, error)
	Overrides(ctx context.Context, sc scope.Scope) ([]Resolved, error)
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier delivers events to n.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock replaces time.Now for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service is the resolution engine.
type Service struct {
	manifest *manifest.Manifest
	store    Store
	notifier Notifier
	now      func() time.Time
}

var _ Resolver = (*Service)(nil)

// New returns an engine over m and store. Both are required.
func New(m *manifest.Manifest, store Store, opts ...Option) *Service {
	if m == nil || store == nil {
		panic("settings: manifest and store are required")
	}

	s := &Service{manifest: m, store: store, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Manifest returns the declarations the service resolves against.
func (s *Service) Manifest() *manifest.Manifest { return s.manifest }

func checkScope(sc scope.Scope) error {
	_, err := scope.Of(sc)
	return err //nolint:wrapcheck
}

// declaration checks the scope and resolves the declaration of key.
func (s *Service) declaration(key string, sc scope.Scope) (manifest.Declaration, error) {
	if err := checkScope(sc); err != nil {
		return manifest.Declaration{}, err
	}

	return s.manifest.Resolve(sc.Name, key) //nolint:wrapcheck
}

func decodeRow(decl manifest.Declaration, row *models.Setting) (value.Value, error) {
	v, err := value.Decode(decl.Type, row.Value)
	if err != nil {
		return value.Value{}, value.WithKey(err, decl.Key)
	}

	return v, nil
}

func overridden(decl manifest.Declaration, row *models.Setting, v value.Value, sc scope.Scope) Resolved {
	return Resolved{
		ID:    row.ID,
		Key:   decl.Key,
		Type:  decl.Type,
		Value: v,
		Scope: sc.Name,
		Owner: sc.Owner,
	}
}

func defaulted(decl manifest.Declaration, sc scope.Scope) Resolved {
	return Resolved{
		Key:       decl.Key,
		Type:      decl.Type,
		Value:     decl.Default,
		Scope:     sc.Name,
		Owner:     sc.Owner,
		IsDefault: true,
	}
}

// Get returns the override of key in sc, or the declared default.
func (s *Service) Get(ctx context.Context, key string, sc scope.Scope) (Resolved, error) {
	decl, err := s.declaration(key, sc)
	if err != nil {
		return Resolved{}, err
	}

	row, err := s.store.Find(ctx, key, sc)
	if err != nil {
		return Resolved{}, storeErr("find", err)
	}

	out := defaulted(decl, sc)

	if row != nil {
		v, err := decodeRow(decl, row)
		if err != nil {
			return Resolved{}, err
		}

		out = overridden(decl, row, v, sc)
	}

	log.Debug().Str("scope", sc.String()).Str("setting", key).Bool("default", out.IsDefault).Msg("setting resolved")
	s.emit(Retrieved, key, sc, &out, nil)

	return out, nil
}

// Set stores v as the value of key in sc. A value equal to the declared
// default removes the override instead. Nothing changes when v does not match
// the declared type.
func (s *Service) Set(ctx context.Context, key string, v any, sc scope.Scope) (Resolved, error) {
	decl, err := s.declaration(key, sc)
	if err != nil {
		return Resolved{}, err
	}

	nv, err := value.Parse(decl.Type, v)
	if err != nil {
		return Resolved{}, value.WithKey(err, key)
	}

	row, err := s.store.Find(ctx, key, sc)
	if err != nil {
		return Resolved{}, storeErr("find", err)
	}

	previous := decl.Default

	if row != nil {
		pv, err := decodeRow(decl, row)
		if err != nil {
			// an undecodable override is replaced; report the default as previous
			log.Warn().Err(err).Str("scope", sc.String()).Str("setting", key).Msg("stored override is unreadable")
		} else {
			previous = pv
		}
	}

	if value.Equal(nv, decl.Default) {
		deleted, err := s.store.Delete(ctx, key, sc)
		if err != nil {
			return Resolved{}, storeErr("delete", err)
		}

		out := defaulted(decl, sc)

		if deleted {
			log.Debug().Str("scope", sc.String()).Str("setting", key).Msg("setting reset to default")
			s.emit(Deleted, key, sc, &out, &previous)
		}

		return out, nil
	}

	raw, err := value.Encode(nv)
	if err != nil {
		return Resolved{}, value.WithKey(err, key)
	}

	saved, err := s.store.Create(ctx, key, decl.Type, raw, sc)
	if err != nil {
		return Resolved{}, storeErr("create", err)
	}

	out := overridden(decl, saved, nv, sc)

	kind := Updated
	if row == nil {
		kind = Created
	}

	log.Debug().Str("scope", sc.String()).Str("setting", key).Str("event", string(kind)).Msg("setting stored")
	s.emit(kind, key, sc, &out, &previous)

	return out, nil
}

// Reset reverts key in sc to its declared default.
func (s *Service) Reset(ctx context.Context, key string, sc scope.Scope) (Resolved, error) {
	decl, err := s.declaration(key, sc)
	if err != nil {
		return Resolved{}, err
	}

	return s.Set(ctx, key, decl.Default, sc)
}

// All returns every declared setting of sc exactly once: overrides first in
// store order, then the remaining defaults in declaration order.
func (s *Service) All(ctx context.Context, sc scope.Scope) ([]Resolved, error) {
	return s.merge(ctx, sc, "", true)
}

// Filtered is All restricted to keys equal to prefix or below it.
func (s *Service) Filtered(ctx context.Context, sc scope.Scope, prefix string) ([]Resolved, error) {
	return s.merge(ctx, sc, prefix, true)
}

// Overrides returns only the customized settings of sc, in store order.
func (s *Service) Overrides(ctx context.Context, sc scope.Scope) ([]Resolved, error) {
	return s.merge(ctx, sc, "", false)
}

func (s *Service) merge(ctx context.Context, sc scope.Scope, prefix string, defaults bool) ([]Resolved, error) {
	if err := checkScope(sc); err != nil {
		return nil, err
	}

	leaves, err := s.manifest.Leaves(sc.Name, prefix)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	declared := make(map[string]manifest.Declaration, len(leaves))

	for _, key := range leaves {
		decl, err := s.manifest.Resolve(sc.Name, key)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		declared[key] = decl
	}

	var rows []models.Setting
	if prefix == "" {
		rows, err = s.store.ListAll(ctx, sc)
	} else {
		rows, err = s.store.ListPrefixed(ctx, sc, prefix)
	}

	if err != nil {
		return nil, storeErr("list", err)
	}

	out := make([]Resolved, 0, len(leaves))
	covered := make(map[string]bool, len(rows))

	for i := range rows {
		row := &rows[i]

		decl, ok := declared[row.Key]
		if !ok || covered[row.Key] {
			log.Debug().Str("scope", sc.String()).Str("setting", row.Key).Msg("skipping undeclared override")
			continue
		}

		v, err := decodeRow(decl, row)
		if err != nil {
			return nil, err
		}

		out = append(out, overridden(decl, row, v, sc))
		covered[row.Key] = true
	}

	if !defaults {
		return out, nil
	}

	for _, key := range leaves {
		if !covered[key] {
			out = append(out, defaulted(declared[key], sc))
		}
	}

	return out, nil
}

// emit delivers an event. A panicking notifier is logged and otherwise
// ignored.
func (s *Service) emit(kind EventKind, key string, sc scope.Scope, setting *Resolved, previous *value.Value) {
	if s.notifier == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Warn().Interface("panic", r).Str("event", string(kind)).Str("setting", key).Msg("settings notifier failed")
		}
	}()

	s.notifier.Notify(Event{
		ID:       uuid.New(),
		Kind:     kind,
		Key:      key,
		Scope:    sc,
		Setting:  setting,
		Previous: previous,
		At:       s.now(),
	})
}
