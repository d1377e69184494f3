package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings"
)

const keyPrefix = "settings:"

var requests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "settings_cache_requests_total",
	Help: "Settings cache lookups by operation and result.",
}, []string{"op", "result"})

// Service caches reads of the wrapped resolver. Get and All entries are
// dropped when the setting is written through the Service; Filtered entries
// are not tracked and live until their TTL runs out.
type Service struct {
	next  settings.Resolver
	store Store
	ttl   time.Duration
}

var _ settings.Resolver = (*Service)(nil)

// New wraps next with store. ttl is the lifetime of every entry.
func New(next settings.Resolver, store Store, ttl time.Duration) *Service {
	return &Service{next: next, store: store, ttl: ttl}
}

func getKey(sc scope.Scope, key string) string {
	return keyPrefix + sc.CacheKey() + ":get:" + key
}

func allKey(sc scope.Scope) string {
	return keyPrefix + sc.CacheKey() + ":all"
}

func filteredKey(sc scope.Scope, prefix string) string {
	return keyPrefix + sc.CacheKey() + ":filtered:" + prefix
}

// lookup reads key into out and reports a hit. Backend and decode failures
// count as misses.
func (s *Service) lookup(op, key string, out any) bool {
	raw, err := s.store.Get(key)
	if err != nil {
		requests.WithLabelValues(op, "error").Inc()
		log.Warn().Err(err).Str("key", key).Msg("settings cache read failed")

		return false
	}

	if raw == nil {
		requests.WithLabelValues(op, "miss").Inc()
		return false
	}

	if err := json.Unmarshal(raw, out); err != nil {
		requests.WithLabelValues(op, "error").Inc()
		log.Warn().Err(err).Str("key", key).Msg("dropping unreadable settings cache entry")
		s.drop(key)

		return false
	}

	requests.WithLabelValues(op, "hit").Inc()

	return true
}

func (s *Service) save(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("settings cache encode failed")
		return
	}

	if err := s.store.Set(key, raw, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("settings cache write failed")
	}
}

func (s *Service) drop(keys ...string) {
	for _, key := range keys {
		if err := s.store.Delete(key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("settings cache delete failed")
		}
	}
}

// Get serves key from the cache or loads it from the wrapped resolver.
func (s *Service) Get(ctx context.Context, key string, sc scope.Scope) (settings.Resolved, error) {
	ck := getKey(sc, key)

	var out settings.Resolved
	if s.lookup("get", ck, &out) {
		return out, nil
	}

	out, err := s.next.Get(ctx, key, sc)
	if err != nil {
		return settings.Resolved{}, err //nolint:wrapcheck
	}

	s.save(ck, out)

	return out, nil
}

// Set writes through and invalidates the entry of key and the scope's All
// aggregate.
func (s *Service) Set(ctx context.Context, key string, v any, sc scope.Scope) (settings.Resolved, error) {
	out, err := s.next.Set(ctx, key, v, sc)
	if err != nil {
		return settings.Resolved{}, err //nolint:wrapcheck
	}

	s.drop(getKey(sc, key), allKey(sc))

	return out, nil
}

// Reset writes through like Set.
func (s *Service) Reset(ctx context.Context, key string, sc scope.Scope) (settings.Resolved, error) {
	out, err := s.next.Reset(ctx, key, sc)
	if err != nil {
		return settings.Resolved{}, err //nolint:wrapcheck
	}

	s.drop(getKey(sc, key), allKey(sc))

	return out, nil
}

func (s *Service) list(ck, op string, load func() ([]settings.Resolved, error)) ([]settings.Resolved, error) {
	var out []settings.Resolved
	if s.lookup(op, ck, &out) {
		return out, nil
	}

	out, err := load()
	if err != nil {
		return nil, err
	}

	s.save(ck, out)

	return out, nil
}

// All serves the scope aggregate from the cache or loads it.
func (s *Service) All(ctx context.Context, sc scope.Scope) ([]settings.Resolved, error) {
	return s.list(allKey(sc), "all", func() ([]settings.Resolved, error) {
		return s.next.All(ctx, sc)
	})
}

// Filtered caches per prefix. Writes do not invalidate these entries.
func (s *Service) Filtered(ctx context.Context, sc scope.Scope, prefix string) ([]settings.Resolved, error) {
	return s.list(filteredKey(sc, prefix), "filtered", func() ([]settings.Resolved, error) {
		return s.next.Filtered(ctx, sc, prefix)
	})
}

// Overrides is not cached.
func (s *Service) Overrides(ctx context.Context, sc scope.Scope) ([]settings.Resolved, error) {
	return s.next.Overrides(ctx, sc) //nolint:wrapcheck
}

// Clear drops cached entries. With a key it drops that setting's entry in
// sc, with only a scope it drops the scope's All aggregate, and with neither
// it empties the whole cache.
func (s *Service) Clear(key string, sc scope.Scope) error {
	switch {
	case key != "":
		return s.store.Delete(getKey(sc, key)) //nolint:wrapcheck
	case sc.Name != "":
		return s.store.Delete(allKey(sc)) //nolint:wrapcheck
	default:
		return s.store.Reset() //nolint:wrapcheck
	}
}

// Close releases the backend.
func (s *Service) Close() error {
	return s.store.Close() //nolint:wrapcheck
}
