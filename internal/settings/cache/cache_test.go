package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

var (
	system = scope.Named("system")
	alice  = scope.Owned(scope.Owner{Kind: "User", ID: "1"})
)

// countingResolver serves one string setting and counts calls.
type countingResolver struct {
	calls map[string]int
	val   string
	err   error
}

func newCounting() *countingResolver {
	return &countingResolver{calls: map[string]int{}, val: "dark"}
}

func (r *countingResolver) resolved(key string, sc scope.Scope) settings.Resolved {
	return settings.Resolved{
		Key:   key,
		Type:  value.TypeString,
		Value: value.Str(r.val),
		Scope: sc.Name,
		Owner: sc.Owner,
	}
}

func (r *countingResolver) Get(_ context.Context, key string, sc scope.Scope) (settings.Resolved, error) {
	r.calls["get"]++
	if r.err != nil {
		return settings.Resolved{}, r.err
	}

	return r.resolved(key, sc), nil
}

func (r *countingResolver) Set(_ context.Context, key string, v any, sc scope.Scope) (settings.Resolved, error) {
	r.calls["set"]++
	r.val, _ = v.(string)

	return r.resolved(key, sc), nil
}

func (r *countingResolver) Reset(_ context.Context, key string, sc scope.Scope) (settings.Resolved, error) {
	r.calls["reset"]++
	r.val = "dark"

	return r.resolved(key, sc), nil
}

func (r *countingResolver) All(_ context.Context, sc scope.Scope) ([]settings.Resolved, error) {
	r.calls["all"]++
	return []settings.Resolved{r.resolved("theme", sc)}, nil
}

func (r *countingResolver) Filtered(_ context.Context, sc scope.Scope, _ string) ([]settings.Resolved, error) {
	r.calls["filtered"]++
	return []settings.Resolved{r.resolved("theme", sc)}, nil
}

func (r *countingResolver) Overrides(_ context.Context, sc scope.Scope) ([]settings.Resolved, error) {
	r.calls["overrides"]++
	return nil, nil
}

func setupCache(t *testing.T) (*Service, *countingResolver) {
	t.Helper()

	next := newCounting()
	svc := New(next, NewMemory(time.Minute), time.Minute)

	t.Cleanup(func() { require.NoError(t, svc.Close()) })

	return svc, next
}

func TestGetIsCached(t *testing.T) {
	svc, next := setupCache(t)
	ctx := context.Background()

	for range 3 {
		got, err := svc.Get(ctx, "theme", alice)
		require.NoError(t, err)
		assert.Equal(t, "dark", got.Value.Str())
		assert.Equal(t, alice.Owner, got.Owner)
	}

	assert.Equal(t, 1, next.calls["get"])

	// scopes do not share entries
	_, err := svc.Get(ctx, "theme", system)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls["get"])
}

func TestSetInvalidates(t *testing.T) {
	svc, next := setupCache(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "theme", alice)
	require.NoError(t, err)
	_, err = svc.All(ctx, alice)
	require.NoError(t, err)
	_, err = svc.Filtered(ctx, alice, "the")
	require.NoError(t, err)

	_, err = svc.Set(ctx, "theme", "light", alice)
	require.NoError(t, err)

	got, err := svc.Get(ctx, "theme", alice)
	require.NoError(t, err)
	assert.Equal(t, "light", got.Value.Str())
	assert.Equal(t, 2, next.calls["get"])

	all, err := svc.All(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, "light", all[0].Value.Str())
	assert.Equal(t, 2, next.calls["all"])

	// filtered entries are left to expire
	filtered, err := svc.Filtered(ctx, alice, "the")
	require.NoError(t, err)
	assert.Equal(t, "dark", filtered[0].Value.Str())
	assert.Equal(t, 1, next.calls["filtered"])

	_, err = svc.Reset(ctx, "theme", alice)
	require.NoError(t, err)

	got, err = svc.Get(ctx, "theme", alice)
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Value.Str())
	assert.Equal(t, 3, next.calls["get"])
}

func TestErrorsAreNotCached(t *testing.T) {
	svc, next := setupCache(t)
	next.err = settings.ErrSettingNotFound

	for range 2 {
		_, err := svc.Get(context.Background(), "missing", system)
		require.ErrorIs(t, err, settings.ErrSettingNotFound)
	}

	assert.Equal(t, 2, next.calls["get"])
}

func TestOverridesBypassCache(t *testing.T) {
	svc, next := setupCache(t)

	for range 2 {
		_, err := svc.Overrides(context.Background(), system)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, next.calls["overrides"])
}

func TestClear(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		key         string
		scope       scope.Scope
		expectedGet int
		expectedAll int
	}{
		{name: "single key", key: "theme", scope: alice, expectedGet: 2, expectedAll: 1},
		{name: "scope aggregate", scope: alice, expectedGet: 1, expectedAll: 2},
		{name: "everything", expectedGet: 2, expectedAll: 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, next := setupCache(t)

			_, err := svc.Get(ctx, "theme", alice)
			require.NoError(t, err)
			_, err = svc.All(ctx, alice)
			require.NoError(t, err)

			require.NoError(t, svc.Clear(tc.key, tc.scope))

			_, err = svc.Get(ctx, "theme", alice)
			require.NoError(t, err)
			_, err = svc.All(ctx, alice)
			require.NoError(t, err)

			assert.Equal(t, tc.expectedGet, next.calls["get"])
			assert.Equal(t, tc.expectedAll, next.calls["all"])
		})
	}
}

// brokenStore fails every operation.
type brokenStore struct{}

var errDown = errors.New("cache down")

func (brokenStore) Get(string) ([]byte, error)              { return nil, errDown }
func (brokenStore) Set(string, []byte, time.Duration) error { return errDown }
func (brokenStore) Delete(string) error                     { return errDown }
func (brokenStore) Reset() error                            { return errDown }
func (brokenStore) Close() error                            { return nil }

func TestBackendFailureFallsThrough(t *testing.T) {
	next := newCounting()
	svc := New(next, brokenStore{}, time.Minute)
	ctx := context.Background()

	got, err := svc.Get(ctx, "theme", alice)
	require.NoError(t, err)
	assert.Equal(t, "dark", got.Value.Str())

	_, err = svc.Set(ctx, "theme", "light", alice)
	require.NoError(t, err)

	require.ErrorIs(t, svc.Clear("", scope.Scope{}), errDown)
}

func TestUnreadableEntryIsDropped(t *testing.T) {
	next := newCounting()
	store := NewMemory(time.Minute)
	svc := New(next, store, time.Minute)

	t.Cleanup(func() { require.NoError(t, svc.Close()) })

	require.NoError(t, store.Set(getKey(alice, "theme"), []byte("{"), 0))

	_, err := svc.Get(context.Background(), "theme", alice)
	require.NoError(t, err)
	assert.Equal(t, 1, next.calls["get"])

	raw, err := store.Get(getKey(alice, "theme"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"setting":"theme","type":"string","value":"dark","scope":"user",`+
		`"owner_kind":"User","owner_id":"1","is_default":false}`, string(raw))
}

func TestMemoryExpiry(t *testing.T) {
	m := NewMemory(20 * time.Millisecond)
	t.Cleanup(func() { require.NoError(t, m.Close()) })

	require.NoError(t, m.Set("k", []byte("v"), 0))

	got, err := m.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	assert.Eventually(t, func() bool {
		got, err := m.Get("k")
		return err == nil && got == nil
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, m.Set("a", []byte("1"), time.Minute))
	require.NoError(t, m.Reset())

	got, err = m.Get("a")
	require.NoError(t, err)
	assert.Nil(t, got)

	// closing twice is fine
	require.NoError(t, m.Close())
}

func TestNewStore(t *testing.T) {
	store, err := NewStore(&config.Config{Settings: config.Settings{Cache: config.Cache{Driver: "memory"}}})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, store)
	require.NoError(t, store.Close())

	_, err = NewStore(&config.Config{Settings: config.Settings{Cache: config.Cache{Driver: "redis"}}})
	require.ErrorIs(t, err, ErrUnknownDriver)
}
