package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
)

const manifestYAML = `
system:
  site:
    name: {type: string, value: "My Site"}
user:
  theme: {type: string, value: dark}
`

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte(manifestYAML), 0o600))

	return &config.Config{
		DB: config.DB{GormEngine: "sqlite", Path: ":memory:"},
		Settings: config.Settings{
			Manifest: path,
			Owners:   []string{"User"},
			Cache:    config.Cache{Enabled: true, TTL: time.Minute, Driver: "memory"},
			Events:   config.Events{Enabled: true, Buffer: 4},
		},
	}
}

func TestBuild(t *testing.T) {
	cfg := testConfig(t)

	c, err := Build(cfg)
	require.NoError(t, err)

	require.NotNil(t, c.Cache)
	require.NotNil(t, c.Dispatcher)
	assert.Same(t, c.Cache, c.Resolver)
	assert.True(t, c.Deps().Valid())

	sc, err := c.Registry.Resolve("user", "7")
	require.NoError(t, err)
	assert.Equal(t, scope.Owner{Kind: "User", ID: "7"}, sc.Owner)

	ctx := context.Background()

	_, err = c.Resolver.Set(ctx, "theme", "light", sc)
	require.NoError(t, err)

	got, err := c.Resolver.Get(ctx, "theme", sc)
	require.NoError(t, err)
	assert.Equal(t, "light", got.Value.Str())

	require.NoError(t, c.Close())
}

func TestBuildWithoutExtras(t *testing.T) {
	cfg := testConfig(t)
	cfg.Settings.Cache.Enabled = false
	cfg.Settings.Events.Enabled = false

	c, err := Build(cfg)
	require.NoError(t, err)

	assert.Nil(t, c.Cache)
	assert.Nil(t, c.Dispatcher)
	assert.Same(t, c.Engine, c.Resolver)

	require.NoError(t, c.Close())
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(nil)
	require.Error(t, err)

	cfg := testConfig(t)
	cfg.Settings.Manifest = filepath.Join(t.TempDir(), "missing.yaml")

	_, err = Build(cfg)
	require.Error(t, err)

	cfg = testConfig(t)
	cfg.Settings.Cache.Driver = "redis"

	_, err = Build(cfg)
	require.Error(t, err)
}
