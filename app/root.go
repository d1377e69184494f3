// Package app implements the main application commands.
package app

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/daemon"
	"github.com/GoPowerDNS-Admin/go-settings/internal/logger"
)

const (
	envPrefix = "GO_SETTINGS"

	flagConfig   = "config"
	flagManifest = "manifest"
)

// v holds flag values with environment fallbacks, e.g. GO_SETTINGS_CONFIG.
var v = viper.New() //nolint:gochecknoglobals

var rootCmd = &cobra.Command{
	Use:   "go-settings",
	Short: "go-settings manages typed, scoped application settings",
	Long: `go-settings resolves typed settings declared in a manifest file.
Scopes may override declared defaults; only overrides are stored.
It serves a JSON API and provides commands to inspect and clear overrides.`,
	SilenceUsage: true,
}

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().String(flagConfig, "./etc/", "Directory holding main.toml")
	rootCmd.PersistentFlags().String(flagManifest, "", "Settings manifest, overrides Settings.Manifest")

	_ = v.BindPFlag(flagConfig, rootCmd.PersistentFlags().Lookup(flagConfig))
	_ = v.BindPFlag(flagManifest, rootCmd.PersistentFlags().Lookup(flagManifest))

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig reads the configuration selected by flags and environment and
// initializes logging.
func loadConfig() (config.Config, error) {
	cfg, err := config.ReadConfig(v.GetString(flagConfig))
	if err != nil {
		return cfg, err
	}

	if m := v.GetString(flagManifest); m != "" {
		cfg.Settings.Manifest = m
	}

	if v.GetBool(flagDev) {
		cfg.DevMode = true
	}

	if err := logger.Init(cfg.Log); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// withComponents runs fn on a freshly built engine and releases it after.
func withComponents(fn func(cfg *config.Config, c *daemon.Components) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c, err := daemon.Build(&cfg)
	if err != nil {
		return err
	}

	defer func() { _ = c.Close() }()

	return fn(&cfg, c)
}
