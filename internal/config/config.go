// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// EnvConfigJSON names the environment variable holding a JSON document that
// is merged over the TOML configuration.
const EnvConfigJSON = "GO_SETTINGS_CONFIG_JSON"

const (
	defaultShutDownTime = 5
	defaultCacheTTL     = time.Hour
	defaultCacheDriver  = "memory"
	defaultCacheTable   = "settings_cache"
	defaultEventBuffer  = 64
	defaultEngine       = "sqlite"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(filepath.Join(path, "main.toml"), &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvConfigJSON)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	if err = validate(&c); err != nil {
		return c, err
	}

	// relative manifest paths are relative to the config directory
	if !filepath.IsAbs(c.Settings.Manifest) {
		c.Settings.Manifest = filepath.Join(path, c.Settings.Manifest)
	}

	return c, nil
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config json from env")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate checks the config and fills in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Settings.Manifest == "" {
		return errors.Wrap(ErrEmptyManifest, invalidErrMessage)
	}

	if c.DB.GormEngine == "" {
		c.DB.GormEngine = defaultEngine
	}

	if c.DB.GormEngine == defaultEngine && c.DB.Path == "" {
		return errors.Wrap(ErrSQLitePathEmpty, invalidErrMessage)
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Settings.Cache.TTL == 0 {
		c.Settings.Cache.TTL = defaultCacheTTL
	}

	if c.Settings.Cache.Driver == "" {
		c.Settings.Cache.Driver = defaultCacheDriver
	}

	if c.Settings.Cache.Table == "" {
		c.Settings.Cache.Table = defaultCacheTable
	}

	if c.Settings.Events.Buffer == 0 {
		c.Settings.Events.Buffer = defaultEventBuffer
	}

	return nil
}
