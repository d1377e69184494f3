package config

import (
	"errors"
)

var (
	// ErrEmptyManifest error if config settings.manifest is empty.
	ErrEmptyManifest = errors.New("toml config settings.manifest can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrSQLitePathEmpty error if the sqlite engine is used without a path.
	ErrSQLitePathEmpty = errors.New("toml config db.path can not be empty for sqlite")
)
