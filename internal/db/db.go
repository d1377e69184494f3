// Package db opens the override store database.
package db

import (
	"errors"
	"strings"

	"github.com/glebarez/sqlite"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/GoPowerDNS-Admin/go-settings/internal/config"
	"github.com/GoPowerDNS-Admin/go-settings/internal/db/dsn"
	"github.com/GoPowerDNS-Admin/go-settings/internal/db/models"
)

// ErrUnknownEngine is returned for an unsupported DB.GormEngine.
var ErrUnknownEngine = errors.New("unknown gorm engine")

// Dialector selects the gorm driver for cfg.
func Dialector(cfg *config.DB) (gorm.Dialector, error) {
	switch strings.ToLower(cfg.GormEngine) {
	case "", "sqlite":
		return sqlite.Open(cfg.Path), nil
	case "mysql":
		return gormmysql.Open(dsn.MySQL(cfg)), nil
	case "postgres":
		return postgres.Open(dsn.Postgres(cfg)), nil
	default:
		return nil, pkgerrors.Wrapf(ErrUnknownEngine, "'%s'", cfg.GormEngine)
	}
}

// Open connects to the configured database and migrates the schema.
func Open(cfg *config.Config) (*gorm.DB, error) {
	dialector, err := Dialector(&cfg.DB)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{Logger: logger.Discard}
	if cfg.DevMode {
		gormCfg.Logger = logger.Default.LogMode(logger.Info)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to connect database")
	}

	// sqlite serializes writers; an in-memory database must stay on one connection
	if dialector.Name() == "sqlite" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, pkgerrors.Wrap(err, "failed to get sql database")
		}

		sqlDB.SetMaxOpenConns(1)
	}

	if err = db.AutoMigrate(&models.Setting{}); err != nil {
		return nil, pkgerrors.Wrap(err, "failed to migrate database")
	}

	log.Debug().Str("engine", dialector.Name()).Msg("database ready")

	return db, nil
}

// Close releases the connection pool of db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}

	sqlDB, err := db.DB()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to get sql database")
	}

	return sqlDB.Close() //nolint:wrapcheck
}
