package setting

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/GoPowerDNS-Admin/go-settings/internal/db/models"
	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

// Store adapts the package functions to the resolution engine. Every call
// runs with the caller's context.
type Store struct {
	db *gorm.DB
}

// NewStore returns a Store backed by db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	if s.db == nil {
		return nil
	}

	return s.db.WithContext(ctx)
}

// Find returns nil without error when no override exists.
func (s *Store) Find(ctx context.Context, key string, sc scope.Scope) (*models.Setting, error) {
	setting, err := Find(s.conn(ctx), key, sc)
	if errors.Is(err, ErrSettingNotFound) {
		return nil, nil
	}

	return setting, err
}

// Create upserts an override.
func (s *Store) Create(
	ctx context.Context, key string, typ value.Type, raw []byte, sc scope.Scope,
) (*models.Setting, error) {
	return Create(s.conn(ctx), key, string(typ), raw, sc)
}

// Delete removes an override and reports whether one existed.
func (s *Store) Delete(ctx context.Context, key string, sc scope.Scope) (bool, error) {
	return Delete(s.conn(ctx), key, sc)
}

// ListAll returns all overrides of sc.
func (s *Store) ListAll(ctx context.Context, sc scope.Scope) ([]models.Setting, error) {
	return ListAll(s.conn(ctx), sc)
}

// ListPrefixed returns the overrides of sc under prefix.
func (s *Store) ListPrefixed(ctx context.Context, sc scope.Scope, prefix string) ([]models.Setting, error) {
	return ListPrefixed(s.conn(ctx), sc, prefix)
}
