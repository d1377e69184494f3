// Package setting provides CRUD operations over persisted setting overrides.
package setting

import (
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/GoPowerDNS-Admin/go-settings/internal/db/models"
	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
)

const (
	scopeQueryPattern  = "scope = ? AND owner_kind = ? AND owner_id = ?"
	keyQueryPattern    = "setting = ?"
	prefixQueryPattern = "(setting = ? OR setting LIKE ? ESCAPE '!')"
	nameQueryPattern   = "scope = ?"
)

// ownerSettingColumns is the unique key of an override.
var ownerSettingColumns = []clause.Column{ //nolint:gochecknoglobals
	{Name: "scope"}, {Name: "owner_kind"}, {Name: "owner_id"}, {Name: "setting"},
}

var (
	// ErrSettingNotFound is returned when no override exists.
	ErrSettingNotFound = errors.New("setting not found")
	// ErrSettingKeyEmpty is returned when a setting key is empty.
	ErrSettingKeyEmpty = errors.New("setting key cannot be empty")
	// ErrScopeEmpty is returned when a scope has no name.
	ErrScopeEmpty = errors.New("scope name cannot be empty")
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
)

func check(db *gorm.DB, sc scope.Scope) error {
	if db == nil {
		return ErrDBNil
	}

	if sc.Name == "" {
		return ErrScopeEmpty
	}

	return nil
}

func scoped(db *gorm.DB, sc scope.Scope) *gorm.DB {
	return db.Where(scopeQueryPattern, sc.Name, sc.Owner.Kind, sc.Owner.ID)
}

// escapeLike quotes LIKE wildcards with '!'.
func escapeLike(s string) string {
	return strings.NewReplacer("!", "!!", "%", "!%", "_", "!_").Replace(s)
}

func prefixed(db *gorm.DB, prefix string) *gorm.DB {
	if prefix == "" {
		return db
	}

	return db.Where(prefixQueryPattern, prefix, escapeLike(prefix)+".%")
}

// Find returns the override of key in sc.
func Find(db *gorm.DB, key string, sc scope.Scope) (*models.Setting, error) {
	if err := check(db, sc); err != nil {
		return nil, err
	}

	if key == "" {
		return nil, ErrSettingKeyEmpty
	}

	var setting models.Setting

	result := scoped(db, sc).Where(keyQueryPattern, key).First(&setting)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}

		return nil, result.Error
	}

	return &setting, nil
}

// Create stores an override, replacing any existing one for the same key and
// scope (upsert).
func Create(db *gorm.DB, key, typ string, raw []byte, sc scope.Scope) (*models.Setting, error) {
	if err := check(db, sc); err != nil {
		return nil, err
	}

	if key == "" {
		return nil, ErrSettingKeyEmpty
	}

	var setting models.Setting

	err := db.Transaction(func(tx *gorm.DB) error {
		row := models.Setting{
			Scope:     sc.Name,
			OwnerKind: sc.Owner.Kind,
			OwnerID:   sc.Owner.ID,
			Key:       key,
			Type:      typ,
			Value:     raw,
		}

		// concurrent writers of the same key update one row, last write wins
		err := tx.Clauses(clause.OnConflict{
			Columns:   ownerSettingColumns,
			DoUpdates: clause.AssignmentColumns([]string{"type", "value", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return err
		}

		// re-read, the insert does not report the id of an updated row on every dialect
		return scoped(tx, sc).Where(keyQueryPattern, key).First(&setting).Error
	})
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return &setting, nil
}

// Delete removes the override of key in sc. It reports whether a row was
// removed; a missing row is not an error.
func Delete(db *gorm.DB, key string, sc scope.Scope) (bool, error) {
	if err := check(db, sc); err != nil {
		return false, err
	}

	if key == "" {
		return false, ErrSettingKeyEmpty
	}

	result := scoped(db, sc).Where(keyQueryPattern, key).Delete(&models.Setting{})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

// ListAll returns every override in sc in insertion order.
func ListAll(db *gorm.DB, sc scope.Scope) ([]models.Setting, error) {
	return ListPrefixed(db, sc, "")
}

// ListPrefixed returns the overrides in sc whose key equals prefix or lies
// below it in the dot path hierarchy.
func ListPrefixed(db *gorm.DB, sc scope.Scope, prefix string) ([]models.Setting, error) {
	if err := check(db, sc); err != nil {
		return nil, err
	}

	settings := []models.Setting{}

	result := prefixed(scoped(db, sc), prefix).Order("id").Find(&settings)
	if result.Error != nil {
		return nil, result.Error
	}

	return settings, nil
}

// Count returns the number of overrides stored under a scope name, across
// all owners, optionally restricted to a key prefix.
func Count(db *gorm.DB, scopeName, prefix string) (int64, error) {
	if err := check(db, scope.Named(scopeName)); err != nil {
		return 0, err
	}

	var count int64

	result := prefixed(db.Model(&models.Setting{}).Where(nameQueryPattern, scopeName), prefix).Count(&count)
	if result.Error != nil {
		return 0, result.Error
	}

	return count, nil
}

// Clear deletes the overrides stored under a scope name, across all owners,
// optionally restricted to a key prefix. It returns the number of rows removed.
func Clear(db *gorm.DB, scopeName, prefix string) (int64, error) {
	if err := check(db, scope.Named(scopeName)); err != nil {
		return 0, err
	}

	result := prefixed(db.Where(nameQueryPattern, scopeName), prefix).Delete(&models.Setting{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// ClearAll deletes every override of every scope.
func ClearAll(db *gorm.DB) (int64, error) {
	if db == nil {
		return 0, ErrDBNil
	}

	result := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Setting{})
	if result.Error != nil {
		return 0, result.Error
	}

	return result.RowsAffected, nil
}

// CountByScope returns the number of overrides per scope name.
func CountByScope(db *gorm.DB) (map[string]int64, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	var rows []struct {
		Scope string
		Total int64
	}

	result := db.Model(&models.Setting{}).Select("scope, count(*) AS total").Group("scope").Scan(&rows)
	if result.Error != nil {
		return nil, result.Error
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.Scope] = r.Total
	}

	return out, nil
}
