// Package models contains database model definitions.
package models

import (
	"time"
)

// Setting is a persisted override of a declared setting. Rows exist only for
// values that differ from the manifest default. OwnerKind and OwnerID are
// empty for scopes that are not bound to an entity.
type Setting struct {
	ID        uint64 `gorm:"primaryKey"`
	Scope     string `gorm:"size:191;not null;uniqueIndex:idx_settings_owner_setting,priority:1"`
	OwnerKind string `gorm:"size:191;not null;default:'';uniqueIndex:idx_settings_owner_setting,priority:2"`
	OwnerID   string `gorm:"size:191;not null;default:'';uniqueIndex:idx_settings_owner_setting,priority:3"`
	Key       string `gorm:"column:setting;size:191;not null;uniqueIndex:idx_settings_owner_setting,priority:4"`
	Type      string `gorm:"size:20;not null"`
	Value     []byte `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName pins the table name.
func (Setting) TableName() string {
	return "settings"
}
