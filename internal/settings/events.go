package settings

import (
	"time"

	"github.com/google/uuid"

	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

// EventKind names what happened to a setting.
type EventKind string

// Event kinds.
const (
	Retrieved EventKind = "retrieved"
	Created   EventKind = "created"
	Updated   EventKind = "updated"
	Deleted   EventKind = "deleted"
)

// Event describes one resolution or write. Setting is the resolved value
// after the operation; for Deleted it is the default now in effect.
// Previous is the effective value before a write and nil for Retrieved.
type Event struct {
	ID       uuid.UUID
	Kind     EventKind
	Key      string
	Scope    scope.Scope
	Setting  *Resolved
	Previous *value.Value
	At       time.Time
}

// Notifier receives events. Implementations must not block; the engine
// calls Notify inline.
type Notifier interface {
	Notify(ev Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ev Event)

// Notify calls f.
func (f NotifierFunc) Notify(ev Event) { f(ev) }
