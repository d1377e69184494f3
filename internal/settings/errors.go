package settings

import (
	"errors"

	pkgerrors "github.com/pkg/errors"

	"github.com/GoPowerDNS-Admin/go-settings/internal/manifest"
	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

// Errors surfaced by the engine. Callers match them with errors.Is.
var (
	ErrScopeNotFound      = manifest.ErrScopeNotFound
	ErrSettingNotFound    = manifest.ErrSettingNotFound
	ErrDeclarationInvalid = manifest.ErrDeclarationInvalid
	ErrTypeMismatch       = value.ErrTypeMismatch
	ErrUnsupportedScope   = scope.ErrUnsupportedScope

	// ErrStore is matched by every StoreError.
	ErrStore = errors.New("settings store failure")
)

// StoreError wraps a failure of the backing store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "settings store " + e.Op + ": " + e.Err.Error()
}

// Unwrap returns the store's own error.
func (e *StoreError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStore) hold.
func (e *StoreError) Is(target error) bool {
	return target == ErrStore //nolint:errorlint // sentinel comparison
}

func storeErr(op string, err error) error {
	return pkgerrors.WithStack(&StoreError{Op: op, Err: err})
}
