package manifest

import (
	"errors"
)

var (
	// ErrScopeNotFound is returned when the manifest has no entry for a scope.
	ErrScopeNotFound = errors.New("scope not found")

	// ErrSettingNotFound is returned when a path does not name a declared setting.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrDeclarationInvalid is returned for a malformed setting declaration.
	ErrDeclarationInvalid = errors.New("invalid setting declaration")

	// ErrUnsupportedFormat is returned for manifest files of an unknown format.
	ErrUnsupportedFormat = errors.New("unsupported manifest format")

	// ErrMalformed is returned when a manifest document cannot be turned into a tree.
	ErrMalformed = errors.New("malformed manifest")
)
