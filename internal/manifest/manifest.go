// Package manifest holds the static declaration tree of every known setting.
//
// The top level of a manifest maps scope names to groups. Inside a scope,
// groups nest by dot separated path segments and end in leaves that declare
// a type and a default value. A manifest is built once at startup and is
// read only afterwards, so it is safe for concurrent use.
package manifest

import (
	"errors"
	"strings"

	"github.com/hashicorp/go-multierror"
	pkgerrors "github.com/pkg/errors"

	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

// Separator joins path segments of a setting key.
const Separator = "."

// Declaration is a validated leaf.
type Declaration struct {
	Key     string
	Type    value.Type
	Default value.Value
}

// Manifest is the declaration tree, keyed by scope.
type Manifest struct {
	root *Group
}

// New returns an empty manifest.
func New() *Manifest {
	return &Manifest{root: NewGroup()}
}

// Scope returns the group of scope name, creating it when missing.
func (m *Manifest) Scope(name string) *Group {
	return m.root.Group(name)
}

// Scopes returns the declared scope names in declaration order.
func (m *Manifest) Scopes() []string {
	return m.root.Keys()
}

// HasScope reports whether name is declared. A scope without settings still
// counts as declared.
func (m *Manifest) HasScope(name string) bool {
	_, ok := m.scope(name)
	return ok
}

func (m *Manifest) scope(name string) (*Group, bool) {
	n, ok := m.root.Child(name)
	if !ok || n.group == nil {
		return nil, false
	}

	return n.group, true
}

// Resolve walks path inside scope and returns its checked declaration.
func (m *Manifest) Resolve(scope, path string) (Declaration, error) {
	g, ok := m.scope(scope)
	if !ok {
		return Declaration{}, pkgerrors.Wrapf(ErrScopeNotFound, "scope '%s'", scope)
	}

	notFound := pkgerrors.Wrapf(ErrSettingNotFound, "setting '%s' not found in the config for scope '%s'", path, scope)

	if path == "" {
		return Declaration{}, notFound
	}

	segments := strings.Split(path, Separator)

	for i, seg := range segments {
		n, ok := g.Child(seg)
		if !ok {
			return Declaration{}, notFound
		}

		if n.leaf != nil {
			if i != len(segments)-1 {
				return Declaration{}, notFound
			}

			return declare(path, n.leaf)
		}

		g = n.group
	}

	// the path ends on a group
	return Declaration{}, notFound
}

func declare(key string, l *Leaf) (Declaration, error) {
	if !l.HasType {
		return Declaration{}, pkgerrors.Wrapf(ErrDeclarationInvalid, "type not found for setting '%s'", key)
	}

	if !l.HasValue {
		return Declaration{}, pkgerrors.Wrapf(ErrDeclarationInvalid, "default value not found for setting '%s'", key)
	}

	t, err := value.ParseType(l.Type)
	if err != nil {
		return Declaration{}, pkgerrors.Wrapf(ErrDeclarationInvalid, "setting '%s': %v", key, err)
	}

	def, err := value.Parse(t, l.Default)
	if err != nil {
		var mismatch *value.TypeMismatchError
		if errors.As(err, &mismatch) {
			return Declaration{}, pkgerrors.Wrapf(ErrDeclarationInvalid,
				"declared type '%s' for setting '%s' does not match the actual %s", t, key, mismatch.Actual)
		}

		return Declaration{}, pkgerrors.Wrapf(ErrDeclarationInvalid, "setting '%s': %v", key, err)
	}

	return Declaration{Key: key, Type: t, Default: def}, nil
}

// Leaves lists the full paths of the leaves under prefix in scope, depth
// first in declaration order. An empty prefix lists the whole scope, a prefix
// naming a leaf lists that leaf, and an unknown prefix lists nothing.
func (m *Manifest) Leaves(scope, prefix string) ([]string, error) {
	g, ok := m.scope(scope)
	if !ok {
		return nil, pkgerrors.Wrapf(ErrScopeNotFound, "scope '%s'", scope)
	}

	var out []string

	collect := func(path string, _ *Leaf) { out = append(out, path) }

	if prefix == "" {
		g.walk("", collect)
		return out, nil
	}

	segments := strings.Split(prefix, Separator)

	for i, seg := range segments {
		n, ok := g.Child(seg)
		if !ok {
			return nil, nil
		}

		if n.leaf != nil {
			if i != len(segments)-1 {
				return nil, nil
			}

			return []string{prefix}, nil
		}

		g = n.group
	}

	g.walk(prefix, collect)

	return out, nil
}

// Count returns the number of leaves declared in scope.
func (m *Manifest) Count(scope string) int {
	g, ok := m.scope(scope)
	if !ok {
		return 0
	}

	count := 0
	g.walk("", func(string, *Leaf) { count++ })

	return count
}

// Validate checks every declaration and reports all problems at once.
func (m *Manifest) Validate() error {
	var result *multierror.Error

	for _, name := range m.root.Keys() {
		g, ok := m.scope(name)
		if !ok {
			result = multierror.Append(result, pkgerrors.Wrapf(ErrMalformed, "scope '%s' is not a group", name))
			continue
		}

		g.walk("", func(path string, l *Leaf) {
			if _, err := declare(path, l); err != nil {
				result = multierror.Append(result, pkgerrors.Wrapf(err, "scope '%s'", name))
			}
		})
	}

	return result.ErrorOrNil()
}
