// Package scope describes where a setting is resolved: a bare namespace such
// as "system", or a namespace bound to one owning entity.
package scope

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/stoewer/go-strcase"
)

// ErrUnsupportedScope is returned for values that cannot act as a scope.
var ErrUnsupportedScope = errors.New("unsupported scope")

// Provider is implemented by entities that own settings.
type Provider interface {
	// SettingsKind names the entity type, e.g. "User" or "billing.Team".
	SettingsKind() string
	// SettingsID identifies the entity within its kind.
	SettingsID() string
}

// Owner references the entity a scope is bound to.
type Owner struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// IsZero reports whether o references nothing.
func (o Owner) IsZero() bool { return o.Kind == "" && o.ID == "" }

func (o Owner) String() string {
	if o.IsZero() {
		return ""
	}

	return o.Kind + ":" + o.ID
}

// Scope is a manifest scope name plus an optional owner.
type Scope struct {
	Name  string
	Owner Owner
}

// Named returns a scope that is not bound to an entity.
func Named(name string) Scope {
	return Scope{Name: name}
}

// Owned returns the scope of the entity identified by owner. The scope name
// is derived from the owner kind.
func Owned(owner Owner) Scope {
	return Scope{Name: Name(owner.Kind), Owner: owner}
}

// Bound reports whether s belongs to an entity.
func (s Scope) Bound() bool { return !s.Owner.IsZero() }

// CacheKey is a stable identifier of s, suitable for cache keys.
func (s Scope) CacheKey() string {
	if !s.Bound() {
		return s.Name
	}

	return s.Name + ":" + s.Owner.Kind + ":" + s.Owner.ID
}

func (s Scope) String() string {
	if !s.Bound() {
		return s.Name
	}

	return fmt.Sprintf("%s(%s)", s.Name, s.Owner)
}

// Name derives a scope name from an entity kind: the last path element of
// the kind in lower snake case. "billing.TeamMember" becomes "team_member".
func Name(kind string) string {
	if i := strings.LastIndexAny(kind, `./\`); i >= 0 {
		kind = kind[i+1:]
	}

	return strcase.SnakeCase(kind)
}

// Of turns a scope argument into a Scope. Accepted are Scope values, bare
// scope names and Providers.
func Of(entity any) (Scope, error) {
	switch x := entity.(type) {
	case Scope:
		if x.Name == "" {
			return Scope{}, pkgerrors.Wrap(ErrUnsupportedScope, "empty scope name")
		}

		return x, nil
	case string:
		if x == "" {
			return Scope{}, pkgerrors.Wrap(ErrUnsupportedScope, "empty scope name")
		}

		return Named(x), nil
	case Provider:
		owner := Owner{Kind: x.SettingsKind(), ID: x.SettingsID()}
		if owner.Kind == "" || owner.ID == "" {
			return Scope{}, pkgerrors.Wrapf(ErrUnsupportedScope, "entity %T has no settings identity", entity)
		}

		return Owned(owner), nil
	default:
		return Scope{}, pkgerrors.Wrapf(ErrUnsupportedScope, "%T does not own settings", entity)
	}
}

// Registry maps scope names to owner kinds, so that an entity scope can be
// rebuilt from a scope name and an id, as the command line and the HTTP API
// receive them.
type Registry struct {
	mu    sync.RWMutex
	kinds map[string]string
}

// NewRegistry returns a registry knowing kinds.
func NewRegistry(kinds ...string) *Registry {
	r := &Registry{kinds: map[string]string{}}
	for _, k := range kinds {
		r.Register(k)
	}

	return r
}

// Register makes kind known and returns its scope name.
func (r *Registry) Register(kind string) string {
	name := Name(kind)

	r.mu.Lock()
	r.kinds[name] = kind
	r.mu.Unlock()

	return name
}

// KindFor returns the owner kind registered for a scope name.
func (r *Registry) KindFor(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kind, ok := r.kinds[name]

	return kind, ok
}

// Owned builds the scope of entity id within scope name.
func (r *Registry) Owned(name, id string) (Scope, error) {
	kind, ok := r.KindFor(name)
	if !ok {
		return Scope{}, pkgerrors.Wrapf(ErrUnsupportedScope, "scope '%s' is not bound to an entity kind", name)
	}

	if id == "" {
		return Scope{}, pkgerrors.Wrapf(ErrUnsupportedScope, "scope '%s' needs an owner id", name)
	}

	return Scope{Name: name, Owner: Owner{Kind: kind, ID: id}}, nil
}

// Resolve returns the named scope when id is empty, else the owned one.
func (r *Registry) Resolve(name, id string) (Scope, error) {
	if name == "" {
		return Scope{}, pkgerrors.Wrap(ErrUnsupportedScope, "empty scope name")
	}

	if id == "" {
		return Named(name), nil
	}

	return r.Owned(name, id)
}

// Kinds returns the registered kinds sorted by scope name.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.kinds))
	for n := range r.kinds {
		names = append(names, n)
	}

	sort.Strings(names)

	out := make([]string, len(names))
	for i, n := range names {
		out[i] = r.kinds[n]
	}

	return out
}
