package settings

import (
	"encoding/json"

	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

// Resolved is the effective value of a setting. IsDefault tells whether it
// comes from the manifest or from a stored override; ID is the override row
// and zero for defaults.
type Resolved struct {
	ID        uint64
	Key       string
	Type      value.Type
	Value     value.Value
	Scope     string
	Owner     scope.Owner
	IsDefault bool
}

type resolvedJSON struct {
	ID        uint64          `json:"id,omitempty"`
	Key       string          `json:"setting"`
	Type      value.Type      `json:"type"`
	Value     json.RawMessage `json:"value"`
	Scope     string          `json:"scope"`
	OwnerKind string          `json:"owner_kind,omitempty"`
	OwnerID   string          `json:"owner_id,omitempty"`
	IsDefault bool            `json:"is_default"`
}

// MarshalJSON implements json.Marshaler.
func (r Resolved) MarshalJSON() ([]byte, error) {
	raw, err := value.Encode(r.Value)
	if err != nil {
		return nil, value.WithKey(err, r.Key)
	}

	return json.Marshal(resolvedJSON{ //nolint:wrapcheck
		ID:        r.ID,
		Key:       r.Key,
		Type:      r.Type,
		Value:     raw,
		Scope:     r.Scope,
		OwnerKind: r.Owner.Kind,
		OwnerID:   r.Owner.ID,
		IsDefault: r.IsDefault,
	})
}

// UnmarshalJSON decodes the value according to the type field.
func (r *Resolved) UnmarshalJSON(data []byte) error {
	var in resolvedJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err //nolint:wrapcheck
	}

	v, err := value.Decode(in.Type, in.Value)
	if err != nil {
		return value.WithKey(err, in.Key)
	}

	*r = Resolved{
		ID:        in.ID,
		Key:       in.Key,
		Type:      in.Type,
		Value:     v,
		Scope:     in.Scope,
		Owner:     scope.Owner{Kind: in.OwnerKind, ID: in.OwnerID},
		IsDefault: in.IsDefault,
	}

	return nil
}
