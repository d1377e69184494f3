package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// Map is a string keyed map that remembers insertion order. It backs the
// collection type.
type Map struct {
	keys []string
	vals map[string]any
}

// NewMap returns an empty Map.
func NewMap() *Map {
	return &Map{vals: map[string]any{}}
}

// Set stores v under k. Existing keys keep their position.
func (m *Map) Set(k string, v any) {
	if m.vals == nil {
		m.vals = map[string]any{}
	}

	if _, ok := m.vals[k]; !ok {
		m.keys = append(m.keys, k)
	}

	m.vals[k] = v
}

// Get returns the value stored under k.
func (m *Map) Get(k string) (any, bool) {
	if m == nil {
		return nil, false
	}

	v, ok := m.vals[k]

	return v, ok
}

// Keys returns the keys in insertion order.
func (m *Map) Keys() []string {
	if m == nil {
		return nil
	}

	return slices.Clone(m.keys)
}

// Len returns the number of entries.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.keys)
}

// Range calls fn for every entry in order until fn returns false.
func (m *Map) Range(fn func(k string, v any) bool) {
	if m == nil {
		return
	}

	for _, k := range m.keys {
		if !fn(k, m.vals[k]) {
			return
		}
	}
}

// ToMap returns the entries as a plain map, dropping the order.
func (m *Map) ToMap() map[string]any {
	out := make(map[string]any, m.Len())
	m.Range(func(k string, v any) bool {
		out[k] = v
		return true
	})

	return out
}

func (m *Map) clone() *Map {
	out := NewMap()
	m.Range(func(k string, v any) bool {
		out.Set(k, v)
		return true
	})

	return out
}

// MarshalJSON encodes the map as a JSON object in insertion order.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, k := range m.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(k)
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		val, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object keeping the key order of the input.
// Nested values are decoded as plain JSON values.
func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err //nolint:wrapcheck
	}

	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected a JSON object, got %v", tok)
	}

	m.keys = nil
	m.vals = map[string]any{}

	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err //nolint:wrapcheck
		}

		key, _ := tok.(string)

		var raw any
		if err = dec.Decode(&raw); err != nil {
			return err //nolint:wrapcheck
		}

		val, err := normalize(raw)
		if err != nil {
			return err
		}

		m.Set(key, val)
	}

	_, err = dec.Token()

	return err //nolint:wrapcheck
}
