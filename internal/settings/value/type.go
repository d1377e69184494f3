// Package value implements the typed values a setting can hold.
//
// A Value is a tagged union over the fixed set of setting types. Values are
// stored as JSON: scalars as JSON scalars, datetimes as an RFC3339 UTC string,
// arrays, collections and objects as JSON arrays and objects. No generic
// object-graph codec is ever involved.
package value

import (
	"fmt"
	"slices"
)

// Type names the declared type of a setting.
type Type string

// Supported setting types.
const (
	TypeInteger    Type = "integer"
	TypeDouble     Type = "double"
	TypeBoolean    Type = "boolean"
	TypeString     Type = "string"
	TypeArray      Type = "array"
	TypeCollection Type = "collection"
	TypeObject     Type = "object"
	TypeDateTime   Type = "datetime"
)

var types = []Type{
	TypeInteger,
	TypeDouble,
	TypeBoolean,
	TypeString,
	TypeArray,
	TypeCollection,
	TypeObject,
	TypeDateTime,
}

// Types returns all supported types in declaration order.
func Types() []Type {
	return slices.Clone(types)
}

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	return slices.Contains(types, t)
}

// ParseType converts a declared type name into a Type.
func ParseType(s string) (Type, error) {
	t := Type(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: '%s'", ErrUnknownType, s)
	}

	return t, nil
}
