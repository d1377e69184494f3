package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// ErrMalformed is returned when stored bytes are not valid JSON.
var ErrMalformed = errors.New("malformed value")

// Encode returns the canonical stored form of v.
func Encode(v Value) ([]byte, error) {
	switch v.typ {
	case TypeInteger:
		return []byte(strconv.FormatInt(v.i, 10)), nil
	case TypeDouble:
		return json.Marshal(v.f) //nolint:wrapcheck
	case TypeBoolean:
		return json.Marshal(v.b) //nolint:wrapcheck
	case TypeString:
		return json.Marshal(v.s) //nolint:wrapcheck
	case TypeArray:
		if v.list == nil {
			return []byte("[]"), nil
		}

		return json.Marshal(v.list) //nolint:wrapcheck
	case TypeCollection:
		if v.coll == nil {
			return []byte("{}"), nil
		}

		return v.coll.MarshalJSON()
	case TypeObject:
		if v.obj == nil {
			return []byte("{}"), nil
		}

		return json.Marshal(v.obj) //nolint:wrapcheck
	case TypeDateTime:
		return json.Marshal(v.t.UTC().Format(time.RFC3339Nano)) //nolint:wrapcheck
	default:
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownType, v.typ)
	}
}

// Decode reads stored bytes back into a Value of type t.
func Decode(t Type, raw []byte) (Value, error) {
	if !t.Valid() {
		return Value{}, fmt.Errorf("%w: '%s'", ErrUnknownType, t)
	}

	trimmed := bytes.TrimSpace(raw)

	if t == TypeCollection && bytes.HasPrefix(trimmed, []byte("{")) {
		m := NewMap()
		if err := m.UnmarshalJSON(trimmed); err != nil {
			return Value{}, errors.Wrapf(ErrMalformed, "%v", err)
		}

		return Value{typ: t, coll: m}, nil
	}

	decoded, err := decodeAny(trimmed)
	if err != nil {
		return Value{}, errors.Wrapf(ErrMalformed, "%v", err)
	}

	// stored doubles without a fraction come back as integers
	if t == TypeDouble {
		if i, ok := decoded.(int64); ok {
			return Float(float64(i)), nil
		}
	}

	return Parse(t, decoded)
}

// Equal reports whether a and b have the same type and canonical encoding.
// Collections compare their entries; key order does not matter.
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}

	if a.typ == TypeCollection {
		return a.coll.Len() == b.coll.Len() && sameJSON(a.coll.ToMap(), b.coll.ToMap())
	}

	ea, err := Encode(a)
	if err != nil {
		return false
	}

	eb, err := Encode(b)
	if err != nil {
		return false
	}

	return bytes.Equal(ea, eb)
}

// sameJSON compares the JSON encodings of a and b. Map keys are encoded
// sorted.
func sameJSON(a, b any) bool {
	ea, err := json.Marshal(a)
	if err != nil {
		return false
	}

	eb, err := json.Marshal(b)
	if err != nil {
		return false
	}

	return bytes.Equal(ea, eb)
}

// Coerce converts text typed by a user, for instance on the command line,
// into a Value of type t. Structured types expect JSON.
func Coerce(t Type, s string) (Value, error) {
	switch t {
	case TypeInteger:
		i, err := cast.ToInt64E(s)
		if err != nil {
			return Value{}, mismatch(t, s)
		}

		return Int(i), nil
	case TypeDouble:
		f, err := cast.ToFloat64E(s)
		if err != nil {
			return Value{}, mismatch(t, s)
		}

		return Float(f), nil
	case TypeBoolean:
		b, err := cast.ToBoolE(s)
		if err != nil {
			return Value{}, mismatch(t, s)
		}

		return Bool(b), nil
	case TypeString:
		return Str(s), nil
	case TypeDateTime:
		return Parse(t, s)
	case TypeArray, TypeCollection, TypeObject:
		return Decode(t, []byte(s))
	default:
		return Value{}, fmt.Errorf("%w: '%s'", ErrUnknownType, t)
	}
}
