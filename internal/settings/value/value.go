package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"slices"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/spf13/cast"
)

// DisplayTimeFormat is used by String for datetime values.
const DisplayTimeFormat = "2006-01-02 15:04:05"

// Value is a typed setting value. The zero Value has no type.
type Value struct {
	typ  Type
	i    int64
	f    float64
	b    bool
	s    string
	list []any
	coll *Map
	obj  map[string]any
	t    time.Time
}

// Int returns an integer value.
func Int(v int64) Value { return Value{typ: TypeInteger, i: v} }

// Float returns a double value.
func Float(v float64) Value { return Value{typ: TypeDouble, f: v} }

// Bool returns a boolean value.
func Bool(v bool) Value { return Value{typ: TypeBoolean, b: v} }

// Str returns a string value.
func Str(v string) Value { return Value{typ: TypeString, s: v} }

// Time returns a datetime value. The instant is kept in UTC.
func Time(v time.Time) Value { return Value{typ: TypeDateTime, t: v.UTC()} }

// List returns an array value. It panics if an item cannot be expressed as
// JSON.
func List(items ...any) Value { return MustParse(TypeArray, items) }

// Collection returns a collection value holding a copy of m.
func Collection(m *Map) Value { return MustParse(TypeCollection, m) }

// Object returns an object value holding a copy of fields.
func Object(fields map[string]any) Value { return MustParse(TypeObject, fields) }

// MustParse is like Parse but panics on error. It is meant for literals in
// code and tests.
func MustParse(t Type, v any) Value {
	out, err := Parse(t, v)
	if err != nil {
		panic(err)
	}

	return out
}

// Type returns the type tag of v.
func (v Value) Type() Type { return v.typ }

// IsZero reports whether v carries no value at all.
func (v Value) IsZero() bool { return v.typ == "" }

// Int returns the integer held by an integer value.
func (v Value) Int() int64 { return v.i }

// Float returns the number held by a double value.
func (v Value) Float() float64 { return v.f }

// Bool returns the flag held by a boolean value.
func (v Value) Bool() bool { return v.b }

// Str returns the text held by a string value.
func (v Value) Str() string { return v.s }

// Time returns the instant held by a datetime value.
func (v Value) Time() time.Time { return v.t }

// List returns a copy of the items of an array value.
func (v Value) List() []any { return slices.Clone(v.list) }

// Collection returns a copy of the entries of a collection value.
func (v Value) Collection() *Map {
	if v.coll == nil {
		return NewMap()
	}

	return v.coll.clone()
}

// Object returns a copy of the fields of an object value.
func (v Value) Object() map[string]any { return maps.Clone(v.obj) }

// Interface returns the native Go representation of v.
func (v Value) Interface() any {
	switch v.typ {
	case TypeInteger:
		return v.i
	case TypeDouble:
		return v.f
	case TypeBoolean:
		return v.b
	case TypeString:
		return v.s
	case TypeArray:
		return v.List()
	case TypeCollection:
		return v.Collection()
	case TypeObject:
		return v.Object()
	case TypeDateTime:
		return v.t
	default:
		return nil
	}
}

// String renders v for humans.
func (v Value) String() string {
	switch v.typ {
	case TypeInteger:
		return strconv.FormatInt(v.i, 10)
	case TypeDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.b)
	case TypeString:
		return v.s
	case TypeDateTime:
		return v.t.Format(DisplayTimeFormat)
	case TypeArray, TypeCollection, TypeObject:
		raw, err := Encode(v)
		if err != nil {
			return fmt.Sprintf("<%s: %v>", v.typ, err)
		}

		return string(raw)
	default:
		return ""
	}
}

// Truncate shortens s to max runes, marking the cut with "...".
func Truncate(s string, maxLen int) string {
	if maxLen < 4 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}

	r := []rune(s)

	return string(r[:maxLen-3]) + "..."
}

// MarshalJSON emits the stored representation of v.
func (v Value) MarshalJSON() ([]byte, error) {
	return Encode(v)
}

// Validate reports whether v is acceptable for type t.
func Validate(t Type, v any) bool {
	_, err := Parse(t, v)
	return err == nil
}

// Parse checks v against t and casts it into a Value. It fails with a
// *TypeMismatchError when v does not fit t.
func Parse(t Type, v any) (Value, error) {
	if pv, ok := v.(Value); ok {
		if pv.typ != t {
			return Value{}, mismatch(t, pv)
		}

		return pv, nil
	}

	switch t {
	case TypeInteger:
		i, ok := toInt(v)
		if !ok {
			return Value{}, mismatch(t, v)
		}

		return Int(i), nil
	case TypeDouble:
		f, ok := toFloat(v)
		if !ok {
			return Value{}, mismatch(t, v)
		}

		return Float(f), nil
	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return Value{}, mismatch(t, v)
		}

		return Bool(b), nil
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return Value{}, mismatch(t, v)
		}

		return Str(s), nil
	case TypeArray:
		list, ok := toList(v)
		if !ok {
			return Value{}, mismatch(t, v)
		}

		return Value{typ: t, list: list}, nil
	case TypeCollection:
		coll, ok := toCollection(v)
		if !ok {
			return Value{}, mismatch(t, v)
		}

		return Value{typ: t, coll: coll}, nil
	case TypeObject:
		obj, ok := toObject(v)
		if !ok {
			return Value{}, mismatch(t, v)
		}

		return Value{typ: t, obj: obj}, nil
	case TypeDateTime:
		tm, ok := toTime(v)
		if !ok {
			return Value{}, mismatch(t, v)
		}

		return Time(tm), nil
	default:
		return Value{}, fmt.Errorf("%w: '%s'", ErrUnknownType, t)
	}
}

func toInt(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return int64(x), uint64(x) <= math.MaxInt64
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return int64(x), x <= math.MaxInt64 //nolint:gosec // bounds checked
	case json.Number:
		i, err := x.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toList(v any) ([]any, bool) {
	var items []any

	switch x := v.(type) {
	case []any:
		items = x
	case []string:
		items = anySlice(x)
	case []int:
		items = anySlice(x)
	case []int64:
		items = anySlice(x)
	case []float64:
		items = anySlice(x)
	case []bool:
		items = anySlice(x)
	default:
		return nil, false
	}

	out, err := normalizeList(items)

	return out, err == nil
}

func anySlice[T any](in []T) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}

	return out
}

func toCollection(v any) (*Map, bool) {
	out := NewMap()

	switch x := v.(type) {
	case *Map:
		if x == nil {
			return nil, false
		}

		var err error

		x.Range(func(k string, item any) bool {
			var n any
			if n, err = normalize(item); err != nil {
				return false
			}

			out.Set(k, n)

			return true
		})

		return out, err == nil
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			n, err := normalize(x[k])
			if err != nil {
				return nil, false
			}

			out.Set(k, n)
		}

		return out, true
	case nil, bool, string, json.Number, []any, time.Time:
		return nil, false
	default:
		// other map-like values, e.g. map[string]string
		raw, err := json.Marshal(v)
		if err != nil || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
			return nil, false
		}

		if err := out.UnmarshalJSON(raw); err != nil {
			return nil, false
		}

		return out, true
	}
}

func toObject(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case nil, bool, string, json.Number, []any, time.Time:
		return nil, false
	case map[string]any:
		out, err := normalizeObject(x)
		return out, err == nil
	case *Map:
		if x == nil {
			return nil, false
		}

		out, err := normalizeObject(x.ToMap())

		return out, err == nil
	default:
		// structured records: anything whose JSON form is an object
		raw, err := json.Marshal(v)
		if err != nil || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
			return nil, false
		}

		decoded, err := decodeAny(raw)
		if err != nil {
			return nil, false
		}

		obj, ok := decoded.(map[string]any)

		return obj, ok
	}
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, !x.IsZero()
	case string:
		if x == "" {
			return time.Time{}, false
		}

		if tm, err := time.Parse(time.RFC3339Nano, x); err == nil {
			return tm, true
		}

		tm, err := cast.StringToDate(x)

		return tm, err == nil
	default:
		return time.Time{}, false
	}
}

// normalize rewrites nested content into plain JSON shaped values so that
// equal inputs always produce equal encodings.
func normalize(v any) (any, error) {
	switch x := v.(type) {
	case nil, bool, string, float64, int64:
		return x, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}

		f, err := x.Float64()
		if err != nil {
			return nil, err //nolint:wrapcheck
		}

		return f, nil
	case float32:
		return float64(x), nil
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano), nil
	case Value:
		return normalize(x.Interface())
	case []any:
		return normalizeList(x)
	case map[string]any:
		return normalizeObject(x)
	case *Map:
		if x == nil {
			return nil, nil
		}

		return normalizeObject(x.ToMap())
	}

	if i, ok := toInt(v); ok {
		return i, nil
	}

	if list, ok := toList(v); ok {
		return list, nil
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}

	return decodeAny(raw)
}

func normalizeList(in []any) ([]any, error) {
	out := make([]any, len(in))

	for i, item := range in {
		n, err := normalize(item)
		if err != nil {
			return nil, err
		}

		out[i] = n
	}

	return out, nil
}

func normalizeObject(in map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(in))

	for k, item := range in {
		n, err := normalize(item)
		if err != nil {
			return nil, err
		}

		out[k] = n
	}

	return out, nil
}

func decodeAny(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err //nolint:wrapcheck
	}

	return normalize(out)
}
