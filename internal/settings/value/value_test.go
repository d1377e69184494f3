package value

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func TestParse(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

	testCases := []struct {
		name          string
		typ           Type
		input         any
		expectedError error
		expected      string
	}{
		{name: "integer from int", typ: TypeInteger, input: 42, expected: "42"},
		{name: "integer from json number", typ: TypeInteger, input: json.Number("7"), expected: "7"},
		{name: "integer rejects float", typ: TypeInteger, input: 4.2, expectedError: ErrTypeMismatch},
		{name: "integer rejects string", typ: TypeInteger, input: "42", expectedError: ErrTypeMismatch},
		{name: "double from float", typ: TypeDouble, input: 1.5, expected: "1.5"},
		{name: "double rejects int", typ: TypeDouble, input: 1, expectedError: ErrTypeMismatch},
		{name: "boolean", typ: TypeBoolean, input: true, expected: "true"},
		{name: "boolean rejects string", typ: TypeBoolean, input: "true", expectedError: ErrTypeMismatch},
		{name: "string", typ: TypeString, input: "hello", expected: "hello"},
		{name: "string rejects nil", typ: TypeString, input: nil, expectedError: ErrTypeMismatch},
		{name: "array from typed slice", typ: TypeArray, input: []string{"a", "b"}, expected: `["a","b"]`},
		{name: "array rejects map", typ: TypeArray, input: map[string]any{}, expectedError: ErrTypeMismatch},
		{name: "collection sorts plain map keys", typ: TypeCollection, input: map[string]any{"b": 1, "a": 2}, expected: `{"a":2,"b":1}`},
		{name: "collection rejects list", typ: TypeCollection, input: []any{1}, expectedError: ErrTypeMismatch},
		{name: "collection from string map", typ: TypeCollection, input: map[string]string{"b": "x", "a": "y"}, expected: `{"a":"y","b":"x"}`},
		{name: "collection from int map", typ: TypeCollection, input: map[string]int{"limit": 3}, expected: `{"limit":3}`},
		{name: "collection rejects string", typ: TypeCollection, input: "{}", expectedError: ErrTypeMismatch},
		{name: "object from struct", typ: TypeObject, input: point{X: 1, Y: 2}, expected: `{"x":1,"y":2}`},
		{name: "object rejects string", typ: TypeObject, input: "x", expectedError: ErrTypeMismatch},
		{name: "datetime from time", typ: TypeDateTime, input: ts, expected: "2024-03-01 10:30:00"},
		{name: "datetime from string", typ: TypeDateTime, input: "2024-03-01T10:30:00Z", expected: "2024-03-01 10:30:00"},
		{name: "datetime rejects garbage", typ: TypeDateTime, input: "not a date", expectedError: ErrTypeMismatch},
		{name: "unknown type", typ: Type("money"), input: 1, expectedError: ErrUnknownType},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Parse(tc.typ, tc.input)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				assert.False(t, Validate(tc.typ, tc.input))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.typ, v.Type())
			assert.Equal(t, tc.expected, v.String())
			assert.True(t, Validate(tc.typ, tc.input))
		})
	}
}

func TestParseValuePassThrough(t *testing.T) {
	v, err := Parse(TypeInteger, Int(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int())

	_, err = Parse(TypeString, Int(3))
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestMismatchMessage(t *testing.T) {
	_, err := Parse(TypeInteger, "abc")
	require.Error(t, err)

	err = WithKey(err, "site.limit")

	var mismatch *TypeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "site.limit", mismatch.Key)
	assert.Equal(t, TypeInteger, mismatch.Declared)
	assert.Equal(t, "string", mismatch.Actual)
	assert.Contains(t, err.Error(), "'integer' for setting 'site.limit'")
}

func TestEncodeDecode(t *testing.T) {
	coll := NewMap()
	coll.Set("z", "last")
	coll.Set("a", int64(1))

	testCases := []struct {
		name    string
		value   Value
		encoded string
	}{
		{name: "integer", value: Int(-12), encoded: "-12"},
		{name: "double", value: Float(2.25), encoded: "2.25"},
		{name: "whole double", value: Float(3), encoded: "3"},
		{name: "boolean", value: Bool(false), encoded: "false"},
		{name: "string", value: Str(`say "hi"`), encoded: `"say \"hi\""`},
		{name: "array", value: MustParse(TypeArray, []any{1, "two", true}), encoded: `[1,"two",true]`},
		{name: "empty array", value: MustParse(TypeArray, []any{}), encoded: `[]`},
		{name: "collection keeps order", value: MustParse(TypeCollection, coll), encoded: `{"z":"last","a":1}`},
		{name: "object", value: MustParse(TypeObject, map[string]any{"k": []any{1.5}}), encoded: `{"k":[1.5]}`},
		{
			name:    "datetime",
			value:   Time(time.Date(2023, 12, 31, 23, 0, 0, 0, time.FixedZone("X", 3600))),
			encoded: `"2023-12-31T22:00:00Z"`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := Encode(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.encoded, string(raw))

			decoded, err := Decode(tc.value.Type(), raw)
			require.NoError(t, err)
			assert.True(t, Equal(tc.value, decoded), "decoded %s", decoded)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode(TypeInteger, []byte("{not json"))
	require.ErrorIs(t, err, ErrMalformed)

	_, err = Decode(TypeInteger, []byte(`"12"`))
	require.ErrorIs(t, err, ErrTypeMismatch)

	_, err = Decode(Type("nope"), []byte(`1`))
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Int(1), Int(1)))
	assert.False(t, Equal(Int(1), Float(1)))
	assert.False(t, Equal(Str("a"), Str("b")))
	assert.True(t, Equal(
		MustParse(TypeObject, map[string]any{"a": 1, "b": 2}),
		MustParse(TypeObject, map[string]any{"b": 2, "a": 1}),
	))
	assert.False(t, Equal(Value{}, Value{typ: Type("bogus")}))

	declared := NewMap()
	declared.Set("zeta", 1)
	declared.Set("alpha", 2)

	reordered := NewMap()
	reordered.Set("alpha", 2)
	reordered.Set("zeta", 1)

	testCases := []struct {
		name     string
		other    Value
		expected bool
	}{
		{name: "same order", other: Collection(declared), expected: true},
		{name: "reordered map", other: Collection(reordered), expected: true},
		{name: "plain map", other: MustParse(TypeCollection, map[string]any{"zeta": 1, "alpha": 2}), expected: true},
		{name: "typed map", other: MustParse(TypeCollection, map[string]int{"alpha": 2, "zeta": 1}), expected: true},
		{name: "different value", other: MustParse(TypeCollection, map[string]any{"zeta": 1, "alpha": 3}), expected: false},
		{name: "missing entry", other: MustParse(TypeCollection, map[string]any{"zeta": 1}), expected: false},
		{name: "object with same entries", other: MustParse(TypeObject, map[string]any{"zeta": 1, "alpha": 2}), expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Equal(Collection(declared), tc.other))
			assert.Equal(t, tc.expected, Equal(tc.other, Collection(declared)))
		})
	}

	stored := Collection(reordered)
	assert.Equal(t, []string{"alpha", "zeta"}, stored.Collection().Keys(), "order is kept for storage")
}

func TestCoerce(t *testing.T) {
	testCases := []struct {
		name          string
		typ           Type
		input         string
		expected      string
		expectedError error
	}{
		{name: "integer", typ: TypeInteger, input: "15", expected: "15"},
		{name: "bad integer", typ: TypeInteger, input: "fifteen", expectedError: ErrTypeMismatch},
		{name: "double", typ: TypeDouble, input: "0.5", expected: "0.5"},
		{name: "boolean", typ: TypeBoolean, input: "true", expected: "true"},
		{name: "bad boolean", typ: TypeBoolean, input: "maybe", expectedError: ErrTypeMismatch},
		{name: "string keeps text", typ: TypeString, input: " 12 ", expected: " 12 "},
		{name: "array json", typ: TypeArray, input: `["x"]`, expected: `["x"]`},
		{name: "object json", typ: TypeObject, input: `{"a":true}`, expected: `{"a":true}`},
		{name: "bad json", typ: TypeObject, input: `{`, expectedError: ErrMalformed},
		{name: "datetime", typ: TypeDateTime, input: "2024-01-02T03:04:05Z", expected: "2024-01-02 03:04:05"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v, err := Coerce(tc.typ, tc.input)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, v.String())
		})
	}
}

func TestTruncate(t *testing.T) {
	long := "abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz"

	assert.Equal(t, "short", Truncate("short", 50))
	assert.Len(t, []rune(Truncate(long, 50)), 50)
	assert.Equal(t, long[:47]+"...", Truncate(long, 50))
}

func TestMapJSONOrder(t *testing.T) {
	m := NewMap()
	require.NoError(t, json.Unmarshal([]byte(`{"b":1,"a":{"c":2.5},"c":[1]}`), m))
	assert.Equal(t, []string{"b", "a", "c"}, m.Keys())

	v, ok := m.Get("b")
	require.True(t, ok)
	assert.Equal(t, int64(1), v)

	raw, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"b":1,"a":{"c":2.5},"c":[1]}`, string(raw))
	assert.Equal(t, `{"b":1,"a":{"c":2.5},"c":[1]}`, string(raw))

	require.Error(t, json.Unmarshal([]byte(`[1]`), m))
}
