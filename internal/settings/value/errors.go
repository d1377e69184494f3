package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTypeMismatch is matched by every TypeMismatchError.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrUnknownType is returned for type names outside the supported set.
	ErrUnknownType = errors.New("unknown setting type")
)

// TypeMismatchError reports a value that does not match the declared type.
type TypeMismatchError struct {
	Key      string
	Declared Type
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("declared type '%s' does not match the actual value type ('%s')", e.Declared, e.Actual)
	}

	return fmt.Sprintf(
		"declared type '%s' for setting '%s' does not match the actual value type ('%s')",
		e.Declared, e.Key, e.Actual,
	)
}

// Is makes errors.Is(err, ErrTypeMismatch) hold for every mismatch.
func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch //nolint:errorlint // sentinel comparison
}

// WithKey attaches the setting key to a mismatch error. Other errors are
// returned unchanged.
func WithKey(err error, key string) error {
	var mismatch *TypeMismatchError
	if errors.As(err, &mismatch) && mismatch.Key == "" {
		return &TypeMismatchError{Key: key, Declared: mismatch.Declared, Actual: mismatch.Actual}
	}

	return err
}

func mismatch(t Type, v any) error {
	return &TypeMismatchError{Declared: t, Actual: kindOf(v)}
}

// kindOf names the observed type of v using the setting type vocabulary
// where one applies.
func kindOf(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case Value:
		return string(x.typ)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return string(TypeInteger)
	case float32, float64:
		return string(TypeDouble)
	case json.Number:
		return "number"
	case bool:
		return string(TypeBoolean)
	case string:
		return string(TypeString)
	case []any:
		return string(TypeArray)
	case *Map:
		return string(TypeCollection)
	case map[string]any:
		return string(TypeObject)
	case time.Time:
		return string(TypeDateTime)
	default:
		return fmt.Sprintf("%T", v)
	}
}
