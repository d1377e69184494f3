package settings

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"

	"github.com/go-playground/validator/v10"
	pkgerrors "github.com/pkg/errors"

	"github.com/GoPowerDNS-Admin/go-settings/internal/scope"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

// ErrInvalidRecord is returned when a structured setting fails its struct
// validation tags.
var ErrInvalidRecord = errors.New("invalid settings record")

var validate = validator.New(validator.WithRequiredStructEnabled())

func check(v any) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	if rv.Kind() != reflect.Struct {
		return nil
	}

	if err := validate.Struct(v); err != nil {
		return pkgerrors.Wrap(ErrInvalidRecord, err.Error())
	}

	return nil
}

// Load resolves key and decodes it into dst, typically a struct with json
// and validate tags for an object or collection setting.
func Load(ctx context.Context, r Resolver, key string, sc scope.Scope, dst any) error {
	res, err := r.Get(ctx, key, sc)
	if err != nil {
		return err //nolint:wrapcheck
	}

	raw, err := value.Encode(res.Value)
	if err != nil {
		return value.WithKey(err, key)
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return pkgerrors.Wrapf(ErrTypeMismatch, "setting '%s': %v", key, err)
	}

	return check(dst)
}

// Save validates src and stores it as the value of key.
func Save(ctx context.Context, r Resolver, key string, sc scope.Scope, src any) (Resolved, error) {
	if err := check(src); err != nil {
		return Resolved{}, err
	}

	return r.Set(ctx, key, src, sc) //nolint:wrapcheck
}
