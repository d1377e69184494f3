package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/GoPowerDNS-Admin/go-settings/internal/settings"
	"github.com/GoPowerDNS-Admin/go-settings/internal/settings/value"
)

// ErrBadBody is returned for request bodies that cannot be decoded.
var ErrBadBody = errors.New("invalid request body")

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	var fe *fiber.Error

	switch {
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, settings.ErrScopeNotFound), errors.Is(err, settings.ErrSettingNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, settings.ErrUnsupportedScope), errors.Is(err, ErrBadBody), errors.Is(err, value.ErrMalformed):
		return fiber.StatusBadRequest
	case errors.Is(err, settings.ErrTypeMismatch):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders errors as ErrorResponse. Server errors are logged,
// their details are not sent to the client.
func ErrorHandler(c fiber.Ctx, err error) error {
	code := Status(err)
	msg := err.Error()

	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("URI", c.OriginalURL()).Msg("request failed")
		msg = fiber.ErrInternalServerError.Message
	}

	return c.Status(code).JSON(ErrorResponse{Error: msg})
}
