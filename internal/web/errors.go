package web

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler is the top-level fiber error handler. Full diagnostic
// context has already been logged where the error arose; clients only ever
// see a generic response, never provider error text, stack traces or
// secret material.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).SendString(fiberErr.Message)
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("request failed")

	return c.Status(fiber.StatusInternalServerError).
		JSON(fiber.Map{"message": "Internal Server Error"})
}
