// Package jwks serves the identity provider public key set so downstream
// services can verify tokens without their own secret store access.
package jwks

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/servicefinder/auth-gateway/internal/config"
	"github.com/servicefinder/auth-gateway/internal/session"
	"github.com/servicefinder/auth-gateway/internal/web/handler"
)

// Path is the path to retrieve the JWKS document.
const Path = "/api/jwks"

// Service is the jwks handler service.
type Service struct {
	cfg     *config.Config
	secrets session.SecretSource
}

// Handler is the jwks handler.
var Handler = Service{}

// Init initializes the jwks handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, secrets session.SecretSource) {
	if app == nil || cfg == nil {
		log.Fatal().Msg(handler.ErrNilACFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.secrets = secrets

	app.Get(Path, s.Get)
}

// Get returns the stored key set verbatim. The secret value is already a
// JSON document, so it is passed through byte for byte.
func (s *Service) Get(c *fiber.Ctx) error {
	key, err := s.secrets.Get(c.UserContext(), s.cfg.Secrets.PublicKeySecretName)
	if err != nil {
		log.Error().Err(err).Msg("failed to retrieve JWKS key material")

		return c.Status(fiber.StatusInternalServerError).
			JSON(fiber.Map{"message": "Error retrieving JWKS"})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	return c.SendString(key)
}
