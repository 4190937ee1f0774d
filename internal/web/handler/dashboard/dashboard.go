// Package dashboard implements the post-login landing endpoint.
package dashboard

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/servicefinder/auth-gateway/internal/config"
	"github.com/servicefinder/auth-gateway/internal/web/handler"
)

// Path is the path the successful callbacks redirect to.
const Path = "/dashboard"

// Service is the dashboard handler service.
type Service struct {
	cfg *config.Config
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config) {
	if app == nil || cfg == nil {
		log.Fatal().Msg(handler.ErrNilACFatalLogMsg)
		return
	}

	s.cfg = cfg

	app.Get(Path, s.Get)
}

// Get serves the landing page.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"title": s.cfg.Title})
}
