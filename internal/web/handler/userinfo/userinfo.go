// Package userinfo exposes the decoded user_info cookie to the frontend.
package userinfo

import (
	"encoding/base64"
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/servicefinder/auth-gateway/internal/config"
	"github.com/servicefinder/auth-gateway/internal/web/handler"
)

// Path is the path to retrieve the current user info.
const Path = "/api/user-info"

// Service is the userinfo handler service.
type Service struct {
	cfg *config.Config
}

// Handler is the userinfo handler.
var Handler = Service{}

// Init initializes the userinfo handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config) {
	if app == nil || cfg == nil {
		log.Fatal().Msg(handler.ErrNilACFatalLogMsg)
		return
	}

	s.cfg = cfg

	app.Get(Path, s.Get)
}

// Get decodes the user_info cookie. A missing or unreadable cookie is not
// an error, the endpoint answers 200 with a null userInfo either way.
func (s *Service) Get(c *fiber.Ctx) error {
	value := c.Cookies(handler.CookieUserInfo)
	if value == "" {
		return c.JSON(fiber.Map{"userInfo": nil})
	}

	raw, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		log.Warn().Err(err).Msg("discarding undecodable user info cookie")
		return c.JSON(fiber.Map{"userInfo": nil})
	}

	var info map[string]interface{}
	if err := json.Unmarshal(raw, &info); err != nil {
		log.Warn().Err(err).Msg("discarding unparsable user info cookie")
		return c.JSON(fiber.Map{"userInfo": nil})
	}

	return c.JSON(fiber.Map{"userInfo": info})
}
