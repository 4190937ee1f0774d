// Package logout tears down the local login artifacts: cookies always,
// and the backing session record when one is referenced.
package logout

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/servicefinder/auth-gateway/internal/config"
	"github.com/servicefinder/auth-gateway/internal/session"
	"github.com/servicefinder/auth-gateway/internal/web/handler"
)

// Path is the path to log out.
const Path = "/auth/logout"

// Service is the logout handler service.
type Service struct {
	cfg      *config.Config
	sessions *session.Manager
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, sessions *session.Manager) {
	if app == nil || cfg == nil {
		log.Fatal().Msg(handler.ErrNilACFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.sessions = sessions

	app.Get(Path, s.Get)
}

// Get clears all login cookies and deletes the session record if the
// sealed cookie still resolves to one. Logout succeeds regardless of
// store state.
func (s *Service) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()

	if sealed := c.Cookies(session.CookieName); sealed != "" {
		payload, err := s.sessions.OpenCookie(ctx, sealed)

		if err != nil {
			log.Warn().Err(err).Msg("ignoring unreadable session cookie on logout")
		} else if err := s.sessions.Delete(ctx, payload.SessionID); err != nil {
			log.Error().Err(err).Msg("failed to delete session record on logout")
		}
	}

	handler.ClearCookie(c, handler.CookieState, s.cfg.DevMode)
	handler.ClearCookie(c, handler.CookieNonce, s.cfg.DevMode)
	handler.ClearCookie(c, handler.CookieCodeVerifier, s.cfg.DevMode)
	handler.ClearCookie(c, handler.CookieUserInfo, s.cfg.DevMode)
	handler.ClearCookie(c, session.CookieName, s.cfg.DevMode)

	return c.Redirect(handler.RootPath)
}
