// Package login implements the login initiation endpoint: it builds the
// outbound authorization request, persists the one-time artifacts and
// redirects the browser to the identity provider.
package login

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/servicefinder/auth-gateway/internal/auth"
	"github.com/servicefinder/auth-gateway/internal/config"
	"github.com/servicefinder/auth-gateway/internal/session"
	"github.com/servicefinder/auth-gateway/internal/web/handler"
)

// Path is the path to initiate login.
const Path = "/auth/login"

// Service is the login handler service.
type Service struct {
	cfg      *config.Config
	provider *auth.Provider
	sessions *session.Manager
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, provider *auth.Provider, sessions *session.Manager) {
	if app == nil || cfg == nil {
		log.Fatal().Msg(handler.ErrNilACFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.provider = provider
	s.sessions = sessions

	app.Get(Path, s.Get)
}

// Get initiates the login flow. The authorization artifacts are persisted
// before the redirect: always in the one-time cookies, and additionally as
// a session record with a sealed cookie in store mode.
func (s *Service) Get(c *fiber.Ctx) error {
	ctx := c.UserContext()

	authReq, err := s.provider.BuildAuthorizationRequest(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to build authorization request")
		return err
	}

	handler.SetCookie(c, handler.CookieState, authReq.State, handler.OneTimeCookieMaxAge, s.cfg.DevMode)
	handler.SetCookie(c, handler.CookieNonce, authReq.Nonce, handler.OneTimeCookieMaxAge, s.cfg.DevMode)
	handler.SetCookie(c, handler.CookieCodeVerifier, authReq.CodeVerifier, handler.OneTimeCookieMaxAge, s.cfg.DevMode)

	if s.cfg.Auth.SessionMode == config.SessionModeStore {
		rec, errCreate := s.sessions.Create(ctx, authReq.State)
		if errCreate != nil {
			log.Error().Err(errCreate).Msg("failed to create session record")
			return errCreate
		}

		sealed, errSeal := s.sessions.SealCookie(ctx, &session.CookiePayload{
			SessionID: rec.SessionID,
			State:     rec.State,
		})
		if errSeal != nil {
			log.Error().Err(errSeal).Msg("failed to seal session cookie")
			return errSeal
		}

		handler.SetCookie(c, session.CookieName, sealed, int(s.sessions.TTL().Seconds()), s.cfg.DevMode)
	}

	log.Info().Str("redirect_uri", s.cfg.Auth.OIDC.RedirectURI).Msg("authorization URL generated")

	return c.Redirect(authReq.URL)
}
