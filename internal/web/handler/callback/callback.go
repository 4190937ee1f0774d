// Package callback implements the two redirect endpoints the identity
// provider sends the browser back to. Both run the same exchange pipeline
// and differ only in how the one-time login artifacts are validated.
package callback

import (
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/servicefinder/auth-gateway/internal/auth"
	"github.com/servicefinder/auth-gateway/internal/config"
	"github.com/servicefinder/auth-gateway/internal/session"
	"github.com/servicefinder/auth-gateway/internal/web/handler"
	"github.com/servicefinder/auth-gateway/internal/web/handler/dashboard"
)

const (
	// CookiePath is the redirect endpoint validated against one-time cookies.
	CookiePath = "/auth/callback"
	// StorePath is the redirect endpoint validated against the session store.
	StorePath = "/api/auth/callback"
)

// Service is the callback handler service.
type Service struct {
	cfg      *config.Config
	orch     *auth.Orchestrator
	sessions *session.Manager
}

// Handler is the callback handler.
var Handler = Service{}

// Init initializes the callback handler. Both endpoints are always
// registered; SessionMode only selects which one login points the
// identity provider at.
func (s *Service) Init(app *fiber.App, cfg *config.Config, orch *auth.Orchestrator, sessions *session.Manager) {
	if app == nil || cfg == nil {
		log.Fatal().Msg(handler.ErrNilACFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.orch = orch
	s.sessions = sessions

	app.Get(CookiePath, s.GetCookie)
	app.Get(StorePath, s.GetStore)
}

func (s *Service) callbackRequest(c *fiber.Ctx) *auth.CallbackRequest {
	req := &auth.CallbackRequest{
		Code:  c.Query("code"),
		State: c.Query("state"),
		URL:   s.cfg.Auth.OIDC.RedirectURI,
	}

	req.Cookies.State = c.Cookies(handler.CookieState)
	req.Cookies.Nonce = c.Cookies(handler.CookieNonce)
	req.Cookies.CodeVerifier = c.Cookies(handler.CookieCodeVerifier)

	return req
}

// GetCookie handles the cookie-validated redirect. Validation failures map
// to plain 400 responses and everything else to an opaque 500, so the
// browser never sees provider error detail.
func (s *Service) GetCookie(c *fiber.Ctx) error {
	ctx := c.UserContext()
	req := s.callbackRequest(c)

	res, err := s.orch.Run(ctx, req, auth.CookieValidator{})
	if err != nil {
		callbackOutcomes.WithLabelValues("cookie", "failure").Inc()

		var badReq *auth.BadRequestError
		if errors.As(err, &badReq) {
			return c.Status(fiber.StatusBadRequest).SendString(badReq.Reason)
		}

		return c.Status(fiber.StatusInternalServerError).SendString("Authentication failed")
	}

	handler.ClearCookie(c, handler.CookieState, s.cfg.DevMode)
	handler.ClearCookie(c, handler.CookieNonce, s.cfg.DevMode)
	handler.ClearCookie(c, handler.CookieCodeVerifier, s.cfg.DevMode)

	s.setUserInfoCookie(c, res.Claims)

	callbackOutcomes.WithLabelValues("cookie", "success").Inc()

	return c.Redirect(dashboard.Path)
}

// GetStore handles the store-validated redirect. Failures bubble to the
// top-level error handler as an opaque 500.
func (s *Service) GetStore(c *fiber.Ctx) error {
	ctx := c.UserContext()
	req := s.callbackRequest(c)

	// The sealed cookie is only resolved once the callback carries both
	// parameters, so malformed callbacks fail on the parameters first.
	if req.Code != "" && req.State != "" {
		if sealed := c.Cookies(session.CookieName); sealed != "" {
			payload, errOpen := s.sessions.OpenCookie(ctx, sealed)

			switch {
			case errOpen == nil:
				req.Cookies.SessionID = payload.SessionID
				req.Cookies.SessionState = payload.State
			case errors.Is(errOpen, session.ErrCookieInvalid):
				log.Warn().Err(errOpen).Msg("discarding unreadable session cookie")
			default:
				callbackOutcomes.WithLabelValues("store", "failure").Inc()
				return errOpen
			}
		}
	}

	// the store variant keeps user details server side only; no user_info
	// cookie is issued
	if _, err := s.orch.Run(ctx, req, &auth.StoreValidator{Sessions: s.sessions}); err != nil {
		callbackOutcomes.WithLabelValues("store", "failure").Inc()
		return err
	}

	callbackOutcomes.WithLabelValues("store", "success").Inc()

	return c.Redirect(dashboard.Path)
}

func (s *Service) setUserInfoCookie(c *fiber.Ctx, claims map[string]interface{}) {
	info := map[string]interface{}{
		"sub":         claims["sub"],
		"name":        claims["name"],
		"email":       claims["email"],
		"given_name":  claims["given_name"],
		"family_name": claims["family_name"],
	}

	raw, err := json.Marshal(info)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode user info cookie")
		return
	}

	handler.SetCookie(
		c,
		handler.CookieUserInfo,
		base64.StdEncoding.EncodeToString(raw),
		handler.UserInfoCookieMaxAge,
		s.cfg.DevMode,
	)
}
