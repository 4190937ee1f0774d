package handler

import (
	"github.com/gofiber/fiber/v2"
)

const (
	// CookieState carries the one-time state token across the redirect.
	CookieState = "oidc_state"
	// CookieNonce carries the one-time nonce across the redirect.
	CookieNonce = "oidc_nonce"
	// CookieCodeVerifier carries the PKCE code verifier across the redirect.
	CookieCodeVerifier = "oidc_code_verifier"
	// CookieUserInfo carries minimal user info after a successful login.
	CookieUserInfo = "user_info"

	// OneTimeCookieMaxAge bounds the login round-trip.
	OneTimeCookieMaxAge = 600
	// UserInfoCookieMaxAge bounds the user_info cookie lifetime.
	UserInfoCookieMaxAge = 3600
)

// SetCookie sets an HttpOnly SameSite=Lax cookie. Secure is dropped in dev
// mode so local plain-http setups keep working.
func SetCookie(c *fiber.Ctx, name, value string, maxAge int, devMode bool) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   !devMode,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}

// ClearCookie expires a cookie immediately. A negative MaxAge goes out on
// the wire as Max-Age=0.
func ClearCookie(c *fiber.Ctx, name string, devMode bool) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Secure:   !devMode,
		HTTPOnly: true,
		SameSite: "Lax",
	})
}
