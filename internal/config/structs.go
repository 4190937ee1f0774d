package config

import (
	"time"

	"github.com/servicefinder/auth-gateway/internal/logger"
)

// Session mode selects which callback validation variant the gateway runs
// by default. Both callback routes are always registered; the mode decides
// what /auth/login persists before redirecting.
const (
	// SessionModeCookie carries state/nonce/verifier in one-time cookies.
	SessionModeCookie = "cookie"
	// SessionModeStore persists a server-side session record and carries
	// only a sealed session cookie.
	SessionModeStore = "store"
)

// Session settings.
type Session struct {
	ExpiryTime time.Duration
}

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	DB        DB
	Log       logger.Log
	Title     string
	Webserver Webserver
	Auth      Auth
	Secrets   Secrets
}

// Webserver implement webserver settings.
type Webserver struct {
	Domain       string  // domain name for the webserver
	Port         int     // listening port for the webserver
	ShutDownTime int     // wait time for shutdown
	URL          string  // base url for the webserver
	Session      Session // session settings
}

// Auth groups the authentication settings.
type Auth struct {
	SessionMode string // "cookie" or "store"
	OIDC        OIDCAuth
}

// OIDCAuth holds the OpenID Connect provider settings.
type OIDCAuth struct {
	// IssuerURL is the provider's issuer, used for discovery
	// (e.g. "https://am.nhsidentity.example/openam/oauth2/realms/root").
	IssuerURL string
	// ClientID is the OAuth2 client identifier.
	ClientID string
	// ClientSecret is the OAuth2 client secret (client_secret_post).
	ClientSecret string
	// PrivateKeyPEM is a PKCS#8 RSA private key; when set the gateway
	// authenticates to the token endpoint with private_key_jwt instead
	// of the client secret.
	PrivateKeyPEM string
	// RedirectURI is the registered callback URL.
	RedirectURI string
	// Scope is the space separated scope list.
	Scope string
	// ACRValues requested authentication context class.
	ACRValues string
	// ProviderName keys the token set on the session record.
	ProviderName string
}

// Secrets holds the secret-backend settings.
type Secrets struct {
	Region string // AWS region of the secret backend
	// SessionSecretName is the secret holding the cookie sealing key.
	SessionSecretName string
	// PublicKeySecretName is the secret holding the provider public key
	// material served at /api/jwks.
	PublicKeySecretName string
}
