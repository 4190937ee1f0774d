package login

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/servicefinder/auth-gateway/internal/auth"
	"github.com/servicefinder/auth-gateway/internal/config"
	"github.com/servicefinder/auth-gateway/internal/session"
	"github.com/servicefinder/auth-gateway/internal/web/handler"
)

type fakeSource map[string]string

func (f fakeSource) Get(_ context.Context, name string) (string, error) {
	v, ok := f[name]
	if !ok {
		return "", errors.New("unknown secret " + name)
	}

	return v, nil
}

// newDiscoveryServer serves provider metadata only; login never needs the
// token or user-info endpoints.
func newDiscoveryServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		_ = json.NewEncoder(w).Encode(map[string]string{
			"issuer":                 srv.URL,
			"authorization_endpoint": srv.URL + "/authorize",
			"token_endpoint":         srv.URL + "/token",
			"userinfo_endpoint":      srv.URL + "/userinfo",
			"jwks_uri":               srv.URL + "/keys",
		})
	})

	return srv
}

func newTestConfig(issuer string) *config.Config {
	return &config.Config{
		Webserver: config.Webserver{
			URL:     "http://localhost:8000",
			Port:    8000,
			Session: config.Session{ExpiryTime: time.Hour},
		},
		Auth: config.Auth{
			SessionMode: config.SessionModeCookie,
			OIDC: config.OIDCAuth{
				IssuerURL:    issuer,
				ClientID:     "test-client",
				ClientSecret: "test-secret",
				RedirectURI:  "http://localhost:8000/auth/callback",
				Scope:        "openid profile email",
				ACRValues:    "AAL2_OR_AAL3_ANY",
				ProviderName: "cis2",
			},
		},
		Secrets: config.Secrets{
			SessionSecretName:   "session-secret",
			PublicKeySecretName: "jwks-secret",
		},
	}
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite in-memory db: %v", err)
	}

	if err := db.AutoMigrate(&session.Record{}); err != nil {
		t.Fatalf("failed to migrate session model: %v", err)
	}

	return db
}

func performGet(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, Path, nil), -1)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}

	return resp
}

func findCookie(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()

	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}

	t.Fatalf("cookie %s not set, got %v", name, resp.Cookies())

	return nil
}

func TestGetCookieMode(t *testing.T) {
	srv := newDiscoveryServer(t)
	cfg := newTestConfig(srv.URL)
	app := fiber.New()

	var s Service
	s.Init(app, cfg, auth.New(&cfg.Auth.OIDC), nil)

	resp := performGet(t, app)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	loc, err := url.Parse(resp.Header.Get("Location"))
	if err != nil {
		t.Fatalf("redirect location does not parse: %v", err)
	}

	q := loc.Query()

	state := findCookie(t, resp, handler.CookieState)
	nonce := findCookie(t, resp, handler.CookieNonce)
	verifier := findCookie(t, resp, handler.CookieCodeVerifier)

	// the redirect must carry exactly the artifacts persisted in cookies
	if q.Get("state") != state.Value {
		t.Errorf("redirect state %q != cookie state %q", q.Get("state"), state.Value)
	}

	if q.Get("nonce") != nonce.Value {
		t.Errorf("redirect nonce %q != cookie nonce %q", q.Get("nonce"), nonce.Value)
	}

	sum := sha256.Sum256([]byte(verifier.Value))
	if q.Get("code_challenge") != base64.RawURLEncoding.EncodeToString(sum[:]) {
		t.Error("code_challenge does not match verifier cookie")
	}

	for _, c := range []*http.Cookie{state, nonce, verifier} {
		if c.MaxAge != handler.OneTimeCookieMaxAge {
			t.Errorf("cookie %s MaxAge = %d, want %d", c.Name, c.MaxAge, handler.OneTimeCookieMaxAge)
		}

		if !c.HttpOnly || !c.Secure {
			t.Errorf("cookie %s must be HttpOnly and Secure, got %+v", c.Name, c)
		}
	}

	// no session cookie in cookie mode
	for _, c := range resp.Cookies() {
		if c.Name == session.CookieName {
			t.Fatal("cookie mode must not set a session cookie")
		}
	}
}

func TestGetStoreMode(t *testing.T) {
	srv := newDiscoveryServer(t)
	cfg := newTestConfig(srv.URL)
	cfg.Auth.SessionMode = config.SessionModeStore

	db := newTestDB(t)
	src := fakeSource{"session-secret": "s3cr3t"}
	sessions := session.NewManager(db, cfg.Webserver.Session.ExpiryTime, src, cfg.Secrets.SessionSecretName)

	app := fiber.New()

	var s Service
	s.Init(app, cfg, auth.New(&cfg.Auth.OIDC), sessions)

	resp := performGet(t, app)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302 Found, got %d", resp.StatusCode)
	}

	sealed := findCookie(t, resp, session.CookieName)
	state := findCookie(t, resp, handler.CookieState)

	if sealed.MaxAge != int(time.Hour.Seconds()) {
		t.Errorf("session cookie MaxAge = %d, want %d", sealed.MaxAge, int(time.Hour.Seconds()))
	}

	payload, err := sessions.OpenCookie(context.Background(), sealed.Value)
	if err != nil {
		t.Fatalf("session cookie does not open: %v", err)
	}

	rec, err := sessions.Get(context.Background(), payload.SessionID)
	if err != nil {
		t.Fatalf("session record not found: %v", err)
	}

	// record, cookie payload and one-time cookie must agree on the state
	if rec.State != payload.State || rec.State != state.Value {
		t.Fatalf("state mismatch: record %q, payload %q, cookie %q", rec.State, payload.State, state.Value)
	}
}

func TestGetDevModeDisablesSecure(t *testing.T) {
	srv := newDiscoveryServer(t)
	cfg := newTestConfig(srv.URL)
	cfg.DevMode = true

	app := fiber.New()

	var s Service
	s.Init(app, cfg, auth.New(&cfg.Auth.OIDC), nil)

	resp := performGet(t, app)

	defer func() {
		_ = resp.Body.Close()
	}()

	if c := findCookie(t, resp, handler.CookieState); c.Secure {
		t.Fatal("did not expect Secure flag when DevMode=true")
	}
}

func TestGetDiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := newTestConfig(srv.URL)
	app := fiber.New()

	var s Service
	s.Init(app, cfg, auth.New(&cfg.Auth.OIDC), nil)

	resp := performGet(t, app)

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}
}
