package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/servicefinder/auth-gateway/internal/config"
)

const testKeyID = "test-key"

// fakeIDP is an in-process identity provider serving discovery, JWKS,
// token and user-info endpoints against a fresh RSA key.
type fakeIDP struct {
	t   *testing.T
	key *rsa.PrivateKey
	srv *httptest.Server

	discoveryHits atomic.Int32
	tokenHits     atomic.Int32

	// subject and nonce feed the default token and user-info responses.
	subject string
	nonce   string

	// tokenHandler, when set, replaces the default token response.
	tokenHandler http.HandlerFunc
	// userInfoClaims, when set, replaces the default user-info response.
	userInfoClaims map[string]interface{}
}

func newFakeIDP(t *testing.T) *fakeIDP {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("failed to generate rsa key: %v", err)
	}

	idp := &fakeIDP{t: t, key: key, subject: "user-1"}

	mux := http.NewServeMux()
	idp.srv = httptest.NewServer(mux)
	t.Cleanup(idp.srv.Close)

	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		idp.discoveryHits.Add(1)
		writeJSON(t, w, map[string]interface{}{
			"issuer":                 idp.srv.URL,
			"authorization_endpoint": idp.srv.URL + "/authorize",
			"token_endpoint":         idp.srv.URL + "/token",
			"userinfo_endpoint":      idp.srv.URL + "/userinfo",
			"jwks_uri":               idp.srv.URL + "/keys",
		})
	})

	mux.HandleFunc("/keys", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, map[string]interface{}{
			"keys": []map[string]interface{}{{
				"kty": "RSA",
				"use": "sig",
				"alg": "RS256",
				"kid": testKeyID,
				"n":   base64.RawURLEncoding.EncodeToString(idp.key.N.Bytes()),
				"e":   "AQAB",
			}},
		})
	})

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		idp.tokenHits.Add(1)

		if idp.tokenHandler != nil {
			idp.tokenHandler(w, r)
			return
		}

		writeJSON(t, w, map[string]interface{}{
			"access_token": "at-123",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"id_token":     idp.mintIDToken(idp.subject, idp.nonce),
		})
	})

	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, _ *http.Request) {
		claims := idp.userInfoClaims
		if claims == nil {
			claims = map[string]interface{}{
				"sub":  idp.subject,
				"name": "Jane Doe",
			}
		}

		writeJSON(t, w, claims)
	})

	return idp
}

func (idp *fakeIDP) mintIDToken(subject, nonce string) string {
	idp.t.Helper()

	claims := jwt.MapClaims{
		"iss": idp.srv.URL,
		"aud": "test-client",
		"sub": subject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}

	if nonce != "" {
		claims["nonce"] = nonce
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID

	signed, err := token.SignedString(idp.key)
	if err != nil {
		idp.t.Fatalf("failed to sign id token: %v", err)
	}

	return signed
}

func (idp *fakeIDP) oidcConfig() *config.OIDCAuth {
	return &config.OIDCAuth{
		IssuerURL:    idp.srv.URL,
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		RedirectURI:  "http://localhost:8000/auth/callback",
		Scope:        "openid profile email",
		ACRValues:    "AAL2_OR_AAL3_ANY",
		ProviderName: "cis2",
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}
