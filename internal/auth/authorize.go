package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/oauth2"
)

// maxAge bounds how old a provider-side authentication may be before the
// user must re-authenticate.
const maxAge = "300"

// AuthorizationRequest carries the outbound redirect URL and the one-time
// artifacts the caller must persist (cookie or session store) before
// redirecting the browser.
type AuthorizationRequest struct {
	URL          string
	State        string
	Nonce        string
	CodeVerifier string
}

// GenerateStateToken generates a random state token for CSRF protection.
func GenerateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// BuildAuthorizationRequest builds the provider authorization URL together
// with fresh state, nonce and PKCE verifier. It has no side effects; the
// caller owns persistence of the returned artifacts.
func (p *Provider) BuildAuthorizationRequest(ctx context.Context) (*AuthorizationRequest, error) {
	state, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	stateToken, err := GenerateStateToken()
	if err != nil {
		return nil, err
	}

	nonce, err := GenerateStateToken()
	if err != nil {
		return nil, err
	}

	verifier := oauth2.GenerateVerifier()

	authURL := state.oauth2.AuthCodeURL(
		stateToken,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("acr_values", p.cfg.ACRValues),
		oauth2.SetAuthURLParam("max_age", maxAge),
	)

	return &AuthorizationRequest{
		URL:          authURL,
		State:        stateToken,
		Nonce:        nonce,
		CodeVerifier: verifier,
	}, nil
}
