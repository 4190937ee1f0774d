package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/servicefinder/auth-gateway/internal/config"
)

// Provider is the configuration provider for the external identity
// provider. Discovery runs at most once per process: the mutex is held
// across the metadata fetch and key import, so every caller arriving
// before completion observes the same in-flight result. Failed discovery
// is not cached and is retried on the next call.
type Provider struct {
	cfg *config.OIDCAuth

	mu    sync.Mutex
	state *providerState
}

// providerState is the cached result of discovery.
type providerState struct {
	provider *oidc.Provider
	verifier *oidc.IDTokenVerifier
	oauth2   oauth2.Config
	signer   *assertionSigner
}

// New creates a Provider. No network access happens until first use.
func New(cfg *config.OIDCAuth) *Provider {
	return &Provider{cfg: cfg}
}

// Reset drops the cached discovery result. Used by tests.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = nil
}

// load returns the cached provider state, performing discovery on first use.
func (p *Provider) load(ctx context.Context) (*providerState, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != nil {
		return p.state, nil
	}

	if p.cfg.IssuerURL == "" {
		return nil, &ConfigurationError{Setting: "auth.oidc.issuerUrl"}
	}

	if p.cfg.ClientID == "" {
		return nil, &ConfigurationError{Setting: "auth.oidc.clientId"}
	}

	provider, err := oidc.NewProvider(ctx, p.cfg.IssuerURL)
	if err != nil {
		return nil, &DiscoveryError{Err: err}
	}

	verifier := provider.Verifier(&oidc.Config{
		ClientID: p.cfg.ClientID,
	})

	state := &providerState{
		provider: provider,
		verifier: verifier,
		oauth2: oauth2.Config{
			ClientID:     p.cfg.ClientID,
			ClientSecret: p.cfg.ClientSecret,
			RedirectURL:  p.cfg.RedirectURI,
			Endpoint:     provider.Endpoint(),
			Scopes:       strings.Fields(p.cfg.Scope),
		},
	}

	// bind private_key_jwt when a signing key is configured
	if p.cfg.PrivateKeyPEM != "" {
		key, errKey := parsePrivateKey(p.cfg.PrivateKeyPEM)
		if errKey != nil {
			return nil, &DiscoveryError{Err: errKey}
		}

		state.signer = &assertionSigner{
			key:      key,
			clientID: p.cfg.ClientID,
			tokenURL: provider.Endpoint().TokenURL,
		}
	}

	p.state = state

	log.Info().
		Str("issuer", p.cfg.IssuerURL).
		Bool("private_key_jwt", state.signer != nil).
		Msg("identity provider discovery completed")

	return p.state, nil
}

// parsePrivateKey imports a PKCS#8 RSA key from PEM, or from bare base64
// DER when the PEM armour was already stripped.
func parsePrivateKey(material string) (*rsa.PrivateKey, error) {
	var der []byte

	if block, _ := pem.Decode([]byte(material)); block != nil {
		der = block.Bytes
	} else {
		compact := strings.Join(strings.Fields(material), "")

		decoded, err := base64.StdEncoding.DecodeString(compact)
		if err != nil {
			return nil, errors.Wrap(err, "failed to decode private key material")
		}

		der = decoded
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse PKCS#8 private key")
	}

	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not an RSA key")
	}

	return key, nil
}
