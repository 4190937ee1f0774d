package auth

import (
	"crypto/rsa"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

const clientAssertionType = "urn:ietf:params:oauth:client-assertion-type:jwt-bearer"

// assertionLifetime is how long a client assertion stays valid. Assertions
// are single-use per token request, so this only needs to cover clock skew.
const assertionLifetime = 5 * time.Minute

// assertionSigner builds private_key_jwt client assertions for the token
// endpoint.
type assertionSigner struct {
	key      *rsa.PrivateKey
	clientID string
	tokenURL string
}

// options returns the token-request form values carrying a freshly signed
// client assertion.
func (s *assertionSigner) options() ([]oauth2.AuthCodeOption, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"iss": s.clientID,
		"sub": s.clientID,
		"aud": s.tokenURL,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(assertionLifetime).Unix(),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS512, claims).SignedString(s.key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign client assertion")
	}

	return []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("client_assertion_type", clientAssertionType),
		oauth2.SetAuthURLParam("client_assertion", assertion),
	}, nil
}
