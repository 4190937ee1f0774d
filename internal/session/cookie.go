package session

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/gofiber/fiber/v2/middleware/encryptcookie"
	"github.com/pkg/errors"
)

// CookieName is the browser cookie carrying the sealed session payload.
const CookieName = "dos_session"

// CookiePayload is the content sealed into the session cookie. The state
// copy lets the callback cross-check against the stored record.
type CookiePayload struct {
	SessionID string `json:"sessionID"`
	State     string `json:"state"`
}

// sealingKey derives the AES key for cookie sealing from the session
// secret. encryptcookie wants a base64 encoded 32 byte key, so the secret
// of arbitrary length is hashed first. The key is cached on the manager;
// the mutex is held across the secret fetch so concurrent first callers
// share one in-flight lookup, and a failed fetch is retried next call.
func (m *Manager) sealingKey(ctx context.Context) (string, error) {
	m.cookieKey.mu.Lock()
	defer m.cookieKey.mu.Unlock()

	if m.cookieKey.key != "" {
		return m.cookieKey.key, nil
	}

	secret, err := m.secrets.Get(ctx, m.secretName)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256([]byte(secret))
	m.cookieKey.key = base64.StdEncoding.EncodeToString(sum[:])

	return m.cookieKey.key, nil
}

// SealCookie encrypts the payload into a cookie value.
func (m *Manager) SealCookie(ctx context.Context, payload *CookiePayload) (string, error) {
	key, err := m.sealingKey(ctx)
	if err != nil {
		return "", err
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal session cookie payload")
	}

	sealed, err := encryptcookie.EncryptCookie(string(raw), key)
	if err != nil {
		return "", errors.Wrap(err, "failed to seal session cookie")
	}

	return sealed, nil
}

// OpenCookie decrypts a sealed cookie value back into its payload.
// Tampered or garbage values return ErrCookieInvalid.
func (m *Manager) OpenCookie(ctx context.Context, value string) (*CookiePayload, error) {
	key, err := m.sealingKey(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := encryptcookie.DecryptCookie(value, key)
	if err != nil {
		return nil, ErrCookieInvalid
	}

	var payload CookiePayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, ErrCookieInvalid
	}

	if payload.SessionID == "" {
		return nil, ErrCookieInvalid
	}

	return &payload, nil
}
