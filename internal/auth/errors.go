// Package auth implements the OpenID Connect core of the gateway:
// provider discovery, authorization request building, the callback state
// machine, code exchange, claims mapping and the error taxonomy shared by
// the HTTP layer.
package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// errMissingSubject is the schema violation for an absent sub claim.
var errMissingSubject = errors.New("sub claim is missing or empty")

// ErrNoIDToken is returned when the token response lacks an id_token where
// one is required for nonce verification.
var ErrNoIDToken = errors.New("token response is missing id_token")

// ErrNonceMismatch is returned when the ID token nonce does not match the
// value bound at login initiation.
var ErrNonceMismatch = errors.New("id token nonce mismatch")

// ConfigurationError indicates a required setting is absent or invalid.
// It is fatal: the gateway can not authenticate anyone without it.
type ConfigurationError struct {
	Setting string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("required setting %s is missing", e.Setting)
}

// DiscoveryError indicates provider metadata discovery or signing key
// import failed.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("provider discovery failed: %v", e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// BadRequestError indicates a malformed callback request. User-correctable;
// the reason is safe to show to the client.
type BadRequestError struct {
	Reason string
}

func (e *BadRequestError) Error() string {
	return "bad callback request: " + e.Reason
}

// SessionInvalidError indicates the session backing a callback is missing,
// expired or state-mismatched. An authentication failure, not a defect.
// Final: callers must not retry.
type SessionInvalidError struct {
	Reason string
}

func (e *SessionInvalidError) Error() string {
	return "session invalid: " + e.Reason
}

// SchemaValidationError indicates a token set or mapped profile did not
// match its expected shape.
type SchemaValidationError struct {
	Subject string // "token set" or "user profile" or a claim name
	Err     error
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("%s failed schema validation: %v", e.Subject, e.Err)
}

func (e *SchemaValidationError) Unwrap() error {
	return e.Err
}

// ExchangeError wraps a token-endpoint or user-info failure together with
// the normalized detail bundle used for logging. The original error is
// carried unmodified and reachable through Unwrap.
type ExchangeError struct {
	Err error

	// OAuth error body fields, when the provider sent them.
	OAuthError            string
	OAuthErrorDescription string
	OAuthErrorURI         string

	// HTTP response metadata, when a response was received.
	Status     int
	StatusText string
	Headers    http.Header
	Body       string
}

func (e *ExchangeError) Error() string {
	if e.OAuthError != "" {
		return fmt.Sprintf("token exchange failed: %s: %s", e.OAuthError, e.OAuthErrorDescription)
	}

	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject writes the normalized error-detail bundle, so the
// full provider context lands in the log sink without ad-hoc probing at
// call sites.
func (e *ExchangeError) MarshalZerologObject(ev *zerolog.Event) {
	ev.Str("message", e.Err.Error())
	ev.Str("errorType", fmt.Sprintf("%T", e.Err))

	if e.OAuthError != "" {
		ev.Str("error", e.OAuthError)
	}

	if e.OAuthErrorDescription != "" {
		ev.Str("error_description", e.OAuthErrorDescription)
	}

	if e.OAuthErrorURI != "" {
		ev.Str("error_uri", e.OAuthErrorURI)
	}

	if e.Status != 0 {
		ev.Int("status", e.Status)
		ev.Str("statusText", e.StatusText)
	}

	if len(e.Headers) > 0 {
		headers := zerolog.Dict()
		for k := range e.Headers {
			headers.Str(k, e.Headers.Get(k))
		}

		ev.Dict("headers", headers)
	}

	if e.Body != "" {
		ev.Str("body", e.Body)
	}
}

// newExchangeError builds the tagged bundle from whatever the oauth2 stack
// returned: an OAuth error body, a transport error, or bare HTTP response
// metadata.
func newExchangeError(err error) *ExchangeError {
	exErr := &ExchangeError{Err: err}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		exErr.OAuthError = retrieveErr.ErrorCode
		exErr.OAuthErrorDescription = retrieveErr.ErrorDescription
		exErr.OAuthErrorURI = retrieveErr.ErrorURI
		exErr.Body = string(retrieveErr.Body)

		if retrieveErr.Response != nil {
			exErr.Status = retrieveErr.Response.StatusCode
			exErr.StatusText = http.StatusText(retrieveErr.Response.StatusCode)
			exErr.Headers = retrieveErr.Response.Header
		}
	}

	return exErr
}
