package auth

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/servicefinder/auth-gateway/internal/session"
)

// CallbackRequest is the inbound callback request reduced to what the
// state machine needs: query parameters plus the cookies of both variants.
type CallbackRequest struct {
	Code  string
	State string
	// URL is the exact callback URL the provider redirected to.
	URL string

	Cookies CallbackCookies
}

// CallbackCookies carries the cookie-sourced inputs. State, Nonce and
// CodeVerifier come from the one-time cookies; SessionID and SessionState
// from the sealed session cookie.
type CallbackCookies struct {
	State        string
	Nonce        string
	CodeVerifier string
	SessionID    string
	SessionState string
}

// CallbackResult is the terminal success state of one callback run.
type CallbackResult struct {
	Profile *session.UserProfile
	Tokens  *session.TokenSet
	Claims  map[string]interface{}
	// Record is the updated session record; nil in the one-time-cookie
	// variant, which persists nothing server side.
	Record *session.Record
}

// CallbackValidator is the variant-specific validation step of the
// callback state machine. It resolves the session context and returns the
// exchange options bound to it. Everything after validation (exchange,
// mapping, persistence) is shared between variants.
type CallbackValidator interface {
	Validate(ctx context.Context, req *CallbackRequest) (*ExchangeOptions, *session.Record, error)
}

// CookieValidator validates the one-time-cookie (PKCE) variant: the
// request state must match the state cookie and a code verifier must be
// present. No server-side session is involved.
type CookieValidator struct{}

// Validate implements CallbackValidator.
func (CookieValidator) Validate(_ context.Context, req *CallbackRequest) (*ExchangeOptions, *session.Record, error) {
	if req.State != req.Cookies.State {
		return nil, nil, &BadRequestError{Reason: "Invalid state parameter"}
	}

	if req.Cookies.CodeVerifier == "" {
		return nil, nil, &BadRequestError{Reason: "Missing code verifier"}
	}

	return &ExchangeOptions{
		CallbackURL:   req.URL,
		ExpectedState: req.Cookies.State,
		ExpectedNonce: req.Cookies.Nonce,
		PKCEVerifier:  req.Cookies.CodeVerifier,
	}, nil, nil
}

// StoreValidator validates the store-backed variant: the sealed cookie
// must resolve to a live session record whose state matches the request
// state or the cookie state.
type StoreValidator struct {
	Sessions *session.Manager
}

// Validate implements CallbackValidator.
func (v *StoreValidator) Validate(ctx context.Context, req *CallbackRequest) (*ExchangeOptions, *session.Record, error) {
	if req.Cookies.SessionID == "" {
		return nil, nil, &SessionInvalidError{Reason: "No session ID found in cookie"}
	}

	rec, err := v.Sessions.Get(ctx, req.Cookies.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			return nil, nil, &SessionInvalidError{Reason: "session not found or expired"}
		}

		return nil, nil, err
	}

	// accept a match against either source; parity with the original
	// deployment, see DESIGN.md
	if rec.State != req.State && rec.State != req.Cookies.SessionState {
		return nil, nil, &SessionInvalidError{Reason: "state mismatch"}
	}

	return &ExchangeOptions{
		CallbackURL:   req.URL,
		ExpectedState: req.State,
	}, rec, nil
}

// Orchestrator drives the callback state machine: params validation,
// variant validation, code exchange, user-info fetch, claims mapping and
// session persistence.
type Orchestrator struct {
	Provider *Provider
	Sessions *session.Manager
	// ProviderName keys the token set on the session record.
	ProviderName string
}

// Run executes one callback. Logical rejections (bad params, invalid
// session) and terminal failures (exchange, schema, storage) come back as
// taxonomy errors; exchange failures are logged with the full normalized
// detail bundle before being returned.
func (o *Orchestrator) Run(ctx context.Context, req *CallbackRequest, v CallbackValidator) (*CallbackResult, error) {
	if req.Code == "" || req.State == "" {
		log.Error().Msg("missing code or state in callback")
		return nil, &BadRequestError{Reason: "Invalid callback parameters"}
	}

	opts, rec, err := v.Validate(ctx, req)
	if err != nil {
		log.Error().Err(err).Str("state", req.State).Msg("callback validation failed")
		return nil, err
	}

	tokens, subject, err := o.Provider.Exchange(ctx, req.Code, opts)
	if err != nil {
		logCallbackFailure(err)
		return nil, err
	}

	claims, err := o.Provider.UserInfo(ctx, tokens.AccessToken, subject)
	if err != nil {
		logCallbackFailure(err)
		return nil, err
	}

	profile, err := MapClaims(claims)
	if err != nil {
		log.Error().Err(err).Msg("claims mapping failed")
		return nil, err
	}

	// populate tokens, user and userID exactly once, then persist the
	// whole record
	if rec != nil {
		rec.UserID = profile.UID
		rec.User = profile
		rec.Tokens[o.ProviderName] = *tokens

		if err = o.Sessions.Update(ctx, rec); err != nil {
			log.Error().Err(err).Str("session_id", rec.SessionID).Msg("session update failed")
			return nil, err
		}

		log.Debug().Str("session_id", rec.SessionID).Msg("session updated with user details")
	}

	log.Info().Str("uid", profile.UID).Msg("user authenticated")

	return &CallbackResult{
		Profile: profile,
		Tokens:  tokens,
		Claims:  claims,
		Record:  rec,
	}, nil
}

// logCallbackFailure emits the normalized error-detail bundle for exchange
// and user-info failures.
func logCallbackFailure(err error) {
	var exErr *ExchangeError
	if errors.As(err, &exErr) {
		log.Error().EmbedObject(exErr).Msg("token exchange failed")
		return
	}

	log.Error().Err(err).Msg("token exchange failed")
}
