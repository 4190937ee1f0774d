package auth

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/servicefinder/auth-gateway/internal/session"
)

// ExchangeOptions parameterize one code exchange. CallbackURL is the exact
// URL the provider redirected to; ExpectedNonce and PKCEVerifier are only
// set in the one-time-cookie variant.
type ExchangeOptions struct {
	CallbackURL   string
	ExpectedState string
	ExpectedNonce string
	PKCEVerifier  string
}

// Exchange swaps the authorization code for a validated token set and
// returns it together with the subject claim from the ID token (empty when
// the provider returned none). Single attempt, no built-in retry; any
// failure is terminal for the callback.
func (p *Provider) Exchange(ctx context.Context, code string, opts *ExchangeOptions) (*session.TokenSet, string, error) {
	state, err := p.load(ctx)
	if err != nil {
		return nil, "", err
	}

	ocfg := state.oauth2
	if opts.CallbackURL != "" {
		ocfg.RedirectURL = opts.CallbackURL
	}

	var authOpts []oauth2.AuthCodeOption

	if opts.PKCEVerifier != "" {
		authOpts = append(authOpts, oauth2.VerifierOption(opts.PKCEVerifier))
	}

	if state.signer != nil {
		assertionOpts, errSign := state.signer.options()
		if errSign != nil {
			return nil, "", errSign
		}

		authOpts = append(authOpts, assertionOpts...)
	}

	token, err := ocfg.Exchange(ctx, code, authOpts...)
	if err != nil {
		return nil, "", newExchangeError(err)
	}

	tokens := &session.TokenSet{
		AccessToken:  token.AccessToken,
		TokenType:    token.TokenType,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}

	if rawIDToken, ok := token.Extra("id_token").(string); ok {
		tokens.IDToken = rawIDToken
	}

	if err = validate.Struct(tokens); err != nil {
		return nil, "", &SchemaValidationError{Subject: "token set", Err: err}
	}

	subject := ""

	if tokens.IDToken != "" {
		idToken, errVerify := state.verifier.Verify(ctx, tokens.IDToken)
		if errVerify != nil {
			return nil, "", newExchangeError(errors.Wrap(errVerify, "id token verification failed"))
		}

		if opts.ExpectedNonce != "" && idToken.Nonce != opts.ExpectedNonce {
			return nil, "", newExchangeError(ErrNonceMismatch)
		}

		subject = idToken.Subject
	} else if opts.ExpectedNonce != "" {
		// nonce can only be checked against an id_token
		return nil, "", newExchangeError(ErrNoIDToken)
	}

	return tokens, subject, nil
}

// UserInfo fetches the user-info claims with the given access token.
// When subject is non-empty the response subject must match it.
func (p *Provider) UserInfo(ctx context.Context, accessToken, subject string) (map[string]interface{}, error) {
	state, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	userInfo, err := state.provider.UserInfo(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
	}))
	if err != nil {
		return nil, newExchangeError(errors.Wrap(err, "user-info fetch failed"))
	}

	if subject != "" && userInfo.Subject != subject {
		return nil, newExchangeError(errors.Errorf(
			"user-info subject %q does not match id token subject %q", userInfo.Subject, subject,
		))
	}

	var claims map[string]interface{}
	if err := userInfo.Claims(&claims); err != nil {
		return nil, &SchemaValidationError{Subject: "user-info claims", Err: err}
	}

	return claims, nil
}
