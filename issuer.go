// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

// Package apptoken issues short-lived GitHub App installation access
// tokens for use inside CI build steps. It authenticates as a GitHub App
// using an RSA signed JWT assertion, exchanges the assertion with the
// GitHub REST API for an installation scoped access token and hands the
// token to the caller.
//
// The pipeline is strictly sequential: read clock, build assertion, sign,
// exchange, with at most one retry on a transient remote failure. Tokens
// are never cached, refreshed or renewed.
package apptoken

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/cibots/apptoken/internal/api"
)

const (
	// retryDelay is the fixed wait before the single retry. A fixed delay
	// with a single attempt keeps worst case latency predictable; the
	// Retry-After header is deliberately not honored.
	retryDelay = 5 * time.Second

	// defaultHTTPTimeout bounds a single exchange request.
	defaultHTTPTimeout = 30 * time.Second
)

// Issuer issues installation access tokens for a single app identity and
// installation. It is stateless between [Issuer.Issue] calls; every call
// runs the full pipeline with a fresh clock reading and a fresh assertion.
type Issuer struct {
	appID          string
	installationID string
	signer         crypto.Signer
	endpoint       *url.URL
	ua             string
	next           http.RoundTripper
	clock          clockwork.Clock
	scopes         map[string]string
	timeout        time.Duration
}

// New returns an [Issuer] for the given app id, installation id and
// signing key. Both ids are opaque numeric strings as supplied by GitHub.
//
//   - Only RSA keys of at least 2048 bits are supported. ECDSA, ED25519
//     and other keys return an error.
//   - The signer is only ever used to sign; it is never serialized or
//     logged. Key material lifecycle (loading, erasure) belongs to the
//     caller.
func New(appID, installationID string, signer crypto.Signer, opts ...Option) (*Issuer, error) {
	var err error
	if signer == nil {
		err = errors.Join(err, errors.New("no signer provided"))
	}

	if !idRegExp.MatchString(appID) {
		err = errors.Join(err, fmt.Errorf("app id must be a numeric string: %q", appID))
	}

	if !idRegExp.MatchString(installationID) {
		err = errors.Join(err, fmt.Errorf("installation id must be a numeric string: %q", installationID))
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOptions, err)
	}

	i := &Issuer{
		appID:          appID,
		installationID: installationID,
		signer:         signer,
	}

	for idx := range opts {
		if opts[idx] != nil {
			err = errors.Join(err, opts[idx].apply(i))
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOptions, err)
	}

	switch v := signer.Public().(type) {
	case *rsa.PublicKey:
		if v.N.BitLen() < 2048 {
			return nil, fmt.Errorf("%w: rsa key size(%d) < 2048 bits", ErrOptions, v.N.BitLen())
		}
	case *ecdsa.PublicKey:
		return nil, fmt.Errorf("%w: ECDSA keys are not supported", ErrOptions)
	case *ed25519.PublicKey, ed25519.PublicKey:
		return nil, fmt.Errorf("%w: ED-25519 keys are not supported", ErrOptions)
	default:
		return nil, fmt.Errorf("%w: unknown key type: %T", ErrOptions, v)
	}

	if i.endpoint == nil {
		i.endpoint, _ = url.Parse(api.DefaultEndpoint)
	}

	if i.ua == "" {
		i.ua = api.UAHeaderValue
	}

	if i.clock == nil {
		i.clock = clockwork.NewRealClock()
	}

	if i.timeout == 0 {
		i.timeout = defaultHTTPTimeout
	}

	return i, nil
}

// Issue runs the token exchange pipeline and returns an installation
// access token.
//
// Terminal failures abort immediately. A transient remote failure (429 or
// 503) is retried exactly once after a fixed 5 second wait; the retry
// regenerates the assertion from a fresh clock reading, as the first
// attempt's JWT may be stale relative to the skew budget by then. A second
// failure is reported exactly as classified.
func (i *Issuer) Issue(ctx context.Context) (Token, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	x := &exchanger{
		endpoint: i.endpoint,
		ua:       i.ua,
		client: &http.Client{
			Timeout:   i.timeout,
			Transport: i.next,
		},
	}

	token, err := i.attempt(ctx, x)
	if err == nil {
		return token, nil
	}

	var xerr *ExchangeError
	if !errors.As(err, &xerr) || !xerr.Transient() {
		return Token{}, err
	}

	select {
	case <-i.clock.After(retryDelay):
	case <-ctx.Done():
		return Token{}, fmt.Errorf("apptoken: canceled while waiting to retry: %w", context.Cause(ctx))
	}

	return i.attempt(ctx, x)
}

// attempt runs one full pipeline pass: clock read and plausibility check,
// assertion build and sign, then a single exchange. The clock check runs
// before the signing key is touched.
func (i *Issuer) attempt(ctx context.Context, x *exchanger) (Token, error) {
	instant, err := readClock(i.clock)
	if err != nil {
		return Token{}, err
	}

	assertion, err := mintAssertion(i.appID, instant, i.signer)
	if err != nil {
		return Token{}, err
	}

	token, err := x.exchange(ctx, i.installationID, assertion, i.scopes)
	if err != nil {
		// A 401 is either wrong credentials or clock skew. Surface the
		// temporal claims as plain integers (never the JWT itself) so an
		// operator can tell the two apart.
		if errors.Is(err, ErrAuthenticationRejected) {
			return Token{}, fmt.Errorf("%w: iat=%d exp=%d now=%d",
				err, assertion.IssuedAt, assertion.Exp, i.clock.Now().Unix())
		}
		return Token{}, err
	}

	return token, nil
}
