// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package apptoken

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"time"

	"github.com/cibots/apptoken/internal/api"
)

var (
	_ slog.LogValuer = (*Token)(nil)
)

// Token is an installation access token from GitHub. Tokens are bearer
// credentials; treat them as secret and never log them. Their lifetime
// (one hour) is fixed by GitHub and outside this module's control.
type Token struct {
	// Installation access token. Typically starts with "ghs_".
	Token string `json:"token" yaml:"token"`

	// GitHub API endpoint the token was issued by. Also used for
	// revocation.
	Server string `json:"server,omitempty" yaml:"server,omitempty"`

	// GitHub app ID.
	AppID string `json:"app_id,omitempty" yaml:"appID,omitempty"`

	// Installation ID for the app.
	InstallationID string `json:"installation_id,omitempty" yaml:"installationID,omitempty"`

	// Token expiry time.
	Exp time.Time `json:"exp,omitempty" yaml:"exp,omitempty"`

	// Permissions available to the token. This may be empty when no
	// scoped permissions were requested; in that case the token has all
	// permissions available to the installation.
	Permissions map[string]string `json:"permissions,omitempty" yaml:"permissions,omitempty"`
}

// LogValue implements [log/slog.LogValuer].
func (t Token) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("server", t.Server),
		slog.String("app_id", t.AppID),
		slog.String("installation_id", t.InstallationID),
		slog.Time("exp", t.Exp),
		slog.Any("permissions", t.Permissions),
		slog.String("token", "REDACTED"),
	)
}

// IsValid checks if [Token] is valid for at-least 60 seconds.
func (t Token) IsValid() bool {
	return t.Token != "" && t.Exp.After(time.Now().Add(time.Minute))
}

// Revoke revokes the installation access token. One-shot CI jobs should
// revoke the token when the build step finishes rather than let it ride
// out the hour.
func (t *Token) Revoke(ctx context.Context) error {
	return t.revoke(ctx, nil)
}

// revoke is the internal version of Revoke which supports a custom round
// tripper for testing.
func (t *Token) revoke(ctx context.Context, rt http.RoundTripper) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if !t.IsValid() {
		return fmt.Errorf("%w: token is already invalid", ErrRevoke)
	}

	server := t.Server
	if server == "" {
		server = api.DefaultEndpoint
	}

	u, err := url.Parse(server)
	if err != nil {
		return fmt.Errorf("%w: invalid server url: %w", ErrRevoke, err)
	}

	u.Path, err = url.JoinPath(u.Path, "installation", "token")
	if err != nil {
		return fmt.Errorf("%w: invalid server url: %w", ErrRevoke, err)
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodDelete, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%w: failed to build request: %w", ErrRevoke, err)
	}

	r.Header.Set(api.VersionHeader, api.VersionHeaderValue)
	r.Header.Set(api.AuthzHeader, api.AuthzHeaderValue(t.Token))
	r.Header.Set(api.AcceptHeader, api.AcceptHeaderValue)
	r.Header.Set(api.UAHeader, api.UAHeaderValue)

	client := http.Client{
		Timeout: time.Minute,
	}
	if rt != nil {
		client.Transport = rt
	}

	resp, err := client.Do(r)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRevoke, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("%w: expected 204 but got %s", ErrRevoke, resp.Status)
	}

	// Indicate token is no longer valid.
	t.Exp = time.Now()
	return nil
}

// exchanger issues a single POST to the installation's access token
// endpoint and classifies the outcome. It never retries; the retry
// decision belongs to [Issuer].
type exchanger struct {
	endpoint *url.URL
	ua       string
	client   *http.Client
}

// exchange presents the signed assertion to the access token endpoint.
// When permissions is empty (nil or zero length), the request body is
// omitted entirely, which yields a token with every permission configured
// on the installation.
func (x *exchanger) exchange(ctx context.Context, installationID string, assertion Assertion, permissions map[string]string) (Token, error) {
	tokenURL := x.endpoint.JoinPath("app", "installations", installationID, "access_tokens")

	var body io.Reader
	if len(permissions) > 0 {
		buf, err := json.Marshal(api.InstallationTokenRequest{
			Permissions: permissions,
		})
		if err != nil {
			return Token{}, fmt.Errorf("%w: failed to marshal token request: %w", ErrExchange, err)
		}
		body = bytes.NewReader(buf)
	}

	r, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL.String(), body)
	if err != nil {
		return Token{}, fmt.Errorf("%w: failed to build token request: %w", ErrExchange, err)
	}

	r.Header.Set(api.AcceptHeader, api.AcceptHeaderValue)
	r.Header.Set(api.VersionHeader, api.VersionHeaderValue)
	r.Header.Set(api.AuthzHeader, api.AuthzHeaderValue(assertion.Token))
	r.Header.Set(api.UAHeader, x.ua)
	if body != nil {
		r.Header.Set(api.ContentTypeHeader, api.ContentTypeJSON)
	}

	resp, err := x.client.Do(r)
	if err != nil {
		// No response received at all. Terminal, to keep worst case
		// latency bounded.
		return Token{}, &ExchangeError{
			kind:    ErrNetwork,
			message: fmt.Sprintf("no response from %s, check connectivity: %s", x.endpoint.Host, err),
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Token{}, &ExchangeError{
			kind:    ErrNetwork,
			status:  resp.StatusCode,
			message: fmt.Sprintf("failed to read response, check connectivity: %s", err),
		}
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
	default:
		return Token{}, classify(resp.StatusCode, data)
	}

	tokenResp := api.InstallationTokenResponse{}
	if err := json.Unmarshal(data, &tokenResp); err != nil {
		return Token{}, &ExchangeError{
			kind:    ErrExchange,
			status:  resp.StatusCode,
			message: fmt.Sprintf("failed to unmarshal response: %s", err),
		}
	}

	token := Token{
		Server:         x.endpoint.String(),
		AppID:          assertion.AppID,
		InstallationID: installationID,
		Token:          tokenResp.Token,
	}
	if tokenResp.Exp != nil {
		token.Exp = tokenResp.Exp.Time
	}
	if tokenResp.Permissions != nil {
		token.Permissions = maps.Clone(tokenResp.Permissions)
	}

	return token, nil
}

// classify maps a non-2xx response to an [ExchangeError], passing through
// the remote-supplied message where available.
func classify(status int, data []byte) *ExchangeError {
	// Try to decode the error message if possible.
	var message string
	errResp := &api.ErrorResponse{}
	if err := json.Unmarshal(data, errResp); err == nil {
		message = errResp.Message
	}

	switch status {
	case http.StatusUnauthorized:
		return &ExchangeError{kind: ErrAuthenticationRejected, status: status, message: message}
	case http.StatusForbidden:
		return &ExchangeError{kind: ErrScopeRejected, status: status, message: message}
	case http.StatusNotFound:
		return &ExchangeError{kind: ErrInstallationNotFound, status: status, message: message}
	case http.StatusUnprocessableEntity:
		return &ExchangeError{kind: ErrMalformedPermissions, status: status, message: message}
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return &ExchangeError{kind: ErrTemporarilyUnavailable, status: status, message: message}
	default:
		return &ExchangeError{kind: ErrExchange, status: status, message: message}
	}
}
