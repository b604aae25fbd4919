// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package apptoken

import (
	"bytes"
	"crypto"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cibots/apptoken/internal/api"
)

var (
	_ slog.LogValuer = (*Assertion)(nil)
)

// assertionLifetime is the JWT lifetime in seconds. GitHub allows at most
// 600; fixing it at 300 reserves a symmetric ±5 minute clock skew budget.
const assertionLifetime = 300

// Assertion is the signed JWT presented to GitHub to authenticate as the
// app itself. This is distinct from the installation access token it is
// exchanged for. An assertion is created fresh for every exchange attempt
// and never persisted or reused.
type Assertion struct {
	// Signed JWT in compact serialization.
	Token string

	// GitHub app ID (iss claim).
	AppID string

	// iat claim, UTC epoch seconds.
	IssuedAt int64

	// exp claim, UTC epoch seconds. Always IssuedAt + 300.
	Exp int64
}

// LogValue implements [log/slog.LogValuer].
func (a Assertion) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("app_id", a.AppID),
		slog.Int64("iat", a.IssuedAt),
		slog.Int64("exp", a.Exp),
		slog.String("token", "REDACTED"),
	)
}

// buildAssertion builds the unsigned portion of an assertion for the given
// app id and instant (UTC epoch seconds). It returns the encoded header
// and claims segments and the signing input (header + "." + claims).
//
// Pure function of its inputs: no randomness, no I/O, no clock access.
// The exp claim is always instant+300; the offset is applied here and
// nowhere else so the skew budget is enforced in exactly one place.
func buildAssertion(appID string, instant int64) (header, claims, signingInput string, err error) {
	payload, err := json.Marshal(&api.JWTPayload{
		IssuedAt: instant,
		Exp:      instant + assertionLifetime,
		Issuer:   appID,
	})
	if err != nil {
		return "", "", "", fmt.Errorf("apptoken(assertion): failed to encode claims: %w", err)
	}

	header = api.EncodedJWTHeader
	claims = base64.RawURLEncoding.EncodeToString(payload)
	signingInput = header + "." + claims
	return header, claims, signingInput, nil
}

// signRS256 computes an RSASSA-PKCS1-v1_5 signature over SHA-256 of
// signingInput and returns the base64url encoded signature segment.
// Signing failures indicate a bad key or primitive error, which is a
// configuration problem, never a transient one.
func signRS256(signingInput string, signer crypto.Signer) (string, error) {
	hasher := sha256.New()
	_, _ = hasher.Write([]byte(signingInput))

	signature, err := signer.Sign(rand.Reader, hasher.Sum(nil), crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}

	return base64.RawURLEncoding.EncodeToString(signature), nil
}

// mintAssertion builds and signs an assertion for the given app id and
// instant (UTC epoch seconds).
func mintAssertion(appID string, instant int64, signer crypto.Signer) (Assertion, error) {
	_, _, signingInput, err := buildAssertion(appID, instant)
	if err != nil {
		return Assertion{}, err
	}

	sig, err := signRS256(signingInput, signer)
	if err != nil {
		return Assertion{}, err
	}

	buf := bytes.NewBufferString(signingInput)
	buf.WriteByte('.')
	buf.WriteString(sig)

	return Assertion{
		Token:    buf.String(),
		AppID:    appID,
		IssuedAt: instant,
		Exp:      instant + assertionLifetime,
	}, nil
}
