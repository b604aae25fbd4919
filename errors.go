// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package apptoken

import (
	"fmt"
	"net/http"
)

var (
	_ error = Error("")
	_ error = (*ExchangeError)(nil)
)

// Error is immutable error representation.
//
// Error strings themselves are NOT part of semver compatibility guarantees.
// Use exported symbols instead of directly using error strings.
type Error string

// Implements Error() interface.
func (e Error) Error() string {
	return string(e)
}

// Error kinds surfaced by this package. Match with [errors.Is].
const (
	// ErrClockUnavailable indicates the system clock could not be read at all.
	ErrClockUnavailable = Error("apptoken: system clock unavailable")

	// ErrClockImplausible indicates the system clock returned a value outside
	// the sane epoch window. The diagnostic includes the raw value.
	ErrClockImplausible = Error("apptoken: system clock implausible")

	// ErrSigning indicates a bad key or a signing primitive failure.
	// Never retried.
	ErrSigning = Error("apptoken: failed to sign assertion")

	// ErrAuthenticationRejected indicates GitHub rejected the signed
	// assertion (HTTP 401). Either credentials are wrong or the clock is
	// skewed beyond the budget; the diagnostic carries iat/exp/now integers
	// to tell the two apart.
	ErrAuthenticationRejected = Error("apptoken: authentication rejected")

	// ErrInstallationNotFound indicates an unknown installation id (HTTP 404).
	ErrInstallationNotFound = Error("apptoken: installation not found")

	// ErrScopeRejected indicates requested permissions exceed those granted
	// to the installation (HTTP 403).
	ErrScopeRejected = Error("apptoken: requested scope rejected")

	// ErrMalformedPermissions indicates GitHub could not parse the
	// permission request (HTTP 422).
	ErrMalformedPermissions = Error("apptoken: malformed permission request")

	// ErrTemporarilyUnavailable indicates a transient remote failure
	// (HTTP 429 or 503). Eligible for a single retry.
	ErrTemporarilyUnavailable = Error("apptoken: temporarily unavailable")

	// ErrNetwork indicates no response was received at all. Check
	// connectivity and proxy settings. Not retried.
	ErrNetwork = Error("apptoken: network failure")

	// ErrExchange indicates a terminal exchange failure outside the
	// classified status codes.
	ErrExchange = Error("apptoken: token exchange failed")

	// ErrOptions indicates invalid constructor arguments or options.
	ErrOptions = Error("apptoken: invalid options")

	// ErrRevoke indicates token revocation failed.
	ErrRevoke = Error("apptoken: failed to revoke token")
)

// ExchangeError is a classified failure from the token exchange endpoint.
// It wraps one of the sentinel error kinds, so callers can classify with
// [errors.Is] and still reach the HTTP status and the remote-supplied
// message. Error text never contains the assertion, the key or a token.
type ExchangeError struct {
	kind    Error
	status  int
	message string
}

// Kind returns the sentinel error kind this failure was classified as.
func (e *ExchangeError) Kind() Error {
	return e.kind
}

// StatusCode returns the HTTP status code of the response, or 0 when no
// response was received.
func (e *ExchangeError) StatusCode() int {
	return e.status
}

// Message returns the remote-supplied error message, if any.
func (e *ExchangeError) Message() string {
	return e.message
}

// Transient reports whether this failure is eligible for the single
// bounded retry.
func (e *ExchangeError) Transient() bool {
	return e.kind == ErrTemporarilyUnavailable
}

func (e *ExchangeError) Unwrap() error {
	return e.kind
}

func (e *ExchangeError) Error() string {
	switch {
	case e.message != "" && e.status != 0:
		return fmt.Sprintf("%s: %s (%s)", string(e.kind), e.message, http.StatusText(e.status))
	case e.status != 0:
		return fmt.Sprintf("%s (%s)", string(e.kind), http.StatusText(e.status))
	case e.message != "":
		return fmt.Sprintf("%s: %s", string(e.kind), e.message)
	default:
		return string(e.kind)
	}
}
