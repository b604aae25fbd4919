// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package api

// Common headers used by this package.
const (
	VersionHeader      = "X-GitHub-Api-Version"
	VersionHeaderValue = "2022-11-28"
	AcceptHeader       = "Accept"
	AcceptHeaderValue  = "application/vnd.github+json"
	UAHeader           = "User-Agent"
	UAHeaderValue      = "github.com/cibots/apptoken/v0"
	AuthzHeader        = "Authorization"
	ContentTypeHeader  = "Content-Type"
	ContentTypeJSON    = "application/json"
)

// AuthzHeaderValue is a convenience function to return Authorization header
// value for a bearer credential. If the token is empty, this returns an
// empty string.
func AuthzHeaderValue(token string) string {
	if token == "" {
		return ""
	}
	return "Bearer " + token
}
