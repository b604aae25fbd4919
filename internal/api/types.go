// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package api

// InstallationTokenRequest is the payload for an installation access token
// request. When no scoped permissions are requested the body is omitted
// entirely, which yields a token with every permission configured on the
// installation.
//
// https://docs.github.com/en/rest/apps/apps?apiVersion=2022-11-28#create-an-installation-access-token-for-an-app
type InstallationTokenRequest struct {
	Permissions map[string]string `json:"permissions,omitempty"`
}

// InstallationTokenResponse is returned by the API for
// [InstallationTokenRequest].
//
// https://docs.github.com/en/rest/apps/apps?apiVersion=2022-11-28#create-an-installation-access-token-for-an-app
type InstallationTokenResponse struct {
	Token       string            `json:"token,omitempty"`
	Exp         *Timestamp        `json:"expires_at,omitempty"`
	Permissions map[string]string `json:"permissions,omitempty"`
}

// ErrorResponse is the error payload returned by the GitHub API.
// GitHub API error response JSON is inconsistent; only Message is
// reliably present.
type ErrorResponse struct {
	Message          string `json:"message,omitempty"`
	DocumentationURL string `json:"documentation_url,omitempty"`
}
