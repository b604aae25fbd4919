// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

// Package api holds types and constants to serialize and deserialize
// requests to and from the GitHub REST API.
//
// Types are just enough for the installation access token endpoints used
// by this module and should be considered incomplete.
package api
