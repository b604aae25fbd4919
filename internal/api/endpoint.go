// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package api

// DefaultEndpoint is default GitHub REST API endpoint.
const DefaultEndpoint = "https://api.github.com/"
