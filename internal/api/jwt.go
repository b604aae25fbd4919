// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package api

// JWTHeader is the JWT header. This is always of type RS256.
type JWTHeader struct {
	Alg  string `json:"alg"`
	Type string `json:"typ"`
}

// JWTPayload is the claim set required by GitHub app authentication.
// Field order is fixed so the encoded claims segment is reproducible.
type JWTPayload struct {
	IssuedAt int64  `json:"iat"`
	Exp      int64  `json:"exp"`
	Issuer   string `json:"iss"`
}

// EncodedJWTHeader is the pre-encoded JWT header. GitHub apps only use
// RS256, so the header never varies.
//
// base64url({"alg":"RS256","typ":"JWT"}) without padding.
const EncodedJWTHeader = "eyJhbGciOiJSUzI1NiIsInR5cCI6IkpXVCJ9"
