// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package apptoken

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestToken(t *testing.T) {
	t.Run("slog-log-valuer", func(t *testing.T) {
		token := Token{
			Token: "ghs_secret",
			Exp:   time.Now().Add(time.Hour),
		}
		v := token.LogValue()
		for _, item := range v.Group() {
			if item.Key == "token" && item.Value.String() == "ghs_secret" {
				t.Errorf("token value should be redacted: %s", item.Value.String())
			}
		}
	})
	t.Run("empty-value", func(t *testing.T) {
		token := Token{}
		if token.IsValid() {
			t.Errorf("empty token should be invalid")
		}
	})
	t.Run("expired", func(t *testing.T) {
		token := Token{
			Token: "ghs_token",
			Exp:   time.Now().Add(-time.Minute),
		}
		if token.IsValid() {
			t.Errorf("token should be invalid")
		}
	})
	t.Run("now+59s", func(t *testing.T) {
		token := Token{
			Token: "ghs_token",
			Exp:   time.Now().Add(time.Minute - time.Second),
		}
		if token.IsValid() {
			t.Errorf("token should be invalid")
		}
	})
	t.Run("now+2m", func(t *testing.T) {
		token := Token{
			Token: "ghs_token",
			Exp:   time.Now().Add(2 * time.Minute),
		}
		if !token.IsValid() {
			t.Errorf("token should be valid")
		}
	})
}

func TestToken_Revoke(t *testing.T) {
	t.Run("invalid-token", func(t *testing.T) {
		token := Token{}
		err := token.Revoke(context.Background())
		if !errors.Is(err, ErrRevoke) {
			t.Errorf("expected ErrRevoke, got: %v", err)
		}
	})
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodDelete {
				t.Errorf("method=%s, expected DELETE", r.Method)
			}
			if r.URL.Path != "/installation/token" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			if v := r.Header.Get("Authorization"); v != "Bearer ghs_token" {
				t.Errorf("unexpected authorization header: %s", v)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		token := Token{
			Token:  "ghs_token",
			Server: server.URL,
			Exp:    time.Now().Add(time.Hour),
		}
		if err := token.Revoke(context.Background()); err != nil {
			t.Fatalf("revoke failed: %s", err)
		}
		if token.IsValid() {
			t.Errorf("revoked token should no longer be valid")
		}
	})
	t.Run("remote-error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer server.Close()

		token := Token{
			Token:  "ghs_token",
			Server: server.URL,
			Exp:    time.Now().Add(time.Hour),
		}
		err := token.Revoke(context.Background())
		if !errors.Is(err, ErrRevoke) {
			t.Errorf("expected ErrRevoke, got: %v", err)
		}
	})
}
