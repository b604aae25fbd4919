// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package apptoken

import (
	"net/http"
	"testing"
	"time"
)

func TestOptions(t *testing.T) {
	t.Run("no-options", func(t *testing.T) {
		if opt := Options(); opt != nil {
			t.Errorf("Options() should return nil when no options are given")
		}
	})
	t.Run("all-nil-options", func(t *testing.T) {
		if opt := Options(nil, nil, nil); opt != nil {
			t.Errorf("Options(nil...) should return nil")
		}
	})
	t.Run("nil-valued-helpers", func(t *testing.T) {
		// Helpers return nil for zero values; the combined option must
		// also collapse to nil.
		if opt := Options(WithEndpoint(""), WithUserAgent(""), WithRoundTripper(nil), WithClock(nil), WithPermissions(nil)); opt != nil {
			t.Errorf("all-zero options should collapse to nil")
		}
	})
	t.Run("combined", func(t *testing.T) {
		opt := Options(WithUserAgent("ci-bot/1.0"), nil, WithHTTPTimeout(10*time.Second))
		if opt == nil {
			t.Fatalf("expected non-nil option")
		}

		i := &Issuer{}
		if err := opt.apply(i); err != nil {
			t.Fatalf("failed to apply combined option: %s", err)
		}
		if i.ua != "ci-bot/1.0" {
			t.Errorf("ua=%s, expected ci-bot/1.0", i.ua)
		}
		if i.timeout != 10*time.Second {
			t.Errorf("timeout=%s, expected 10s", i.timeout)
		}
	})
}

func TestWithEndpoint(t *testing.T) {
	type testCase struct {
		name     string
		endpoint string
		ok       bool
	}

	tt := []testCase{
		{name: "https", endpoint: "https://ghe.example.com/api/v3", ok: true},
		{name: "http", endpoint: "http://localhost:9999", ok: true},
		{name: "file-scheme", endpoint: "file:///etc/passwd"},
		{name: "with-query", endpoint: "https://ghe.example.com/api/v3?x=1"},
		{name: "with-fragment", endpoint: "https://ghe.example.com/api/v3#frag"},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			i := &Issuer{}
			err := WithEndpoint(tc.endpoint).apply(i)

			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error: %s", err)
				}
				if i.endpoint == nil || i.endpoint.String() != tc.endpoint {
					t.Errorf("endpoint=%v, expected %s", i.endpoint, tc.endpoint)
				}
				return
			}

			if err == nil {
				t.Errorf("expected error for %s", tc.endpoint)
			}
		})
	}
}

func TestWithPermissions(t *testing.T) {
	type testCase struct {
		name        string
		permissions map[string]string
		ok          bool
	}

	tt := []testCase{
		{
			name:        "valid",
			permissions: map[string]string{"contents": "read", "pull_requests": "write", "members": "admin"},
			ok:          true,
		},
		{
			name:        "invalid-level",
			permissions: map[string]string{"contents": "readwrite"},
		},
		{
			name:        "invalid-scope-uppercase",
			permissions: map[string]string{"Contents": "read"},
		},
		{
			name:        "invalid-scope-trailing-underscore",
			permissions: map[string]string{"contents_": "read"},
		},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			i := &Issuer{}
			err := WithPermissions(tc.permissions).apply(i)

			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error: %s", err)
				}
				if len(i.scopes) != len(tc.permissions) {
					t.Errorf("scopes=%v, expected %v", i.scopes, tc.permissions)
				}

				// The issuer must hold its own copy.
				tc.permissions["contents"] = "admin"
				if i.scopes["contents"] == "admin" {
					t.Errorf("scopes must be cloned, not aliased")
				}
				return
			}

			if err == nil {
				t.Errorf("expected error for %v", tc.permissions)
			}
		})
	}
}

func TestWithRoundTripper(t *testing.T) {
	i := &Issuer{}
	if err := WithRoundTripper(http.DefaultTransport).apply(i); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if i.next == nil {
		t.Errorf("round tripper not applied")
	}
}

func TestWithHTTPTimeout(t *testing.T) {
	type testCase struct {
		name    string
		timeout time.Duration
		ok      bool
	}

	tt := []testCase{
		{name: "valid", timeout: 10 * time.Second, ok: true},
		{name: "zero", timeout: 0},
		{name: "negative", timeout: -time.Second},
		{name: "too-large", timeout: time.Hour},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			i := &Issuer{}
			err := WithHTTPTimeout(tc.timeout).apply(i)

			if tc.ok {
				if err != nil {
					t.Fatalf("unexpected error: %s", err)
				}
				if i.timeout != tc.timeout {
					t.Errorf("timeout=%s, expected %s", i.timeout, tc.timeout)
				}
				return
			}

			if err == nil {
				t.Errorf("expected error for %s", tc.timeout)
			}
		})
	}
}
