// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cibots/apptoken"
	"github.com/cibots/apptoken/internal/testkeys"
)

func testPEM(t *testing.T) []byte {
	t.Helper()
	return pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(testkeys.RSA2048()),
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("key-from-file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "key.pem")
		require.NoError(t, os.WriteFile(path, testPEM(t), 0o600))

		cfg, cleanup, err := loadConfig("123456", "99", path, "contents: read")
		require.NoError(t, err)
		defer cleanup()

		assert.Equal(t, "123456", cfg.appID)
		assert.Equal(t, "99", cfg.installationID)
		assert.NotNil(t, cfg.key)
		assert.Equal(t, map[string]string{"contents": "read"}, cfg.permissions)
	})
	t.Run("key-from-env", func(t *testing.T) {
		t.Setenv("APPTOKEN_PRIVATE_KEY", string(testPEM(t)))

		cfg, cleanup, err := loadConfig("123456", "99", "", "")
		require.NoError(t, err)
		defer cleanup()
		assert.NotNil(t, cfg.key)
	})
	t.Run("no-key", func(t *testing.T) {
		t.Setenv("APPTOKEN_PRIVATE_KEY", "")
		_, _, err := loadConfig("123456", "99", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no private key")
	})
	t.Run("no-app-id", func(t *testing.T) {
		_, _, err := loadConfig("", "99", "", "")
		require.Error(t, err)
	})
	t.Run("no-installation-id", func(t *testing.T) {
		_, _, err := loadConfig("123456", "", "", "")
		require.Error(t, err)
	})
	t.Run("bad-permissions", func(t *testing.T) {
		t.Setenv("APPTOKEN_PRIVATE_KEY", string(testPEM(t)))
		_, _, err := loadConfig("123456", "99", "", "- a\n- b")
		require.Error(t, err)
	})
}

func TestExitCode(t *testing.T) {
	ctx := context.Background()

	tt := []struct {
		name   string
		err    error
		expect int
	}{
		{"clock-unavailable", apptoken.ErrClockUnavailable, exitClock},
		{"clock-implausible", fmt.Errorf("wrapped: %w", apptoken.ErrClockImplausible), exitClock},
		{"signing", apptoken.ErrSigning, exitSigning},
		{"auth", apptoken.ErrAuthenticationRejected, exitAuth},
		{"not-found", apptoken.ErrInstallationNotFound, exitNotFound},
		{"scope", apptoken.ErrScopeRejected, exitScope},
		{"malformed", apptoken.ErrMalformedPermissions, exitMalformed},
		{"transient", apptoken.ErrTemporarilyUnavailable, exitTransient},
		{"network", apptoken.ErrNetwork, exitNetwork},
		{"options", apptoken.ErrOptions, exitUsage},
		{"generic", errors.New("boom"), exitGeneric},
	}
	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, exitCode(ctx, tc.err))
		})
	}

	t.Run("interrupted", func(t *testing.T) {
		canceled, cancel := context.WithCancel(context.Background())
		cancel()
		assert.Equal(t, exitInterrupt, exitCode(canceled, errors.New("any")))
	})
}
