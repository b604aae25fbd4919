// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

// Command apptoken issues short-lived GitHub App installation access
// tokens for CI build steps.
//
// Configuration comes from flags, with environment fallbacks suitable for
// CI secret injection: APPTOKEN_APP_ID, APPTOKEN_INSTALLATION_ID,
// APPTOKEN_PRIVATE_KEY (PEM text, "\n" escapes accepted) or
// APPTOKEN_PRIVATE_KEY_FILE (owner-only readable path).
package main

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cibots/apptoken"
	"github.com/cibots/apptoken/internal/keyfile"
)

// Exit codes, one per error kind, so CI scripts can branch on the cause.
const (
	exitOK        = 0
	exitGeneric   = 1
	exitUsage     = 2
	exitClock     = 3
	exitSigning   = 4
	exitAuth      = 5
	exitNotFound  = 6
	exitScope     = 7
	exitMalformed = 8
	exitTransient = 9
	exitNetwork   = 10
	exitInterrupt = 130
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		flagEnvFile     string
		flagAppID       string
		flagInstallID   string
		flagKeyFile     string
		flagEndpoint    string
		flagPermissions string
		flagOutputFile  string
		flagOutputName  string
		flagTimeout     time.Duration
		flagLogLevel    string
		flagToken       string
		flagServer      string
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "apptoken",
		Short:         "Issue short-lived GitHub App installation access tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if flagEnvFile != "" {
				if err := godotenv.Load(flagEnvFile); err != nil {
					return fmt.Errorf("failed to load env file %s: %w", flagEnvFile, err)
				}
			}
			return setupLogging(flagLogLevel)
		},
	}
	root.PersistentFlags().StringVar(&flagEnvFile, "env-file", "", "optional .env file to load before reading environment")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug|info|warn|error)")

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Exchange app credentials for an installation access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, cleanup, err := loadConfig(flagAppID, flagInstallID, flagKeyFile, flagPermissions)
			if err != nil {
				return err
			}
			defer cleanup()

			opts := []apptoken.Option{
				apptoken.WithEndpoint(flagEndpoint),
				apptoken.WithPermissions(cfg.permissions),
			}
			if flagTimeout > 0 {
				opts = append(opts, apptoken.WithHTTPTimeout(flagTimeout))
			}

			issuer, err := apptoken.New(cfg.appID, cfg.installationID, cfg.key, opts...)
			if err != nil {
				return err
			}

			token, err := issuer.Issue(cmd.Context())
			if err != nil {
				return err
			}

			slog.Info("issued installation token", "token", token)
			return writeOutputs(flagOutputFile, flagOutputName, token)
		},
	}
	tokenCmd.Flags().StringVar(&flagAppID, "app-id", os.Getenv("APPTOKEN_APP_ID"), "GitHub app id (numeric string)")
	tokenCmd.Flags().StringVar(&flagInstallID, "installation-id", os.Getenv("APPTOKEN_INSTALLATION_ID"), "GitHub app installation id (numeric string)")
	tokenCmd.Flags().StringVar(&flagKeyFile, "private-key-file", os.Getenv("APPTOKEN_PRIVATE_KEY_FILE"), "path to PEM encoded RSA private key (or set APPTOKEN_PRIVATE_KEY)")
	tokenCmd.Flags().StringVar(&flagEndpoint, "endpoint", "", "GitHub REST API endpoint, for GitHub Enterprise Server")
	tokenCmd.Flags().StringVar(&flagPermissions, "permissions", "", "permission scopes as YAML mapping or JSON object, e.g. '{contents: read}'")
	tokenCmd.Flags().StringVar(&flagOutputFile, "output-file", os.Getenv("GITHUB_OUTPUT"), "file to append name=value output to; stdout when empty")
	tokenCmd.Flags().StringVar(&flagOutputName, "output-name", "token", "output variable name")
	tokenCmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "timeout for a single exchange request")

	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an installation access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagToken == "" {
				flagToken = os.Getenv("APPTOKEN_TOKEN")
			}
			if flagToken == "" {
				return errors.New("no token provided (flag --token or env APPTOKEN_TOKEN)")
			}
			token := apptoken.Token{
				Token:  flagToken,
				Server: flagServer,
				// Revocation needs no real expiry, only a validity margin.
				Exp: time.Now().Add(time.Hour),
			}
			if err := token.Revoke(cmd.Context()); err != nil {
				return err
			}
			slog.Info("revoked installation token")
			return nil
		},
	}
	revokeCmd.Flags().StringVar(&flagToken, "token", "", "installation access token to revoke (or set APPTOKEN_TOKEN)")
	revokeCmd.Flags().StringVar(&flagServer, "endpoint", "", "GitHub REST API endpoint, for GitHub Enterprise Server")

	root.AddCommand(tokenCmd)
	root.AddCommand(revokeCmd)

	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("apptoken failed", "err", err)
		return exitCode(ctx, err)
	}
	return exitOK
}

// config is the normalized in-memory input the core receives: identifiers,
// a parsed key and an already parsed permissions map. No surface syntax
// crosses this boundary.
type config struct {
	appID          string
	installationID string
	key            crypto.Signer
	permissions    map[string]string
}

// loadConfig resolves identifiers, key material and permissions. The
// returned cleanup zeroes the PEM buffer and must run on every exit path.
func loadConfig(appID, installID, keyFile, permissions string) (cfg config, cleanup func(), err error) {
	cleanup = func() {}

	if appID == "" {
		return cfg, cleanup, errors.New("no app id provided (flag --app-id or env APPTOKEN_APP_ID)")
	}
	if installID == "" {
		return cfg, cleanup, errors.New("no installation id provided (flag --installation-id or env APPTOKEN_INSTALLATION_ID)")
	}

	var pemData []byte
	switch {
	case keyFile != "":
		pemData, err = keyfile.Read(keyFile)
		if err != nil {
			return cfg, cleanup, err
		}
	case os.Getenv("APPTOKEN_PRIVATE_KEY") != "":
		pemData = keyfile.Normalize(os.Getenv("APPTOKEN_PRIVATE_KEY"))
	default:
		return cfg, cleanup, errors.New("no private key provided (flag --private-key-file or env APPTOKEN_PRIVATE_KEY)")
	}
	cleanup = func() { keyfile.Zero(pemData) }

	key, err := keyfile.Parse(pemData)
	if err != nil {
		cleanup()
		return cfg, func() {}, err
	}

	perms, err := parsePermissions(permissions)
	if err != nil {
		cleanup()
		return cfg, func() {}, err
	}

	return config{
		appID:          appID,
		installationID: installID,
		key:            key,
		permissions:    perms,
	}, cleanup, nil
}

func setupLogging(level string) error {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info", "":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return fmt.Errorf("invalid log level: %s", level)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: lvl,
	})))
	return nil
}

// exitCode maps error kinds to distinct process exit codes.
func exitCode(ctx context.Context, err error) int {
	switch {
	case ctx.Err() != nil:
		return exitInterrupt
	case errors.Is(err, apptoken.ErrClockUnavailable), errors.Is(err, apptoken.ErrClockImplausible):
		return exitClock
	case errors.Is(err, apptoken.ErrSigning):
		return exitSigning
	case errors.Is(err, apptoken.ErrAuthenticationRejected):
		return exitAuth
	case errors.Is(err, apptoken.ErrInstallationNotFound):
		return exitNotFound
	case errors.Is(err, apptoken.ErrScopeRejected):
		return exitScope
	case errors.Is(err, apptoken.ErrMalformedPermissions):
		return exitMalformed
	case errors.Is(err, apptoken.ErrTemporarilyUnavailable):
		return exitTransient
	case errors.Is(err, apptoken.ErrNetwork):
		return exitNetwork
	case errors.Is(err, apptoken.ErrOptions):
		return exitUsage
	default:
		return exitGeneric
	}
}
