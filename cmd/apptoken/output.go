// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cibots/apptoken"
)

// writeOutputs hands the issued token to the invoking environment. With a
// path it appends name=value lines in the $GITHUB_OUTPUT convention
// (token, expiry and the token's effective permissions); without one the
// bare token goes to stdout for shell capture.
func writeOutputs(path, name string, token apptoken.Token) error {
	if name == "" {
		name = "token"
	}

	if path == "" {
		fmt.Println(token.Token)
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s=%s\n", name, token.Token)
	if !token.Exp.IsZero() {
		fmt.Fprintf(&b, "%s_expires_at=%s\n", name, token.Exp.UTC().Format(time.RFC3339))
	}
	for scope, level := range token.Permissions {
		fmt.Fprintf(&b, "%s_permission_%s=%s\n", name, scope, level)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open output file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(b.String()); err != nil {
		return fmt.Errorf("failed to write outputs: %w", err)
	}

	return nil
}
