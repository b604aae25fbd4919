// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

// Package keyfile loads RSA private keys for app authentication.
//
// Key material is held only in memory; nothing in this package writes key
// bytes to disk. Callers own the returned buffers and are expected to
// [Zero] them on every exit path once the key is parsed. Errors never
// contain key material.
package keyfile

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Read reads a PEM encoded private key file. Files readable or writable
// by group or others are refused, same discipline as ssh applies to
// identity files. Permission checks are skipped on windows, where unix
// permission bits are not meaningful.
func Read(path string) ([]byte, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("keyfile: cannot stat key file: %w", err)
	}

	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("keyfile: not a regular file: %s", path)
	}

	if runtime.GOOS != "windows" {
		if perm := fi.Mode().Perm(); perm&0o077 != 0 {
			return nil, fmt.Errorf("keyfile: permissions %04o on %s are too open, expected owner-only access", perm, path)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keyfile: cannot read key file: %w", err)
	}

	return data, nil
}

// Normalize prepares a PEM string received via an environment variable or
// similar single-line transport: literal "\n" escape sequences become
// newlines and surrounding whitespace is trimmed.
func Normalize(s string) []byte {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, `\n`, "\n")
	return []byte(s)
}

// Parse parses a PEM encoded RSA private key in PKCS#1 ("RSA PRIVATE KEY")
// or PKCS#8 ("PRIVATE KEY") form. Keys smaller than 2048 bits are refused.
func Parse(data []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("keyfile: no PEM block found")
	}

	var key *rsa.PrivateKey
	switch block.Type {
	case "RSA PRIVATE KEY":
		v, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("keyfile: failed to parse PKCS#1 key: %w", err)
		}
		key = v
	case "PRIVATE KEY":
		v, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("keyfile: failed to parse PKCS#8 key: %w", err)
		}
		rsaKey, ok := v.(*rsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("keyfile: not an RSA key: %T", v)
		}
		key = rsaKey
	default:
		return nil, fmt.Errorf("keyfile: unsupported PEM block type: %s", block.Type)
	}

	if key.N.BitLen() < 2048 {
		return nil, fmt.Errorf("keyfile: rsa key size(%d) < 2048 bits", key.N.BitLen())
	}

	return key, nil
}

// Zero overwrites buf with zero bytes. Best effort erasure of PEM
// material once the parsed key exists; the go runtime may have made
// intermediate copies, but the primary buffer does not outlive its use.
func Zero(buf []byte) {
	for i := range buf {
		buf[i] = 0
	}
}
