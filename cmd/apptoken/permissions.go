// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// parsePermissions parses the permission scopes accepted on the command
// line. Both YAML mappings ("contents: read") and JSON objects
// ('{"contents":"read"}') are accepted, since YAML is a superset of JSON a
// single parser covers both. The core library only ever sees the
// normalized map.
func parsePermissions(text string) (map[string]string, error) {
	if text == "" {
		return nil, nil
	}

	var out map[string]string
	if err := yaml.Unmarshal([]byte(text), &out); err != nil {
		return nil, fmt.Errorf("invalid permissions %q, expected a mapping of scope to read|write|admin: %w", text, err)
	}

	return out, nil
}
