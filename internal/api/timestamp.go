// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Timestamp represents a time generated by the GitHub API. It unmarshals
// both RFC3339 strings and unix epoch seconds, as the API is inconsistent
// across endpoints. It marshals as RFC3339 in UTC.
type Timestamp struct {
	time.Time
}

func (t Timestamp) String() string {
	return t.Time.UTC().Format(time.RFC3339)
}

// MarshalJSON implements [encoding/json.Marshaler].
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(t.String())), nil
}

// UnmarshalJSON implements [encoding/json.Unmarshaler].
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}

	// Unix epoch seconds (or milliseconds) without quotes.
	if !strings.HasPrefix(s, `"`) {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("api: invalid timestamp %q: %w", s, err)
		}
		// Heuristic for milliseconds, anything this large as seconds is
		// past year 33000.
		if v > 1e12 {
			t.Time = time.UnixMilli(v).UTC()
		} else {
			t.Time = time.Unix(v, 0).UTC()
		}
		return nil
	}

	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return fmt.Errorf("api: invalid timestamp %q: %w", s, err)
	}

	parsed, err := time.Parse(time.RFC3339, unquoted)
	if err != nil {
		return fmt.Errorf("api: invalid timestamp %q: %w", s, err)
	}

	t.Time = parsed.UTC()
	return nil
}

// Equal reports whether t and u represent the same instant.
// Required because [Timestamp] embeds [time.Time] which carries
// monotonic and location data irrelevant for API values.
func (t Timestamp) Equal(u Timestamp) bool {
	return t.Time.Equal(u.Time)
}
