// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package apptoken

import (
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/jonboulle/clockwork"
)

// Options takes a variadic slice of [Option] and returns a single [Option]
// which includes all the given options. This is useful for sharing presets.
// If conflicting options are specified, last one specified wins. As a
// special case, if no options are specified or all specified options are
// nil, this will return nil.
func Options(options ...Option) Option {
	nils := 0
	for i := range options {
		if options[i] == nil {
			nils++
		}
	}
	if len(options) == nils {
		return nil
	}

	return &funcOption{
		f: func(i *Issuer) error {
			var err error
			for idx := range options {
				if options[idx] != nil {
					err = errors.Join(err, options[idx].apply(i))
				}
			}
			return err
		},
	}
}

// Option is option to apply for [Issuer].
type Option interface {
	apply(i *Issuer) error
}

// funcOption wraps a function that is applied to the Issuer during its
// initial configuration. It implements [Option] interface.
type funcOption struct {
	f func(*Issuer) error
}

func (opt *funcOption) apply(i *Issuer) error {
	return opt.f(i)
}

var (
	idRegExp         = regexp.MustCompile(`^[0-9]+$`)
	permissionRegExp = regexp.MustCompile(`^[a-z]([a-z_]+[a-z])?$`)
)

// WithEndpoint configures [Issuer] to use a custom REST API(v3) endpoint,
// for use with GitHub Enterprise Server.
//
// When not specified or empty, "https://api.github.com/" is used.
func WithEndpoint(endpoint string) Option {
	if endpoint == "" {
		return nil
	}
	return &funcOption{
		f: func(i *Issuer) error {
			u, err := url.Parse(endpoint)
			if err != nil {
				return fmt.Errorf("invalid endpoint url: %w", err)
			}
			switch u.Scheme {
			case "http", "https":
			default:
				return fmt.Errorf("invalid url scheme: %s (%s)", u.Scheme, endpoint)
			}

			if u.Fragment != "" || u.RawQuery != "" {
				return fmt.Errorf("endpoint cannot have fragments or queries: %s", endpoint)
			}

			i.endpoint = u
			return nil
		},
	}
}

// WithRoundTripper configures [Issuer] to use next as [http.RoundTripper]
// for token exchange requests. This can be used to further customize
// headers or add logging.
func WithRoundTripper(next http.RoundTripper) Option {
	if next == nil {
		return nil
	}
	return &funcOption{
		f: func(i *Issuer) error {
			i.next = next
			return nil
		},
	}
}

// WithUserAgent configures the user agent header to use for token exchange
// requests. When not specified, a default identifying this module is used.
func WithUserAgent(ua string) Option {
	if ua == "" {
		return nil
	}
	return &funcOption{
		f: func(i *Issuer) error {
			i.ua = ua
			return nil
		},
	}
}

// WithPermissions limits the permission scopes of the issued token.
// Keys are scope names like "contents" or "issues", values are one of
// "read", "write" or "admin". When empty, the token gets every permission
// configured on the installation.
//
// Callers are expected to hand over an already normalized map; surface
// syntax (YAML/JSON text) belongs to the caller layer.
func WithPermissions(permissions map[string]string) Option {
	if len(permissions) == 0 {
		return nil
	}
	return &funcOption{
		f: func(i *Issuer) error {
			var err error
			for name, level := range permissions {
				if !permissionRegExp.MatchString(name) {
					err = errors.Join(err, fmt.Errorf("invalid permission scope: %s", name))
					continue
				}
				switch level {
				case "read", "write", "admin":
				default:
					err = errors.Join(err, fmt.Errorf("invalid permission level for %s: %s", name, level))
				}
			}
			if err != nil {
				return err
			}
			i.scopes = maps.Clone(permissions)
			return nil
		},
	}
}

// WithClock configures [Issuer] to use the given clock. Intended for
// testing with a fake clock; when not specified the real clock is used.
func WithClock(clock clockwork.Clock) Option {
	if clock == nil {
		return nil
	}
	return &funcOption{
		f: func(i *Issuer) error {
			i.clock = clock
			return nil
		},
	}
}

// WithHTTPTimeout configures the timeout for a single token exchange
// request. Default is 30 seconds. Timeout must be positive and no more
// than 5 minutes.
func WithHTTPTimeout(timeout time.Duration) Option {
	return &funcOption{
		f: func(i *Issuer) error {
			if timeout <= 0 || timeout > 5*time.Minute {
				return fmt.Errorf("invalid http timeout: %s", timeout)
			}
			i.timeout = timeout
			return nil
		},
	}
}
