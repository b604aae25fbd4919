// SPDX-FileCopyrightText: Copyright 2026 The apptoken Authors
// SPDX-License-Identifier: MIT

package apptoken

import (
	"fmt"

	"github.com/jonboulle/clockwork"
)

// Sane epoch window for clock plausibility checks. A reading outside this
// window indicates a misconfigured system clock (unset RTC, 1970 reset,
// far-future drift) and must abort the flow before any key material is
// touched.
const (
	// 2020-01-01T00:00:00Z
	minPlausibleUnix int64 = 1577836800
	// 2100-01-01T00:00:00Z
	maxPlausibleUnix int64 = 4102444800
)

// readClock returns the current instant as UTC epoch seconds.
//
// Epoch seconds are DST and leap-second transparent, so no calendar
// handling is needed anywhere downstream. Returns [ErrClockUnavailable]
// when the clock cannot be queried and [ErrClockImplausible] (with the
// raw reading in the diagnostic) when the reading falls outside the sane
// epoch window, so an operator can distinguish "no clock" from "wrong
// clock".
func readClock(clock clockwork.Clock) (int64, error) {
	if clock == nil {
		return 0, fmt.Errorf("%w: no clock configured", ErrClockUnavailable)
	}

	now := clock.Now()
	if now.IsZero() {
		return 0, fmt.Errorf("%w: clock returned zero time", ErrClockUnavailable)
	}

	unix := now.Unix()
	if unix < minPlausibleUnix || unix >= maxPlausibleUnix {
		return 0, fmt.Errorf("%w: reading %d outside [%d, %d)",
			ErrClockImplausible, unix, minPlausibleUnix, maxPlausibleUnix)
	}

	return unix, nil
}
