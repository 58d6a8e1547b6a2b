// Package utils provides common utility functions for the plaza platform.
//
// This file implements ID display helpers shared by the daemon and the CLI.
// Plaza identifiers are UUIDs, which are too wide for aligned table output;
// the truncation helpers produce a Docker-style short form while remaining
// safe on malformed or already-short input.
package utils

import "strings"

// ShortIDLength is the number of characters shown for truncated identifiers.
// Matches the first UUID segment so short forms still look like the full id.
const ShortIDLength = 8

// TruncateID shortens a UUID to its first segment for table display.
// Input shorter than the short form is returned unchanged.
func TruncateID(id string) string {
	if len(id) <= ShortIDLength {
		return id
	}
	// Prefer a clean cut at the first dash for UUID-shaped input.
	if i := strings.IndexByte(id, '-'); i > 0 && i <= ShortIDLength {
		return id[:i]
	}
	return id[:ShortIDLength]
}
