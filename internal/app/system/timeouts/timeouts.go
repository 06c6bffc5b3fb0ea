// Package timeouts centralizes the context deadlines handlers put on
// store and identity-provider calls.
//
// Guidelines:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads and lookups
//   - Medium: list queries and simple writes
//   - Long: assignment runs, which touch every participant document
package timeouts

import "time"

const (
	ping   = 2 * time.Second
	short  = 5 * time.Second
	medium = 10 * time.Second
	long   = 30 * time.Second
)

// Ping returns the timeout for health checks.
func Ping() time.Duration { return ping }

// Short returns the timeout for single-document reads.
// Examples: get by id, lookup by Google account id.
func Short() time.Duration { return short }

// Medium returns the timeout for list queries and simple writes.
// Examples: roster listing, registration create.
func Medium() time.Duration { return medium }

// Long returns the timeout for a full assignment run.
func Long() time.Duration { return long }
