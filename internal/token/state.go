// Package token holds the per-partition bearer credential captured from the browser.
package token

import "time"

// Clock is the wall-clock source used for credential ages.
type Clock func() time.Time

// State is one captured credential. A zero State means nothing was captured yet.
type State struct {
	Token      string
	SourceURL  string    // Request the token was observed on
	CapturedAt time.Time // Local observation time
	ExpiresAt  time.Time // JWT exp claim, diagnostic only; zero when absent
}

// Empty reports whether no token has been captured.
func (s State) Empty() bool {
	return s.Token == ""
}

// Age returns how long ago the token was observed.
func (s State) Age(now time.Time) time.Duration {
	if s.CapturedAt.IsZero() {
		return 0
	}
	return now.Sub(s.CapturedAt)
}

// Fresh reports whether the token may still be used without re-acquisition.
func (s State) Fresh(now time.Time, ttl time.Duration) bool {
	return !s.Empty() && s.Age(now) <= ttl
}

// CapturedAtMs returns the capture time as Unix milliseconds (0 when empty).
func (s State) CapturedAtMs() int64 {
	if s.CapturedAt.IsZero() {
		return 0
	}
	return s.CapturedAt.UnixMilli()
}

// ExpiresAtMs returns the decoded expiry as Unix milliseconds (0 when unknown).
func (s State) ExpiresAtMs() int64 {
	if s.ExpiresAt.IsZero() {
		return 0
	}
	return s.ExpiresAt.UnixMilli()
}
