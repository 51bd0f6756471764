// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Email
// ═══════════════════════════════════════════════════════════════════════════

// Email is a normalized (trimmed, lower-cased) e-mail address.
type Email string

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NewEmail normalizes and validates an address.
func NewEmail(raw string) (Email, error) {
	e := Email(strings.ToLower(strings.TrimSpace(raw)))
	if !e.IsValid() {
		return "", ErrInvalidEmail
	}
	return e, nil
}

// IsValid checks the address shape.
func (e Email) IsValid() bool {
	return emailRegex.MatchString(string(e))
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// ═══════════════════════════════════════════════════════════════════════════
// Time Range
// ═══════════════════════════════════════════════════════════════════════════

// Day is the unit leaderboard durations are expressed in.
const Day = 24 * time.Hour

// MaxDurationDays caps leaderboard durations. Longer windows would not fit
// in a time.Duration.
const MaxDurationDays = 3650

// TimeRange represents a half-open time window [From, To).
type TimeRange struct {
	From time.Time
	To   time.Time
}

// NewDayRange builds a window of the given number of whole days starting at from.
func NewDayRange(from time.Time, days int) TimeRange {
	return TimeRange{From: from, To: from.Add(time.Duration(days) * Day)}
}

// IsValid checks that the window is not inverted.
func (t TimeRange) IsValid() bool {
	return !t.To.Before(t.From)
}

// Duration returns the window length.
func (t TimeRange) Duration() time.Duration {
	return t.To.Sub(t.From)
}

// Contains reports whether tm falls inside the window.
func (t TimeRange) Contains(tm time.Time) bool {
	return !tm.Before(t.From) && tm.Before(t.To)
}
