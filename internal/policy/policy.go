// Package policy holds the booking-limit rules as pure functions so they can
// be checked without a database. The facts they evaluate (active counts, tee
// time rows) are read inside the coordinator's transaction.
package policy

import (
	"time"

	"github.com/fairwaybook/teetime-service/internal/models"
)

const (
	// MaxActiveBookings caps pending+confirmed bookings per member for tee
	// times today or later.
	MaxActiveBookings = 3

	// CancellationWindow is the minimum lead time before a tee time's start
	// during which members may still cancel.
	CancellationWindow = 24 * time.Hour

	// HoldTTL is how long a pending booking keeps its slots before the
	// sweeper reclaims them.
	HoldTTL = 24 * time.Hour
)

// CapReached reports whether a member with the given active-booking count may
// not create another booking.
func CapReached(activeCount int64) bool {
	return activeCount >= MaxActiveBookings
}

// WithinCancellationWindow reports whether the tee time starts too soon for a
// member-initiated cancellation.
func WithinCancellationWindow(start, now time.Time) bool {
	return start.Sub(now) < CancellationWindow
}

// StartTime combines a tee time's calendar date with its clock-time string.
// An unparseable clock falls back to midnight, which only makes the
// cancellation window stricter.
func StartTime(tt *models.TeeTime) time.Time {
	clock, err := time.Parse("15:04", tt.Time)
	if err != nil {
		return time.Date(tt.Date.Year(), tt.Date.Month(), tt.Date.Day(), 0, 0, 0, 0, time.Local)
	}
	return time.Date(tt.Date.Year(), tt.Date.Month(), tt.Date.Day(), clock.Hour(), clock.Minute(), 0, 0, time.Local)
}
