package domain

import "time"

// Status is the lifecycle status of an item. It is always derivable from
// the expiry date and the current date; transitions run one way in practice
// (Pending -> Active -> Expiring Soon -> Expired) but are recomputed
// idempotently rather than driven by a transition table.
type Status string

const (
	StatusPending      Status = "Pending Expiry Date"
	StatusActive       Status = "Active"
	StatusExpiringSoon Status = "Expiring Soon"
	StatusExpired      Status = "Expired"
)

const (
	// ExpiringSoonDays is the window, in days, before expiry during which
	// an item counts as expiring soon
	ExpiringSoonDays = 30

	// PendingGrace is how long an item without an expiry date stays
	// Pending after its last status change
	PendingGrace = 24 * time.Hour
)

// DeriveStatus computes an item's status and days-until-expiry from its
// expiry date and the current time. Pure: calling it twice with the same
// inputs yields the same result, and it never touches persistence.
//
// Comparisons run at calendar-date granularity; time-of-day is truncated
// first so a datetime expiry cannot shift the result by a day.
//
// With no expiry date, an item whose status changed within the last 24
// hours is Pending; after that it degrades to Expiring Soon with a
// placeholder 30 days remaining. The placeholder is carried over from the
// historical behavior this replaces; a cleaner design would stay Pending
// until a date is supplied.
func DeriveStatus(expiry, statusChangedAt *time.Time, now time.Time) (Status, *int) {
	if expiry == nil {
		if statusChangedAt != nil && now.Sub(*statusChangedAt) <= PendingGrace {
			return StatusPending, nil
		}
		fallback := ExpiringSoonDays
		return StatusExpiringSoon, &fallback
	}

	days := DaysBetween(now, *expiry)
	switch {
	case days <= 0:
		return StatusExpired, &days
	case days <= ExpiringSoonDays:
		return StatusExpiringSoon, &days
	default:
		return StatusActive, &days
	}
}

// DaysBetween returns the number of calendar days from one time to another,
// normalizing both to midnight so time-of-day never causes off-by-one
func DaysBetween(from, to time.Time) int {
	from = time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	to = time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, from.Location())
	return int(to.Sub(from).Hours() / 24)
}
