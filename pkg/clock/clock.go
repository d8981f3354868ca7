package clock

import "time"

// Clock supplies the current time. Status derivation, the daily sweep and
// sync reconciliation all take a Clock so tests can pin "today".
type Clock interface {
	Now() time.Time
}

// System is the wall clock
type System struct{}

func (System) Now() time.Time {
	return time.Now()
}

// Fixed always returns the same instant
type Fixed struct {
	Time time.Time
}

func (f Fixed) Now() time.Time {
	return f.Time
}
