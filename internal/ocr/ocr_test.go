package ocr

import (
	"testing"
	"time"

	"github.com/shelfwatch/shelfwatch/pkg/clock"
)

var testClock = clock.Fixed{Time: time.Date(2026, time.June, 15, 10, 30, 0, 0, time.UTC)}

func TestParseExpiryDateFormats(t *testing.T) {
	tests := []struct {
		name string
		text string
		want time.Time
	}{
		{"iso", "EXP 2027-06-15 LOT 42A", time.Date(2027, time.June, 15, 0, 0, 0, 0, time.UTC)},
		{"day first slashes", "Best before 20/08/2026", time.Date(2026, time.August, 20, 0, 0, 0, 0, time.UTC)},
		{"day first dashes", "BBE 01-12-2026", time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC)},
		{"day month year words", "Use by 12 Jan 2027", time.Date(2027, time.January, 12, 0, 0, 0, 0, time.UTC)},
		{"month day year words", "Expires Jan 12, 2027", time.Date(2027, time.January, 12, 0, 0, 0, 0, time.UTC)},
		{"full month name", "15 September 2026", time.Date(2026, time.September, 15, 0, 0, 0, 0, time.UTC)},
		{"two digit year", "EXP 01/07/27", time.Date(2027, time.July, 1, 0, 0, 0, 0, time.UTC)},
		{"expiring today", "2026-06-15", time.Date(2026, time.June, 15, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseExpiryDate(tt.text, testClock)
			if !ok {
				t.Fatalf("no date found in %q", tt.text)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("date = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseExpiryDateRejectsImplausible(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"past date", "EXP 01/01/2020"},
		{"too far out", "EXP 01/01/2040"},
		{"calendar overflow", "EXP 30/02/2027"},
		{"no date at all", "NET WT 500g LOT 42A"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if d, ok := ParseExpiryDate(tt.text, testClock); ok {
				t.Fatalf("accepted %q as %v", tt.text, d)
			}
		})
	}
}

func TestParseExpiryDatePrefersISO(t *testing.T) {
	// When both forms appear the unambiguous one wins
	got, ok := ParseExpiryDate("MFD 01/02/2026 EXP 2027-03-04", testClock)
	if !ok {
		t.Fatalf("no date found")
	}
	want := time.Date(2027, time.March, 4, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("date = %v, want %v", got, want)
	}
}

func TestParseExpiryDateSkipsPastCandidates(t *testing.T) {
	// A past manufacture date precedes the expiry date on many labels
	got, ok := ParseExpiryDate("MFD 01/05/2026 EXP 01/05/2027", testClock)
	if !ok {
		t.Fatalf("no date found")
	}
	want := time.Date(2027, time.May, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("date = %v, want %v", got, want)
	}
}
