package ocr

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shelfwatch/shelfwatch/pkg/clock"
)

// Extractor turns a label photograph into raw text. The OCR engine
// itself runs as an external service; this package only parses the
// text it returns.
type Extractor interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}

// maxFutureYears rejects dates implausibly far out, usually a
// misrecognized digit
const maxFutureYears = 10

var (
	numericDMY = regexp.MustCompile(`(\d{1,2})[-/](\d{1,2})[-/](\d{2,4})`)
	numericYMD = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	textualDMY = regexp.MustCompile(`(?i)(\d{1,2})\s+(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{2,4})`)
	textualMDY = regexp.MustCompile(`(?i)(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+(\d{1,2}),?\s+(\d{2,4})`)
)

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// ParseExpiryDate scans OCR output for the first plausible expiry date.
// Supported formats: DD/MM/YYYY, DD-MM-YYYY, YYYY-MM-DD, "12 Jan 2027",
// "Jan 12, 2027". Two-digit years are assumed to be 20xx. Dates in the
// past or more than ten years out are rejected as misreads.
func ParseExpiryDate(text string, clk clock.Clock) (*time.Time, bool) {
	now := clk.Now()

	for _, m := range numericYMD.FindAllStringSubmatch(text, -1) {
		if d, ok := buildDate(m[1], m[2], m[3], now); ok {
			return d, true
		}
	}
	for _, m := range numericDMY.FindAllStringSubmatch(text, -1) {
		if d, ok := buildDate(m[3], m[2], m[1], now); ok {
			return d, true
		}
	}
	for _, m := range textualDMY.FindAllStringSubmatch(text, -1) {
		month, ok := months[strings.ToLower(m[2][:3])]
		if !ok {
			continue
		}
		if d, ok := buildDate(m[3], strconv.Itoa(int(month)), m[1], now); ok {
			return d, true
		}
	}
	for _, m := range textualMDY.FindAllStringSubmatch(text, -1) {
		month, ok := months[strings.ToLower(m[1][:3])]
		if !ok {
			continue
		}
		if d, ok := buildDate(m[3], strconv.Itoa(int(month)), m[2], now); ok {
			return d, true
		}
	}
	return nil, false
}

func buildDate(yearStr, monthStr, dayStr string, now time.Time) (*time.Time, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil, false
	}
	if len(yearStr) == 2 {
		year += 2000
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return nil, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return nil, false
	}

	date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)

	// Overflow check catches e.g. Feb 30 rolling into March
	if date.Day() != day || date.Month() != time.Month(month) {
		return nil, false
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return nil, false
	}
	if date.After(today.AddDate(maxFutureYears, 0, 0)) {
		return nil, false
	}
	return &date, true
}
