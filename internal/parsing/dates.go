package parsing

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Day-first layouts are tried before ISO; local bank exports use DD.MM.YYYY.
var dateLayouts = []string{
	"2.1.2006",
	"2/1/2006",
	"2-1-2006",
	"2006-1-2",
	"2 Jan 2006",
	"2 January 2006",
}

// Timestamps must land in years 1 through 9999
var (
	minUnixSeconds = float64(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC).Unix())
	maxUnixSeconds = float64(time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC).Unix())
)

var embeddedDatePattern = regexp.MustCompile(`(\d{1,4}[.\-/]\d{1,2}[.\-/]\d{2,4})`)

// ParseDate resolves a date of unknown shape. It tries the fixed layouts,
// then a unix timestamp (seconds, or milliseconds above 1e10), then a date
// embedded in surrounding text. The result is midnight UTC.
func ParseDate(value string) (time.Time, bool) {
	return parseDate(value, true)
}

func parseDate(value string, allowExtract bool) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return truncateDay(t), true
		}
	}

	if t, ok := parseTimestamp(value); ok {
		return t, true
	}

	if allowExtract {
		if match := embeddedDatePattern.FindString(value); match != "" {
			return parseDate(match, false)
		}
	}

	return time.Time{}, false
}

// parseTimestamp reads unix seconds, or milliseconds above 1e10. Values
// outside the representable calendar fail.
func parseTimestamp(value string) (time.Time, bool) {
	ts, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(ts) || math.IsInf(ts, 0) {
		return time.Time{}, false
	}
	if ts > 1e10 {
		ts /= 1000
	}
	if ts < minUnixSeconds || ts > maxUnixSeconds {
		return time.Time{}, false
	}
	sec, frac := math.Modf(ts)
	return truncateDay(time.Unix(int64(sec), int64(frac*1e9)).UTC()), true
}

// CleanDate applies ParseDate with the pipeline's fallback: missing input
// means today, unparseable input is a failure.
func CleanDate(value string, now time.Time) (time.Time, bool) {
	if strings.TrimSpace(value) == "" {
		return Today(now), true
	}
	return ParseDate(value)
}

// Today is midnight UTC of now's calendar day in UTC
func Today(now time.Time) time.Time {
	return truncateDay(now.UTC())
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
