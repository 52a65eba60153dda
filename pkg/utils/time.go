package utils

import "time"

// DateLayout is the calendar-day format exchanged with clients
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar day as midnight UTC
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// FormatDate renders the UTC calendar day of t
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// NowUTC returns the current time in UTC
func NowUTC() time.Time {
	return time.Now().UTC()
}
