package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	layoutDate  = "2006-01-02"
	layoutMonth = "2006-01"
	layoutClock = "15:04"
)

// NowUTC returns current time in UTC.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// ParseDate parses YYYY-MM-DD as a calendar date (UTC midnight).
func ParseDate(s string) (time.Time, error) {
	return time.Parse(layoutDate, strings.TrimSpace(s))
}

// FormatDate formats t as YYYY-MM-DD in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(layoutDate)
}

// FormatClock formats t as HH:mm in loc.
func FormatClock(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format(layoutClock)
}

// CurrentMonth returns yyyy-MM for now in loc.
func CurrentMonth(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc).Format(layoutMonth)
}

// MonthRange returns the first and last calendar dates of a yyyy-MM month.
func MonthRange(month string) (string, string, error) {
	start, err := time.Parse(layoutMonth, strings.TrimSpace(month))
	if err != nil {
		return "", "", fmt.Errorf("invalid month %q", month)
	}
	end := start.AddDate(0, 1, -1)
	return start.Format(layoutDate), end.Format(layoutDate), nil
}
