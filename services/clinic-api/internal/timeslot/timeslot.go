package timeslot

import (
	"errors"
	"fmt"
	"time"
)

var ErrBadClock = errors.New("invalid time of day")

// NormalizeClock parses a clock string ("15:04" or "15:04:05") and returns it
// truncated to minute granularity. Slot equality is defined on the truncated
// form, so 09:00:30 and 09:00 occupy the same slot.
func NormalizeClock(raw string) (string, error) {
	var t time.Time
	var err error
	for _, layout := range []string{"15:04", "15:04:05"} {
		t, err = time.Parse(layout, raw)
		if err == nil {
			return t.Format("15:04"), nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrBadClock, raw)
}

// ParseDate parses a civil date in ISO form (2006-01-02), UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", raw, time.UTC)
}

// Overdue reports whether a slot at date+clock has already passed relative to
// now. The date is in the past, or is today with the clock time elapsed.
func Overdue(date time.Time, clock string, now time.Time) bool {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(today) {
		return true
	}
	if day.After(today) {
		return false
	}
	normalized, err := NormalizeClock(clock)
	if err != nil {
		return false
	}
	return normalized < now.UTC().Format("15:04")
}
