package pss

import (
	"fmt"
	"time"
)

// Interval reduces a dense series of collections to representative samples.
type Interval string

const (
	// IntervalHour keeps every collection.
	IntervalHour Interval = "hour"
	// IntervalDay keeps the last collection before the daily reset (hour 23).
	IntervalDay Interval = "day"
	// IntervalMonth keeps the last collection before a month boundary.
	IntervalMonth Interval = "month"
)

// DefaultInterval applies when no interval is requested.
const DefaultInterval = IntervalMonth

// ParseInterval accepts "hour", "day" or "month". An empty value yields
// DefaultInterval.
func ParseInterval(value string) (Interval, error) {
	switch Interval(value) {
	case "":
		return DefaultInterval, nil
	case IntervalHour, IntervalDay, IntervalMonth:
		return Interval(value), nil
	}
	return "", fmt.Errorf("invalid interval %q, expected one of: hour, day, month", value)
}

// Matches reports whether a collection taken at t belongs to the bucket.
func (i Interval) Matches(t time.Time) bool {
	t = ToUTC(t)
	switch i {
	case IntervalDay:
		return t.Hour() == 23
	case IntervalMonth:
		return t.Month() != t.Add(time.Hour).Month()
	default:
		return true
	}
}
