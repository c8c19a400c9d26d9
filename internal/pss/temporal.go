// Package pss holds the constants and small codecs shared by every schema
// version of the fleet data: the game epoch, integer second offsets,
// alliance membership ranks and history interval buckets.
package pss

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Epoch is the game launch instant. Integer timestamps in schema versions 4
// and later count seconds from it.
var Epoch = time.Date(2016, time.January, 6, 0, 0, 0, 0, time.UTC)

const (
	// LatestSchemaVersion is the wire shape produced by every encoder.
	LatestSchemaVersion = 9
	// OldestSchemaVersion is assumed when a payload does not declare its version.
	OldestSchemaVersion = 3

	DefaultTake = 100
	MaxTake     = 100
)

// MaxSeconds is the largest offset from Epoch that a time.Duration can hold.
const MaxSeconds = math.MaxInt64 / int64(time.Second)

var (
	// ErrBeforeEpoch is returned for timestamps earlier than Epoch.
	ErrBeforeEpoch = errors.New("timestamp is before the game epoch (2016-01-06T00:00:00Z)")
	// ErrOffsetTooLarge is returned for offsets above MaxSeconds.
	ErrOffsetTooLarge = fmt.Errorf("offset exceeds %d seconds", MaxSeconds)
)

// dateTimeLayouts are tried in order. Layouts without an offset parse as UTC.
var dateTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ToUTC converts t to UTC. Values parsed without an offset already are UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// StripTZ reinterprets the wall clock of t as UTC, dropping its zone.
func StripTZ(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// StorageTime normalizes t for persistence: UTC, zone stripped, millisecond
// precision so that both gateways agree on equality.
func StorageTime(t time.Time) time.Time {
	return StripTZ(ToUTC(t)).Truncate(time.Millisecond)
}

// SecondsSinceEpoch returns the whole seconds between Epoch and t, or 0 when
// t lies before Epoch.
func SecondsSinceEpoch(t time.Time) int64 {
	d := ToUTC(t).Sub(Epoch)
	if d < 0 {
		return 0
	}
	return int64(d / time.Second)
}

// OptionalSecondsSinceEpoch maps nil to nil.
func OptionalSecondsSinceEpoch(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	s := SecondsSinceEpoch(*t)
	return &s
}

// FromSeconds decodes an integer offset from Epoch.
func FromSeconds(seconds int64) (time.Time, error) {
	if seconds < 0 {
		return time.Time{}, fmt.Errorf("%w: offset %d", ErrBeforeEpoch, seconds)
	}
	if seconds > MaxSeconds {
		return time.Time{}, fmt.Errorf("%w: offset %d", ErrOffsetTooLarge, seconds)
	}
	return Epoch.Add(time.Duration(seconds) * time.Second), nil
}

// ParseDateTime parses an ISO-8601 timestamp. A value without an offset is
// treated as UTC.
func ParseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return ToUTC(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid ISO-8601 timestamp %q", value)
}

// CheckNotBeforeEpoch rejects timestamps earlier than Epoch.
func CheckNotBeforeEpoch(t time.Time) error {
	if ToUTC(t).Before(Epoch) {
		return fmt.Errorf("%w: %s", ErrBeforeEpoch, ToUTC(t).Format(time.RFC3339))
	}
	return nil
}
