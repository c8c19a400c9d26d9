package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/pss"
)

// tuple is one positional record of a payload, e.g. the fleet at index 3.
// Readers never index past the arity checked by checkArity.
type tuple struct {
	kind   string
	index  int
	values []json.RawMessage
}

func newTuple(kind string, index int, raw json.RawMessage) (tuple, error) {
	t := tuple{kind: kind, index: index}
	if err := json.Unmarshal(raw, &t.values); err != nil {
		return t, fleeterr.SchemaValidation("the %s at index %d is not an array", kind, index)
	}
	return t, nil
}

func (t tuple) arity() int {
	return len(t.values)
}

// checkArity requires the tuple to have exactly one of the given lengths.
func (t tuple) checkArity(allowed ...int) error {
	n := len(t.values)
	lowest, highest := allowed[0], allowed[0]
	for _, a := range allowed {
		if n == a {
			return nil
		}
		lowest = min(lowest, a)
		highest = max(highest, a)
	}
	if n < lowest {
		return fleeterr.SchemaValidation("the %s at index %d is missing one or more values (got %d, expected %s)", t.kind, t.index, n, arities(allowed))
	}
	if n > highest {
		return fleeterr.SchemaValidation("the %s at index %d is not a valid representation (got %d values, expected %s)", t.kind, t.index, n, arities(allowed))
	}
	return fleeterr.SchemaValidation("the %s at index %d has %d values, expected %s", t.kind, t.index, n, arities(allowed))
}

func arities(allowed []int) string {
	parts := make([]string, len(allowed))
	for i, a := range allowed {
		parts[i] = strconv.Itoa(a)
	}
	return strings.Join(parts, " or ")
}

func (t tuple) fail(pos int, field, format string, args ...any) error {
	return fleeterr.SchemaValidation("the %s at index %d has an invalid value at position %d (%s): %s",
		t.kind, t.index, pos, field, fmt.Sprintf(format, args...))
}

func (t tuple) isNull(pos int) bool {
	v := bytes.TrimSpace(t.values[pos])
	return len(v) == 0 || bytes.Equal(v, []byte("null"))
}

// int reads an integer. Numeric strings are accepted since the oldest
// schema versions encoded every field as a string.
func (t tuple) int(pos int, field string) (int64, error) {
	if t.isNull(pos) {
		return 0, t.fail(pos, field, "must not be null")
	}
	v, err := parseInteger(t.values[pos])
	if err != nil {
		return 0, t.fail(pos, field, "%v", err)
	}
	return v, nil
}

func (t tuple) nonNegative(pos int, field string) (int64, error) {
	v, err := t.int(pos, field)
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, t.fail(pos, field, "must be greater than or equal to 0, got %d", v)
	}
	return v, nil
}

func (t tuple) optNonNegative(pos int, field string) (*int64, error) {
	if t.isNull(pos) {
		return nil, nil
	}
	v, err := t.nonNegative(pos, field)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (t tuple) optCount(pos int, field string) (*int, error) {
	v, err := t.optNonNegative(pos, field)
	if err != nil || v == nil {
		return nil, err
	}
	n := int(*v)
	return &n, nil
}

func (t tuple) str(pos int, field string) (string, error) {
	var s string
	if err := json.Unmarshal(t.values[pos], &s); err != nil {
		return "", t.fail(pos, field, "must be a string")
	}
	return s, nil
}

// seconds reads an integer offset from the epoch.
func (t tuple) seconds(pos int, field string) (time.Time, error) {
	v, err := t.int(pos, field)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := pss.FromSeconds(v)
	if err != nil {
		return time.Time{}, t.fail(pos, field, "%v", err)
	}
	return pss.StorageTime(ts), nil
}

func (t tuple) optSeconds(pos int, field string) (*time.Time, error) {
	if t.isNull(pos) {
		return nil, nil
	}
	ts, err := t.seconds(pos, field)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// isoDate reads an ISO-8601 string. Values without an offset are UTC.
func (t tuple) isoDate(pos int, field string) (time.Time, error) {
	s, err := t.str(pos, field)
	if err != nil {
		return time.Time{}, err
	}
	ts, err := pss.ParseDateTime(s)
	if err != nil {
		return time.Time{}, t.fail(pos, field, "%v", err)
	}
	if err := pss.CheckNotBeforeEpoch(ts); err != nil {
		return time.Time{}, t.fail(pos, field, "%v", err)
	}
	return pss.StorageTime(ts), nil
}

func (t tuple) optISODate(pos int, field string) (*time.Time, error) {
	if t.isNull(pos) || bytes.Equal(bytes.TrimSpace(t.values[pos]), []byte(`""`)) {
		return nil, nil
	}
	ts, err := t.isoDate(pos, field)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (t tuple) rankCode(pos int, field string) (pss.Rank, error) {
	v, err := t.int(pos, field)
	if err != nil {
		return "", err
	}
	r, err := pss.RankFromCode(v)
	if err != nil {
		return "", t.fail(pos, field, "%v", err)
	}
	return r, nil
}

func (t tuple) rankName(pos int, field string) (pss.Rank, error) {
	s, err := t.str(pos, field)
	if err != nil {
		return "", err
	}
	r, err := pss.ParseRank(s)
	if err != nil {
		return "", t.fail(pos, field, "%v", err)
	}
	return r, nil
}

// parseInteger accepts a JSON number without fraction or a string holding
// one. Booleans are rejected.
func parseInteger(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, fmt.Errorf("missing value")
	}

	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("invalid string")
		}
		text = strings.TrimSpace(text)
	} else if raw[0] == 't' || raw[0] == 'f' || raw[0] == '[' || raw[0] == '{' {
		return 0, fmt.Errorf("expected an integer, got %s", text)
	}

	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expected an integer, got %s", string(raw))
	}
	if f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("expected an integer, got %s", string(raw))
	}
	return int64(f), nil
}
