package history

import (
	"strconv"
	"strings"
	"time"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/pss"
)

// RawParams are the history query parameters as received. They are bound
// as strings so that invalid values are reported with their own codes.
type RawParams struct {
	FromDate string `query:"fromDate" doc:"Only include collections at or after this time (ISO-8601)" example:"2021-01-01T00:00:00Z"`
	ToDate   string `query:"toDate" doc:"Only include collections at or before this time (ISO-8601)" example:"2021-01-31T23:59:59Z"`
	Interval string `query:"interval" doc:"Sampling interval: hour, day or month" example:"month"`
	Desc     string `query:"desc" doc:"Newest first when true" example:"false"`
	Skip     string `query:"skip" doc:"Number of entries to skip" example:"0"`
	Take     string `query:"take" doc:"Number of entries to return, 1 to 100" example:"100"`
}

// PageParams are the paging parameters of list endpoints.
type PageParams struct {
	Skip string `query:"skip" doc:"Number of entries to skip" example:"0"`
	Take string `query:"take" doc:"Number of entries to return, 1 to 100" example:"100"`
}

// ParsePage validates raw paging parameters.
func ParsePage(raw PageParams) (skip, take int, err error) {
	p, err := ParseParams(RawParams{Skip: raw.Skip, Take: raw.Take})
	if err != nil {
		return 0, 0, err
	}
	return p.Skip, p.Take, nil
}

// Params are validated history query parameters.
type Params struct {
	From     *time.Time
	To       *time.Time
	Interval pss.Interval
	Desc     bool
	Skip     int
	Take     int
}

// DefaultParams selects the first page of monthly samples.
func DefaultParams() Params {
	return Params{Interval: pss.DefaultInterval, Take: pss.DefaultTake}
}

// ParseParams validates raw. Empty values take their defaults.
func ParseParams(raw RawParams) (Params, error) {
	p := DefaultParams()
	var err error

	if p.From, err = parseDate(raw.FromDate, "fromDate", fleeterr.CodeParameterFromDate, fleeterr.CodeParameterFromDateTooEarly); err != nil {
		return p, err
	}
	if p.To, err = parseDate(raw.ToDate, "toDate", fleeterr.CodeParameterToDate, fleeterr.CodeParameterToDateTooEarly); err != nil {
		return p, err
	}
	if p.From != nil && p.To != nil && p.From.After(*p.To) {
		return p, fleeterr.Validation(fleeterr.CodeFromDateAfterToDate, "fromDate %s is after toDate %s",
			p.From.Format(time.RFC3339), p.To.Format(time.RFC3339)).
			WithSuggestion("Swap the dates or widen the range.")
	}

	if p.Interval, err = pss.ParseInterval(strings.TrimSpace(raw.Interval)); err != nil {
		return p, fleeterr.Validation(fleeterr.CodeParameterInterval, "interval: %v", err)
	}

	if v := strings.TrimSpace(raw.Desc); v != "" {
		if p.Desc, err = strconv.ParseBool(v); err != nil {
			return p, fleeterr.Validation(fleeterr.CodeParameterDesc, "desc must be true or false, got %q", raw.Desc)
		}
	}

	if v := strings.TrimSpace(raw.Skip); v != "" {
		skip, err := strconv.Atoi(v)
		if err != nil || skip < 0 {
			return p, fleeterr.Validation(fleeterr.CodeParameterSkip, "skip must be an integer of at least 0, got %q", raw.Skip)
		}
		p.Skip = skip
	}

	if v := strings.TrimSpace(raw.Take); v != "" {
		take, err := strconv.Atoi(v)
		if err != nil || take < 1 || take > pss.MaxTake {
			return p, fleeterr.Validation(fleeterr.CodeParameterTake, "take must be an integer from 1 to %d, got %q", pss.MaxTake, raw.Take)
		}
		p.Take = take
	}
	return p, nil
}

func parseDate(value, name string, invalid, tooEarly fleeterr.Code) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	t, err := pss.ParseDateTime(value)
	if err != nil {
		return nil, fleeterr.Validation(invalid, "%s: %v", name, err).
			WithSuggestion("Use an ISO-8601 timestamp such as 2021-01-31T23:00:00Z.")
	}
	if err := pss.CheckNotBeforeEpoch(t); err != nil {
		return nil, fleeterr.Validation(tooEarly, "%s: %v", name, err)
	}
	t = pss.StorageTime(t)
	return &t, nil
}
