// Package schema decodes uploaded fleet data of every supported schema
// version into the canonical models and encodes them back into the latest
// wire shape.
package schema

import (
	"bytes"
	"encoding/json"
	"time"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/pss"
)

// Payload is an uploaded document split into its top level parts. The
// tuples stay raw until a version specific decoder reads them.
type Payload struct {
	Meta   map[string]json.RawMessage
	Fleets []json.RawMessage
	Users  []json.RawMessage
	// Data holds the per user detail rows of schema versions 2 and 3.
	Data []json.RawMessage
}

type rawPayload struct {
	Meta     map[string]json.RawMessage `json:"meta"`
	Metadata map[string]json.RawMessage `json:"metadata"`
	Fleets   []json.RawMessage          `json:"fleets"`
	Users    []json.RawMessage          `json:"users"`
	Data     []json.RawMessage          `json:"data"`
}

// Parse splits a JSON document into a Payload. Both "meta" and "metadata"
// name the metadata block.
func Parse(data []byte) (*Payload, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, fleeterr.Newf(fleeterr.KindSchemaValidation, fleeterr.CodeInvalidJSONFormat,
			"The uploaded data is not valid JSON", "expected a JSON object")
	}

	var raw rawPayload
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fleeterr.Newf(fleeterr.KindSchemaValidation, fleeterr.CodeInvalidJSONFormat,
			"The uploaded data is not valid JSON", "%v", err)
	}

	p := &Payload{
		Meta:   raw.Meta,
		Fleets: raw.Fleets,
		Users:  raw.Users,
		Data:   raw.Data,
	}
	if p.Meta == nil {
		p.Meta = raw.Metadata
	}
	return p, nil
}

// metadata is the decoded metadata block common to every version.
type metadata struct {
	Timestamp                   time.Time
	Duration                    float64
	FleetCount                  int
	UserCount                   int
	TourneyRunning              bool
	SchemaVersion               *int
	DataVersion                 *int
	MaxTournamentBattleAttempts *int
}

func parseMetadata(fields map[string]json.RawMessage) (*metadata, error) {
	m := &metadata{}
	var err error

	raw, ok := present(fields, "timestamp")
	if !ok {
		return nil, missingMeta("timestamp")
	}
	if m.Timestamp, err = parseMetaTimestamp(raw); err != nil {
		return nil, err
	}

	raw, ok = present(fields, "duration")
	if !ok {
		return nil, missingMeta("duration")
	}
	if err := json.Unmarshal(raw, &m.Duration); err != nil {
		return nil, fleeterr.SchemaValidation("meta.duration must be a number")
	}

	if m.FleetCount, err = requiredMetaInt(fields, "fleet_count"); err != nil {
		return nil, err
	}
	if m.UserCount, err = requiredMetaInt(fields, "user_count"); err != nil {
		return nil, err
	}

	raw, ok = present(fields, "tourney_running")
	if !ok {
		return nil, missingMeta("tourney_running")
	}
	if err := json.Unmarshal(raw, &m.TourneyRunning); err != nil {
		return nil, fleeterr.SchemaValidation("meta.tourney_running must be a boolean")
	}

	if m.SchemaVersion, err = optionalMetaInt(fields, "schema_version"); err != nil {
		return nil, err
	}
	if m.DataVersion, err = optionalMetaInt(fields, "data_version"); err != nil {
		return nil, err
	}
	if m.MaxTournamentBattleAttempts, err = optionalMetaInt(fields, "max_tournament_battle_attempts"); err != nil {
		return nil, err
	}
	return m, nil
}

// checkTournamentAttempts requires max_tournament_battle_attempts in native
// schema 9 data. Re-encoded collections that originate from an older
// data_version may carry null.
func (m *metadata) checkTournamentAttempts() error {
	if m.DataVersion != nil && *m.DataVersion < 9 {
		return nil
	}
	if m.MaxTournamentBattleAttempts == nil {
		return missingMeta("max_tournament_battle_attempts")
	}
	if *m.MaxTournamentBattleAttempts < 0 {
		return fleeterr.SchemaValidation("meta.max_tournament_battle_attempts must not be negative")
	}
	return nil
}

// parseMetaTimestamp accepts an ISO-8601 string or integer seconds since
// the epoch.
func parseMetaTimestamp(raw json.RawMessage) (time.Time, error) {
	var ts time.Time
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ts, fleeterr.SchemaValidation("meta.timestamp must be a string or an integer")
		}
		parsed, err := pss.ParseDateTime(s)
		if err != nil {
			return ts, fleeterr.SchemaValidation("meta.timestamp: %v", err)
		}
		ts = parsed
	} else {
		secs, err := parseInteger(raw)
		if err != nil {
			return ts, fleeterr.SchemaValidation("meta.timestamp: %v", err)
		}
		if ts, err = pss.FromSeconds(secs); err != nil {
			return ts, fleeterr.SchemaValidation("meta.timestamp: %v", err)
		}
	}
	if err := pss.CheckNotBeforeEpoch(ts); err != nil {
		return ts, fleeterr.SchemaValidation("meta.timestamp: %v", err)
	}
	return pss.StorageTime(ts), nil
}

func present(fields map[string]json.RawMessage, key string) (json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, false
	}
	return raw, true
}

func missingMeta(key string) error {
	return fleeterr.SchemaValidation("meta.%s is required", key)
}

func requiredMetaInt(fields map[string]json.RawMessage, key string) (int, error) {
	v, err := optionalMetaInt(fields, key)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, missingMeta(key)
	}
	return *v, nil
}

func optionalMetaInt(fields map[string]json.RawMessage, key string) (*int, error) {
	raw, ok := present(fields, key)
	if !ok {
		return nil, nil
	}
	v, err := parseInteger(raw)
	if err != nil {
		return nil, fleeterr.SchemaValidation("meta.%s: %v", key, err)
	}
	n := int(v)
	return &n, nil
}
