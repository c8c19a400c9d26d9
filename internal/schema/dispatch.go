package schema

import (
	"slices"
	"strconv"
	"strings"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/models"
	"go-fleetdata/internal/pss"
)

// layout describes the wire shape of one schema version.
type layout struct {
	decode       Decoder
	fleetArities []int
	userArity    int
	// detailRows marks versions whose user details live in a separate data list.
	detailRows bool
}

var layouts = map[int]layout{
	2: {decode: DecodeV2, fleetArities: []int{allianceArityV2}, userArity: userArityV3, detailRows: true},
	3: {decode: DecodeV3, fleetArities: []int{allianceArityV2, allianceArityV3}, userArity: userArityV3, detailRows: true},
	4: {decode: DecodeV4, fleetArities: []int{allianceArityV4}, userArity: userArityV4},
	5: {decode: DecodeV5, fleetArities: []int{allianceArityV4}, userArity: userArityV4},
	6: {decode: DecodeV6, fleetArities: []int{allianceArityV6}, userArity: userArityV6},
	7: {decode: DecodeV7, fleetArities: []int{allianceArityV7}, userArity: userArityV6},
	8: {decode: DecodeV8, fleetArities: []int{allianceArityV7}, userArity: userArityV8},
	9: {decode: DecodeV9, fleetArities: []int{allianceArityV7}, userArity: userArityV9},
}

// SupportedVersions lists every schema version Dispatch accepts, ascending.
func SupportedVersions() []int {
	versions := make([]int, 0, len(layouts))
	for v := range layouts {
		versions = append(versions, v)
	}
	slices.Sort(versions)
	return versions
}

// DetectVersion reads the declared schema version of p: meta.schema_version,
// else meta.data_version, else the oldest version.
func DetectVersion(p *Payload) (int, error) {
	if p == nil || p.Meta == nil {
		return 0, fleeterr.UnsupportedSchema("the payload has no metadata block (meta)")
	}
	for _, key := range []string{"schema_version", "data_version"} {
		raw, ok := present(p.Meta, key)
		if !ok {
			continue
		}
		v, err := parseInteger(raw)
		if err != nil {
			return 0, fleeterr.UnsupportedSchema("meta.%s must be an integer, got %s", key, string(raw))
		}
		return int(v), nil
	}
	return pss.OldestSchemaVersion, nil
}

// Dispatch decodes p as the given schema version and validates the result.
func Dispatch(p *Payload, version int) (*models.Collection, error) {
	l, ok := layouts[version]
	if !ok {
		return nil, fleeterr.UnsupportedSchema("schema version %d is not supported, supported versions are %s", version, joinVersions(SupportedVersions()))
	}
	if p == nil || p.Meta == nil {
		return nil, fleeterr.UnsupportedSchema("the payload has no metadata block (meta)")
	}
	if raw, ok := present(p.Meta, "schema_version"); ok {
		if declared, err := parseInteger(raw); err == nil && int(declared) != version {
			return nil, fleeterr.SchemaVersionMismatch("meta.schema_version declares %d, but the payload is decoded as schema version %d", declared, version)
		}
	}
	if err := checkShape(p, version, l); err != nil {
		return nil, err
	}

	c, err := l.decode(p)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Decode parses data, detects its schema version and dispatches it.
func Decode(data []byte) (*models.Collection, int, error) {
	p, err := Parse(data)
	if err != nil {
		return nil, 0, err
	}
	version, err := DetectVersion(p)
	if err != nil {
		return nil, 0, err
	}
	c, err := Dispatch(p, version)
	if err != nil {
		return nil, version, err
	}
	return c, version, nil
}

// DecodeAs parses data and decodes it as the given schema version,
// regardless of what the metadata declares about the data version.
func DecodeAs(data []byte, version int) (*models.Collection, error) {
	p, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return Dispatch(p, version)
}

// checkShape compares the first fleet and user tuple against the layout of
// version. A tuple that fits another version instead is a version mismatch;
// anything else is left to the decoder to report.
func checkShape(p *Payload, version int, l layout) error {
	if !l.detailRows && len(p.Data) > 0 {
		return fleeterr.SchemaVersionMismatch("schema version %d has no data list, but the payload has one, which matches schema version(s) %s",
			version, joinVersions(versionsWhere(func(o layout) bool { return o.detailRows })))
	}

	if len(p.Users) > 0 {
		if t, err := newTuple("user", 0, p.Users[0]); err == nil && t.arity() != l.userArity {
			n := t.arity()
			if others := versionsWhere(func(o layout) bool { return o.userArity == n }); len(others) > 0 {
				return fleeterr.SchemaVersionMismatch("schema version %d expects users of %d values, but the first user has %d, which matches schema version(s) %s",
					version, l.userArity, n, joinVersions(others))
			}
		}
	}

	if len(p.Fleets) > 0 {
		if t, err := newTuple("fleet", 0, p.Fleets[0]); err == nil && !slices.Contains(l.fleetArities, t.arity()) {
			n := t.arity()
			if others := versionsWhere(func(o layout) bool { return slices.Contains(o.fleetArities, n) }); len(others) > 0 {
				return fleeterr.SchemaVersionMismatch("schema version %d expects fleets of %s values, but the first fleet has %d, which matches schema version(s) %s",
					version, arities(l.fleetArities), n, joinVersions(others))
			}
		}
	}
	return nil
}

func versionsWhere(match func(layout) bool) []int {
	var out []int
	for _, v := range SupportedVersions() {
		if match(layouts[v]) {
			out = append(out, v)
		}
	}
	return out
}

func joinVersions(versions []int) string {
	parts := make([]string, len(versions))
	for i, v := range versions {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
