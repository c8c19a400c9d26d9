package schema

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/models"
	"go-fleetdata/internal/pss"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}

func meta(extra map[string]any) map[string]any {
	m := map[string]any{
		"timestamp":       "2020-03-01T12:00:00",
		"duration":        42.5,
		"fleet_count":     1,
		"user_count":      1,
		"tourney_running": true,
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

func v4User() []any {
	return []any{1, "U1", 1, 1000, 0, 0, 191925293, 265343984, 265344565, 0, 0, 5, 2, 1, 1, 8, 0}
}

func v9Payload() map[string]any {
	user := append(v4User(), 11, 4000, 2)
	return map[string]any{
		"meta": meta(map[string]any{"schema_version": 9, "max_tournament_battle_attempts": 6}),
		"fleets": []any{
			[]any{1, "Fleet One", 500, 1, 1000, 12, 30, 28},
		},
		"users": []any{user},
	}
}

func TestDecodeV4User(t *testing.T) {
	payload := map[string]any{
		"meta":   meta(map[string]any{"schema_version": 4}),
		"fleets": []any{[]any{1, "Fleet One", 500, 1, 1000}},
		"users":  []any{v4User()},
	}

	c, version, err := Decode(mustJSON(t, payload))
	require.NoError(t, err)
	assert.Equal(t, 4, version)
	assert.Equal(t, 4, c.DataVersion)
	require.Len(t, c.Users, 1)

	u := c.Users[0]
	assert.Equal(t, int64(1), u.UserID)
	assert.Equal(t, "U1", u.UserName)
	assert.Equal(t, int64(1), u.AllianceID)
	assert.Equal(t, int64(1000), u.Trophy)
	assert.Equal(t, int64(0), u.AllianceScore)
	assert.Equal(t, pss.RankFleetAdmiral, u.AllianceMembership)
	require.NotNil(t, u.AllianceJoinDate)
	assert.Equal(t, pss.Epoch.Add(191925293*time.Second), *u.AllianceJoinDate)
	require.NotNil(t, u.LastLoginDate)
	assert.Equal(t, pss.Epoch.Add(265343984*time.Second), *u.LastLoginDate)
	require.NotNil(t, u.LastHeartbeatDate)
	assert.Equal(t, pss.Epoch.Add(265344565*time.Second), *u.LastHeartbeatDate)
	assert.Equal(t, int64(5), *u.PvPAttackWins)
	assert.Equal(t, int64(8), *u.PvPDefenceLosses)
	assert.Equal(t, int64(0), *u.PvPDefenceDraws)
	assert.Nil(t, u.ChampionshipScore)

	require.Len(t, c.Alliances, 1)
	assert.Equal(t, int64(1000), *c.Alliances[0].Trophy)
	assert.Equal(t, time.Date(2020, 3, 1, 12, 0, 0, 0, time.UTC), c.CollectedAt)
}

func TestDecodeV4NullDates(t *testing.T) {
	user := v4User()
	user[6] = nil
	user[8] = nil
	payload := map[string]any{
		"meta":   meta(map[string]any{"schema_version": 4}),
		"fleets": []any{},
		"users":  []any{user},
	}

	c, _, err := Decode(mustJSON(t, payload))
	require.NoError(t, err)
	assert.Nil(t, c.Users[0].AllianceJoinDate)
	assert.Nil(t, c.Users[0].LastHeartbeatDate)
	assert.NotNil(t, c.Users[0].LastLoginDate)
}

func TestDivisionForRank(t *testing.T) {
	tests := []struct {
		rank int
		want int
	}{
		{0, 1}, {7, 1}, {8, 2}, {19, 2}, {20, 3}, {49, 3}, {50, 4}, {99, 4},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, divisionForRank(tt.rank, true), "rank %d", tt.rank)
		assert.Equal(t, 0, divisionForRank(tt.rank, false), "rank %d without tournament", tt.rank)
	}
}

func legacyPayload(version int, tourney bool) map[string]any {
	fleets := make([]any, 0, 51)
	for i := 0; i < 51; i++ {
		fleets = append(fleets, []any{i + 1, "Fleet", 100 - i})
	}
	return map[string]any{
		"meta": meta(map[string]any{"data_version": version, "tourney_running": tourney, "fleet_count": 51, "user_count": 3}),
		"fleets": fleets,
		"users": []any{
			[]any{"10", "Alpha"},
			[]any{11, "Bravo"},
			[]any{12, "Charlie"},
		},
		"data": []any{
			[]any{10, 1, 10, 5, "FleetAdmiral", "2019-01-01T00:00:00", "2020-02-29T10:00:00"},
			[]any{11, 1, 20, 5, "Major", "", "2020-02-29T10:00:00"},
			[]any{12, 1, 30, 5, "Candidate", "2019-06-01T00:00:00+02:00", "2020-02-29T10:00:00Z"},
		},
	}
}

func TestDecodeLegacyBackfills(t *testing.T) {
	c, version, err := Decode(mustJSON(t, legacyPayload(3, true)))
	require.NoError(t, err)
	assert.Equal(t, 3, version)
	require.Len(t, c.Alliances, 51)

	for pos, want := range map[int]int{0: 1, 7: 1, 8: 2, 19: 2, 20: 3, 49: 3, 50: 4} {
		assert.Equal(t, want, c.Alliances[pos].DivisionDesignID, "position %d", pos)
	}

	require.NotNil(t, c.Alliances[0].Trophy)
	assert.Equal(t, int64(60), *c.Alliances[0].Trophy)
	assert.Equal(t, int64(0), *c.Alliances[1].Trophy)

	require.Len(t, c.Users, 3)
	assert.Equal(t, int64(10), c.Users[0].UserID)
	assert.Equal(t, pss.RankMajor, c.Users[1].AllianceMembership)
	assert.Nil(t, c.Users[1].AllianceJoinDate)
	require.NotNil(t, c.Users[2].AllianceJoinDate)
	assert.Equal(t, time.Date(2019, 5, 31, 22, 0, 0, 0, time.UTC), *c.Users[2].AllianceJoinDate)
}

func TestDecodeLegacyWithoutTournament(t *testing.T) {
	c, _, err := Decode(mustJSON(t, legacyPayload(2, false)))
	require.NoError(t, err)
	assert.Equal(t, 3, c.DataVersion)
	for _, a := range c.Alliances {
		assert.Equal(t, 0, a.DivisionDesignID)
	}
}

func TestDecodeV3ExplicitDivision(t *testing.T) {
	payload := legacyPayload(3, true)
	payload["fleets"] = []any{[]any{1, "Fleet", 100, 3}, []any{2, "Other", 90}}

	c, _, err := Decode(mustJSON(t, payload))
	require.NoError(t, err)
	assert.Equal(t, 3, c.Alliances[0].DivisionDesignID)
	assert.Equal(t, 1, c.Alliances[1].DivisionDesignID)
}

func TestDecodeLegacyMissingDetails(t *testing.T) {
	payload := legacyPayload(3, true)
	payload["data"] = payload["data"].([]any)[:2]

	_, _, err := Decode(mustJSON(t, payload))
	require.Error(t, err)
	assert.ErrorIs(t, err, fleeterr.KindSchemaValidation)
	assert.Contains(t, err.Error(), "ID 12")
}

func TestTupleArityErrors(t *testing.T) {
	tests := []struct {
		name  string
		fleet []any
		want  string
	}{
		{"too few", []any{1, "Fleet", 500, 1, 1000, 2, 3}, "missing one or more values"},
		{"too many", []any{1, "Fleet", 500, 1, 1000, 2, 3, 4, 5}, "not a valid representation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := v9Payload()
			payload["fleets"] = []any{[]any{1, "Fleet One", 500, 1, 1000, 12, 30, 28}, tt.fleet}

			_, _, err := Decode(mustJSON(t, payload))
			require.Error(t, err)
			assert.ErrorIs(t, err, fleeterr.KindSchemaValidation)
			assert.Contains(t, err.Error(), tt.want)
			assert.Contains(t, err.Error(), "fleet at index 1")
		})
	}
}

func TestLenientIntegers(t *testing.T) {
	payload := v9Payload()
	payload["fleets"] = []any{[]any{"1", "Fleet One", "500", 1, 1000.0, 12, 30, 28}}
	c, _, err := Decode(mustJSON(t, payload))
	require.NoError(t, err)
	assert.Equal(t, int64(500), c.Alliances[0].Score)

	payload["fleets"] = []any{[]any{1, "Fleet One", true, 1, 1000, 12, 30, 28}}
	_, _, err = Decode(mustJSON(t, payload))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "position 2 (score)")

	payload["fleets"] = []any{[]any{1, "Fleet One", 1.5, 1, 1000, 12, 30, 28}}
	_, _, err = Decode(mustJSON(t, payload))
	require.Error(t, err)
}

func TestDetectVersion(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]any
		want int
	}{
		{"schema version", map[string]any{"schema_version": 7, "data_version": 3}, 7},
		{"data version", map[string]any{"data_version": 5}, 5},
		{"default", map[string]any{}, pss.OldestSchemaVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse(mustJSON(t, map[string]any{"meta": tt.meta}))
			require.NoError(t, err)
			got, err := DetectVersion(p)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("metadata alias", func(t *testing.T) {
		p, err := Parse(mustJSON(t, map[string]any{"metadata": map[string]any{"schema_version": 6}}))
		require.NoError(t, err)
		got, err := DetectVersion(p)
		require.NoError(t, err)
		assert.Equal(t, 6, got)
	})

	t.Run("missing meta", func(t *testing.T) {
		p, err := Parse([]byte(`{"fleets": [], "users": []}`))
		require.NoError(t, err)
		_, err = DetectVersion(p)
		assert.ErrorIs(t, err, fleeterr.KindUnsupportedSchema)
	})
}

func TestDispatchErrors(t *testing.T) {
	t.Run("unsupported version", func(t *testing.T) {
		payload := v9Payload()
		payload["meta"] = meta(map[string]any{"schema_version": 10})
		_, _, err := Decode(mustJSON(t, payload))
		assert.ErrorIs(t, err, fleeterr.KindUnsupportedSchema)
	})

	t.Run("v4 users declared as v9", func(t *testing.T) {
		payload := v9Payload()
		payload["users"] = []any{v4User()}
		_, _, err := Decode(mustJSON(t, payload))
		require.Error(t, err)
		assert.ErrorIs(t, err, fleeterr.KindSchemaVersionMismatch)
		assert.Contains(t, err.Error(), "4, 5")
	})

	t.Run("data list in flat version", func(t *testing.T) {
		payload := v9Payload()
		payload["data"] = []any{[]any{1, 1, 1, 1, "Major", "", "2020-01-01T00:00:00"}}
		_, _, err := Decode(mustJSON(t, payload))
		assert.ErrorIs(t, err, fleeterr.KindSchemaVersionMismatch)
	})

	t.Run("forced version differs from declared", func(t *testing.T) {
		_, err := DecodeAs(mustJSON(t, v9Payload()), 8)
		assert.ErrorIs(t, err, fleeterr.KindSchemaVersionMismatch)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, _, err := Decode([]byte(`{"meta": `))
		require.Error(t, err)
		var fe *fleeterr.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, fleeterr.CodeInvalidJSONFormat, fe.Code)
	})

	t.Run("timestamp before epoch", func(t *testing.T) {
		payload := v9Payload()
		payload["meta"] = meta(map[string]any{"schema_version": 9, "timestamp": "2015-12-31T23:00:00"})
		_, _, err := Decode(mustJSON(t, payload))
		assert.ErrorIs(t, err, fleeterr.KindSchemaValidation)
	})

	t.Run("unknown rank code", func(t *testing.T) {
		payload := v9Payload()
		user := append(v4User(), 11, 4000, 2)
		user[5] = 7
		payload["users"] = []any{user}
		_, _, err := Decode(mustJSON(t, payload))
		assert.ErrorIs(t, err, fleeterr.KindSchemaValidation)
	})
}

func TestMetaTimestampAsSeconds(t *testing.T) {
	payload := v9Payload()
	payload["meta"] = meta(map[string]any{"schema_version": 9, "timestamp": 3600, "max_tournament_battle_attempts": 6})

	c, _, err := Decode(mustJSON(t, payload))
	require.NoError(t, err)
	assert.Equal(t, pss.Epoch.Add(time.Hour), c.CollectedAt)
}

func TestEncodeUser(t *testing.T) {
	u := &models.User{UserID: 3, UserName: "U3", AllianceMembership: pss.RankCandidate}

	tuple, err := EncodeUser(u)
	require.NoError(t, err)
	assert.Equal(t, 6, tuple[5])
	assert.Nil(t, tuple[6])
	assert.Equal(t, int64(0), tuple[7])
	assert.Nil(t, tuple[8])
	assert.Nil(t, tuple[19])

	_, err = EncodeUser(&models.User{AllianceMembership: "Admiral"})
	assert.Error(t, err)
}

func TestRoundTripLatestVersion(t *testing.T) {
	original, _, err := Decode(mustJSON(t, v9Payload()))
	require.NoError(t, err)
	original.CollectionID = 17

	encoded, err := EncodeCollection(original)
	require.NoError(t, err)
	assert.Equal(t, pss.LatestSchemaVersion, encoded.Meta.SchemaVersion)
	assert.Equal(t, int64(17), encoded.Meta.CollectionID)

	decoded, version, err := Decode(mustJSON(t, encoded))
	require.NoError(t, err)
	assert.Equal(t, pss.LatestSchemaVersion, version)

	decoded.CollectionID = original.CollectionID
	assert.Equal(t, original, decoded)
}

func TestRoundTripLegacyVersion(t *testing.T) {
	original, _, err := Decode(mustJSON(t, legacyPayload(3, true)))
	require.NoError(t, err)

	encoded, err := EncodeCollection(original)
	require.NoError(t, err)
	assert.Equal(t, 3, encoded.Meta.DataVersion)

	decoded, _, err := Decode(mustJSON(t, encoded))
	require.NoError(t, err)
	assert.Equal(t, original.Users, decoded.Users)
	assert.Equal(t, original.Alliances, decoded.Alliances)
	assert.Equal(t, 3, decoded.DataVersion)
}

func TestSupportedVersions(t *testing.T) {
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9}, SupportedVersions())
}

func TestCheckArityMessages(t *testing.T) {
	tp := tuple{kind: "user", index: 4, values: make([]json.RawMessage, 3)}
	err := tp.checkArity(5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user at index 4 is missing one or more values")
	assert.NoError(t, tp.checkArity(3, 4))
}

func TestEncodeEveryVersionAsLatest(t *testing.T) {
	legacyData := []any{[]any{1, 1, 1000, 0, "FleetAdmiral", "2022-01-01T00:00:00", "2022-06-01T00:00:00"}}
	legacyUser := []any{1, "U1", 1, 1000, 0, 0, 188956800, 202003200, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil}
	flatUser := func(extra ...any) []any {
		return append(v4User(), extra...)
	}
	latestUser := func(extra ...any) []any {
		u := flatUser(extra...)
		for len(u) < userArityV9 {
			u = append(u, nil)
		}
		return u
	}

	tests := []struct {
		version   int
		payload   map[string]any
		wantFleet []any
		wantUser  []any
	}{
		{
			version: 2,
			payload: map[string]any{
				"meta":   meta(map[string]any{"data_version": 2}),
				"fleets": []any{[]any{1, "Fleet One", 500}},
				"users":  []any{[]any{1, "U1"}},
				"data":   legacyData,
			},
			wantFleet: []any{1, "Fleet One", 500, 1, 1000, nil, nil, nil},
			wantUser:  legacyUser,
		},
		{
			version: 3,
			payload: map[string]any{
				"meta":   meta(map[string]any{"data_version": 3}),
				"fleets": []any{[]any{1, "Fleet One", 500, 2}},
				"users":  []any{[]any{1, "U1"}},
				"data":   legacyData,
			},
			wantFleet: []any{1, "Fleet One", 500, 2, 1000, nil, nil, nil},
			wantUser:  legacyUser,
		},
		{
			version: 4,
			payload: map[string]any{
				"meta":   meta(map[string]any{"schema_version": 4}),
				"fleets": []any{[]any{1, "Fleet One", 500, 1, 900}},
				"users":  []any{flatUser()},
			},
			wantFleet: []any{1, "Fleet One", 500, 1, 900, nil, nil, nil},
			wantUser:  latestUser(),
		},
		{
			version: 5,
			payload: map[string]any{
				"meta":   meta(map[string]any{"schema_version": 5}),
				"fleets": []any{[]any{1, "Fleet One", 500, 1, 900}},
				"users":  []any{flatUser()},
			},
			wantFleet: []any{1, "Fleet One", 500, 1, 900, nil, nil, nil},
			wantUser:  latestUser(),
		},
		{
			version: 6,
			payload: map[string]any{
				"meta":   meta(map[string]any{"schema_version": 6}),
				"fleets": []any{[]any{1, "Fleet One", 500, 1, 900, 12}},
				"users":  []any{flatUser(11)},
			},
			wantFleet: []any{1, "Fleet One", 500, 1, 900, 12, nil, nil},
			wantUser:  latestUser(11),
		},
		{
			version: 7,
			payload: map[string]any{
				"meta":   meta(map[string]any{"schema_version": 7}),
				"fleets": []any{[]any{1, "Fleet One", 500, 1, 900, 12, 30, 28}},
				"users":  []any{flatUser(11)},
			},
			wantFleet: []any{1, "Fleet One", 500, 1, 900, 12, 30, 28},
			wantUser:  latestUser(11),
		},
		{
			version: 8,
			payload: map[string]any{
				"meta":   meta(map[string]any{"schema_version": 8}),
				"fleets": []any{[]any{1, "Fleet One", 500, 1, 900, 12, 30, 28}},
				"users":  []any{flatUser(11, 4000)},
			},
			wantFleet: []any{1, "Fleet One", 500, 1, 900, 12, 30, 28},
			wantUser:  latestUser(11, 4000),
		},
		{
			version:   9,
			payload:   v9Payload(),
			wantFleet: []any{1, "Fleet One", 500, 1, 1000, 12, 30, 28},
			wantUser:  latestUser(11, 4000, 2),
		},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("v%d", tt.version), func(t *testing.T) {
			c, version, err := Decode(mustJSON(t, tt.payload))
			require.NoError(t, err)
			assert.Equal(t, tt.version, version)
			require.Len(t, c.Alliances, 1)
			require.Len(t, c.Users, 1)

			user, err := EncodeUser(&c.Users[0])
			require.NoError(t, err)
			assert.JSONEq(t, string(mustJSON(t, tt.wantFleet)), string(mustJSON(t, EncodeAlliance(&c.Alliances[0]))))
			assert.JSONEq(t, string(mustJSON(t, tt.wantUser)), string(mustJSON(t, user)))
		})
	}
}

func TestDecodeFlatBackfillsMissingTrophy(t *testing.T) {
	second := v4User()
	second[0] = 2
	second[1] = "U2"
	second[3] = 500
	payload := map[string]any{
		"meta":   meta(map[string]any{"schema_version": 4, "user_count": 2}),
		"fleets": []any{[]any{1, "Fleet One", 500, 1, nil}, []any{2, "Fleet Two", 400, 1, 70}},
		"users":  []any{v4User(), second},
	}

	c, _, err := Decode(mustJSON(t, payload))
	require.NoError(t, err)
	require.Len(t, c.Alliances, 2)
	require.NotNil(t, c.Alliances[0].Trophy)
	assert.Equal(t, int64(1500), *c.Alliances[0].Trophy)
	assert.Equal(t, int64(70), *c.Alliances[1].Trophy)
}

func TestDecodeRejectsOversizedOffsets(t *testing.T) {
	user := v4User()
	user[7] = int64(20000000000)
	payload := map[string]any{
		"meta":   meta(map[string]any{"schema_version": 4}),
		"fleets": []any{},
		"users":  []any{user},
	}

	_, _, err := Decode(mustJSON(t, payload))
	require.Error(t, err)
	assert.ErrorIs(t, err, fleeterr.KindSchemaValidation)
	assert.Contains(t, err.Error(), "last_login_date")

	payload = v9Payload()
	payload["meta"] = meta(map[string]any{"schema_version": 9, "timestamp": int64(20000000000), "max_tournament_battle_attempts": 6})
	_, _, err = Decode(mustJSON(t, payload))
	assert.ErrorIs(t, err, fleeterr.KindSchemaValidation)
}

func TestDecodeV9TournamentAttempts(t *testing.T) {
	t.Run("required for native data", func(t *testing.T) {
		payload := v9Payload()
		payload["meta"] = meta(map[string]any{"schema_version": 9})
		_, _, err := Decode(mustJSON(t, payload))
		require.Error(t, err)
		assert.ErrorIs(t, err, fleeterr.KindSchemaValidation)
		assert.Contains(t, err.Error(), "max_tournament_battle_attempts")
	})

	t.Run("negative", func(t *testing.T) {
		payload := v9Payload()
		payload["meta"] = meta(map[string]any{"schema_version": 9, "max_tournament_battle_attempts": -1})
		_, _, err := Decode(mustJSON(t, payload))
		assert.ErrorIs(t, err, fleeterr.KindSchemaValidation)
	})

	t.Run("null for data from older versions", func(t *testing.T) {
		payload := v9Payload()
		payload["meta"] = meta(map[string]any{"schema_version": 9, "data_version": 4, "max_tournament_battle_attempts": nil})
		c, _, err := Decode(mustJSON(t, payload))
		require.NoError(t, err)
		assert.Equal(t, 4, c.DataVersion)
		assert.Nil(t, c.MaxTournamentBattleAttempts)
	})
}
