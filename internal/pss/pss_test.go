package pss

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecondsSinceEpoch(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want int64
	}{
		{"epoch", Epoch, 0},
		{"one day later", Epoch.Add(24 * time.Hour), 86400},
		{"before epoch clamps to zero", Epoch.Add(-time.Hour), 0},
		{"fraction truncated", Epoch.Add(1500 * time.Millisecond), 1},
		{"other zone", time.Date(2016, 1, 6, 2, 0, 0, 0, time.FixedZone("CEST", 2*3600)), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SecondsSinceEpoch(tt.in))
		})
	}
}

func TestFromSeconds(t *testing.T) {
	got, err := FromSeconds(191925293)
	require.NoError(t, err)
	assert.Equal(t, Epoch.Add(191925293*time.Second), got)
	assert.Equal(t, int64(191925293), SecondsSinceEpoch(got))

	_, err = FromSeconds(-1)
	assert.ErrorIs(t, err, ErrBeforeEpoch)

	last, err := FromSeconds(MaxSeconds)
	require.NoError(t, err)
	assert.True(t, last.After(Epoch))

	_, err = FromSeconds(MaxSeconds + 1)
	assert.ErrorIs(t, err, ErrOffsetTooLarge)
}

func TestOptionalSecondsSinceEpoch(t *testing.T) {
	assert.Nil(t, OptionalSecondsSinceEpoch(nil))

	ts := Epoch.Add(10 * time.Second)
	got := OptionalSecondsSinceEpoch(&ts)
	require.NotNil(t, got)
	assert.Equal(t, int64(10), *got)
}

func TestParseDateTime(t *testing.T) {
	want := time.Date(2019, 10, 9, 23, 59, 0, 0, time.UTC)

	tests := []struct {
		name  string
		value string
	}{
		{"naive with T", "2019-10-09T23:59:00"},
		{"naive with space", "2019-10-09 23:59:00"},
		{"utc designator", "2019-10-09T23:59:00Z"},
		{"offset", "2019-10-10T01:59:00+02:00"},
		{"no seconds", "2019-10-09T23:59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDateTime(tt.value)
			require.NoError(t, err)
			assert.True(t, want.Equal(got), "got %s", got)
			assert.Equal(t, time.UTC, got.Location())
		})
	}

	t.Run("fractional seconds", func(t *testing.T) {
		got, err := ParseDateTime("2019-10-09T23:59:00.123456")
		require.NoError(t, err)
		assert.Equal(t, 123456000, got.Nanosecond())
	})

	t.Run("invalid", func(t *testing.T) {
		_, err := ParseDateTime("yesterday")
		assert.Error(t, err)
		_, err = ParseDateTime("")
		assert.Error(t, err)
	})
}

func TestStripTZAndStorageTime(t *testing.T) {
	local := time.Date(2020, 5, 1, 14, 30, 0, 987654321, time.FixedZone("X", -5*3600))

	stripped := StripTZ(local)
	assert.Equal(t, 14, stripped.Hour())
	assert.Equal(t, time.UTC, stripped.Location())

	stored := StorageTime(local)
	assert.Equal(t, 19, stored.Hour())
	assert.Equal(t, 987000000, stored.Nanosecond())
}

func TestCheckNotBeforeEpoch(t *testing.T) {
	assert.NoError(t, CheckNotBeforeEpoch(Epoch))
	assert.ErrorIs(t, CheckNotBeforeEpoch(Epoch.Add(-time.Second)), ErrBeforeEpoch)
}

func TestRankCodecBijection(t *testing.T) {
	for _, rank := range Ranks() {
		t.Run(string(rank), func(t *testing.T) {
			code, err := rank.Code()
			require.NoError(t, err)

			decoded, err := RankFromCode(int64(code))
			require.NoError(t, err)
			assert.Equal(t, rank, decoded)

			byName, err := ParseRank(string(rank))
			require.NoError(t, err)
			assert.Equal(t, rank, byName)
		})
	}
}

func TestRankCodes(t *testing.T) {
	r, err := RankFromCode(0)
	require.NoError(t, err)
	assert.Equal(t, RankFleetAdmiral, r)

	r, err = RankFromCode(-1)
	require.NoError(t, err)
	assert.Equal(t, RankNone, r)

	r, err = RankFromCode(6)
	require.NoError(t, err)
	assert.Equal(t, RankCandidate, r)

	for _, bad := range []int64{-2, 7, 1 << 40} {
		_, err := RankFromCode(bad)
		assert.Error(t, err, "code %d", bad)
	}

	_, err = ParseRank("fleetadmiral")
	assert.Error(t, err, "names are case sensitive")
	_, err = Rank("Admiral").Code()
	assert.Error(t, err)
	assert.False(t, Rank("").Valid())
}

func TestParseInterval(t *testing.T) {
	i, err := ParseInterval("")
	require.NoError(t, err)
	assert.Equal(t, IntervalMonth, i)

	for _, v := range []string{"hour", "day", "month"} {
		i, err := ParseInterval(v)
		require.NoError(t, err)
		assert.Equal(t, Interval(v), i)
	}

	_, err = ParseInterval("week")
	assert.Error(t, err)
}

func TestIntervalMatches(t *testing.T) {
	day := time.Date(2020, 1, 31, 0, 0, 0, 0, time.UTC)

	var daily, monthly, hourly int
	for h := 0; h < 24; h++ {
		ts := day.Add(time.Duration(h)*time.Hour + 59*time.Minute)
		if IntervalDay.Matches(ts) {
			daily++
			assert.Equal(t, 23, ts.Hour())
		}
		if IntervalMonth.Matches(ts) {
			monthly++
			assert.Equal(t, 23, ts.Hour())
		}
		if IntervalHour.Matches(ts) {
			hourly++
		}
	}

	assert.Equal(t, 1, daily)
	assert.Equal(t, 1, monthly)
	assert.Equal(t, 24, hourly)

	midMonth := time.Date(2020, 1, 15, 23, 59, 0, 0, time.UTC)
	assert.True(t, IntervalDay.Matches(midMonth))
	assert.False(t, IntervalMonth.Matches(midMonth))

	yearEnd := time.Date(2020, 12, 31, 23, 59, 0, 0, time.UTC)
	assert.True(t, IntervalMonth.Matches(yearEnd))
}
