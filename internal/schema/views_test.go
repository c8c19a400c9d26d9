package schema

import (
	"testing"
	"time"

	"go-fleetdata/internal/models"
	"go-fleetdata/internal/pss"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 { return &v }

func TestEncodeUserDetail(t *testing.T) {
	attempts := 6
	c := &models.Collection{
		CollectionID:                3,
		CollectedAt:                 time.Date(2021, 5, 1, 10, 0, 0, 0, time.UTC),
		DataVersion:                 9,
		TournamentRunning:           true,
		MaxTournamentBattleAttempts: &attempts,
	}
	u := &models.User{UserID: 10, UserName: "Ace", AllianceID: 7, AllianceMembership: pss.RankMajor, TournamentBonusScore: int64p(2)}
	a := &models.Alliance{AllianceID: 7, AllianceName: "Seven"}

	d, err := EncodeUserDetail(c, u, a)
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.Collection.CollectionID)
	assert.Equal(t, pss.LatestSchemaVersion, d.Collection.SchemaVersion)
	assert.Equal(t, int64(10), d.User[0])
	require.NotNil(t, d.Fleet)
	assert.Equal(t, int64(7), d.Fleet[0])
	require.NotNil(t, d.TournamentAttemptsLeft)
	assert.Equal(t, int64(4), *d.TournamentAttemptsLeft)

	c.TournamentRunning = false
	d, err = EncodeUserDetail(c, u, nil)
	require.NoError(t, err)
	assert.Nil(t, d.Fleet)
	assert.Nil(t, d.TournamentAttemptsLeft)

	u.AllianceMembership = pss.Rank("Admiral")
	_, err = EncodeUserDetail(c, u, nil)
	assert.Error(t, err)
}

func TestEncodeAllianceDetail(t *testing.T) {
	c := &models.Collection{CollectionID: 1, CollectedAt: time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC), DataVersion: 5}
	a := &models.Alliance{AllianceID: 7, AllianceName: "Seven", Score: 20}
	members := []models.User{
		{UserID: 1, UserName: "A", AllianceID: 7, AllianceMembership: pss.RankFleetAdmiral},
		{UserID: 2, UserName: "B", AllianceID: 7, AllianceMembership: pss.RankEnsign},
	}

	d, err := EncodeAllianceDetail(c, a, members)
	require.NoError(t, err)
	assert.Equal(t, 5, d.Collection.DataVersion)
	assert.Equal(t, "Seven", d.Fleet[1])
	require.Len(t, d.Users, 2)
	assert.Equal(t, int64(2), d.Users[1][0])

	empty, err := EncodeAllianceDetail(c, a, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty.Users)
	assert.Empty(t, empty.Users)
}
