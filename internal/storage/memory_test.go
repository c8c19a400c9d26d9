package storage

import (
	"context"
	"testing"
	"time"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/models"
	"go-fleetdata/internal/pss"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func collectionAt(ts time.Time, allianceIDs ...int64) *models.Collection {
	c := &models.Collection{CollectedAt: ts, DataVersion: 9, FleetCount: len(allianceIDs)}
	for i, id := range allianceIDs {
		c.Alliances = append(c.Alliances, models.Alliance{
			AllianceID:       id,
			AllianceName:     "Fleet",
			DivisionDesignID: i%2 + 1,
			Trophy:           ptr(int64(100 * (i + 1))),
		})
		c.Users = append(c.Users, models.User{
			UserID:             id * 10,
			UserName:           "Player",
			AllianceID:         id,
			Trophy:             int64(10 * (i + 1)),
			AllianceMembership: pss.RankMajor,
		})
	}
	c.UserCount = len(c.Users)
	return c
}

func TestMemoryInsertAssignsIDs(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()

	first, err := g.Insert(ctx, collectionAt(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 1, 2))
	require.NoError(t, err)
	second, err := g.Insert(ctx, collectionAt(time.Date(2021, 1, 1, 1, 0, 0, 0, time.UTC), 1))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.CollectionID)
	assert.Equal(t, int64(2), second.CollectionID)
	assert.Equal(t, int64(1), first.Users[1].CollectionID)
	assert.Equal(t, first.CollectedAt, first.Alliances[0].CollectedAt)

	got, err := g.GetByID(ctx, 1, WithChildren)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Alliances, 2)
	assert.Len(t, got.Users, 2)

	meta, err := g.GetByID(ctx, 1, LoadOptions{})
	require.NoError(t, err)
	assert.Nil(t, meta.Alliances)
	assert.Nil(t, meta.Users)

	missing, err := g.GetByID(ctx, 99, WithChildren)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()

	c := collectionAt(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 1)
	stored, err := g.Insert(ctx, c)
	require.NoError(t, err)

	c.Alliances[0].AllianceName = "changed"
	stored.Alliances[0].AllianceName = "changed"

	got, err := g.GetByID(ctx, stored.CollectionID, WithChildren)
	require.NoError(t, err)
	assert.Equal(t, "Fleet", got.Alliances[0].AllianceName)
}

func TestMemoryUniqueTimestamp(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()

	_, err := g.Insert(ctx, collectionAt(time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC), 1))
	require.NoError(t, err)

	duplicate := collectionAt(time.Date(2021, 1, 1, 14, 0, 0, 0, time.FixedZone("CEST", 2*3600)), 2)
	duplicate.DataVersion = 4
	_, err = g.Insert(ctx, duplicate)
	require.Error(t, err)
	assert.ErrorIs(t, err, fleeterr.KindConflict)

	var fe *fleeterr.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fleeterr.CodeNonUniqueTimestamp, fe.Code)

	found, err := g.GetByTimestamp(ctx, time.Date(2021, 1, 1, 12, 0, 0, 0, time.UTC), LoadOptions{})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, int64(1), found.CollectionID)
}

func TestMemoryDeleteCascades(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()

	stored, err := g.Insert(ctx, collectionAt(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 7))
	require.NoError(t, err)

	deleted, err := g.Delete(ctx, stored.CollectionID)
	require.NoError(t, err)
	assert.True(t, deleted)

	has, err := g.HasAlliance(ctx, 7)
	require.NoError(t, err)
	assert.False(t, has)
	has, err = g.HasUser(ctx, 70)
	require.NoError(t, err)
	assert.False(t, has)

	deleted, err = g.Delete(ctx, stored.CollectionID)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestMemoryReplace(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()
	ts := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)

	stored, err := g.Insert(ctx, collectionAt(ts, 1, 2))
	require.NoError(t, err)

	t.Run("children swapped", func(t *testing.T) {
		replaced, err := g.Replace(ctx, stored.CollectionID, collectionAt(ts, 3))
		require.NoError(t, err)
		assert.Equal(t, stored.CollectionID, replaced.CollectionID)

		got, err := g.GetByID(ctx, stored.CollectionID, WithChildren)
		require.NoError(t, err)
		require.Len(t, got.Alliances, 1)
		assert.Equal(t, int64(3), got.Alliances[0].AllianceID)
		assert.Equal(t, stored.CollectionID, got.Users[0].CollectionID)
	})

	t.Run("timestamp change", func(t *testing.T) {
		_, err := g.Replace(ctx, stored.CollectionID, collectionAt(ts.Add(time.Hour), 3))
		require.Error(t, err)
		var fe *fleeterr.Error
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, fleeterr.KindConflict, fe.Kind)
		assert.Equal(t, fleeterr.CodeConflict, fe.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := g.Replace(ctx, 404, collectionAt(ts, 3))
		assert.ErrorIs(t, err, fleeterr.KindNotFound)
	})
}

func seedHours(t *testing.T, g *MemoryGateway, day time.Time) {
	t.Helper()
	for h := 0; h < 24; h++ {
		ids := []int64{1}
		if h%2 == 0 {
			ids = append(ids, 2)
		}
		_, err := g.Insert(context.Background(), collectionAt(day.Add(time.Duration(h)*time.Hour), ids...))
		require.NoError(t, err)
	}
}

func TestMemoryRangeQueryIntervals(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()
	seedHours(t, g, time.Date(2021, 1, 31, 0, 0, 0, 0, time.UTC))

	all, err := g.RangeQuery(ctx, Query{Interval: pss.IntervalHour})
	require.NoError(t, err)
	assert.Len(t, all, 24)
	for i := 1; i < len(all); i++ {
		assert.True(t, all[i-1].CollectedAt.Before(all[i].CollectedAt))
	}

	daily, err := g.RangeQuery(ctx, Query{Interval: pss.IntervalDay})
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, 23, daily[0].CollectedAt.Hour())

	monthly, err := g.RangeQuery(ctx, Query{Interval: pss.IntervalMonth})
	require.NoError(t, err)
	require.Len(t, monthly, 1)
	assert.Equal(t, time.Date(2021, 1, 31, 23, 0, 0, 0, time.UTC), monthly[0].CollectedAt)
	assert.Nil(t, monthly[0].Alliances)
}

func TestMemoryRangeQueryPagination(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()
	day := time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC)
	seedHours(t, g, day)

	full, err := g.RangeQuery(ctx, Query{AllianceID: ptr(int64(2))})
	require.NoError(t, err)
	require.Len(t, full, 12)

	page, err := g.RangeQuery(ctx, Query{AllianceID: ptr(int64(2)), Skip: 3, Take: 4})
	require.NoError(t, err)
	assert.Equal(t, full[3:7], page)

	desc, err := g.RangeQuery(ctx, Query{AllianceID: ptr(int64(2)), Desc: true})
	require.NoError(t, err)
	for i := range full {
		assert.Equal(t, full[i].CollectionID, desc[len(desc)-1-i].CollectionID)
	}

	beyond, err := g.RangeQuery(ctx, Query{Skip: 100})
	require.NoError(t, err)
	assert.Empty(t, beyond)

	bounded, err := g.RangeQuery(ctx, Query{From: ptr(day.Add(5 * time.Hour)), To: ptr(day.Add(7 * time.Hour))})
	require.NoError(t, err)
	assert.Len(t, bounded, 3)
}

func TestMemoryChildQueries(t *testing.T) {
	ctx := context.Background()
	g := NewMemoryGateway()

	first, err := g.Insert(ctx, collectionAt(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC), 1, 2, 3))
	require.NoError(t, err)
	_, err = g.Insert(ctx, collectionAt(time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC), 1))
	require.NoError(t, err)

	alliances, err := g.Alliances(ctx, ChildQuery{AllianceIDs: []int64{1}})
	require.NoError(t, err)
	assert.Len(t, alliances, 2)

	division, err := g.Alliances(ctx, ChildQuery{CollectionIDs: []int64{first.CollectionID}, DivisionDesignID: ptr(2)})
	require.NoError(t, err)
	require.Len(t, division, 1)
	assert.Equal(t, int64(2), division[0].AllianceID)

	top, err := g.Users(ctx, ChildQuery{CollectionIDs: []int64{first.CollectionID}, SortByTrophyDesc: true, Take: 2})
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(30), top[0].UserID)
	assert.Equal(t, int64(20), top[1].UserID)

	members, err := g.Users(ctx, ChildQuery{CollectionIDs: []int64{first.CollectionID}, AllianceIDs: []int64{3}})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, int64(30), members[0].UserID)
}
