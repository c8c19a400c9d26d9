package storage

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/models"
	"go-fleetdata/internal/pss"
)

// MemoryGateway keeps collections in process memory. Values are cloned on
// the way in and out so callers never share state with the store.
type MemoryGateway struct {
	mu          sync.RWMutex
	lastID      int64
	collections map[int64]*models.Collection
}

// NewMemoryGateway returns an empty store.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{collections: make(map[int64]*models.Collection)}
}

var _ Gateway = (*MemoryGateway)(nil)

func (g *MemoryGateway) GetByID(ctx context.Context, id int64, opts LoadOptions) (*models.Collection, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	c, ok := g.collections[id]
	if !ok {
		return nil, nil
	}
	return project(c, opts), nil
}

func (g *MemoryGateway) GetByTimestamp(ctx context.Context, ts time.Time, opts LoadOptions) (*models.Collection, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if c := g.findByTimestamp(ts); c != nil {
		return project(c, opts), nil
	}
	return nil, nil
}

func (g *MemoryGateway) RangeQuery(ctx context.Context, q Query) ([]models.Collection, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	matches := make([]*models.Collection, 0, len(g.collections))
	for _, c := range g.collections {
		if !matchesQuery(c, q) {
			continue
		}
		matches = append(matches, c)
	}
	sortByTimestamp(matches, q.Desc)

	start, end := window(len(matches), q.Skip, q.Take)
	out := make([]models.Collection, 0, end-start)
	for _, c := range matches[start:end] {
		out = append(out, c.Metadata())
	}
	return out, nil
}

func (g *MemoryGateway) Alliances(ctx context.Context, q ChildQuery) ([]models.Alliance, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []models.Alliance
	for _, c := range g.scope(q.CollectionIDs) {
		for _, a := range c.Alliances {
			if !containsOrEmpty(q.AllianceIDs, a.AllianceID) {
				continue
			}
			if q.DivisionDesignID != nil && a.DivisionDesignID != *q.DivisionDesignID {
				continue
			}
			out = append(out, a.Clone())
		}
	}
	if q.SortByTrophyDesc {
		sort.SliceStable(out, func(i, j int) bool {
			return derefInt64(out[i].Trophy) > derefInt64(out[j].Trophy)
		})
	}
	start, end := window(len(out), q.Skip, q.Take)
	return out[start:end], nil
}

func (g *MemoryGateway) Users(ctx context.Context, q ChildQuery) ([]models.User, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []models.User
	for _, c := range g.scope(q.CollectionIDs) {
		for _, u := range c.Users {
			if !containsOrEmpty(q.UserIDs, u.UserID) || !containsOrEmpty(q.AllianceIDs, u.AllianceID) {
				continue
			}
			out = append(out, u.Clone())
		}
	}
	if q.SortByTrophyDesc {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Trophy > out[j].Trophy
		})
	}
	start, end := window(len(out), q.Skip, q.Take)
	return out[start:end], nil
}

func (g *MemoryGateway) HasAlliance(ctx context.Context, allianceID int64) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, c := range g.collections {
		if containsAlliance(c, allianceID) {
			return true, nil
		}
	}
	return false, nil
}

func (g *MemoryGateway) HasUser(ctx context.Context, userID int64) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, c := range g.collections {
		if containsUser(c, userID) {
			return true, nil
		}
	}
	return false, nil
}

func (g *MemoryGateway) Insert(ctx context.Context, c *models.Collection) (*models.Collection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	stored := c.Clone()
	stored.CollectedAt = pss.StorageTime(stored.CollectedAt)
	if g.findByTimestamp(stored.CollectedAt) != nil {
		return nil, duplicateTimestamp(stored.CollectedAt)
	}

	g.lastID++
	stored.AssignCollection(g.lastID)
	g.collections[stored.CollectionID] = stored
	return stored.Clone(), nil
}

func (g *MemoryGateway) Delete(ctx context.Context, id int64) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.collections[id]; !ok {
		return false, nil
	}
	delete(g.collections, id)
	return true, nil
}

func (g *MemoryGateway) Replace(ctx context.Context, id int64, c *models.Collection) (*models.Collection, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	existing, ok := g.collections[id]
	if !ok {
		return nil, fleeterr.CollectionNotFound(id)
	}

	stored := c.Clone()
	stored.CollectedAt = pss.StorageTime(stored.CollectedAt)
	if !stored.CollectedAt.Equal(existing.CollectedAt) {
		return nil, timestampChanged(id, existing.CollectedAt, stored.CollectedAt)
	}

	stored.AssignCollection(id)
	g.collections[id] = stored
	return stored.Clone(), nil
}

func (g *MemoryGateway) Ping(ctx context.Context) error {
	return nil
}

func (g *MemoryGateway) findByTimestamp(ts time.Time) *models.Collection {
	ts = pss.StorageTime(ts)
	for _, c := range g.collections {
		if c.CollectedAt.Equal(ts) {
			return c
		}
	}
	return nil
}

// scope returns the selected collections ordered by timestamp.
func (g *MemoryGateway) scope(ids []int64) []*models.Collection {
	out := make([]*models.Collection, 0, len(g.collections))
	for id, c := range g.collections {
		if containsOrEmpty(ids, id) {
			out = append(out, c)
		}
	}
	sortByTimestamp(out, false)
	return out
}

func project(c *models.Collection, opts LoadOptions) *models.Collection {
	out := c.Clone()
	if !opts.Alliances {
		out.Alliances = nil
	}
	if !opts.Users {
		out.Users = nil
	}
	return out
}

func matchesQuery(c *models.Collection, q Query) bool {
	if q.From != nil && c.CollectedAt.Before(pss.StorageTime(*q.From)) {
		return false
	}
	if q.To != nil && c.CollectedAt.After(pss.StorageTime(*q.To)) {
		return false
	}
	if q.Interval != "" && !q.Interval.Matches(c.CollectedAt) {
		return false
	}
	if q.AllianceID != nil && !containsAlliance(c, *q.AllianceID) {
		return false
	}
	if q.UserID != nil && !containsUser(c, *q.UserID) {
		return false
	}
	return true
}

func containsAlliance(c *models.Collection, allianceID int64) bool {
	return slices.ContainsFunc(c.Alliances, func(a models.Alliance) bool { return a.AllianceID == allianceID })
}

func containsUser(c *models.Collection, userID int64) bool {
	return slices.ContainsFunc(c.Users, func(u models.User) bool { return u.UserID == userID })
}

func sortByTimestamp(cs []*models.Collection, desc bool) {
	sort.Slice(cs, func(i, j int) bool {
		if desc {
			return cs[i].CollectedAt.After(cs[j].CollectedAt)
		}
		return cs[i].CollectedAt.Before(cs[j].CollectedAt)
	})
}

func containsOrEmpty(ids []int64, id int64) bool {
	return len(ids) == 0 || slices.Contains(ids, id)
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
