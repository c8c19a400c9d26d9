// Package history answers point in time and time range queries over
// alliances and users. Relationships between them are joined at query time.
package history

import (
	"context"
	"log/slog"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/models"
	"go-fleetdata/internal/storage"
	"go-fleetdata/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// AllianceEntry is an alliance within one collection with its members.
type AllianceEntry struct {
	Collection models.Collection
	Alliance   models.Alliance
	Members    []models.User
}

// UserEntry is a user within one collection with the alliance it belonged
// to, if that alliance was captured.
type UserEntry struct {
	Collection models.Collection
	User       models.User
	Alliance   *models.Alliance
}

// Engine runs history queries against a storage gateway.
type Engine struct {
	gateway storage.Gateway
}

func NewEngine(gateway storage.Gateway) *Engine {
	return &Engine{gateway: gateway}
}

// Collections lists collection metadata.
func (e *Engine) Collections(ctx context.Context, p Params) ([]models.Collection, error) {
	collections, err := e.gateway.RangeQuery(ctx, query(p))
	if err != nil {
		countQuery("collection", err)
		return nil, fleeterr.Internal(err, "listing collections")
	}
	countQuery("collection", nil)
	return collections, nil
}

// AllianceHistory returns the alliance in every collection selected by p,
// together with its members at that time.
func (e *Engine) AllianceHistory(ctx context.Context, allianceID int64, p Params) ([]AllianceEntry, error) {
	entries, err := e.allianceHistory(ctx, allianceID, p)
	countQuery("alliance", err)
	return entries, err
}

func (e *Engine) allianceHistory(ctx context.Context, allianceID int64, p Params) ([]AllianceEntry, error) {
	exists, err := e.gateway.HasAlliance(ctx, allianceID)
	if err != nil {
		return nil, fleeterr.Internal(err, "checking alliance %d", allianceID)
	}
	if !exists {
		return nil, fleeterr.AllianceNotFound(allianceID)
	}

	q := query(p)
	q.AllianceID = &allianceID
	collections, err := e.gateway.RangeQuery(ctx, q)
	if err != nil {
		return nil, fleeterr.Internal(err, "querying history of alliance %d", allianceID)
	}
	if len(collections) == 0 {
		return []AllianceEntry{}, nil
	}

	ids := collectionIDs(collections)
	var alliances []models.Alliance
	var members []models.User

	group, gctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		alliances, err = e.gateway.Alliances(gctx, storage.ChildQuery{CollectionIDs: ids, AllianceIDs: []int64{allianceID}})
		return err
	})
	group.Go(func() error {
		var err error
		members, err = e.gateway.Users(gctx, storage.ChildQuery{CollectionIDs: ids, AllianceIDs: []int64{allianceID}})
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, fleeterr.Internal(err, "joining history of alliance %d", allianceID)
	}

	byCollection := make(map[int64]models.Alliance, len(alliances))
	for _, a := range alliances {
		byCollection[a.CollectionID] = a
	}
	membersByCollection := make(map[int64][]models.User, len(collections))
	for _, u := range members {
		membersByCollection[u.CollectionID] = append(membersByCollection[u.CollectionID], u)
	}

	entries := make([]AllianceEntry, 0, len(collections))
	for _, c := range collections {
		a, ok := byCollection[c.CollectionID]
		if !ok {
			continue
		}
		entries = append(entries, AllianceEntry{
			Collection: c,
			Alliance:   a,
			Members:    nonNil(membersByCollection[c.CollectionID]),
		})
	}

	slog.DebugContext(ctx, "Alliance history queried",
		slog.Int64("alliance_id", allianceID),
		slog.Int("entries", len(entries)))
	return entries, nil
}

// UserHistory returns the user in every collection selected by p, together
// with the alliance it belonged to at that time.
func (e *Engine) UserHistory(ctx context.Context, userID int64, p Params) ([]UserEntry, error) {
	entries, err := e.userHistory(ctx, userID, p)
	countQuery("user", err)
	return entries, err
}

func (e *Engine) userHistory(ctx context.Context, userID int64, p Params) ([]UserEntry, error) {
	exists, err := e.gateway.HasUser(ctx, userID)
	if err != nil {
		return nil, fleeterr.Internal(err, "checking user %d", userID)
	}
	if !exists {
		return nil, fleeterr.UserNotFound(userID)
	}

	q := query(p)
	q.UserID = &userID
	collections, err := e.gateway.RangeQuery(ctx, q)
	if err != nil {
		return nil, fleeterr.Internal(err, "querying history of user %d", userID)
	}
	if len(collections) == 0 {
		return []UserEntry{}, nil
	}

	ids := collectionIDs(collections)
	users, err := e.gateway.Users(ctx, storage.ChildQuery{CollectionIDs: ids, UserIDs: []int64{userID}})
	if err != nil {
		return nil, fleeterr.Internal(err, "querying history of user %d", userID)
	}

	alliances, err := e.owningAlliances(ctx, ids, users)
	if err != nil {
		return nil, fleeterr.Internal(err, "joining history of user %d", userID)
	}

	byCollection := make(map[int64]models.User, len(users))
	for _, u := range users {
		byCollection[u.CollectionID] = u
	}

	entries := make([]UserEntry, 0, len(collections))
	for _, c := range collections {
		u, ok := byCollection[c.CollectionID]
		if !ok {
			continue
		}
		entries = append(entries, UserEntry{
			Collection: c,
			User:       u,
			Alliance:   alliances[allianceKey{c.CollectionID, u.AllianceID}],
		})
	}

	slog.DebugContext(ctx, "User history queried",
		slog.Int64("user_id", userID),
		slog.Int("entries", len(entries)))
	return entries, nil
}

// AllianceInCollection returns one alliance of one collection with its
// members.
func (e *Engine) AllianceInCollection(ctx context.Context, collectionID, allianceID int64) (*AllianceEntry, error) {
	c, err := e.CollectionByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	alliances, err := e.gateway.Alliances(ctx, storage.ChildQuery{CollectionIDs: []int64{collectionID}, AllianceIDs: []int64{allianceID}})
	if err != nil {
		return nil, fleeterr.Internal(err, "loading alliance %d of collection %d", allianceID, collectionID)
	}
	if len(alliances) == 0 {
		return nil, fleeterr.AllianceNotFound(allianceID).
			WithSuggestion("The alliance was not captured in the Collection with the ID %d.", collectionID)
	}

	members, err := e.gateway.Users(ctx, storage.ChildQuery{CollectionIDs: []int64{collectionID}, AllianceIDs: []int64{allianceID}})
	if err != nil {
		return nil, fleeterr.Internal(err, "loading members of alliance %d", allianceID)
	}

	return &AllianceEntry{Collection: *c, Alliance: alliances[0], Members: nonNil(members)}, nil
}

// UserInCollection returns one user of one collection with its alliance.
func (e *Engine) UserInCollection(ctx context.Context, collectionID, userID int64) (*UserEntry, error) {
	c, err := e.CollectionByID(ctx, collectionID)
	if err != nil {
		return nil, err
	}

	users, err := e.gateway.Users(ctx, storage.ChildQuery{CollectionIDs: []int64{collectionID}, UserIDs: []int64{userID}})
	if err != nil {
		return nil, fleeterr.Internal(err, "loading user %d of collection %d", userID, collectionID)
	}
	if len(users) == 0 {
		return nil, fleeterr.UserNotFound(userID).
			WithSuggestion("The user was not captured in the Collection with the ID %d.", collectionID)
	}

	alliances, err := e.owningAlliances(ctx, []int64{collectionID}, users)
	if err != nil {
		return nil, fleeterr.Internal(err, "loading alliance of user %d", userID)
	}

	return &UserEntry{
		Collection: *c,
		User:       users[0],
		Alliance:   alliances[allianceKey{collectionID, users[0].AllianceID}],
	}, nil
}

// CollectionAlliances returns the metadata of one collection with its
// alliances, optionally restricted to one division.
func (e *Engine) CollectionAlliances(ctx context.Context, collectionID int64, divisionDesignID *int) (*models.Collection, []models.Alliance, error) {
	c, err := e.CollectionByID(ctx, collectionID)
	if err != nil {
		return nil, nil, err
	}
	alliances, err := e.gateway.Alliances(ctx, storage.ChildQuery{CollectionIDs: []int64{collectionID}, DivisionDesignID: divisionDesignID})
	if err != nil {
		return nil, nil, fleeterr.Internal(err, "loading alliances of collection %d", collectionID)
	}
	if alliances == nil {
		alliances = []models.Alliance{}
	}
	return c, alliances, nil
}

// CollectionUsers returns the metadata of one collection with its users.
func (e *Engine) CollectionUsers(ctx context.Context, collectionID int64) (*models.Collection, []models.User, error) {
	return e.collectionUsers(ctx, collectionID, storage.ChildQuery{CollectionIDs: []int64{collectionID}})
}

// TopUsers returns the users of one collection ordered by trophy, highest
// first.
func (e *Engine) TopUsers(ctx context.Context, collectionID int64, skip, take int) (*models.Collection, []models.User, error) {
	return e.collectionUsers(ctx, collectionID, storage.ChildQuery{
		CollectionIDs:    []int64{collectionID},
		SortByTrophyDesc: true,
		Skip:             skip,
		Take:             take,
	})
}

func (e *Engine) collectionUsers(ctx context.Context, collectionID int64, q storage.ChildQuery) (*models.Collection, []models.User, error) {
	c, err := e.CollectionByID(ctx, collectionID)
	if err != nil {
		return nil, nil, err
	}
	users, err := e.gateway.Users(ctx, q)
	if err != nil {
		return nil, nil, fleeterr.Internal(err, "loading users of collection %d", collectionID)
	}
	return c, nonNil(users), nil
}

// CollectionByID returns the metadata of one collection.
func (e *Engine) CollectionByID(ctx context.Context, collectionID int64) (*models.Collection, error) {
	c, err := e.gateway.GetByID(ctx, collectionID, storage.LoadOptions{})
	if err != nil {
		return nil, fleeterr.Internal(err, "loading collection %d", collectionID)
	}
	if c == nil {
		return nil, fleeterr.CollectionNotFound(collectionID)
	}
	return c, nil
}

type allianceKey struct {
	collectionID int64
	allianceID   int64
}

// owningAlliances loads the alliances the given users belonged to.
func (e *Engine) owningAlliances(ctx context.Context, collectionIDs []int64, users []models.User) (map[allianceKey]*models.Alliance, error) {
	seen := make(map[int64]bool)
	var allianceIDs []int64
	for _, u := range users {
		if u.AllianceID == 0 || seen[u.AllianceID] {
			continue
		}
		seen[u.AllianceID] = true
		allianceIDs = append(allianceIDs, u.AllianceID)
	}

	out := make(map[allianceKey]*models.Alliance)
	if len(allianceIDs) == 0 {
		return out, nil
	}

	alliances, err := e.gateway.Alliances(ctx, storage.ChildQuery{CollectionIDs: collectionIDs, AllianceIDs: allianceIDs})
	if err != nil {
		return nil, err
	}
	for i := range alliances {
		a := alliances[i]
		out[allianceKey{a.CollectionID, a.AllianceID}] = &a
	}
	return out, nil
}

func query(p Params) storage.Query {
	return storage.Query{
		From:     p.From,
		To:       p.To,
		Interval: p.Interval,
		Desc:     p.Desc,
		Skip:     p.Skip,
		Take:     p.Take,
	}
}

func collectionIDs(collections []models.Collection) []int64 {
	ids := make([]int64, len(collections))
	for i, c := range collections {
		ids[i] = c.CollectionID
	}
	return ids
}

func nonNil(users []models.User) []models.User {
	if users == nil {
		return []models.User{}
	}
	return users
}

func countQuery(entity string, err error) {
	outcome := "ok"
	switch fleeterr.KindOf(err) {
	case fleeterr.KindNotFound:
		outcome = "not_found"
	case fleeterr.KindValidation:
		outcome = "invalid"
	case fleeterr.KindInternal:
		if err != nil {
			outcome = "error"
		}
	}
	metrics.HistoryQueries.WithLabelValues(entity, outcome).Inc()
}
