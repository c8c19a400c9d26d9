// Package storage persists collections with their alliances and users.
// Every multi-row operation of a Gateway is atomic.
package storage

import (
	"context"
	"time"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/models"
	"go-fleetdata/internal/pss"
)

// Driver names accepted by STORAGE_DRIVER.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// LoadOptions selects which children GetByID and GetByTimestamp load.
type LoadOptions struct {
	Alliances bool
	Users     bool
}

// WithChildren loads alliances and users.
var WithChildren = LoadOptions{Alliances: true, Users: true}

// Query selects collection metadata ordered by collected_at.
type Query struct {
	From     *time.Time
	To       *time.Time
	Interval pss.Interval
	Desc     bool
	Skip     int
	// Take of 0 returns every match.
	Take int

	// AllianceID and UserID restrict the result to collections containing
	// the entity. Set at most one of them.
	AllianceID *int64
	UserID     *int64
}

// ChildQuery selects alliances or users. Empty ID lists do not filter.
// AllianceIDs matches the alliance_id of users as well.
type ChildQuery struct {
	CollectionIDs    []int64
	AllianceIDs      []int64
	UserIDs          []int64
	DivisionDesignID *int
	// SortByTrophyDesc orders by trophy, highest first. Otherwise rows come
	// by collection timestamp, then in upload order.
	SortByTrophyDesc bool
	Skip             int
	Take             int
}

// Gateway is the storage contract consumed by the services and the history
// engine. Lookups return nil without error when nothing matches.
type Gateway interface {
	GetByID(ctx context.Context, id int64, opts LoadOptions) (*models.Collection, error)
	GetByTimestamp(ctx context.Context, ts time.Time, opts LoadOptions) (*models.Collection, error)
	RangeQuery(ctx context.Context, q Query) ([]models.Collection, error)

	Alliances(ctx context.Context, q ChildQuery) ([]models.Alliance, error)
	Users(ctx context.Context, q ChildQuery) ([]models.User, error)
	HasAlliance(ctx context.Context, allianceID int64) (bool, error)
	HasUser(ctx context.Context, userID int64) (bool, error)

	// Insert assigns the collection ID and stores c with all children.
	Insert(ctx context.Context, c *models.Collection) (*models.Collection, error)
	// Delete removes the collection and its children. It reports whether
	// anything was deleted.
	Delete(ctx context.Context, id int64) (bool, error)
	// Replace swaps metadata and children of an existing collection. The
	// collected_at of c must equal the stored one.
	Replace(ctx context.Context, id int64, c *models.Collection) (*models.Collection, error)

	Ping(ctx context.Context) error
}

func duplicateTimestamp(ts time.Time) error {
	return fleeterr.Conflict(fleeterr.CodeNonUniqueTimestamp, "a Collection with the timestamp %s already exists", ts.UTC().Format(time.RFC3339)).
		WithSuggestion("Replace the existing collection via PUT /collections/upload/{collectionId} instead.")
}

func timestampChanged(id int64, stored, replacement time.Time) error {
	return fleeterr.Conflict(fleeterr.CodeConflict, "the Collection with ID %d was collected at %s, the replacement at %s",
		id, stored.UTC().Format(time.RFC3339), replacement.UTC().Format(time.RFC3339)).
		WithSuggestion("A replacement must have the same timestamp as the Collection it replaces.")
}

// window applies skip and take to n rows and returns the bounds.
func window(n, skip, take int) (int, int) {
	start := min(max(skip, 0), n)
	end := n
	if take > 0 {
		end = min(start+take, n)
	}
	return start, end
}
