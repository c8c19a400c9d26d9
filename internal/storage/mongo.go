package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/models"
	"go-fleetdata/internal/pss"
	"go-fleetdata/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

// CollectionCounterID is the counters document holding the last assigned
// collection ID.
const CollectionCounterID = "collection_id"

// MongoGateway stores collections in MongoDB. Alliances and users live in
// their own collections and carry the collection timestamp, so history
// queries run on a single index. Writes require a replica set since they
// run in transactions.
type MongoGateway struct {
	db          *database.MongoDB
	collections *mongo.Collection
	alliances   *mongo.Collection
	users       *mongo.Collection
	counters    *mongo.Collection
}

func NewMongoGateway(db *database.MongoDB) *MongoGateway {
	return &MongoGateway{
		db:          db,
		collections: db.Collection(models.CollectionsCollection),
		alliances:   db.Collection(models.AlliancesCollection),
		users:       db.Collection(models.UsersCollection),
		counters:    db.Collection(models.CountersCollection),
	}
}

var _ Gateway = (*MongoGateway)(nil)

// GetByID retrieves a collection and the requested children
func (g *MongoGateway) GetByID(ctx context.Context, id int64, opts LoadOptions) (*models.Collection, error) {
	return g.findOne(ctx, bson.M{"_id": id}, opts)
}

// GetByTimestamp retrieves the collection collected at ts
func (g *MongoGateway) GetByTimestamp(ctx context.Context, ts time.Time, opts LoadOptions) (*models.Collection, error) {
	return g.findOne(ctx, bson.M{"collected_at": pss.StorageTime(ts)}, opts)
}

func (g *MongoGateway) findOne(ctx context.Context, filter bson.M, opts LoadOptions) (*models.Collection, error) {
	var c models.Collection
	err := g.collections.FindOne(ctx, filter).Decode(&c)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding collection: %w", err)
	}

	group, gctx := errgroup.WithContext(ctx)
	if opts.Alliances {
		group.Go(func() error {
			alliances, err := g.Alliances(gctx, ChildQuery{CollectionIDs: []int64{c.CollectionID}})
			c.Alliances = alliances
			return err
		})
	}
	if opts.Users {
		group.Go(func() error {
			users, err := g.Users(gctx, ChildQuery{CollectionIDs: []int64{c.CollectionID}})
			c.Users = users
			return err
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return &c, nil
}

// RangeQuery lists collection metadata matching q
func (g *MongoGateway) RangeQuery(ctx context.Context, q Query) ([]models.Collection, error) {
	if q.AllianceID != nil || q.UserID != nil {
		return g.rangeByEntity(ctx, q)
	}

	cursor, err := g.collections.Find(ctx, rangeFilter(q), rangeOptions(q))
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer cursor.Close(ctx)

	collections := []models.Collection{}
	if err := cursor.All(ctx, &collections); err != nil {
		return nil, fmt.Errorf("decoding collections: %w", err)
	}
	return collections, nil
}

// rangeByEntity pages over the child rows of one entity, then loads the
// metadata of the collections they belong to.
func (g *MongoGateway) rangeByEntity(ctx context.Context, q Query) ([]models.Collection, error) {
	filter := rangeFilter(q)
	children := g.alliances
	if q.AllianceID != nil {
		filter["alliance_id"] = *q.AllianceID
	} else {
		children = g.users
		filter["user_id"] = *q.UserID
	}

	opts := rangeOptions(q).SetProjection(bson.M{"collection_id": 1})
	cursor, err := children.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("querying entity history: %w", err)
	}
	var refs []struct {
		CollectionID int64 `bson:"collection_id"`
	}
	err = cursor.All(ctx, &refs)
	cursor.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("decoding entity history: %w", err)
	}
	if len(refs) == 0 {
		return []models.Collection{}, nil
	}

	ids := make([]int64, len(refs))
	for i, r := range refs {
		ids[i] = r.CollectionID
	}

	cursor, err = g.collections.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("querying collections: %w", err)
	}
	defer cursor.Close(ctx)

	var found []models.Collection
	if err := cursor.All(ctx, &found); err != nil {
		return nil, fmt.Errorf("decoding collections: %w", err)
	}
	byID := make(map[int64]models.Collection, len(found))
	for _, c := range found {
		byID[c.CollectionID] = c
	}

	collections := make([]models.Collection, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			collections = append(collections, c)
		}
	}
	return collections, nil
}

// Alliances lists alliance rows matching q
func (g *MongoGateway) Alliances(ctx context.Context, q ChildQuery) ([]models.Alliance, error) {
	cursor, err := g.alliances.Find(ctx, allianceFilter(q), childOptions(q))
	if err != nil {
		return nil, fmt.Errorf("querying alliances: %w", err)
	}
	defer cursor.Close(ctx)

	alliances := []models.Alliance{}
	if err := cursor.All(ctx, &alliances); err != nil {
		return nil, fmt.Errorf("decoding alliances: %w", err)
	}
	return alliances, nil
}

// Users lists user rows matching q
func (g *MongoGateway) Users(ctx context.Context, q ChildQuery) ([]models.User, error) {
	cursor, err := g.users.Find(ctx, userFilter(q), childOptions(q))
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decoding users: %w", err)
	}
	return users, nil
}

func (g *MongoGateway) HasAlliance(ctx context.Context, allianceID int64) (bool, error) {
	return g.exists(ctx, g.alliances, bson.M{"alliance_id": allianceID})
}

func (g *MongoGateway) HasUser(ctx context.Context, userID int64) (bool, error) {
	return g.exists(ctx, g.users, bson.M{"user_id": userID})
}

func (g *MongoGateway) exists(ctx context.Context, coll *mongo.Collection, filter bson.M) (bool, error) {
	count, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("counting %s: %w", coll.Name(), err)
	}
	return count > 0, nil
}

// Insert stores c with all children in one transaction
func (g *MongoGateway) Insert(ctx context.Context, c *models.Collection) (*models.Collection, error) {
	stored := c.Clone()
	stored.CollectedAt = pss.StorageTime(stored.CollectedAt)

	err := g.withTransaction(ctx, func(sc mongo.SessionContext) error {
		existing, err := g.GetByTimestamp(sc, stored.CollectedAt, LoadOptions{})
		if err != nil {
			return err
		}
		if existing != nil {
			return duplicateTimestamp(stored.CollectedAt)
		}

		id, err := g.nextID(sc)
		if err != nil {
			return err
		}
		stored.AssignCollection(id)

		if _, err := g.collections.InsertOne(sc, stored); err != nil {
			return err
		}
		return g.insertChildren(sc, stored)
	})
	if err != nil {
		return nil, translateWriteError(err, stored.CollectedAt, "inserting collection")
	}
	return stored, nil
}

// Delete removes the collection and its children in one transaction
func (g *MongoGateway) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := g.withTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := g.collections.DeleteOne(sc, bson.M{"_id": id})
		if err != nil {
			return err
		}
		deleted = res.DeletedCount > 0
		if !deleted {
			return nil
		}
		if _, err := g.alliances.DeleteMany(sc, bson.M{"collection_id": id}); err != nil {
			return err
		}
		_, err = g.users.DeleteMany(sc, bson.M{"collection_id": id})
		return err
	})
	if err != nil {
		return false, fmt.Errorf("deleting collection %d: %w", id, err)
	}
	return deleted, nil
}

// Replace swaps metadata and children of collection id in one transaction
func (g *MongoGateway) Replace(ctx context.Context, id int64, c *models.Collection) (*models.Collection, error) {
	stored := c.Clone()
	stored.CollectedAt = pss.StorageTime(stored.CollectedAt)

	err := g.withTransaction(ctx, func(sc mongo.SessionContext) error {
		existing, err := g.GetByID(sc, id, LoadOptions{})
		if err != nil {
			return err
		}
		if existing == nil {
			return fleeterr.CollectionNotFound(id)
		}
		if !existing.CollectedAt.Equal(stored.CollectedAt) {
			return timestampChanged(id, existing.CollectedAt, stored.CollectedAt)
		}

		stored.AssignCollection(id)
		if _, err := g.collections.ReplaceOne(sc, bson.M{"_id": id}, stored); err != nil {
			return err
		}
		if _, err := g.alliances.DeleteMany(sc, bson.M{"collection_id": id}); err != nil {
			return err
		}
		if _, err := g.users.DeleteMany(sc, bson.M{"collection_id": id}); err != nil {
			return err
		}
		return g.insertChildren(sc, stored)
	})
	if err != nil {
		return nil, translateWriteError(err, stored.CollectedAt, "replacing collection")
	}
	return stored, nil
}

func (g *MongoGateway) Ping(ctx context.Context) error {
	return g.db.HealthCheck(ctx)
}

func (g *MongoGateway) insertChildren(ctx context.Context, c *models.Collection) error {
	if len(c.Alliances) > 0 {
		docs := make([]interface{}, len(c.Alliances))
		for i := range c.Alliances {
			docs[i] = c.Alliances[i]
		}
		if _, err := g.alliances.InsertMany(ctx, docs); err != nil {
			return err
		}
	}
	if len(c.Users) > 0 {
		docs := make([]interface{}, len(c.Users))
		for i := range c.Users {
			docs[i] = c.Users[i]
		}
		if _, err := g.users.InsertMany(ctx, docs); err != nil {
			return err
		}
	}
	return nil
}

func (g *MongoGateway) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := g.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": CollectionCounterID},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocating collection id: %w", err)
	}
	return counter.Seq, nil
}

// withTransaction runs fn in a transaction. The session is ended on every
// path.
func (g *MongoGateway) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := g.db.Client.StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}

// translateWriteError keeps classified errors and maps unique index
// violations to a conflict.
func translateWriteError(err error, ts time.Time, action string) error {
	var fe *fleeterr.Error
	if errors.As(err, &fe) {
		return err
	}
	if mongo.IsDuplicateKeyError(err) {
		return duplicateTimestamp(ts)
	}
	return fmt.Errorf("%s: %w", action, err)
}

func rangeFilter(q Query) bson.M {
	filter := bson.M{}
	bounds := bson.M{}
	if q.From != nil {
		bounds["$gte"] = pss.StorageTime(*q.From)
	}
	if q.To != nil {
		bounds["$lte"] = pss.StorageTime(*q.To)
	}
	if len(bounds) > 0 {
		filter["collected_at"] = bounds
	}
	if expr := intervalExpr(q.Interval); expr != nil {
		filter["$expr"] = expr
	}
	return filter
}

// intervalExpr mirrors pss.Interval.Matches as an aggregation expression.
func intervalExpr(interval pss.Interval) bson.M {
	switch interval {
	case pss.IntervalDay:
		return bson.M{"$eq": bson.A{bson.M{"$hour": "$collected_at"}, 23}}
	case pss.IntervalMonth:
		nextHour := bson.M{"$add": bson.A{"$collected_at", time.Hour.Milliseconds()}}
		return bson.M{"$ne": bson.A{bson.M{"$month": "$collected_at"}, bson.M{"$month": nextHour}}}
	default:
		return nil
	}
}

func rangeOptions(q Query) *options.FindOptions {
	direction := 1
	if q.Desc {
		direction = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: "collected_at", Value: direction}})
	if q.Skip > 0 {
		opts.SetSkip(int64(q.Skip))
	}
	if q.Take > 0 {
		opts.SetLimit(int64(q.Take))
	}
	return opts
}

func allianceFilter(q ChildQuery) bson.M {
	filter := childFilter(q)
	if len(q.AllianceIDs) > 0 {
		filter["alliance_id"] = bson.M{"$in": q.AllianceIDs}
	}
	if q.DivisionDesignID != nil {
		filter["division_design_id"] = *q.DivisionDesignID
	}
	return filter
}

func userFilter(q ChildQuery) bson.M {
	filter := childFilter(q)
	if len(q.UserIDs) > 0 {
		filter["user_id"] = bson.M{"$in": q.UserIDs}
	}
	if len(q.AllianceIDs) > 0 {
		filter["alliance_id"] = bson.M{"$in": q.AllianceIDs}
	}
	return filter
}

func childFilter(q ChildQuery) bson.M {
	filter := bson.M{}
	if len(q.CollectionIDs) > 0 {
		filter["collection_id"] = bson.M{"$in": q.CollectionIDs}
	}
	return filter
}

// childOptions orders rows by timestamp and upload order, which _id keeps.
func childOptions(q ChildQuery) *options.FindOptions {
	sort := bson.D{{Key: "collected_at", Value: 1}, {Key: "_id", Value: 1}}
	if q.SortByTrophyDesc {
		sort = bson.D{{Key: "trophy", Value: -1}, {Key: "_id", Value: 1}}
	}
	opts := options.Find().SetSort(sort)
	if q.Skip > 0 {
		opts.SetSkip(int64(q.Skip))
	}
	if q.Take > 0 {
		opts.SetLimit(int64(q.Take))
	}
	return opts
}
