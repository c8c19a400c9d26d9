package migrations

import (
	"context"
	"errors"

	"go-fleetdata/internal/models"
	"go-fleetdata/internal/storage"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "004_seed_collection_counter",
		Description: "Seed the collection id counter from the highest stored id",
		Up:          up004,
		Down:        down004,
	})
}

func up004(ctx context.Context, db *mongo.Database) error {
	var last struct {
		ID int64 `bson:"_id"`
	}
	err := db.Collection(models.CollectionsCollection).FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}).SetProjection(bson.M{"_id": 1}),
	).Decode(&last)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	_, err = db.Collection(models.CountersCollection).UpdateOne(ctx,
		bson.M{"_id": storage.CollectionCounterID},
		bson.M{"$max": bson.M{"seq": last.ID}},
		options.Update().SetUpsert(true),
	)
	return err
}

func down004(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(models.CountersCollection).DeleteOne(ctx, bson.M{"_id": storage.CollectionCounterID})
	return err
}
