package migrations

import (
	"context"

	"go-fleetdata/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func init() {
	Register(Migration{
		Version:     "001_create_collections_indexes",
		Description: "Unique collection timestamp",
		Up:          up001,
		Down:        down001,
	})
}

func up001(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db.Collection(models.CollectionsCollection), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "collected_at", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("collected_at_unique"),
		},
	})
}

func down001(ctx context.Context, db *mongo.Database) error {
	return dropIndexes(ctx, db.Collection(models.CollectionsCollection), "collected_at_unique")
}
