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
		Version:     "003_create_history_indexes",
		Description: "Alliance and user history lookups and the top users ranking",
		Up:          up003,
		Down:        down003,
	})
}

func up003(ctx context.Context, db *mongo.Database) error {
	err := createIndexes(ctx, db.Collection(models.AlliancesCollection), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "alliance_id", Value: 1}, {Key: "collected_at", Value: 1}},
			Options: options.Index().SetName("alliance_history"),
		},
	})
	if err != nil {
		return err
	}

	return createIndexes(ctx, db.Collection(models.UsersCollection), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "collected_at", Value: 1}},
			Options: options.Index().SetName("user_history"),
		},
		{
			Keys:    bson.D{{Key: "collection_id", Value: 1}, {Key: "trophy", Value: -1}},
			Options: options.Index().SetName("collection_trophy"),
		},
	})
}

func down003(ctx context.Context, db *mongo.Database) error {
	if err := dropIndexes(ctx, db.Collection(models.AlliancesCollection), "alliance_history"); err != nil {
		return err
	}
	return dropIndexes(ctx, db.Collection(models.UsersCollection), "user_history", "collection_trophy")
}
