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
		Version:     "002_create_children_unique_indexes",
		Description: "One row per alliance and per user in each collection",
		Up:          up002,
		Down:        down002,
	})
}

func up002(ctx context.Context, db *mongo.Database) error {
	err := createIndexes(ctx, db.Collection(models.AlliancesCollection), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "collection_id", Value: 1}, {Key: "alliance_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("collection_alliance_unique"),
		},
		{
			Keys:    bson.D{{Key: "collection_id", Value: 1}, {Key: "division_design_id", Value: 1}},
			Options: options.Index().SetName("collection_division"),
		},
	})
	if err != nil {
		return err
	}

	return createIndexes(ctx, db.Collection(models.UsersCollection), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "collection_id", Value: 1}, {Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("collection_user_unique"),
		},
		{
			Keys:    bson.D{{Key: "collection_id", Value: 1}, {Key: "alliance_id", Value: 1}},
			Options: options.Index().SetName("collection_alliance_members"),
		},
	})
}

func down002(ctx context.Context, db *mongo.Database) error {
	if err := dropIndexes(ctx, db.Collection(models.AlliancesCollection), "collection_alliance_unique", "collection_division"); err != nil {
		return err
	}
	return dropIndexes(ctx, db.Collection(models.UsersCollection), "collection_user_unique", "collection_alliance_members")
}
