package migrations

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// isIndexExistsError checks if error is due to index already existing
func isIndexExistsError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "already exists") ||
		strings.Contains(errStr, "IndexKeySpecsConflict") ||
		strings.Contains(errStr, "IndexOptionsConflict")
}

// createIndexes creates the indexes on collection, tolerating ones that
// already exist.
func createIndexes(ctx context.Context, collection *mongo.Collection, indexes []mongo.IndexModel) error {
	opts := options.CreateIndexes().SetMaxTime(30 * time.Second)
	if _, err := collection.Indexes().CreateMany(ctx, indexes, opts); err != nil && !isIndexExistsError(err) {
		return err
	}
	return nil
}

// dropIndexes drops the named indexes, ignoring ones that are missing.
func dropIndexes(ctx context.Context, collection *mongo.Collection, names ...string) error {
	for _, name := range names {
		if _, err := collection.Indexes().DropOne(ctx, name); err != nil && !strings.Contains(err.Error(), "index not found") {
			return err
		}
	}
	return nil
}
