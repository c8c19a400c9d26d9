package migrations

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Migration is the record of an applied migration
type Migration struct {
	Version     string    `bson:"version"`     // e.g. "001_create_collections_indexes"
	Description string    `bson:"description"`
	AppliedAt   time.Time `bson:"applied_at"`
	Checksum    string    `bson:"checksum"`
}

// MigrationFunc defines a migration function signature
type MigrationFunc func(ctx context.Context, db *mongo.Database) error

// RegisteredMigration holds migration metadata and functions
type RegisteredMigration struct {
	Version     string
	Description string
	Up          MigrationFunc
	Down        MigrationFunc // optional
}

// StatusEntry reports whether one registered migration has been applied.
type StatusEntry struct {
	Version     string
	Description string
	Applied     bool
	AppliedAt   time.Time
}

// Runner manages database migrations
type Runner struct {
	db         *mongo.Database
	collection *mongo.Collection
	migrations []RegisteredMigration
}

// NewRunner creates a new migration runner
func NewRunner(db *mongo.Database) *Runner {
	r := &Runner{migrations: make([]RegisteredMigration, 0)}
	if db != nil {
		r.db = db
		r.collection = db.Collection("_migrations")
	}
	return r
}

// Register adds a migration to the runner. Migrations run in version order
// regardless of registration order.
func (r *Runner) Register(migration RegisteredMigration) {
	r.migrations = append(r.migrations, migration)
	sort.SliceStable(r.migrations, func(i, j int) bool {
		return r.migrations[i].Version < r.migrations[j].Version
	})
}

// Migrations returns the registered migrations in version order.
func (r *Runner) Migrations() []RegisteredMigration {
	return r.migrations
}

// Run executes all pending migrations
func (r *Runner) Run(ctx context.Context) error {
	if err := r.ensureMigrationsIndex(ctx); err != nil {
		return fmt.Errorf("failed to create migrations index: %w", err)
	}

	applied, err := r.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range r.Pending(applied) {
		slog.InfoContext(ctx, "Running migration",
			slog.String("version", migration.Version),
			slog.String("description", migration.Description))

		err := r.inSession(ctx, func(sc mongo.SessionContext) error {
			if err := migration.Up(sc, r.db); err != nil {
				return fmt.Errorf("migration %s failed: %w", migration.Version, err)
			}

			record := Migration{
				Version:     migration.Version,
				Description: migration.Description,
				AppliedAt:   time.Now().UTC(),
				Checksum:    Checksum(migration),
			}
			if _, err := r.collection.InsertOne(sc, record); err != nil {
				return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		slog.InfoContext(ctx, "Migration completed", slog.String("version", migration.Version))
	}
	return nil
}

// Rollback rolls back the last n applied migrations, newest first
func (r *Runner) Rollback(ctx context.Context, steps int) error {
	applied, err := r.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, version := range RollbackOrder(applied, steps) {
		migration, ok := r.find(version)
		if !ok {
			return fmt.Errorf("migration %s not found in registered migrations", version)
		}
		if migration.Down == nil {
			slog.WarnContext(ctx, "Migration has no rollback function, skipping", slog.String("version", version))
			continue
		}

		slog.InfoContext(ctx, "Rolling back migration", slog.String("version", version))
		err := r.inSession(ctx, func(sc mongo.SessionContext) error {
			if err := migration.Down(sc, r.db); err != nil {
				return fmt.Errorf("rollback %s failed: %w", version, err)
			}
			if _, err := r.collection.DeleteOne(sc, bson.M{"version": version}); err != nil {
				return fmt.Errorf("failed to remove migration record %s: %w", version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Status reports every registered migration with its applied state
func (r *Runner) Status(ctx context.Context) ([]StatusEntry, error) {
	applied, err := r.getAppliedMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get applied migrations: %w", err)
	}
	return r.StatusOf(applied), nil
}

// StatusOf merges the registered migrations with the applied records.
func (r *Runner) StatusOf(applied []Migration) []StatusEntry {
	appliedAt := make(map[string]time.Time, len(applied))
	for _, m := range applied {
		appliedAt[m.Version] = m.AppliedAt
	}

	out := make([]StatusEntry, 0, len(r.migrations))
	for _, m := range r.migrations {
		at, ok := appliedAt[m.Version]
		out = append(out, StatusEntry{Version: m.Version, Description: m.Description, Applied: ok, AppliedAt: at})
	}
	return out
}

// Pending returns the registered migrations missing from applied.
func (r *Runner) Pending(applied []Migration) []RegisteredMigration {
	done := make(map[string]bool, len(applied))
	for _, m := range applied {
		done[m.Version] = true
	}

	var pending []RegisteredMigration
	for _, m := range r.migrations {
		if !done[m.Version] {
			pending = append(pending, m)
		}
	}
	return pending
}

// RollbackOrder returns the versions of the last steps applied migrations,
// newest first.
func RollbackOrder(applied []Migration, steps int) []string {
	versions := make([]string, len(applied))
	for i, m := range applied {
		versions[i] = m.Version
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))

	if steps > len(versions) {
		steps = len(versions)
	}
	if steps < 0 {
		steps = 0
	}
	return versions[:steps]
}

// Checksum identifies the registered content of a migration.
func Checksum(migration RegisteredMigration) string {
	sum := sha256.Sum256([]byte(migration.Version + ":" + migration.Description))
	return hex.EncodeToString(sum[:])
}

func (r *Runner) find(version string) (RegisteredMigration, bool) {
	for _, m := range r.migrations {
		if m.Version == version {
			return m, true
		}
	}
	return RegisteredMigration{}, false
}

func (r *Runner) inSession(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	session, err := r.db.Client().StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	return mongo.WithSession(ctx, session, fn)
}

func (r *Runner) ensureMigrationsIndex(ctx context.Context) error {
	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "version", Value: 1}},
		Options: options.Index().SetUnique(true),
	}

	_, err := r.collection.Indexes().CreateOne(ctx, indexModel)
	return err
}

func (r *Runner) getAppliedMigrations(ctx context.Context) ([]Migration, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "version", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var migrations []Migration
	if err := cursor.All(ctx, &migrations); err != nil {
		return nil, err
	}
	return migrations, nil
}
