package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go-fleetdata/pkg/database"
	"go-fleetdata/pkg/logging"
	pkgMigrations "go-fleetdata/pkg/migrations"

	// Import all migration files to register them
	localMigrations "go-fleetdata/migrations"

	"github.com/joho/godotenv"
)

func main() {
	var (
		command = flag.String("command", "up", "Migration command: up, down, status, create")
		steps   = flag.Int("steps", 0, "Number of migrations to rollback (for down command)")
		name    = flag.String("name", "", "Migration name (for create command)")
		dryRun  = flag.Bool("dry-run", false, "Show what would be done without executing")
	)
	flag.Parse()

	if *command == "create" {
		if *name == "" {
			log.Fatal("❌ Migration name is required for create command")
		}
		if err := createMigration(*name); err != nil {
			log.Fatalf("❌ Failed to create migration: %v", err)
		}
		return
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	telemetry := logging.NewTelemetryManager("fleetdata-migrate")
	if err := telemetry.Initialize(ctx); err != nil {
		log.Printf("Warning: Failed to initialize telemetry: %v", err)
	}
	defer telemetry.Shutdown(ctx)

	mongodb, err := database.NewMongoDB(ctx, database.DefaultDatabase)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	defer mongodb.Close(ctx)

	runner := pkgMigrations.NewRunner(mongodb.Database)
	localMigrations.RegisterAll(runner)

	switch *command {
	case "up":
		fmt.Println("🚀 Running database migrations...")
		if *dryRun {
			fmt.Println("⚠️  DRY RUN MODE - No changes will be made")
			printStatus(ctx, runner)
			return
		}
		if err := runner.Run(ctx); err != nil {
			log.Fatalf("❌ Migration failed: %v", err)
		}
		fmt.Println("✅ All migrations completed successfully")

	case "down":
		if *steps == 0 {
			*steps = 1
		}
		fmt.Printf("🔄 Rolling back %d migration(s)...\n", *steps)
		if *dryRun {
			fmt.Println("⚠️  DRY RUN MODE - No changes will be made")
			printStatus(ctx, runner)
			return
		}
		if err := runner.Rollback(ctx, *steps); err != nil {
			log.Fatalf("❌ Rollback failed: %v", err)
		}
		fmt.Println("✅ Rollback completed successfully")

	case "status":
		printStatus(ctx, runner)

	default:
		log.Fatalf("❌ Unknown command: %s", *command)
	}
}

func printStatus(ctx context.Context, runner *pkgMigrations.Runner) {
	entries, err := runner.Status(ctx)
	if err != nil {
		log.Fatalf("❌ Failed to get migration status: %v", err)
	}

	fmt.Println("\n📊 Migration Status:")
	fmt.Println(strings.Repeat("=", 80))

	applied := 0
	for _, e := range entries {
		status, at := "⏳ Pending", ""
		if e.Applied {
			applied++
			status = "✅ Applied"
			at = fmt.Sprintf(" (at %s)", e.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("%s %s - %s%s\n", status, e.Version, e.Description, at)
	}
	fmt.Printf("\nTotal: %d migrations (%d applied, %d pending)\n", len(entries), applied, len(entries)-applied)
}

const migrationTemplate = `package migrations

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
)

func init() {
	Register(Migration{
		Version:     "%[1]s_%[2]s",
		Description: "%[2]s",
		Up:          up%[1]s,
		Down:        down%[1]s,
	})
}

func up%[1]s(ctx context.Context, db *mongo.Database) error {
	return nil
}

func down%[1]s(ctx context.Context, db *mongo.Database) error {
	return nil
}
`

// createMigration writes a new numbered migration file
func createMigration(name string) error {
	version := fmt.Sprintf("%03d", nextVersionNumber("migrations"))
	filename := fmt.Sprintf("migrations/%s_%s.go", version, name)

	if err := os.MkdirAll("migrations", 0755); err != nil {
		return err
	}
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("migration file %s already exists", filename)
	}
	if err := os.WriteFile(filename, []byte(fmt.Sprintf(migrationTemplate, version, name)), 0644); err != nil {
		return err
	}

	fmt.Printf("✅ Created migration file: %s\n", filename)
	return nil
}

// nextVersionNumber returns one past the highest numbered file in dir
func nextVersionNumber(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 1
	}

	maxVersion := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%03d_", &version); err == nil && version > maxVersion {
			maxVersion = version
		}
	}
	return maxVersion + 1
}
