package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"go-fleetdata/internal/storage"
	"go-fleetdata/pkg/config"
	"go-fleetdata/pkg/database"
	"go-fleetdata/pkg/handlers"
	"go-fleetdata/pkg/logging"

	"github.com/joho/godotenv"
)

// AppContext holds the shared application context and dependencies
type AppContext struct {
	MongoDB          *database.MongoDB
	Redis            *database.Redis
	Gateway          storage.Gateway
	TelemetryManager *logging.TelemetryManager
	ServiceName      string
	StorageDriver    string
	shutdownFuncs    []func(context.Context) error
}

// InitializeApp loads .env, configures logging and opens the storage
// gateway selected by STORAGE_DRIVER. Redis is optional: without it the
// collection cache is disabled.
func InitializeApp(serviceName string) (*AppContext, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading it: %v", err)
	}

	ctx := context.Background()

	telemetryManager := logging.NewTelemetryManager(serviceName)
	if err := telemetryManager.Initialize(ctx); err != nil {
		log.Printf("Warning: Failed to initialize telemetry: %v", err)
	}

	appCtx := &AppContext{
		TelemetryManager: telemetryManager,
		ServiceName:      serviceName,
		StorageDriver:    config.GetStorageDriver(),
	}

	switch appCtx.StorageDriver {
	case storage.DriverMemory:
		appCtx.Gateway = storage.NewMemoryGateway()
		slog.Warn("Using in-memory storage, collections are lost on restart")
	case storage.DriverMongo:
		mongodb, err := database.NewMongoDB(ctx, database.DefaultDatabase)
		if err != nil {
			_ = telemetryManager.Shutdown(ctx)
			return nil, fmt.Errorf("storage driver %q: %w", appCtx.StorageDriver, err)
		}
		slog.Info("Connected to MongoDB")
		appCtx.MongoDB = mongodb
		appCtx.Gateway = storage.NewMongoGateway(mongodb)
		appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, mongodb.Close)
	default:
		_ = telemetryManager.Shutdown(ctx)
		return nil, fmt.Errorf("unknown storage driver %q, expected %q or %q", appCtx.StorageDriver, storage.DriverMongo, storage.DriverMemory)
	}

	if config.GetEnv("REDIS_URL", "") != "" {
		redis, err := database.NewRedis(ctx)
		if err != nil {
			slog.Error("Failed to connect to Redis, collection cache disabled", "error", err)
		} else {
			slog.Info("Connected to Redis")
			appCtx.Redis = redis
			appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, func(context.Context) error {
				return redis.Close()
			})
		}
	}

	appCtx.shutdownFuncs = append(appCtx.shutdownFuncs, telemetryManager.Shutdown)
	return appCtx, nil
}

// HealthChecks returns the dependency probes reported by /health.
func (a *AppContext) HealthChecks() []handlers.Check {
	checks := []handlers.Check{{Name: "storage", Required: true, Probe: a.Gateway.Ping}}
	if a.Redis != nil {
		checks = append(checks, handlers.Check{Name: "redis", Probe: a.Redis.HealthCheck})
	}
	return checks
}

// Shutdown gracefully shuts down all application dependencies
func (a *AppContext) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down application", "service", a.ServiceName)

	for _, shutdown := range a.shutdownFuncs {
		if err := shutdown(ctx); err != nil {
			slog.Error("Error during shutdown", "error", err)
		}
	}
	return nil
}

// GetPort returns the port from environment or default
func GetPort(defaultPort string) string {
	return config.GetEnv("PORT", defaultPort)
}
