package collections

import (
	"log/slog"
	"time"

	"go-fleetdata/internal/collections/routes"
	"go-fleetdata/internal/collections/services"
	"go-fleetdata/internal/storage"
	"go-fleetdata/pkg/database"
	"go-fleetdata/pkg/middleware"
	"go-fleetdata/pkg/module"

	"github.com/danielgtaylor/huma/v2"
)

// Module represents the collections module
type Module struct {
	*module.BaseModule
	routes *routes.Module
}

// NewModule creates a new collections module. redis may be nil, which
// disables the collection cache.
func NewModule(gateway storage.Gateway, redis *database.Redis, auth *middleware.APIKeyAuth, cacheTTL time.Duration) *Module {
	var cache services.Cache
	if redis != nil {
		cache = redis
	}
	return newModule(gateway, cache, auth, cacheTTL)
}

func newModule(gateway storage.Gateway, cache services.Cache, auth *middleware.APIKeyAuth, cacheTTL time.Duration) *Module {
	service := services.NewService(gateway, cache, cacheTTL)

	m := &Module{
		BaseModule: module.NewBaseModule("collections"),
		routes:     routes.NewModule(service, auth),
	}

	slog.Info("Collections module initialized", "name", m.Name(), "cache", cache != nil)
	return m
}

// RegisterUnifiedRoutes registers all collection routes with the provided Huma API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	slog.Info("Registering collections routes", "basePath", basePath+"/collections")
	m.routes.RegisterUnifiedRoutes(api, basePath+"/collections")
}
