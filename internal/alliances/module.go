package alliances

import (
	"log/slog"

	"go-fleetdata/internal/alliances/routes"
	"go-fleetdata/internal/alliances/services"
	"go-fleetdata/internal/history"
	"go-fleetdata/pkg/module"

	"github.com/danielgtaylor/huma/v2"
)

// Module represents the alliances module
type Module struct {
	*module.BaseModule
	routes *routes.Module
}

// NewModule creates a new alliances module
func NewModule(engine *history.Engine) *Module {
	service := services.NewService(engine)

	m := &Module{
		BaseModule: module.NewBaseModule("alliances"),
		routes:     routes.NewModule(service),
	}

	slog.Info("Alliances module initialized", "name", m.Name())
	return m
}

// RegisterUnifiedRoutes registers all fleet routes with the provided Huma API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	slog.Info("Registering alliances routes", "basePath", basePath)
	m.routes.RegisterUnifiedRoutes(api, basePath)
}
