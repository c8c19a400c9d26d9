package users

import (
	"log/slog"

	"go-fleetdata/internal/history"
	"go-fleetdata/internal/users/routes"
	"go-fleetdata/internal/users/services"
	"go-fleetdata/pkg/module"

	"github.com/danielgtaylor/huma/v2"
)

// Module represents the users module
type Module struct {
	*module.BaseModule
	routes *routes.Module
}

// NewModule creates a new users module
func NewModule(engine *history.Engine) *Module {
	service := services.NewService(engine)

	m := &Module{
		BaseModule: module.NewBaseModule("users"),
		routes:     routes.NewModule(service),
	}

	slog.Info("Users module initialized", "name", m.Name())
	return m
}

// RegisterUnifiedRoutes registers all user routes with the provided Huma API
func (m *Module) RegisterUnifiedRoutes(api huma.API, basePath string) {
	slog.Info("Registering users routes", "basePath", basePath)
	m.routes.RegisterUnifiedRoutes(api, basePath)
}
