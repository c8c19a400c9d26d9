package module

import (
	"log/slog"
	"sync"

	"github.com/danielgtaylor/huma/v2"
)

// Module defines the interface that all application modules must implement
type Module interface {
	// Name returns the module name for logging and identification
	Name() string

	// RegisterUnifiedRoutes registers the module operations on the shared API
	RegisterUnifiedRoutes(api huma.API, basePath string)

	// Stop releases module resources
	Stop()
}

// BaseModule provides common functionality for all modules
type BaseModule struct {
	name     string
	stopOnce sync.Once
}

// NewBaseModule creates a new base module
func NewBaseModule(name string) *BaseModule {
	return &BaseModule{name: name}
}

// Name returns the module name
func (b *BaseModule) Name() string {
	return b.name
}

// Stop gracefully stops the module. Later calls do nothing.
func (b *BaseModule) Stop() {
	b.stopOnce.Do(func() {
		slog.Info("Module stopped", "module", b.name)
	})
}

// RegisterAll registers every module under basePath.
func RegisterAll(api huma.API, basePath string, modules ...Module) {
	for _, m := range modules {
		m.RegisterUnifiedRoutes(api, basePath)
	}
}

// StopAll stops every module.
func StopAll(modules ...Module) {
	for _, m := range modules {
		m.Stop()
	}
}
