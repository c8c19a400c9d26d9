// Package server assembles the router, the unified Huma API and every
// module of the fleet data API.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go-fleetdata/internal/alliances"
	"go-fleetdata/internal/collections"
	"go-fleetdata/internal/fleeterr"
	"go-fleetdata/internal/history"
	"go-fleetdata/internal/schema"
	"go-fleetdata/internal/storage"
	"go-fleetdata/internal/users"
	"go-fleetdata/pkg/database"
	"go-fleetdata/pkg/handlers"
	"go-fleetdata/pkg/metrics"
	fleetMiddleware "go-fleetdata/pkg/middleware"
	"go-fleetdata/pkg/module"
	"go-fleetdata/pkg/version"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const ServiceName = "fleetdata"

// Options configures New.
type Options struct {
	Gateway        storage.Gateway
	Redis          *database.Redis
	RootAPIKey     string
	CacheTTL       time.Duration
	APIPrefix      string
	ServerURL      string
	ServerDesc     string
	RequestTimeout time.Duration
	HealthChecks   []handlers.Check
}

// Server is the assembled HTTP surface.
type Server struct {
	Router  chi.Router
	API     huma.API
	Modules []module.Module
}

// New builds the router with /health and /metrics, mounts the Huma API
// under the API prefix and registers every module on it.
func New(opts Options) *Server {
	fleeterr.InstallHumaErrors()

	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(fleetMiddleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(opts.RequestTimeout))
	r.Use(handlers.TracingMiddleware(ServiceName))

	r.Get("/health", handlers.HealthHandler(ServiceName, opts.HealthChecks...))
	r.Handle("/metrics", metrics.Handler())

	s := &Server{Router: r}
	if opts.APIPrefix == "" {
		s.API = humachi.New(r, Config(opts))
	} else {
		r.Route(opts.APIPrefix, func(prefixRouter chi.Router) {
			s.API = humachi.New(prefixRouter, Config(opts))
		})
	}
	s.Modules = Register(s.API, opts)
	return s
}

// Config returns the Huma configuration of the unified API.
func Config(opts Options) huma.Config {
	config := huma.DefaultConfig("Fleet Data API", version.Version)
	config.Info.Description = "Versioned time series of fleet and player snapshots. " +
		"Uploads are accepted in every supported schema version and served in the latest one."
	if opts.ServerURL != "" {
		url := strings.TrimSuffix(opts.ServerURL, "/")
		if opts.APIPrefix != "" && !strings.HasSuffix(url, opts.APIPrefix) {
			url += opts.APIPrefix
		}
		config.Servers = []*huma.Server{{URL: url, Description: opts.ServerDesc}}
	}
	return config
}

// Register adds the root operations and every module to api.
func Register(api huma.API, opts Options) []module.Module {
	api.UseMiddleware(fleeterr.RequestURLMiddleware)

	engine := history.NewEngine(opts.Gateway)
	auth := fleetMiddleware.NewAPIKeyAuth(opts.RootAPIKey)

	modules := []module.Module{
		collections.NewModule(opts.Gateway, opts.Redis, auth, opts.CacheTTL),
		alliances.NewModule(engine),
		users.NewModule(engine),
	}

	registerRoot(api)
	module.RegisterAll(api, "", modules...)
	return modules
}

// RootInfo describes the API and links its main endpoints.
type RootInfo struct {
	Name                    string            `json:"name"`
	Version                 string            `json:"version"`
	LatestSchemaVersion     int               `json:"latest_schema_version"`
	SupportedSchemaVersions []int             `json:"supported_schema_versions"`
	Links                   map[string]string `json:"links"`
}

type RootOutput struct {
	Body RootInfo `json:"body"`
}

type PingOutput struct {
	Body struct {
		Ping string `json:"ping" example:"Pong!"`
	} `json:"body"`
}

func registerRoot(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "root-get",
		Method:      http.MethodGet,
		Path:        "/",
		Summary:     "API information",
		Description: "Returns the API version, the supported schema versions and links to the main endpoints",
		Tags:        []string{"Root"},
	}, func(ctx context.Context, _ *struct{}) (*RootOutput, error) {
		versions := schema.SupportedVersions()
		return &RootOutput{Body: RootInfo{
			Name:                    "Fleet Data API",
			Version:                 version.GetVersionString(),
			LatestSchemaVersion:     versions[len(versions)-1],
			SupportedSchemaVersions: versions,
			Links: map[string]string{
				"collections":     "/collections",
				"upload":          "/collections/upload",
				"allianceHistory": "/allianceHistory/{allianceId}",
				"userHistory":     "/userHistory/{userId}",
				"openapi":         "/openapi.json",
				"docs":            "/docs",
			},
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "root-ping",
		Method:      http.MethodGet,
		Path:        "/ping",
		Summary:     "Ping",
		Tags:        []string{"Root"},
	}, func(ctx context.Context, _ *struct{}) (*PingOutput, error) {
		out := &PingOutput{}
		out.Body.Ping = "Pong!"
		return out, nil
	})
}
