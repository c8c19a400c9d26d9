package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-fleetdata/internal/storage"
	"go-fleetdata/pkg/handlers"
	"go-fleetdata/pkg/version"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, s *Server, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func newServer(prefix string, checks ...handlers.Check) *Server {
	g := storage.NewMemoryGateway()
	if checks == nil {
		checks = []handlers.Check{{Name: "storage", Required: true, Probe: g.Ping}}
	}
	return New(Options{
		Gateway:      g,
		RootAPIKey:   "root-key",
		APIPrefix:    prefix,
		ServerURL:    "https://fleetdata.example.com",
		HealthChecks: checks,
	})
}

func TestPing(t *testing.T) {
	s := newServer("")

	rec := serve(t, s, http.MethodGet, "/ping")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Ping string `json:"ping"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Pong!", body.Ping)
}

func TestRoot(t *testing.T) {
	s := newServer("")

	rec := serve(t, s, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var info RootInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, 9, info.LatestSchemaVersion)
	assert.Equal(t, []int{2, 3, 4, 5, 6, 7, 8, 9}, info.SupportedSchemaVersions)
	assert.Equal(t, version.GetVersionString(), info.Version)
	assert.Equal(t, "/collections", info.Links["collections"])
}

func TestModulesRegistered(t *testing.T) {
	s := newServer("")

	names := make([]string, 0, len(s.Modules))
	for _, m := range s.Modules {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"collections", "alliances", "users"}, names)

	oapi := s.API.OpenAPI()
	for _, path := range []string{
		"/collections",
		"/collections/upload",
		"/collections/upload/{collectionId}",
		"/collections/{collectionId}",
		"/collections/{collectionId}/alliances",
		"/collections/{collectionId}/alliances/{allianceId}",
		"/collections/{collectionId}/users",
		"/collections/{collectionId}/top100Users",
		"/collections/{collectionId}/users/{userId}",
		"/allianceHistory/{allianceId}",
		"/userHistory/{userId}",
		"/ping",
	} {
		assert.Contains(t, oapi.Paths, path)
	}
	require.Len(t, oapi.Servers, 1)
	assert.Equal(t, "https://fleetdata.example.com", oapi.Servers[0].URL)
}

func TestAPIPrefix(t *testing.T) {
	s := newServer("/api")

	assert.Equal(t, http.StatusOK, serve(t, s, http.MethodGet, "/api/ping").Code)
	assert.Equal(t, http.StatusNotFound, serve(t, s, http.MethodGet, "/ping").Code)
	assert.Equal(t, http.StatusOK, serve(t, s, http.MethodGet, "/health").Code)
	assert.Equal(t, "https://fleetdata.example.com/api", s.API.OpenAPI().Servers[0].URL)

	rec := serve(t, s, http.MethodGet, "/api/collections/5")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "COLLECTION_NOT_FOUND")
}

func TestHealthAndMetrics(t *testing.T) {
	s := newServer("")

	rec := serve(t, s, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	var health handlers.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, ServiceName, health.Service)

	serve(t, s, http.MethodGet, "/collections/1")
	rec = serve(t, s, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "go_goroutines"))

	down := newServer("", handlers.Check{
		Name:     "storage",
		Required: true,
		Probe:    func(context.Context) error { return errors.New("connection refused") },
	})
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, down, http.MethodGet, "/health").Code)
}
