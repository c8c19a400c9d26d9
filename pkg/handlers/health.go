package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"go-fleetdata/pkg/version"
)

// Check probes one dependency. A failing required check makes the service
// unhealthy, a failing optional one only degrades it.
type Check struct {
	Name     string
	Required bool
	Probe    func(ctx context.Context) error
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status  string            `json:"status"`
	Service string            `json:"service"`
	Version version.Info      `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// HealthHandler reports the service version and the result of every check.
func HealthHandler(serviceName string, checks ...Check) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		response := HealthResponse{
			Status:  "healthy",
			Service: serviceName,
			Version: version.Get(),
			Checks:  make(map[string]string, len(checks)),
		}
		status := http.StatusOK

		for _, c := range checks {
			if err := c.Probe(ctx); err != nil {
				response.Checks[c.Name] = "error: " + err.Error()
				if c.Required {
					response.Status = "unhealthy"
					status = http.StatusServiceUnavailable
				} else if response.Status == "healthy" {
					response.Status = "degraded"
				}
				continue
			}
			response.Checks[c.Name] = "ok"
		}

		if status != http.StatusOK {
			slog.WarnContext(ctx, "Health check failed", "checks", response.Checks)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if err := json.NewEncoder(w).Encode(response); err != nil {
			slog.Error("Failed to encode health response", "error", err)
		}
	}
}
