package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"marketboard-updater/pkg/response"
)

// StartTime tracks when the process started for uptime calculation
var StartTime = time.Now()

// HealthCheck is one named dependency probe.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

// Handler contains the shared status handlers.
type Handler struct {
	checks []HealthCheck
}

// New creates a new handler with the given dependency checks.
func New(checks ...HealthCheck) *Handler {
	return &Handler{checks: checks}
}

// Check represents an individual health check result.
type Check struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Checks    []Check   `json:"checks,omitempty"`
}

// Health handles GET /api/v1/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	healthy := true
	checks := make([]Check, 0, len(h.checks))
	for _, c := range h.checks {
		status := "ok"
		if err := c.Ping(ctx); err != nil {
			status = err.Error()
			healthy = false
		}
		checks = append(checks, Check{Name: c.Name, Status: status})
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Checks:    checks,
	}
	if !healthy {
		resp.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	response.OK(w, resp)
}

// StatusChecks represents the checks in the status response
type StatusChecks struct {
	MemoryMB float64 `json:"memory_mb"`
}

// StatusResponse represents the unified status response for monitoring
type StatusResponse struct {
	Service       string       `json:"service"`
	Status        string       `json:"status"`
	Timestamp     string       `json:"timestamp"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Checks        StatusChecks `json:"checks"`
}

// Status handles GET /api/status - unified health check for monitoring
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	memoryMB := float64(memStats.Alloc) / 1024 / 1024

	resp := StatusResponse{
		Service:       "marketboard-updater",
		Status:        "ok",
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		UptimeSeconds: int64(time.Since(StartTime).Seconds()),
		Checks: StatusChecks{
			MemoryMB: float64(int(memoryMB*100)) / 100,
		},
	}

	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	response.OK(w, resp)
}
