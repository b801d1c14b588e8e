package api

import (
	"context"
	"net/http"
	"time"
)

// readinessTimeout bounds each component probe so one stalled dependency
// does not hold the readiness response open.
const readinessTimeout = 5 * time.Second

// componentStatus is one entry of the readiness report.
type componentStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// handleHealthz is the liveness probe: the process is up and serving.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}

// handleReadyz is the readiness probe: every configured dependency must
// answer its health check. A single failing component yields 503 with the
// per-component breakdown.
func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	components := map[string]componentStatus{
		"database": checkComponent(ctx, s.database),
		"mqtt":     checkComponent(ctx, s.mqtt),
		"redis":    checkComponent(ctx, s.redis),
	}

	ready := true
	for _, c := range components {
		if c.Status == "error" {
			ready = false
		}
	}

	status := http.StatusOK
	overall := "ready"
	if !ready {
		status = http.StatusServiceUnavailable
		overall = "not ready"
	}

	writeJSON(w, status, map[string]any{
		"status":     overall,
		"components": components,
	})
}

// checkComponent probes one dependency. Nil checkers are configured out
// and report as disabled without affecting readiness.
func checkComponent(ctx context.Context, c HealthChecker) componentStatus {
	if c == nil {
		return componentStatus{Status: "disabled"}
	}
	if err := c.HealthCheck(ctx); err != nil {
		return componentStatus{Status: "error", Error: err.Error()}
	}
	return componentStatus{Status: "ok"}
}

// handleStatus reports version, uptime, and pipeline depth.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{
		"service":        "pulse-core",
		"version":        s.version,
		"uptime_seconds": int(time.Since(s.started).Seconds()),
		"ws_clients":     s.hub.ClientCount(),
	}
	if s.ingest != nil {
		body["ingest"] = map[string]int{
			"in_flight": s.ingest.InFlight(),
			"pending":   s.ingest.Pending(),
		}
	}
	writeJSON(w, http.StatusOK, body)
}
