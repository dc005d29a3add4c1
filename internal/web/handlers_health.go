package web

import (
	"net/http"

	"github.com/JonMunkholm/SentinelAdmin/internal/core"
)

// HealthResponse reports liveness, database readiness and import slots.
type HealthResponse struct {
	Status   string             `json:"status"`
	Database string             `json:"database"`
	Imports  core.LimiterStatus `json:"imports"`
}

// handleHealth always answers 200 while the process is up. Status is
// "degraded" until the database is connected.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "ready",
		Imports:  s.service.Limiter().Status(),
	}
	if !s.service.Ready() {
		resp.Status = "degraded"
		resp.Database = "not_ready"
	}
	writeJSON(w, http.StatusOK, resp)
}
