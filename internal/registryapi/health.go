package registryapi

import (
	"net/http"
	"time"
)

// handleHealth returns a minimal liveness summary.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	stats := s.store.GetStats(staleServiceFallbackInterval)
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"service":        "registry",
		"timestamp":      time.Now().UTC(),
		"devices_count":  stats.DevicesCount,
		"services_count": stats.ServicesCount,
	})
}

// handleInfo returns the full aggregated statistics block.
func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	stats := s.store.GetStats(staleServiceFallbackInterval)
	writeJSON(w, http.StatusOK, map[string]any{
		"service":              "registry",
		"timestamp":            time.Now().UTC(),
		"schema_version":       stats.SchemaVersion,
		"last_update":          stats.LastUpdate,
		"devices_count":        stats.DevicesCount,
		"users_count":          stats.UsersCount,
		"services_count":       stats.ServicesCount,
		"assigned_devices":     stats.AssignedDevices,
		"unassigned_devices":   stats.UnassignedDevices,
		"stale_services_count": stats.StaleServicesCount,
	})
}
