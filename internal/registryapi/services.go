package registryapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/registry"
)

type registerServiceRequest struct {
	ServiceID                string   `json:"serviceID"`
	Name                     string   `json:"name"`
	Description              string   `json:"description,omitempty"`
	Endpoints                []string `json:"endpoints"`
	Type                     string   `json:"type,omitempty"`
	Version                  string   `json:"version,omitempty"`
	RegistrationIntervalSecs int      `json:"registration_interval_seconds,omitempty"`
}

// handleRegisterService implements POST /services/register: upsert by
// serviceID, 201 on first registration and 200 on every re-registration
// (control services and the notifier call this on a startup/heartbeat
// cadence).
func (s *Server) handleRegisterService(w http.ResponseWriter, r *http.Request) {
	var req registerServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ServiceID == "" {
		writeBadRequest(w, "serviceID is required")
		return
	}

	svc, created, err := s.store.RegisterService(registry.Service{
		ServiceID:                req.ServiceID,
		Name:                     req.Name,
		Description:              req.Description,
		Endpoints:                req.Endpoints,
		Type:                     req.Type,
		Version:                  req.Version,
		RegistrationIntervalSecs: req.RegistrationIntervalSecs,
	})
	if err != nil {
		writeInternalError(w, "failed to register service")
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, svc)
}

func (s *Server) handleListServices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListServices())
}

func (s *Server) handleGetService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	svc, err := s.store.GetService(id)
	if err != nil {
		if errors.Is(err, registry.ErrServiceNotFound) {
			writeNotFound(w, err.Error())
			return
		}
		writeInternalError(w, "failed to get service")
		return
	}
	writeJSON(w, http.StatusOK, svc)
}
