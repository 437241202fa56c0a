package registryapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/registry"
)

type registerDeviceRequest struct {
	MACAddress      string   `json:"mac_address"`
	Model           string   `json:"model"`
	Sensors         []string `json:"sensors"`
	FirmwareVersion string   `json:"firmware_version,omitempty"`
}

// registerDeviceResponse wraps a device with a sync indicator on repeat
// registrations. The device's own "status" field is its operational state
// (active/inactive); "status" here is the outcome of this registration
// call, so the two are kept in separate JSON scopes rather than colliding.
type registerDeviceResponse struct {
	Device registry.Device `json:"device"`
	Status string          `json:"status"`
}

// handleRegisterDevice implements POST /devices/register: 201 with the bare
// device on a new registration, 200 wrapped with status=synced when the MAC
// is already known (same deviceID, refreshed last_sync).
func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req registerDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.MACAddress == "" || req.Model == "" {
		writeBadRequest(w, "mac_address and model are required")
		return
	}

	dev, created, err := s.store.RegisterDevice(req.MACAddress, req.Model, req.Sensors, req.FirmwareVersion)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrInvalidMAC), errors.Is(err, registry.ErrUnsupportedModel):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to register device")
		}
		return
	}

	if !created {
		writeJSON(w, http.StatusOK, registerDeviceResponse{Device: dev, Status: "synced"})
		return
	}
	writeJSON(w, http.StatusCreated, dev)
}

func (s *Server) handleListDevices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListDevices())
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	dev, err := s.store.GetDevice(id)
	if err != nil {
		writeNotFound(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, dev)
}

func (s *Server) handleDeviceExists(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": id,
		"exists":    s.store.DeviceExists(id),
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleListUnassignedDevices(w http.ResponseWriter, _ *http.Request) {
	devices := s.store.ListUnassignedDevices()
	if devices == nil {
		devices = []registry.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleListDevicesByModel(w http.ResponseWriter, r *http.Request) {
	model := chi.URLParam(r, "model")
	devices := s.store.ListDevicesByModel(model)
	if devices == nil {
		devices = []registry.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleUnassignDevice implements POST /devices/{id}/unassign. Calling it
// on an already-unassigned device is not an error: the response carries
// already_unassigned=true instead.
func (s *Server) handleUnassignDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	alreadyUnassigned, err := s.store.UnassignDevice(id)
	if err != nil {
		if errors.Is(err, registry.ErrDeviceNotFound) {
			writeNotFound(w, err.Error())
			return
		}
		writeInternalError(w, "failed to unassign device")
		return
	}
	message := "device unassigned"
	if alreadyUnassigned {
		message = "device was already unassigned"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":            message,
		"already_unassigned": alreadyUnassigned,
	})
}

type renameDeviceRequest struct {
	UserDeviceName string `json:"user_device_name"`
}

func (s *Server) handleRenameDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req renameDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	dev, err := s.store.RenameDevice(id, req.UserDeviceName)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrDeviceNotFound):
			writeNotFound(w, err.Error())
		case errors.Is(err, registry.ErrNameTooLong), errors.Is(err, registry.ErrEmptyName):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to rename device")
		}
		return
	}
	writeJSON(w, http.StatusOK, dev)
}
