package registryapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleListModels(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListModels())
}

func (s *Server) handleGetModel(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "model")
	model, err := s.store.GetModel(name)
	if err != nil {
		writeNotFound(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, model)
}

func (s *Server) handleMQTTTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.MQTTTopicsAll())
}

func (s *Server) handleMQTTTopicsForDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "device_id")
	dev, err := s.store.GetDevice(id)
	if err != nil {
		writeNotFound(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"device_id": dev.DeviceID,
		"topics":    dev.MQTTTopics,
	})
}
