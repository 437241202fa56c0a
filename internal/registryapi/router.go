package registryapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/info", s.handleInfo)

	r.Post("/devices/register", s.handleRegisterDevice)
	r.Get("/devices", s.handleListDevices)
	r.Get("/devices/unassigned", s.handleListUnassignedDevices)
	r.Get("/devices/by-model/{model}", s.handleListDevicesByModel)
	r.Get("/devices/{id}", s.handleGetDevice)
	r.Get("/devices/{id}/exists", s.handleDeviceExists)
	r.Post("/devices/{id}/unassign", s.handleUnassignDevice)
	r.Post("/devices/{id}/rename", s.handleRenameDevice)

	r.Post("/services/register", s.handleRegisterService)
	r.Get("/services", s.handleListServices)
	r.Get("/services/{id}", s.handleGetService)

	r.Get("/users", s.handleListUsers)
	r.Post("/users", s.handleCreateUser)
	r.Get("/users/by-chat/{chat_id}", s.handleGetUserByChat)
	r.Get("/users/{id}", s.handleGetUser)
	r.Delete("/users/{id}", s.handleDeleteUser)
	r.Get("/users/{id}/devices", s.handleGetUserDevices)
	r.Post("/users/{id}/assign-device", s.handleAssignDevice)
	r.Post("/users/{id}/link_telegram", s.handleLinkTelegram)

	r.Get("/models", s.handleListModels)
	r.Get("/models/{model}", s.handleGetModel)

	r.Get("/mqtt/topics", s.handleMQTTTopics)
	r.Get("/mqtt/topics/{device_id}", s.handleMQTTTopicsForDevice)

	return r
}
