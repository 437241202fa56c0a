package registryapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/registry"
)

type createUserRequest struct {
	UserID         string  `json:"userID"`
	UserName       string  `json:"userName"`
	TelegramChatID *string `json:"telegram_chat_id,omitempty"`
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		writeBadRequest(w, "userID is required")
		return
	}

	user, err := s.store.CreateUser(req.UserID, req.UserName, req.TelegramChatID)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrDuplicateUser), errors.Is(err, registry.ErrChatAlreadyLinked):
			writeConflict(w, err.Error())
		case errors.Is(err, registry.ErrMissingField):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to create user")
		}
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleListUsers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.ListUsers())
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := s.store.GetUser(id)
	if err != nil {
		writeNotFound(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, unassigned, err := s.store.DeleteUser(id)
	if err != nil {
		if errors.Is(err, registry.ErrUserNotFound) {
			writeNotFound(w, err.Error())
			return
		}
		writeInternalError(w, "failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":               deleted,
		"unassigned_device_ids": unassigned,
	})
}

func (s *Server) handleGetUserDevices(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := s.store.GetUser(id)
	if err != nil {
		writeNotFound(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user.DevicesList)
}

type assignDeviceRequest struct {
	DeviceID   string  `json:"device_id"`
	DeviceName *string `json:"device_name,omitempty"`
}

func (s *Server) handleAssignDevice(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	var req assignDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.DeviceID == "" {
		writeBadRequest(w, "device_id is required")
		return
	}

	dev, user, err := s.store.AssignDeviceToUser(userID, req.DeviceID, req.DeviceName)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrUserNotFound), errors.Is(err, registry.ErrDeviceNotFound):
			writeNotFound(w, err.Error())
		case errors.Is(err, registry.ErrDeviceAlreadyAssigned):
			writeConflict(w, err.Error())
		case errors.Is(err, registry.ErrNameTooLong), errors.Is(err, registry.ErrEmptyName):
			writeBadRequest(w, err.Error())
		default:
			writeInternalError(w, "failed to assign device")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"device": dev, "user": user})
}

type linkTelegramRequest struct {
	ChatID string `json:"chat_id"`
}

func (s *Server) handleLinkTelegram(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	var req linkTelegramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.ChatID == "" {
		writeBadRequest(w, "chat_id is required")
		return
	}

	user, err := s.store.LinkTelegram(userID, req.ChatID)
	if err != nil {
		switch {
		case errors.Is(err, registry.ErrUserNotFound):
			writeNotFound(w, err.Error())
		case errors.Is(err, registry.ErrChatAlreadyLinked):
			writeConflict(w, err.Error())
		default:
			writeInternalError(w, "failed to link telegram chat")
		}
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleGetUserByChat(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chat_id")
	user, err := s.store.GetUserByChat(chatID)
	if err != nil {
		writeNotFound(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, user)
}
