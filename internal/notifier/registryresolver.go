package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const httpTimeout = 6 * time.Second

// RegistryResolver implements ChatResolver against the Registry's HTTP
// surface: user → chat, and device → owner → chat (spec §4.7 step 2).
type RegistryResolver struct {
	baseURL string
	http    *http.Client
}

// NewRegistryResolver builds a RegistryResolver against baseURL.
func NewRegistryResolver(baseURL string) *RegistryResolver {
	return &RegistryResolver{baseURL: baseURL, http: &http.Client{Timeout: httpTimeout}}
}

type userResponse struct {
	UserID         string  `json:"userID"`
	TelegramChatID *string `json:"telegram_chat_id"`
}

type deviceResponse struct {
	DeviceID string  `json:"deviceID"`
	Owner    *string `json:"owner"`
}

func (r *RegistryResolver) getJSON(path string, dst any) error {
	ctx, cancel := context.WithTimeout(context.Background(), httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("notifier: building request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("notifier: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notifier: unexpected status %d for %s", resp.StatusCode, path)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// ChatForUser resolves userID -> telegram_chat_id.
func (r *RegistryResolver) ChatForUser(userID string) (string, bool) {
	var user userResponse
	if err := r.getJSON(fmt.Sprintf("/users/%s", userID), &user); err != nil {
		return "", false
	}
	if user.TelegramChatID == nil || *user.TelegramChatID == "" {
		return "", false
	}
	return *user.TelegramChatID, true
}

// ChatForDevice resolves deviceID -> owner -> telegram_chat_id.
func (r *RegistryResolver) ChatForDevice(deviceID string) (string, bool) {
	var device deviceResponse
	if err := r.getJSON(fmt.Sprintf("/devices/%s", deviceID), &device); err != nil {
		return "", false
	}
	if device.Owner == nil {
		return "", false
	}
	return r.ChatForUser(*device.Owner)
}
