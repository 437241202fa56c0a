// Package notifier implements the Notification Router: it subscribes to
// every alert topic, resolves the owning chat, applies a per-key cooldown,
// formats a short message, and delivers it over the external chat platform
// (spec §4.7).
package notifier

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
)

// alertPayload is the subset of an Alert payload the router needs to
// route and format a notification (spec §6).
type alertPayload struct {
	AlertType string `json:"alert_type"`
	DeviceID  string `json:"device_id"`
	UserID    string `json:"userID"`
	Message   string `json:"message"`
	Severity  string `json:"severity"`
}

// ChatResolver looks up the chat a notification should reach, mirroring the
// Registry's User/Device relationship without the router needing direct
// access to the Store (keeps the router's only entry point into the
// Registry an HTTP client, matching spec §5's "no shared mutable memory
// crosses component boundaries").
type ChatResolver interface {
	ChatForUser(userID string) (string, bool)
	ChatForDevice(deviceID string) (string, bool)
}

// Sender delivers a formatted message to an external chat. Implemented by
// the telegram package.
type Sender interface {
	Send(chatID, text string) error
}

// cooldownKey identifies one (chat, alertType, device) dedup bucket (spec
// §4.7).
type cooldownKey struct {
	chatID    string
	alertType string
	deviceID  string
}

// Router implements the alert fan-in described in spec §4.7.
type Router struct {
	resolver ChatResolver
	sender   Sender
	logger   logging.Interface
	cooldown time.Duration

	mu       sync.Mutex
	lastSent map[cooldownKey]time.Time
}

// New constructs a Router. cooldown is the alert_cooldown_minutes window,
// applied alike to every (chat, alertType, device) key; there is no
// per-device cooldown.
func New(resolver ChatResolver, sender Sender, cooldown time.Duration, logger logging.Interface) *Router {
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	return &Router{
		resolver: resolver,
		sender:   sender,
		logger:   logger,
		cooldown: cooldown,
		lastSent: make(map[cooldownKey]time.Time),
	}
}

// isResolutionEvent reports whether alertType is a resolution event
// (door_closed family), which bypasses cooldown and does not update it
// (spec §4.7 step 3).
func isResolutionEvent(alertType string) bool {
	return strings.HasPrefix(strings.ToLower(alertType), "doorclosed") ||
		strings.HasPrefix(strings.ToLower(alertType), "door_closed")
}

// HandleAlert processes one message received on an `Alerts/#` topic. It
// never panics or blocks the bus dispatch loop (spec §7).
func (r *Router) HandleAlert(topic string, payload []byte) {
	var alert alertPayload
	if err := json.Unmarshal(payload, &alert); err != nil {
		r.logger.Warn("alert payload is not valid JSON", "topic", topic, "error", err)
		return
	}

	if alert.AlertType == "" {
		alert.AlertType = lastTopicSegment(topic)
	}
	if alert.DeviceID == "" {
		r.logger.Debug("alert missing device_id, dropping", "topic", topic)
		return
	}
	if alert.Severity == "" {
		alert.Severity = "info"
	}

	chatID, ok := r.resolveChat(alert)
	if !ok {
		r.logger.Debug("could not resolve chat for alert, dropping", "device_id", alert.DeviceID, "alert_type", alert.AlertType)
		return
	}

	key := cooldownKey{chatID: chatID, alertType: alert.AlertType, deviceID: alert.DeviceID}
	resolution := isResolutionEvent(alert.AlertType)

	if !resolution && r.suppressed(key) {
		return
	}

	text := formatAlert(alert)
	if err := r.sender.Send(chatID, text); err != nil {
		r.logger.Warn("sending notification failed", "chat_id", chatID, "error", err)
		return
	}

	if !resolution {
		r.markSent(key)
	}
}

func (r *Router) resolveChat(alert alertPayload) (string, bool) {
	if alert.UserID != "" {
		if chatID, ok := r.resolver.ChatForUser(alert.UserID); ok {
			return chatID, true
		}
	}
	return r.resolver.ChatForDevice(alert.DeviceID)
}

func (r *Router) suppressed(key cooldownKey) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	last, ok := r.lastSent[key]
	if !ok {
		return false
	}
	return time.Since(last) < r.cooldown
}

func (r *Router) markSent(key cooldownKey) {
	r.mu.Lock()
	r.lastSent[key] = time.Now()
	r.mu.Unlock()
}

func lastTopicSegment(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) == 0 {
		return ""
	}
	return parts[len(parts)-1]
}

// severityIcon maps a severity to a short prefix glyph for formatting.
func severityIcon(severity string) string {
	switch severity {
	case "critical":
		return "🔴"
	case "warning":
		return "🟡"
	default:
		return "🔵"
	}
}

func formatAlert(alert alertPayload) string {
	message := alert.Message
	if message == "" {
		message = alert.AlertType
	}
	return fmt.Sprintf("%s %s\ndevice: %s", severityIcon(alert.Severity), message, alert.DeviceID)
}
