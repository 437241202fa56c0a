package control

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
)

// Skeleton bundles the plumbing every control service shares: the settings
// store, the Registry client, the allow-listed configuration protocol, and
// the periodic/backoff service-registration loop (spec §4.6). A concrete
// service (door-timer, spoilage, status) builds a Skeleton and layers its
// own event subscriptions and policy on top.
type Skeleton struct {
	ServiceID    string
	ProjectOwner string
	ProjectName  string

	Bus      Publisher
	Registry *RegistryClient
	Settings *SettingsStore
	Logger   logging.Interface
}

// The topicConfig* constants are the four suffixes the config protocol rides on,
// scoped under `{owner}/{name}/{service}/{device}/...` (spec §6).
const (
	topicConfigUpdate = "config_update"
	topicConfigData   = "config_data"
	topicConfigAck    = "config_ack"
	topicConfigError  = "config_error"
)

// ConfigTopic builds the fully-qualified topic for one of the four
// configuration protocol suffixes.
func (s *Skeleton) ConfigTopic(deviceID, suffix string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", s.ProjectOwner, s.ProjectName, s.ServiceID, deviceID, suffix)
}

// ConfigSubscriptionPattern is the wildcard subscription that catches every
// device's config_update topic.
func (s *Skeleton) ConfigSubscriptionPattern() string {
	return fmt.Sprintf("%s/%s/%s/+/%s", s.ProjectOwner, s.ProjectName, s.ServiceID, topicConfigUpdate)
}

// deviceIDFromConfigTopic extracts {device} from
// `{owner}/{name}/{service}/{device}/config_update`.
func deviceIDFromConfigTopic(topic string) (string, bool) {
	parts := strings.Split(topic, "/")
	if len(parts) < 2 || parts[len(parts)-1] != topicConfigUpdate {
		return "", false
	}
	return parts[len(parts)-2], true
}

// HandleConfigMessage implements the full get_config/update protocol for
// one incoming message on a config_update topic (spec §4.6). It never
// returns an error to the bus dispatch loop, matching §7's
// "event-processing callbacks never propagate": a rejected update is
// reported to the device over config_error, while a payload that is not
// valid JSON is logged and dropped without a reply.
func (s *Skeleton) HandleConfigMessage(topic string, payload []byte) {
	deviceID, ok := deviceIDFromConfigTopic(topic)
	if !ok {
		return
	}

	var req map[string]any
	if err := json.Unmarshal(payload, &req); err != nil {
		s.Logger.Warn("config message is not valid JSON", "topic", topic, "error", err)
		return
	}

	requestID, _ := req["request_id"].(string)

	if request, ok := req["request"].(string); ok && request == "get_config" {
		s.replyConfigData(deviceID, requestID)
		return
	}

	updates := make(map[string]any, len(req))
	for k, v := range req {
		if k == "request_id" {
			continue
		}
		updates[k] = v
	}

	applied, err := s.Settings.Update(deviceID, updates)
	if err != nil {
		s.publishConfigError(deviceID, requestID, err.Error())
		return
	}

	s.publishConfigAck(deviceID, requestID, applied)
}

func (s *Skeleton) replyConfigData(deviceID, requestID string) {
	cfg, err := s.Settings.EffectiveConfig(deviceID)
	if err != nil {
		s.publishConfigError(deviceID, requestID, "failed to load effective config")
		return
	}
	body, err := json.Marshal(map[string]any{
		"device_id":  deviceID,
		"request_id": requestID,
		"timestamp":  time.Now().UTC(),
		"config":     cfg,
	})
	if err != nil {
		s.Logger.Error("marshaling config_data reply", "error", err)
		return
	}
	if err := s.Bus.Publish(s.ConfigTopic(deviceID, topicConfigData), body); err != nil {
		s.Logger.Warn("publishing config_data failed", "device_id", deviceID, "error", err)
	}
}

func (s *Skeleton) publishConfigAck(deviceID, requestID string, applied map[string]any) {
	body, err := json.Marshal(map[string]any{
		"device_id":      deviceID,
		"request_id":     requestID,
		"timestamp":      time.Now().UTC(),
		"updated_config": applied,
	})
	if err != nil {
		s.Logger.Error("marshaling config_ack reply", "error", err)
		return
	}
	if err := s.Bus.Publish(s.ConfigTopic(deviceID, topicConfigAck), body); err != nil {
		s.Logger.Warn("publishing config_ack failed", "device_id", deviceID, "error", err)
	}
}

func (s *Skeleton) publishConfigError(deviceID, requestID, reason string) {
	body, err := json.Marshal(map[string]any{
		"device_id":  deviceID,
		"request_id": requestID,
		"timestamp":  time.Now().UTC(),
		"error":      reason,
	})
	if err != nil {
		s.Logger.Error("marshaling config_error reply", "error", err)
		return
	}
	if err := s.Bus.Publish(s.ConfigTopic(deviceID, topicConfigError), body); err != nil {
		s.Logger.Warn("publishing config_error failed", "device_id", deviceID, "error", err)
	}
}

// EnsureKnownDevice implements the auto-registration rule in spec §4.6: on
// an event from an unknown device, probe the Registry; if present, create a
// default settings entry and return true, else return false so the caller
// drops the event.
func (s *Skeleton) EnsureKnownDevice(ctx context.Context, deviceID string) bool {
	if s.Settings.HasDevice(deviceID) {
		return true
	}
	exists, err := s.Registry.DeviceExists(ctx, deviceID)
	if err != nil {
		s.Logger.Warn("registry exists probe failed", "device_id", deviceID, "error", err)
		return false
	}
	if !exists {
		return false
	}
	if err := s.Settings.EnsureDevice(deviceID); err != nil {
		s.Logger.Error("failed to create default settings entry", "device_id", deviceID, "error", err)
		return false
	}
	return true
}

// RunRegistrationLoop registers desc immediately, then every interval,
// until ctx is canceled (spec §4.6 "periodic service registration").
func (s *Skeleton) RunRegistrationLoop(ctx context.Context, desc ServiceDescriptor, interval time.Duration) {
	register := func() {
		if err := s.Registry.RegisterWithBackoff(ctx, desc); err != nil {
			s.Logger.Error("service registration failed", "service_id", desc.ServiceID, "error", err)
		}
	}

	register()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			register()
		}
	}
}
