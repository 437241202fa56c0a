// Package doortimer implements the door-timer control service policy: a
// per-device open/closed state machine that alerts once a door has been
// open longer than its configured threshold (spec §4.6).
package doortimer

import (
	"strings"
	"sync"
	"time"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/control"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/senml"
)

// deviceState tracks one device's door-timer state machine: Closed → (door
// opened) → Open → (duration ≥ threshold) → Alerted → (door closed) → emit
// DoorClosed → Closed (spec §4.6).
type deviceState struct {
	openedAt time.Time
	alerted  bool
}

// Monitor hosts the door-timer policy across every known device.
type Monitor struct {
	skeleton *control.Skeleton
	logger   logging.Interface

	mu     sync.Mutex
	states map[string]*deviceState
}

// New constructs a Monitor bound to the shared control skeleton.
func New(skeleton *control.Skeleton) *Monitor {
	logger := skeleton.Logger
	if logger == nil {
		logger = logging.NoopLogger{}
	}
	return &Monitor{skeleton: skeleton, logger: logger, states: make(map[string]*deviceState)}
}

// HandleDoorEvent decodes a door_event payload and advances the device's
// state machine. A door_closed with no prior door_opened is a no-op logged
// at debug (spec §4.6).
func (m *Monitor) HandleDoorEvent(deviceID string, payload []byte, now time.Time) {
	records, _, err := senml.Decode(payload)
	if err != nil || len(records) == 0 {
		m.logger.Debug("door event payload not decodable", "device_id", deviceID, "error", err)
		return
	}

	event := doorEventValue(records[0])
	switch event {
	case "opened":
		m.mu.Lock()
		m.states[deviceID] = &deviceState{openedAt: now}
		m.mu.Unlock()
	case "closed":
		m.mu.Lock()
		state, tracked := m.states[deviceID]
		if !tracked {
			m.mu.Unlock()
			m.logger.Debug("door_closed with no prior door_opened", "device_id", deviceID)
			return
		}
		wasAlerted := state.alerted
		delete(m.states, deviceID)
		m.mu.Unlock()

		if wasAlerted {
			m.emitDoorClosed(deviceID, now)
		}
	default:
		m.logger.Debug("unrecognized door event value", "device_id", deviceID, "value", event)
	}
}

// doorEventValue normalizes a SenML record's string value to "opened" or
// "closed", tolerating either the "door_opened"/"door_closed" or
// "open"/"closed" spelling.
func doorEventValue(r senml.Record) string {
	if r.StringValue == nil {
		return ""
	}
	v := strings.ToLower(strings.TrimSpace(*r.StringValue))
	switch {
	case strings.Contains(v, "open"):
		return "opened"
	case strings.Contains(v, "clos"):
		return "closed"
	default:
		return v
	}
}

// Tick checks every tracked device's open duration against its configured
// threshold, emitting exactly one DoorTimeout per exceedance (spec §4.6,
// §8 invariant: "at t0+30 exactly one DoorTimeout alert; none at t0+60").
func (m *Monitor) Tick(now time.Time) {
	m.mu.Lock()
	overdue := make([]string, 0)
	for deviceID, state := range m.states {
		if state.alerted {
			continue
		}
		cfg, err := m.skeleton.Settings.EffectiveConfig(deviceID)
		if err != nil {
			continue
		}
		threshold := time.Duration(cfg.MaxDoorOpenSeconds) * time.Second
		if now.Sub(state.openedAt) >= threshold {
			state.alerted = true
			overdue = append(overdue, deviceID)
		}
	}
	m.mu.Unlock()

	for _, deviceID := range overdue {
		m.emitDoorTimeout(deviceID, now)
	}
}

// MinCheckInterval derives the monitoring loop's next tick interval as the
// minimum check_interval among active devices, falling back to
// defaultInterval when no device is tracked (spec §9).
func (m *Monitor) MinCheckInterval(defaultInterval time.Duration) time.Duration {
	m.mu.Lock()
	deviceIDs := make([]string, 0, len(m.states))
	for id := range m.states {
		deviceIDs = append(deviceIDs, id)
	}
	m.mu.Unlock()

	if len(deviceIDs) == 0 {
		return defaultInterval
	}

	min := defaultInterval
	for _, id := range deviceIDs {
		cfg, err := m.skeleton.Settings.EffectiveConfig(id)
		if err != nil {
			continue
		}
		interval := time.Duration(cfg.CheckInterval) * time.Second
		if interval > 0 && interval < min {
			min = interval
		}
	}
	return min
}

func (m *Monitor) emitDoorTimeout(deviceID string, now time.Time) {
	err := control.PublishAlert(m.skeleton.Bus, m.skeleton.ProjectOwner, m.skeleton.ProjectName, m.skeleton.ServiceID, control.Alert{
		AlertType: "DoorTimeout",
		DeviceID:  deviceID,
		Message:   "door has been open past the configured threshold",
		Severity:  control.SeverityWarning,
		Timestamp: now,
	})
	if err != nil {
		m.logger.Warn("publishing DoorTimeout failed", "device_id", deviceID, "error", err)
	}
}

func (m *Monitor) emitDoorClosed(deviceID string, now time.Time) {
	cfg, err := m.skeleton.Settings.EffectiveConfig(deviceID)
	if err == nil && !cfg.EnableDoorClosedAlerts {
		return
	}
	err = control.PublishAlert(m.skeleton.Bus, m.skeleton.ProjectOwner, m.skeleton.ProjectName, m.skeleton.ServiceID, control.Alert{
		AlertType: "DoorClosed",
		DeviceID:  deviceID,
		Message:   "door closed after a timeout alert",
		Severity:  control.SeverityInfo,
		Timestamp: now,
	})
	if err != nil {
		m.logger.Warn("publishing DoorClosed failed", "device_id", deviceID, "error", err)
	}
}
