// Package spoilage implements the spoilage control service policy:
// gas-level threshold evaluation with either single or continuous alerting
// while the reading stays above threshold (spec §4.6).
package spoilage

import (
	"sync"
	"time"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/control"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/senml"
)

// deviceState tracks whether a device is currently above its gas threshold,
// so a single-alert policy only fires once per excursion.
type deviceState struct {
	above bool
}

// Monitor hosts the spoilage policy across every known device.
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

// HandleGasReading decodes a SenML gas-sensor payload and evaluates it
// against the device's configured threshold.
func (m *Monitor) HandleGasReading(deviceID string, payload []byte, now time.Time) {
	records, _, err := senml.Decode(payload)
	if err != nil {
		m.logger.Debug("gas reading payload not decodable", "device_id", deviceID, "error", err)
		return
	}

	var ppm float64
	var found bool
	for _, r := range records {
		if r.Value != nil {
			ppm = *r.Value
			found = true
			break
		}
	}
	if !found {
		return
	}

	cfg, err := m.skeleton.Settings.EffectiveConfig(deviceID)
	if err != nil {
		return
	}

	m.mu.Lock()
	state, tracked := m.states[deviceID]
	if !tracked {
		state = &deviceState{}
		m.states[deviceID] = state
	}
	wasAbove := state.above
	isAbove := ppm >= float64(cfg.GasThresholdPPM)
	state.above = isAbove
	m.mu.Unlock()

	if !isAbove {
		return
	}

	// Alert if this is a fresh excursion, or every reading while
	// continuous alerts are enabled (spec §4.6).
	if !wasAbove || cfg.EnableContinuousAlerts {
		m.emitSpoilage(deviceID, ppm, now)
	}
}

func (m *Monitor) emitSpoilage(deviceID string, ppm float64, now time.Time) {
	err := control.PublishAlert(m.skeleton.Bus, m.skeleton.ProjectOwner, m.skeleton.ProjectName, m.skeleton.ServiceID, control.Alert{
		AlertType: "Spoilage",
		DeviceID:  deviceID,
		Message:   "gas level exceeds the spoilage threshold",
		Severity:  control.SeverityCritical,
		Timestamp: now,
		Extra:     map[string]any{"ppm": ppm},
	})
	if err != nil {
		m.logger.Warn("publishing Spoilage failed", "device_id", deviceID, "error", err)
	}
}
