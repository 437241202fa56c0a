// Package status implements the status control service policy: temperature
// and humidity range checks that raise a Malfunction alert when the
// sensor's most recent reading falls outside the configured band (spec
// §4.6).
package status

import (
	"sync"
	"time"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/control"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/senml"
)

// deviceState tracks whether a device is currently out of range, so a
// Malfunction alert fires once per excursion rather than on every reading.
type deviceState struct {
	outOfRange bool
}

// Monitor hosts the status-check policy across every known device.
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

// HandleTemperatureReading evaluates a decoded temperature/humidity SenML
// payload against the device's configured band.
func (m *Monitor) HandleTemperatureReading(deviceID string, payload []byte, now time.Time) {
	records, _, err := senml.Decode(payload)
	if err != nil {
		m.logger.Debug("sensor payload not decodable", "device_id", deviceID, "error", err)
		return
	}

	cfg, err := m.skeleton.Settings.EffectiveConfig(deviceID)
	if err != nil {
		return
	}
	if !cfg.EnableMalfunctionAlerts {
		return
	}

	var outOfRange bool
	var reason string
	for _, r := range records {
		if r.Value == nil {
			continue
		}
		switch r.Name {
		case "temperature", "temp":
			if *r.Value < cfg.TempMinCelsius || *r.Value > cfg.TempMaxCelsius {
				outOfRange = true
				reason = "temperature out of range"
			}
		case "humidity":
			if *r.Value > cfg.HumidityMaxPercent {
				outOfRange = true
				reason = "humidity out of range"
			}
		}
	}

	m.mu.Lock()
	state, tracked := m.states[deviceID]
	if !tracked {
		state = &deviceState{}
		m.states[deviceID] = state
	}
	wasOutOfRange := state.outOfRange
	state.outOfRange = outOfRange
	m.mu.Unlock()

	if outOfRange && !wasOutOfRange {
		m.emitMalfunction(deviceID, reason, now)
	}
}

func (m *Monitor) emitMalfunction(deviceID, reason string, now time.Time) {
	err := control.PublishAlert(m.skeleton.Bus, m.skeleton.ProjectOwner, m.skeleton.ProjectName, m.skeleton.ServiceID, control.Alert{
		AlertType: "Malfunction",
		DeviceID:  deviceID,
		Message:   reason,
		Severity:  control.SeverityCritical,
		Timestamp: now,
	})
	if err != nil {
		m.logger.Warn("publishing Malfunction failed", "device_id", deviceID, "error", err)
	}
}
