package control

import (
	"encoding/json"
	"fmt"
	"time"
)

// Alert is the payload shape every control service publishes on
// `Alerts/{Kind}` (spec §6: "Alerts carry {alert_type, device_id, message,
// severity, timestamp, service, …}").
type Alert struct {
	AlertType string         `json:"alert_type"`
	DeviceID  string         `json:"device_id"`
	Message   string         `json:"message"`
	Severity  string         `json:"severity"`
	Timestamp time.Time      `json:"timestamp"`
	Service   string         `json:"service"`
	Extra     map[string]any `json:"-"`
}

const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// MarshalJSON flattens Extra fields alongside the fixed alert fields.
func (a Alert) MarshalJSON() ([]byte, error) {
	type alias Alert
	base, err := json.Marshal(alias(a))
	if err != nil {
		return nil, err
	}
	if len(a.Extra) == 0 {
		return base, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range a.Extra {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// AlertTopic computes `Group17/SmartChill/{deviceID}/Alerts/{Kind}` (spec
// §6 bus topic grammar).
func AlertTopic(projectOwner, projectName, deviceID, kind string) string {
	return fmt.Sprintf("%s/%s/%s/Alerts/%s", projectOwner, projectName, deviceID, kind)
}

// Publisher is the narrow bus surface alert emission needs, satisfied by
// *bus.Client.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// PublishAlert marshals and publishes an Alert, returning the marshal error
// or the publisher's error, if any. The bus itself also logs a drop when
// disconnected (spec §4.4).
func PublishAlert(pub Publisher, projectOwner, projectName, service string, alert Alert) error {
	alert.Service = service
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("control: marshaling alert: %w", err)
	}
	topic := AlertTopic(projectOwner, projectName, alert.DeviceID, alert.AlertType)
	return pub.Publish(topic, payload)
}
