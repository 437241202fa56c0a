package control

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

type recordingPublisher struct {
	topic   string
	payload []byte
	err     error
}

func (p *recordingPublisher) Publish(topic string, payload []byte) error {
	p.topic = topic
	p.payload = payload
	return p.err
}

func TestAlertTopic(t *testing.T) {
	got := AlertTopic("Group17", "SmartChill", "SmartChill_112233", "DoorTimeout")
	want := "Group17/SmartChill/SmartChill_112233/Alerts/DoorTimeout"
	if got != want {
		t.Errorf("AlertTopic() = %q, want %q", got, want)
	}
}

func TestPublishAlert_SetsServiceAndTimestamp(t *testing.T) {
	pub := &recordingPublisher{}
	err := PublishAlert(pub, "Group17", "SmartChill", "door-timer", Alert{
		AlertType: "DoorTimeout",
		DeviceID:  "SmartChill_112233",
		Message:   "door open too long",
		Severity:  SeverityWarning,
	})
	if err != nil {
		t.Fatalf("PublishAlert() error = %v", err)
	}
	if pub.topic != "Group17/SmartChill/SmartChill_112233/Alerts/DoorTimeout" {
		t.Errorf("published topic = %q", pub.topic)
	}

	var decoded map[string]any
	if err := json.Unmarshal(pub.payload, &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded["service"] != "door-timer" {
		t.Errorf("service = %v, want %q", decoded["service"], "door-timer")
	}
	if decoded["timestamp"] == nil || decoded["timestamp"] == "" {
		t.Error("PublishAlert() did not stamp a timestamp")
	}
}

func TestPublishAlert_PreservesExplicitTimestamp(t *testing.T) {
	pub := &recordingPublisher{}
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if err := PublishAlert(pub, "Group17", "SmartChill", "spoilage", Alert{
		AlertType: "Spoilage",
		DeviceID:  "dev1",
		Timestamp: ts,
	}); err != nil {
		t.Fatalf("PublishAlert() error = %v", err)
	}

	var decoded map[string]any
	json.Unmarshal(pub.payload, &decoded)
	got, _ := time.Parse(time.RFC3339, decoded["timestamp"].(string))
	if !got.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", got, ts)
	}
}

func TestAlert_MarshalJSON_FlattensExtra(t *testing.T) {
	alert := Alert{AlertType: "Spoilage", DeviceID: "dev1", Extra: map[string]any{"ppm": 550.0}}
	data, err := alert.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshaling result: %v", err)
	}
	if decoded["ppm"] != 550.0 {
		t.Errorf("ppm = %v, want 550.0", decoded["ppm"])
	}
	if decoded["alert_type"] != "Spoilage" {
		t.Errorf("alert_type = %v, want %q", decoded["alert_type"], "Spoilage")
	}
}

func TestPublishAlert_PropagatesPublishError(t *testing.T) {
	wantErr := errors.New("boom")
	pub := &recordingPublisher{err: wantErr}
	err := PublishAlert(pub, "Group17", "SmartChill", "spoilage", Alert{AlertType: "Spoilage", DeviceID: "dev1"})
	if !errors.Is(err, wantErr) {
		t.Errorf("PublishAlert() error = %v, want %v", err, wantErr)
	}
}
