package status

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/control"
)

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
}

func (f *fakePublisher) Publish(topic string, _ []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.topics = append(f.topics, topic)
	return nil
}

func (f *fakePublisher) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.topics)
}

func newTestSkeleton(t *testing.T, defaults control.Defaults) (*control.Skeleton, *fakePublisher) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	settings, err := control.NewSettingsStore(path, defaults)
	if err != nil {
		t.Fatalf("NewSettingsStore() error = %v", err)
	}
	pub := &fakePublisher{}
	return &control.Skeleton{
		ServiceID:    "status-check",
		ProjectOwner: "Group17",
		ProjectName:  "SmartChill",
		Bus:          pub,
		Settings:     settings,
	}, pub
}

func tempPayload(t *testing.T, name string, value float64) []byte {
	t.Helper()
	body, err := json.Marshal(map[string]any{"bn": "dev1/", "e": []map[string]any{{"n": name, "v": value}}})
	if err != nil {
		t.Fatalf("marshaling test payload: %v", err)
	}
	return body
}

func defaultBand() control.Defaults {
	return control.Defaults{
		TempMinCelsius:          0,
		TempMaxCelsius:          8,
		HumidityMaxPercent:      80,
		EnableMalfunctionAlerts: true,
	}
}

func TestMonitor_OutOfRangeTemperatureAlertsOnce(t *testing.T) {
	skeleton, pub := newTestSkeleton(t, defaultBand())
	mon := New(skeleton)
	now := time.Now().UTC()

	mon.HandleTemperatureReading("dev1", tempPayload(t, "temperature", 20), now)
	mon.HandleTemperatureReading("dev1", tempPayload(t, "temperature", 21), now)
	if pub.count() != 1 {
		t.Errorf("repeated out-of-range readings: count = %d, want 1 (alert once per excursion)", pub.count())
	}

	mon.HandleTemperatureReading("dev1", tempPayload(t, "temperature", 5), now)
	mon.HandleTemperatureReading("dev1", tempPayload(t, "temperature", 20), now)
	if pub.count() != 2 {
		t.Errorf("fresh excursion after returning to range: count = %d, want 2", pub.count())
	}
}

func TestMonitor_InRangeEmitsNothing(t *testing.T) {
	skeleton, pub := newTestSkeleton(t, defaultBand())
	mon := New(skeleton)
	mon.HandleTemperatureReading("dev1", tempPayload(t, "temperature", 4), time.Now().UTC())
	if pub.count() != 0 {
		t.Errorf("in-range reading published an alert: count = %d", pub.count())
	}
}

func TestMonitor_HumidityOutOfRange(t *testing.T) {
	skeleton, pub := newTestSkeleton(t, defaultBand())
	mon := New(skeleton)
	mon.HandleTemperatureReading("dev1", tempPayload(t, "humidity", 95), time.Now().UTC())
	if pub.count() != 1 {
		t.Errorf("out-of-range humidity: count = %d, want 1", pub.count())
	}
}

func TestMonitor_DisabledMalfunctionAlertsSuppressesEverything(t *testing.T) {
	defaults := defaultBand()
	defaults.EnableMalfunctionAlerts = false
	skeleton, pub := newTestSkeleton(t, defaults)
	mon := New(skeleton)
	mon.HandleTemperatureReading("dev1", tempPayload(t, "temperature", 50), time.Now().UTC())
	if pub.count() != 0 {
		t.Errorf("alert published despite EnableMalfunctionAlerts=false: count = %d", pub.count())
	}
}
