package control

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
)

func testDefaults() Defaults {
	return Defaults{
		MaxDoorOpenSeconds:     60,
		CheckInterval:          5,
		EnableDoorClosedAlerts: true,
		GasThresholdPPM:        400,
		AlertCooldownMinutes:   15,
		TempMinCelsius:         0,
		TempMaxCelsius:         8,
		HumidityMaxPercent:     80,
	}
}

func newTestSettingsStore(t *testing.T) *SettingsStore {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := NewSettingsStore(path, testDefaults())
	if err != nil {
		t.Fatalf("NewSettingsStore() error = %v", err)
	}
	return store
}

func TestSettingsStore_EffectiveConfig_NoOverride(t *testing.T) {
	store := newTestSettingsStore(t)
	cfg, err := store.EffectiveConfig("SmartChill_112233")
	if err != nil {
		t.Fatalf("EffectiveConfig() error = %v", err)
	}
	if cfg.MaxDoorOpenSeconds != 60 {
		t.Errorf("MaxDoorOpenSeconds = %d, want 60 (falls back to defaults)", cfg.MaxDoorOpenSeconds)
	}
}

func TestSettingsStore_Update_MergesIntoEffectiveConfig(t *testing.T) {
	store := newTestSettingsStore(t)
	deviceID := "SmartChill_112233"

	applied, err := store.Update(deviceID, map[string]any{"max_door_open_seconds": float64(120)})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if applied["max_door_open_seconds"] != float64(120) {
		t.Errorf("Update() applied = %v", applied)
	}

	cfg, err := store.EffectiveConfig(deviceID)
	if err != nil {
		t.Fatalf("EffectiveConfig() error = %v", err)
	}
	if cfg.MaxDoorOpenSeconds != 120 {
		t.Errorf("MaxDoorOpenSeconds = %d, want 120 after override", cfg.MaxDoorOpenSeconds)
	}
	if cfg.CheckInterval != 5 {
		t.Errorf("CheckInterval = %d, want unchanged default 5", cfg.CheckInterval)
	}
	if store.ConfigVersion() != 2 {
		t.Errorf("ConfigVersion() = %d, want 2 after one update", store.ConfigVersion())
	}
}

func TestSettingsStore_Update_RejectsUnknownKey(t *testing.T) {
	store := newTestSettingsStore(t)
	_, err := store.Update("dev1", map[string]any{"not_a_real_key": 1})
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Update() error = %v, want ErrUnknownKey", err)
	}
}

func TestSettingsStore_Update_RejectsOutOfRange(t *testing.T) {
	store := newTestSettingsStore(t)
	tests := []struct {
		name  string
		key   string
		value any
	}{
		{name: "int below min", key: "max_door_open_seconds", value: float64(10)},
		{name: "int above max", key: "max_door_open_seconds", value: float64(1000)},
		{name: "wrong type for bool", key: "enable_door_closed_alerts", value: "yes"},
		{name: "wrong type for number", key: "gas_threshold_ppm", value: "not a number"},
		{name: "float below min", key: "temp_min_celsius", value: float64(-10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := store.Update("dev1", map[string]any{tt.key: tt.value}); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Update(%q=%v) error = %v, want ErrOutOfRange", tt.key, tt.value, err)
			}
		})
	}
}

func TestSettingsStore_Update_PartialFailureAppliesNothing(t *testing.T) {
	store := newTestSettingsStore(t)
	_, err := store.Update("dev1", map[string]any{
		"max_door_open_seconds": float64(100),
		"unknown_key":           1,
	})
	if err == nil {
		t.Fatal("Update() with one bad key expected an error")
	}

	cfg, err := store.EffectiveConfig("dev1")
	if err != nil {
		t.Fatalf("EffectiveConfig() error = %v", err)
	}
	if cfg.MaxDoorOpenSeconds != 60 {
		t.Errorf("MaxDoorOpenSeconds = %d, want unchanged default 60 after rejected batch", cfg.MaxDoorOpenSeconds)
	}
}

func TestSettingsStore_EnsureDevice(t *testing.T) {
	store := newTestSettingsStore(t)
	if store.HasDevice("dev1") {
		t.Fatal("HasDevice() = true before EnsureDevice()")
	}
	if err := store.EnsureDevice("dev1"); err != nil {
		t.Fatalf("EnsureDevice() error = %v", err)
	}
	if !store.HasDevice("dev1") {
		t.Error("HasDevice() = false after EnsureDevice()")
	}
	// Idempotent.
	if err := store.EnsureDevice("dev1"); err != nil {
		t.Fatalf("EnsureDevice() second call error = %v", err)
	}
}

func TestSettingsStore_PersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	store, err := NewSettingsStore(path, testDefaults())
	if err != nil {
		t.Fatalf("NewSettingsStore() error = %v", err)
	}
	if _, err := store.Update("dev1", map[string]any{"max_door_open_seconds": float64(200)}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	reloaded, err := NewSettingsStore(path, testDefaults())
	if err != nil {
		t.Fatalf("NewSettingsStore() reload error = %v", err)
	}
	cfg, err := reloaded.EffectiveConfig("dev1")
	if err != nil {
		t.Fatalf("EffectiveConfig() error = %v", err)
	}
	if cfg.MaxDoorOpenSeconds != 200 {
		t.Errorf("MaxDoorOpenSeconds = %d, want 200 after reload", cfg.MaxDoorOpenSeconds)
	}
}

func TestSettingsStore_UpdateMergesAcrossCalls(t *testing.T) {
	store := newTestSettingsStore(t)
	if _, err := store.Update("dev1", map[string]any{"max_door_open_seconds": float64(90)}); err != nil {
		t.Fatalf("Update() first call error = %v", err)
	}
	if _, err := store.Update("dev1", map[string]any{"gas_threshold_ppm": float64(500)}); err != nil {
		t.Fatalf("Update() second call error = %v", err)
	}

	cfg, err := store.EffectiveConfig("dev1")
	if err != nil {
		t.Fatalf("EffectiveConfig() error = %v", err)
	}
	if cfg.MaxDoorOpenSeconds != 90 {
		t.Errorf("MaxDoorOpenSeconds = %d, want 90 (first override retained)", cfg.MaxDoorOpenSeconds)
	}
	if cfg.GasThresholdPPM != 500 {
		t.Errorf("GasThresholdPPM = %d, want 500 (second override applied)", cfg.GasThresholdPPM)
	}
}

func TestDocument_DeviceOverrideIsValidJSON(t *testing.T) {
	store := newTestSettingsStore(t)
	if _, err := store.Update("dev1", map[string]any{"max_door_open_seconds": float64(90)}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	raw := store.doc.Devices["dev1"]
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("device override is not valid JSON: %v", err)
	}
}
