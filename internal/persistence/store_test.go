package persistence

import (
	"path/filepath"
	"testing"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/registry"
)

func TestStore_LoadMissingFileReturnsNil(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	doc, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc != nil {
		t.Errorf("Load() on missing file = %+v, want nil", doc)
	}
}

func TestStore_SaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	want := registry.EmptyDocument("Group17", "SmartChill")
	want.DeviceModels["SmartFridgeV1"] = registry.DeviceModel{Sensors: []string{"door"}}

	if err := s.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got == nil {
		t.Fatal("Load() after Save() = nil")
	}
	if got.ProjectOwner != want.ProjectOwner || got.ProjectName != want.ProjectName {
		t.Errorf("round-tripped document mismatch: got %+v, want %+v", got, want)
	}
	if _, ok := got.DeviceModels["SmartFridgeV1"]; !ok {
		t.Error("round-tripped document missing seeded device model")
	}
}

func TestStore_SaveOverwritesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	first := registry.EmptyDocument("Group17", "SmartChill")
	first.SchemaVersion = 1
	if err := s.Save(first); err != nil {
		t.Fatalf("Save() first error = %v", err)
	}

	second := registry.EmptyDocument("Group17", "SmartChill")
	second.SchemaVersion = 2
	if err := s.Save(second); err != nil {
		t.Fatalf("Save() second error = %v", err)
	}

	got, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.SchemaVersion != 2 {
		t.Errorf("SchemaVersion = %d, want 2 after overwrite", got.SchemaVersion)
	}
}

func TestRawStore_LoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s, err := OpenRaw(path)
	if err != nil {
		t.Fatalf("OpenRaw() error = %v", err)
	}

	var dst map[string]any
	ok, err := s.Load(&dst)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if ok {
		t.Error("Load() on missing file returned ok = true, want false")
	}
}

func TestRawStore_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s, err := OpenRaw(path)
	if err != nil {
		t.Fatalf("OpenRaw() error = %v", err)
	}

	type settings struct {
		MaxDoorOpenSeconds int `json:"max_door_open_seconds"`
	}
	if err := s.Save(settings{MaxDoorOpenSeconds: 120}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	var got settings
	ok, err := s.Load(&got)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if !ok {
		t.Fatal("Load() returned ok = false after a prior Save()")
	}
	if got.MaxDoorOpenSeconds != 120 {
		t.Errorf("MaxDoorOpenSeconds = %d, want 120", got.MaxDoorOpenSeconds)
	}
}
