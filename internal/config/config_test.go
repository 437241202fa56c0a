package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Default()
	if cfg.ProjectOwner != want.ProjectOwner || cfg.Broker.Port != want.Broker.Port {
		t.Errorf("Load() on missing file = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoad_OverlaysYAMLOntoDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.yaml")
	body := []byte("project_owner: Group99\nbroker:\n  IP: 10.0.0.5\n  port: 1884\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ProjectOwner != "Group99" {
		t.Errorf("ProjectOwner = %q, want %q", cfg.ProjectOwner, "Group99")
	}
	if cfg.Broker.IP != "10.0.0.5" || cfg.Broker.Port != 1884 {
		t.Errorf("Broker = %+v, want IP 10.0.0.5 port 1884", cfg.Broker)
	}
	// Fields absent from the YAML fall through to Default().
	if cfg.ProjectName != "SmartChill" {
		t.Errorf("ProjectName = %q, want default %q", cfg.ProjectName, "SmartChill")
	}
}

func TestLoad_MalformedYAMLIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("not: [valid yaml"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Load() on malformed YAML expected an error")
	}
}

func TestLoad_EnvOverridesTakePriority(t *testing.T) {
	t.Setenv("SMARTCHILL_TELEGRAM_TOKEN", "env-token")
	t.Setenv("SMARTCHILL_CATALOG_URL", "http://catalog.internal:9000")
	t.Setenv("SMARTCHILL_BROKER_IP", "192.168.1.1")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Telegram.Token != "env-token" {
		t.Errorf("Telegram.Token = %q, want env override", cfg.Telegram.Token)
	}
	if cfg.Catalog.URL != "http://catalog.internal:9000" {
		t.Errorf("Catalog.URL = %q, want env override", cfg.Catalog.URL)
	}
	if cfg.Broker.IP != "192.168.1.1" {
		t.Errorf("Broker.IP = %q, want env override", cfg.Broker.IP)
	}
}

func TestLoadModels_MissingFileReturnsDefaults(t *testing.T) {
	models, err := LoadModels(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadModels() error = %v", err)
	}
	if _, ok := models["SmartFridgeV1"]; !ok {
		t.Errorf("LoadModels() = %v, want default SmartFridgeV1 entry", models)
	}
}

func TestLoadModels_ParsesFixture(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	body := []byte(`
models:
  CustomUnit:
    sensors: [door, temperature]
    description: a custom test fixture model
`)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	models, err := LoadModels(path)
	if err != nil {
		t.Fatalf("LoadModels() error = %v", err)
	}
	m, ok := models["CustomUnit"]
	if !ok {
		t.Fatalf("LoadModels() = %v, want CustomUnit entry", models)
	}
	if len(m.Sensors) != 2 || m.Sensors[0] != "door" {
		t.Errorf("Sensors = %v, want [door temperature]", m.Sensors)
	}
}

func TestLoadModels_MalformedYAMLIsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("models: [not a map"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	if _, err := LoadModels(path); err == nil {
		t.Error("LoadModels() on malformed YAML expected an error")
	}
}
