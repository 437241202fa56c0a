// Package config loads the YAML settings files used by every SmartChill
// service process: the Registry's bootstrap config, each control service's
// own settings file, and the notifier's config.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
)

// Broker holds the MQTT broker connection the Bus Client connects to.
type Broker struct {
	IP   string `yaml:"IP"`
	Port int    `yaml:"port"`
}

// Catalog holds how a non-registry service reaches the Registry HTTP API.
type Catalog struct {
	URL                      string `yaml:"url"`
	RegistrationIntervalSecs int    `yaml:"registration_interval_seconds"`
}

// MQTTClient controls client identity on the bus.
type MQTTClient struct {
	ClientIDPrefix string `yaml:"clientID_prefix"`
}

// Telegram holds notification-router chat platform credentials.
type Telegram struct {
	Token                  string `yaml:"TOKEN"`
	SetDescriptionsOnStart bool   `yaml:"SET_DESCRIPTIONS_ON_START"`
}

// Defaults holds a control service's default per-device thresholds. Not
// every field applies to every service; unused fields are simply ignored by
// that service's policy package.
type Defaults struct {
	MaxDoorOpenSeconds      int     `yaml:"max_door_open_seconds"`
	CheckIntervalSeconds    int     `yaml:"check_interval"`
	EnableDoorClosedAlerts  bool    `yaml:"enable_door_closed_alerts"`
	GasThresholdPPM         int     `yaml:"gas_threshold_ppm"`
	AlertCooldownMinutes    int     `yaml:"alert_cooldown_minutes"`
	EnableContinuousAlerts  bool    `yaml:"enable_continuous_alerts"`
	TempMinCelsius          float64 `yaml:"temp_min_celsius"`
	TempMaxCelsius          float64 `yaml:"temp_max_celsius"`
	HumidityMaxPercent      float64 `yaml:"humidity_max_percent"`
	EnableMalfunctionAlerts bool    `yaml:"enable_malfunction_alerts"`
}

// Service is the common settings envelope shared by the Registry and every
// other service process. Each service embeds the sections it needs.
type Service struct {
	ProjectOwner string         `yaml:"project_owner"`
	ProjectName  string         `yaml:"project_name"`
	Broker       Broker         `yaml:"broker"`
	Catalog      Catalog        `yaml:"catalog"`
	Defaults     Defaults       `yaml:"defaults"`
	MQTT         MQTTClient     `yaml:"mqtt"`
	Telegram     Telegram       `yaml:"telegram"`
	Logging      logging.Config `yaml:"logging"`

	// HTTPAddr is the listen address for the Registry's HTTP server. Only
	// meaningful for cmd/registry.
	HTTPAddr string `yaml:"http_addr"`

	// StatePath is the on-disk location of the service's own JSON document:
	// the registry snapshot for the Registry, or a per-device settings file
	// for a control service.
	StatePath string `yaml:"state_path"`

	// ModelsPath is the Registry's device model catalog fixture (only
	// meaningful for cmd/registry).
	ModelsPath string `yaml:"models_path"`
}

// Default returns sensible defaults, applied before the YAML file is
// merged in.
func Default() Service {
	return Service{
		ProjectOwner: "Group17",
		ProjectName:  "SmartChill",
		Broker:       Broker{IP: "localhost", Port: 1883},
		Catalog: Catalog{
			URL:                      "http://localhost:8080",
			RegistrationIntervalSecs: 60,
		},
		Defaults: Defaults{
			MaxDoorOpenSeconds:      60,
			CheckIntervalSeconds:    5,
			EnableDoorClosedAlerts:  true,
			GasThresholdPPM:         400,
			AlertCooldownMinutes:    15,
			EnableContinuousAlerts:  false,
			TempMinCelsius:          0,
			TempMaxCelsius:          8,
			HumidityMaxPercent:      80,
			EnableMalfunctionAlerts: true,
		},
		MQTT:       MQTTClient{ClientIDPrefix: "smartchill"},
		Logging:    logging.Config{Level: "info", Format: "json", Output: "stdout"},
		HTTPAddr:   ":8080",
		StatePath:  "registry.json",
		ModelsPath: "models.yaml",
	}
}

// Load reads a YAML settings file at path, overlaying it onto Default().
// A missing file is not an error: the service runs on defaults. Only a
// malformed file aborts startup.
func Load(path string) (Service, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

// applyEnvOverrides lets deployment secrets override file-based config
// without committing them to disk.
func applyEnvOverrides(cfg *Service) {
	if tok := os.Getenv("SMARTCHILL_TELEGRAM_TOKEN"); tok != "" {
		cfg.Telegram.Token = tok
	}
	if url := os.Getenv("SMARTCHILL_CATALOG_URL"); url != "" {
		cfg.Catalog.URL = url
	}
	if addr := os.Getenv("SMARTCHILL_BROKER_IP"); addr != "" {
		cfg.Broker.IP = addr
	}
}
