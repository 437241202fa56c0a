package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/registry"
)

// modelsFile is the on-disk shape of the device model catalog fixture: a
// flat mapping from model name to descriptor, matching registry.DeviceModel
// field-for-field (SPEC_FULL.md "Device model catalog seeding").
type modelsFile struct {
	Models map[string]modelEntry `yaml:"models"`
}

type modelEntry struct {
	Sensors     []string       `yaml:"sensors"`
	Description string         `yaml:"description"`
	MQTTConfig  map[string]any `yaml:"mqtt_config"`
}

// DefaultModels is the catalog a fresh Registry seeds when no models.yaml
// fixture is present: the two SmartChill reference hardware models.
func DefaultModels() map[string]registry.DeviceModel {
	return map[string]registry.DeviceModel{
		"SmartFridgeV1": {
			Sensors:     []string{"door", "temperature", "humidity", "gas"},
			Description: "Reference SmartChill unit: door, temperature, humidity, and gas sensors",
		},
		"SC-200": {
			Sensors:     []string{"door", "temperature", "humidity", "gas"},
			Description: "SmartChill SC-200 commercial unit",
		},
	}
}

// LoadModels reads the device model catalog fixture at path. A missing
// file is not an error: the Registry falls back to DefaultModels so it
// stays usable out of the box.
func LoadModels(path string) (map[string]registry.DeviceModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultModels(), nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var file modelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	models := make(map[string]registry.DeviceModel, len(file.Models))
	for name, m := range file.Models {
		models[name] = registry.DeviceModel{
			Sensors:     m.Sensors,
			Description: m.Description,
			MQTTConfig:  m.MQTTConfig,
		}
	}
	if len(models) == 0 {
		return DefaultModels(), nil
	}
	return models, nil
}
