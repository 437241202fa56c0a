package control

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	jsonmerge "github.com/apapsch/go-jsonmerge/v2"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/persistence"
)

// Defaults holds every tunable the three control services share. Each
// service only exercises the subset relevant to its policy; unused keys sit
// idle in the settings file exactly as the original per-service settings
// catalog describes (spec §6 Configuration knobs).
type Defaults struct {
	MaxDoorOpenSeconds      int     `json:"max_door_open_seconds"`
	CheckInterval           int     `json:"check_interval"`
	EnableDoorClosedAlerts  bool    `json:"enable_door_closed_alerts"`
	GasThresholdPPM         int     `json:"gas_threshold_ppm"`
	AlertCooldownMinutes    int     `json:"alert_cooldown_minutes"`
	EnableContinuousAlerts  bool    `json:"enable_continuous_alerts"`
	TempMinCelsius          float64 `json:"temp_min_celsius"`
	TempMaxCelsius          float64 `json:"temp_max_celsius"`
	HumidityMaxPercent      float64 `json:"humidity_max_percent"`
	EnableMalfunctionAlerts bool    `json:"enable_malfunction_alerts"`
}

// allowedRange describes the validation rule for one configuration key
// (spec §4.6's table).
type allowedRange struct {
	kind     string // "int", "float", "bool"
	min, max float64
}

var allowList = map[string]allowedRange{
	"max_door_open_seconds":      {kind: "int", min: 30, max: 300},
	"check_interval":             {kind: "int", min: 1, max: 30},
	"enable_door_closed_alerts":  {kind: "bool"},
	"gas_threshold_ppm":          {kind: "int", min: 100, max: 1000},
	"alert_cooldown_minutes":     {kind: "int", min: 5, max: 120},
	"enable_continuous_alerts":   {kind: "bool"},
	"temp_min_celsius":           {kind: "float", min: -5, max: 5},
	"temp_max_celsius":           {kind: "float", min: 5, max: 15},
	"humidity_max_percent":       {kind: "float", min: 50, max: 95},
	"enable_malfunction_alerts":  {kind: "bool"},
}

// ErrUnknownKey is returned when an update mapping names a key outside the
// allow-list.
var ErrUnknownKey = fmt.Errorf("control: unknown configuration key")

// ErrOutOfRange is returned when a value fails its allow-listed range.
var ErrOutOfRange = fmt.Errorf("control: value out of range")

// Document is the on-disk shape of a control service's settings file: a
// shared default block plus a per-device override sub-map (spec §4.6).
type Document struct {
	SchemaVersion int                        `json:"schemaVersion"`
	ConfigVersion int                        `json:"configVersion"`
	LastUpdate    time.Time                  `json:"lastUpdate"`
	Defaults      Defaults                   `json:"defaults"`
	Devices       map[string]json.RawMessage `json:"devices"`
}

// SettingsStore owns one control service's settings document, including the
// allow-listed update protocol and effective-config merge.
type SettingsStore struct {
	mu      sync.RWMutex
	doc     Document
	path    string
	persist *persistence.RawStore
}

// NewSettingsStore loads (or initializes) the settings document at path.
func NewSettingsStore(path string, defaults Defaults) (*SettingsStore, error) {
	persist, err := persistence.OpenRaw(path)
	if err != nil {
		return nil, err
	}

	var doc Document
	loaded, err := persist.Load(&doc)
	if err != nil {
		return nil, err
	}
	if !loaded {
		doc = Document{
			SchemaVersion: 1,
			ConfigVersion: 1,
			LastUpdate:    time.Now().UTC(),
			Defaults:      defaults,
			Devices:       map[string]json.RawMessage{},
		}
	}
	return &SettingsStore{doc: doc, path: path, persist: persist}, nil
}

// EffectiveConfig returns the merged default+per-device configuration for
// deviceID as a Defaults struct, using an RFC 7396 JSON merge patch so that
// a device's override document only needs to carry the keys it changes.
func (s *SettingsStore) EffectiveConfig(deviceID string) (Defaults, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	base, err := json.Marshal(s.doc.Defaults)
	if err != nil {
		return Defaults{}, fmt.Errorf("control: marshaling defaults: %w", err)
	}

	override, ok := s.doc.Devices[deviceID]
	if !ok || len(override) == 0 {
		var effective Defaults
		if err := json.Unmarshal(base, &effective); err != nil {
			return Defaults{}, fmt.Errorf("control: unmarshaling defaults: %w", err)
		}
		return effective, nil
	}

	merged, err := jsonmerge.Merge(base, override)
	if err != nil {
		return Defaults{}, fmt.Errorf("control: merging effective config: %w", err)
	}

	var effective Defaults
	if err := json.Unmarshal(merged, &effective); err != nil {
		return Defaults{}, fmt.Errorf("control: unmarshaling merged config: %w", err)
	}
	return effective, nil
}

// EnsureDevice creates an empty override entry for deviceID if it doesn't
// already have one, implementing the auto-registration default entry spec
// §4.6 calls for once the Registry confirms the device exists.
func (s *SettingsStore) EnsureDevice(deviceID string) error {
	s.mu.Lock()
	if _, ok := s.doc.Devices[deviceID]; ok {
		s.mu.Unlock()
		return nil
	}
	s.doc.Devices[deviceID] = json.RawMessage(`{}`)
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	return s.persist.Save(snapshot)
}

// HasDevice reports whether deviceID has an entry in the settings document.
func (s *SettingsStore) HasDevice(deviceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.doc.Devices[deviceID]
	return ok
}

// Update validates each key in updates against the allow-list and range
// rules, and on success merges it into the device's override, bumps
// configVersion, and persists (spec §4.6). It returns the subset of keys
// actually applied.
func (s *SettingsStore) Update(deviceID string, updates map[string]any) (map[string]any, error) {
	for key, value := range updates {
		if err := validateKey(key, value); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	existing := map[string]any{}
	if raw, ok := s.doc.Devices[deviceID]; ok && len(raw) > 0 {
		if err := json.Unmarshal(raw, &existing); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("control: parsing existing override: %w", err)
		}
	}
	for k, v := range updates {
		existing[k] = v
	}

	raw, err := json.Marshal(existing)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("control: marshaling override: %w", err)
	}
	s.doc.Devices[deviceID] = raw
	s.doc.ConfigVersion++
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	if err := s.persist.Save(snapshot); err != nil {
		return nil, err
	}
	return updates, nil
}

// ConfigVersion returns the document's current monotonic version.
func (s *SettingsStore) ConfigVersion() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.ConfigVersion
}

func (s *SettingsStore) snapshotLocked() *Document {
	cpy := s.doc
	cpy.LastUpdate = time.Now().UTC()
	cpy.Devices = make(map[string]json.RawMessage, len(s.doc.Devices))
	for k, v := range s.doc.Devices {
		cpy.Devices[k] = v
	}
	return &cpy
}

func validateKey(key string, value any) error {
	rule, ok := allowList[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	switch rule.kind {
	case "bool":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %q expects a boolean", ErrOutOfRange, key)
		}
	case "int", "float":
		num, ok := value.(float64) // JSON numbers decode to float64
		if !ok {
			return fmt.Errorf("%w: %q expects a number", ErrOutOfRange, key)
		}
		if rule.kind == "int" && num != math.Trunc(num) {
			return fmt.Errorf("%w: %q expects an integer", ErrOutOfRange, key)
		}
		if num < rule.min || num > rule.max {
			return fmt.Errorf("%w: %q must be between %v and %v", ErrOutOfRange, key, rule.min, rule.max)
		}
	}
	return nil
}
