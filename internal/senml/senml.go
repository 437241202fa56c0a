// Package senml implements the SenML-like wire format shared by device
// sensor readings and door events: a base-name/base-time envelope wrapping
// a list of measurement entries.
package senml

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyPack is returned when decoding a Pack with no entries.
var ErrEmptyPack = errors.New("senml: pack has no entries")

// Entry is one measurement within a Pack. Exactly one of V or VS is set for
// a numeric or string-valued reading respectively.
type Entry struct {
	Name        string   `json:"n"`
	Value       *float64 `json:"v,omitempty"`
	StringValue *string  `json:"vs,omitempty"`
	Unit        string   `json:"u,omitempty"`
	Time        float64  `json:"t,omitempty"`
}

// Pack is the raw wire envelope: base name, base time, and entries.
// json.RawMessage fields are not needed here since the format has no
// sibling top-level keys beyond bn/bt/e; unknown top-level keys are not
// kept in a Pack but returned by Decode as a separate map.
type Pack struct {
	BaseName string  `json:"bn,omitempty"`
	BaseTime float64 `json:"bt,omitempty"`
	Entries  []Entry `json:"e"`
}

// Record is a decoded measurement with its absolute timestamp and the
// device_id derived from the pack's base name.
type Record struct {
	DeviceID    string
	Name        string
	Value       *float64
	StringValue *string
	Unit        string
	Timestamp   float64 // bt + t, absolute
}

// Decode parses a SenML-like JSON payload into a list of Records with
// absolute timestamps and a derived device_id. Unknown
// top-level fields in the source document are returned alongside the
// records so callers that need pass-through fidelity can recover them.
func Decode(data []byte) ([]Record, map[string]json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("senml: parsing payload: %w", err)
	}

	var pack Pack
	if err := json.Unmarshal(data, &pack); err != nil {
		return nil, nil, fmt.Errorf("senml: parsing pack: %w", err)
	}
	if len(pack.Entries) == 0 {
		return nil, nil, ErrEmptyPack
	}

	extra := make(map[string]json.RawMessage)
	for k, v := range raw {
		if k != "bn" && k != "bt" && k != "e" {
			extra[k] = v
		}
	}

	deviceID := strings.TrimSuffix(pack.BaseName, "/")

	records := make([]Record, 0, len(pack.Entries))
	for _, e := range pack.Entries {
		records = append(records, Record{
			DeviceID:    deviceID,
			Name:        e.Name,
			Value:       e.Value,
			StringValue: e.StringValue,
			Unit:        e.Unit,
			Timestamp:   pack.BaseTime + e.Time,
		})
	}
	return records, extra, nil
}

// Encode is the inverse of Decode: it builds a single Pack from records that
// share one device ID and base time, re-attaching any extra fields a prior
// Decode captured. Per-entry Time is stored relative to baseTime.
func Encode(deviceID string, baseTime float64, records []Record, extra map[string]json.RawMessage) ([]byte, error) {
	pack := Pack{
		BaseName: deviceID + "/",
		BaseTime: baseTime,
		Entries:  make([]Entry, 0, len(records)),
	}
	for _, r := range records {
		pack.Entries = append(pack.Entries, Entry{
			Name:        r.Name,
			Value:       r.Value,
			StringValue: r.StringValue,
			Unit:        r.Unit,
			Time:        r.Timestamp - baseTime,
		})
	}

	merged := map[string]json.RawMessage{}
	for k, v := range extra {
		merged[k] = v
	}

	body, err := json.Marshal(pack)
	if err != nil {
		return nil, fmt.Errorf("senml: marshaling pack: %w", err)
	}
	if len(merged) == 0 {
		return body, nil
	}

	var bodyMap map[string]json.RawMessage
	if err := json.Unmarshal(body, &bodyMap); err != nil {
		return nil, fmt.Errorf("senml: re-parsing pack for merge: %w", err)
	}
	for k, v := range merged {
		bodyMap[k] = v
	}
	out, err := json.Marshal(bodyMap)
	if err != nil {
		return nil, fmt.Errorf("senml: marshaling merged pack: %w", err)
	}
	return out, nil
}

// NewNumericRecord builds a Record carrying a numeric reading.
func NewNumericRecord(deviceID, name string, value float64, unit string, timestamp float64) Record {
	v := value
	return Record{DeviceID: deviceID, Name: name, Value: &v, Unit: unit, Timestamp: timestamp}
}

// NewStringRecord builds a Record carrying a string reading, e.g. a door
// event's open/closed state.
func NewStringRecord(deviceID, name, value string, timestamp float64) Record {
	v := value
	return Record{DeviceID: deviceID, Name: name, StringValue: &v, Timestamp: timestamp}
}
