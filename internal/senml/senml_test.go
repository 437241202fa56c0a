package senml

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecode_NumericEntries(t *testing.T) {
	payload := []byte(`{"bn":"SmartChill_112233/","bt":1000,"e":[{"n":"temperature","v":4.5,"t":0},{"n":"humidity","v":60,"t":1}]}`)

	records, extra, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(extra) != 0 {
		t.Errorf("extra = %v, want empty", extra)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}
	if records[0].DeviceID != "SmartChill_112233" {
		t.Errorf("DeviceID = %q, want %q", records[0].DeviceID, "SmartChill_112233")
	}
	if records[0].Name != "temperature" || *records[0].Value != 4.5 {
		t.Errorf("records[0] = %+v", records[0])
	}
	if records[0].Timestamp != 1000 {
		t.Errorf("Timestamp = %v, want 1000 (bt + t)", records[0].Timestamp)
	}
	if records[1].Timestamp != 1001 {
		t.Errorf("Timestamp = %v, want 1001 (bt + t)", records[1].Timestamp)
	}
}

func TestDecode_StringEntry(t *testing.T) {
	payload := []byte(`{"bn":"dev1/","e":[{"n":"door","vs":"opened"}]}`)
	records, _, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(records) != 1 || records[0].StringValue == nil || *records[0].StringValue != "opened" {
		t.Errorf("records = %+v", records)
	}
}

func TestDecode_EmptyPackIsError(t *testing.T) {
	_, _, err := Decode([]byte(`{"bn":"dev1/","e":[]}`))
	if !errors.Is(err, ErrEmptyPack) {
		t.Errorf("Decode() error = %v, want ErrEmptyPack", err)
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, _, err := Decode([]byte(`not json`))
	if err == nil {
		t.Error("Decode() on invalid JSON expected an error")
	}
}

func TestDecode_PreservesUnknownTopLevelFields(t *testing.T) {
	payload := []byte(`{"bn":"dev1/","e":[{"n":"gas","v":300}],"firmware_version":"1.2.3"}`)
	_, extra, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	raw, ok := extra["firmware_version"]
	if !ok {
		t.Fatal("Decode() dropped unknown top-level field firmware_version")
	}
	var v string
	json.Unmarshal(raw, &v)
	if v != "1.2.3" {
		t.Errorf("firmware_version = %q, want %q", v, "1.2.3")
	}
}

func TestEncode_RoundTripsWithExtra(t *testing.T) {
	records := []Record{NewNumericRecord("dev1", "temperature", 4.5, "Cel", 1001)}
	extra := map[string]json.RawMessage{"firmware_version": json.RawMessage(`"1.2.3"`)}

	data, err := Encode("dev1", 1000, records, extra)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	decoded, gotExtra, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode(Encode()) error = %v", err)
	}
	if len(decoded) != 1 || *decoded[0].Value != 4.5 {
		t.Errorf("round-tripped records = %+v", decoded)
	}
	if string(gotExtra["firmware_version"]) != `"1.2.3"` {
		t.Errorf("round-tripped extra = %v", gotExtra)
	}
}

func TestNewStringRecord(t *testing.T) {
	r := NewStringRecord("dev1", "door", "closed", 5)
	if r.StringValue == nil || *r.StringValue != "closed" {
		t.Errorf("NewStringRecord() = %+v", r)
	}
	if r.Value != nil {
		t.Error("NewStringRecord() should leave Value nil")
	}
}
