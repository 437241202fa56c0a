package registryapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/AlexDuchaine19/SmartChill-sub001/internal/logging"
	"github.com/AlexDuchaine19/SmartChill-sub001/internal/registry"
)

// fakeSnapshotStore is an in-memory registry.SnapshotStore fake so these
// handler tests never touch the filesystem.
type fakeSnapshotStore struct{}

func (fakeSnapshotStore) Load() (*registry.Document, error) { return nil, nil }
func (fakeSnapshotStore) Save(*registry.Document) error     { return nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	doc := registry.EmptyDocument("Group17", "SmartChill")
	store := registry.New(doc, fakeSnapshotStore{}, nil)
	if err := store.SeedModels(map[string]registry.DeviceModel{
		"SmartFridgeV1": {Sensors: []string{"door", "temperature"}},
	}); err != nil {
		t.Fatalf("SeedModels() error = %v", err)
	}
	srv, err := New(Deps{Store: store, Logger: logging.Default()})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv
}

func doRequest(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response body %q: %v", rec.Body.String(), err)
	}
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "ok" {
		t.Errorf("status field = %v, want ok", body["status"])
	}
}

func TestHandleRegisterDevice_CreatedThenIdempotent(t *testing.T) {
	srv := newTestServer(t)
	req := map[string]any{
		"mac_address": "AA:BB:CC:11:22:33",
		"model":       "SmartFridgeV1",
		"sensors":     []string{"door", "temperature"},
	}

	rec := doRequest(t, srv, http.MethodPost, "/devices/register", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first registration status = %d, want %d", rec.Code, http.StatusCreated)
	}
	var created registry.Device
	decodeBody(t, rec, &created)

	rec2 := doRequest(t, srv, http.MethodPost, "/devices/register", req)
	if rec2.Code != http.StatusOK {
		t.Errorf("re-registration status = %d, want %d (idempotent)", rec2.Code, http.StatusOK)
	}
	var synced registerDeviceResponse
	decodeBody(t, rec2, &synced)
	if synced.Status != "synced" {
		t.Errorf("re-registration status field = %q, want %q", synced.Status, "synced")
	}
	if synced.Device.DeviceID != created.DeviceID {
		t.Errorf("re-registration deviceID = %q, want %q", synced.Device.DeviceID, created.DeviceID)
	}
}

func TestHandleRegisterDevice_RejectsUnknownModel(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodPost, "/devices/register", map[string]any{
		"mac_address": "AA:BB:CC:11:22:33",
		"model":       "NotAModel",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleRegisterDevice_RejectsInvalidBody(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/devices/register", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	srv.buildRouter().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestHandleGetDevice_NotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/devices/SmartChill_000000", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleUnassignDevice_IdempotentSecondCall(t *testing.T) {
	srv := newTestServer(t)
	doRequest(t, srv, http.MethodPost, "/devices/register", map[string]any{
		"mac_address": "AA:BB:CC:11:22:33",
		"model":       "SmartFridgeV1",
	})

	rec := doRequest(t, srv, http.MethodPost, "/devices/SmartChill_112233/unassign", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["already_unassigned"] != true {
		t.Errorf("already_unassigned = %v, want true for a never-assigned device", body["already_unassigned"])
	}
}

func TestHandleCreateUser_DuplicateRejected(t *testing.T) {
	srv := newTestServer(t)
	req := map[string]any{"userID": "alice", "userName": "Alice"}

	rec := doRequest(t, srv, http.MethodPost, "/users", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	rec2 := doRequest(t, srv, http.MethodPost, "/users", req)
	if rec2.Code != http.StatusConflict {
		t.Errorf("duplicate user status = %d, want %d", rec2.Code, http.StatusConflict)
	}
}

func TestHandleAssignDevice_FullFlow(t *testing.T) {
	srv := newTestServer(t)
	doRequest(t, srv, http.MethodPost, "/devices/register", map[string]any{
		"mac_address": "AA:BB:CC:11:22:33",
		"model":       "SmartFridgeV1",
	})
	doRequest(t, srv, http.MethodPost, "/users", map[string]any{"userID": "alice", "userName": "Alice"})

	rec := doRequest(t, srv, http.MethodPost, "/users/alice/assign-device", map[string]any{
		"device_id": "SmartChill_112233",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("assign status = %d, want %d, body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}

	rec2 := doRequest(t, srv, http.MethodPost, "/users/alice/assign-device", map[string]any{
		"device_id": "SmartChill_112233",
	})
	if rec2.Code != http.StatusConflict {
		t.Errorf("re-assign status = %d, want %d", rec2.Code, http.StatusConflict)
	}
}

func TestHandleGetUserByChat_NotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/users/by-chat/999999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestHandleRegisterService_UpsertStatusCodes(t *testing.T) {
	srv := newTestServer(t)
	req := map[string]any{"serviceID": "door-timer-1", "name": "Door Timer"}

	rec := doRequest(t, srv, http.MethodPost, "/services/register", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first registration status = %d, want %d", rec.Code, http.StatusCreated)
	}

	rec2 := doRequest(t, srv, http.MethodPost, "/services/register", req)
	if rec2.Code != http.StatusOK {
		t.Errorf("re-registration status = %d, want %d", rec2.Code, http.StatusOK)
	}
}

func TestHandleListModels(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/models", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var models map[string]registry.DeviceModel
	decodeBody(t, rec, &models)
	if _, ok := models["SmartFridgeV1"]; !ok {
		t.Errorf("models = %v, want SmartFridgeV1 present", models)
	}
}

func TestRequestIDMiddleware_GeneratesHeaderWhenAbsent(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(t, srv, http.MethodGet, "/health", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID to be set on the response")
	}
}
