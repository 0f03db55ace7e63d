package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"homeline/internal/adapter"
	"homeline/internal/audit"
	"homeline/internal/automation"
	"homeline/internal/device"
	"homeline/internal/infrastructure/config"
	"homeline/internal/notify"
)

const testOwnerID = 1

var testSchema = `
	CREATE TABLE devices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		subtype TEXT NOT NULL,
		pin INTEGER,
		topic TEXT,
		host TEXT,
		state TEXT NOT NULL DEFAULT 'off',
		state_updated_at TEXT,
		home_id INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	) STRICT;

	CREATE TABLE sensor_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		device_id INTEGER NOT NULL,
		value TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	) STRICT;

	CREATE TABLE automations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		enabled INTEGER NOT NULL DEFAULT 1,
		trigger_kind TEXT NOT NULL,
		trigger_json TEXT,
		schedule TEXT,
		action_json TEXT NOT NULL,
		home_id INTEGER NOT NULL DEFAULT 1,
		owner_id INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
		updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	) STRICT;

	CREATE TABLE audit_logs (
		id TEXT PRIMARY KEY,
		actor_id INTEGER NOT NULL,
		device_id INTEGER,
		action TEXT NOT NULL,
		outcome TEXT NOT NULL,
		details TEXT,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	) STRICT;

	CREATE TABLE push_tokens (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		token TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
	) STRICT;`

// fakeCommander records control calls without touching hardware.
type fakeCommander struct {
	err     error
	reading adapter.Reading

	lastDeviceID int64
	lastAction   string
	lastActorID  int64
}

func (f *fakeCommander) Control(_ context.Context, deviceID int64, action string, actorID int64) (adapter.Result, error) {
	f.lastDeviceID = deviceID
	f.lastAction = action
	f.lastActorID = actorID
	if f.err != nil {
		return adapter.Result{}, f.err
	}
	state := device.StateOn
	if action == "off" {
		state = device.StateOff
	}
	return adapter.Result{State: state}, nil
}

func (f *fakeCommander) ReadSensor(_ context.Context, deviceID int64, actorID int64) (adapter.Reading, error) {
	f.lastDeviceID = deviceID
	f.lastActorID = actorID
	if f.err != nil {
		return nil, f.err
	}
	return f.reading, nil
}

// fakeReconciler counts reconcile calls.
type fakeReconciler struct {
	calls int
}

func (f *fakeReconciler) Reconcile(context.Context) error {
	f.calls++
	return nil
}

type testEnv struct {
	server     *Server
	handler    http.Handler
	registry   *device.Registry
	rules      automation.Repository
	audits     audit.Repository
	commander  *fakeCommander
	reconciler *fakeReconciler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("creating test schema: %v", err)
	}

	registry := device.NewRegistry(device.NewSQLiteRepository(db))
	rules := automation.NewSQLiteRepository(db)
	registry.SetReferenceChecker(rules)
	audits := audit.NewSQLiteRepository(db)
	commander := &fakeCommander{}
	reconciler := &fakeReconciler{}

	server, err := New(Deps{
		Config:         config.APIConfig{Host: "127.0.0.1", Port: 8080},
		Registry:       registry,
		History:        device.NewSQLiteHistoryRepository(db),
		Controller:     commander,
		Rules:          rules,
		Scheduler:      reconciler,
		Audits:         audits,
		Tokens:         notify.NewSQLiteTokenRepository(db),
		DefaultActorID: testOwnerID,
		Version:        "test",
	})
	if err != nil {
		t.Fatalf("creating server: %v", err)
	}

	return &testEnv{
		server:     server,
		handler:    server.buildRouter(),
		registry:   registry,
		rules:      rules,
		audits:     audits,
		commander:  commander,
		reconciler: reconciler,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
	return v
}

func (e *testEnv) createDevice(t *testing.T, d *device.Device) *device.Device {
	t.Helper()
	if err := e.registry.Create(context.Background(), d); err != nil {
		t.Fatalf("creating test device: %v", err)
	}
	return d
}

func gpioLED(name string) *device.Device {
	pin := 17
	return &device.Device{
		Name:    name,
		Kind:    device.KindGPIO,
		Subtype: device.SubtypeLED,
		Pin:     &pin,
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	body := decodeBody[map[string]any](t, rec)
	if body["status"] != "ok" || body["version"] != "test" {
		t.Errorf("health body = %v", body)
	}
}

func TestServerRequiresCoreDeps(t *testing.T) {
	if _, err := New(Deps{}); err == nil {
		t.Error("expected error for missing dependencies")
	}
}

func TestRequestIDHeader(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated X-Request-ID header")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id")
	rec2 := httptest.NewRecorder()
	env.handler.ServeHTTP(rec2, req)
	if got := rec2.Header().Get("X-Request-ID"); got != "fixed-id" {
		t.Errorf("X-Request-ID = %q, want the client's fixed-id", got)
	}
}

func TestAuditEndpointFilters(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	deviceID := int64(4)
	for i := 0; i < 3; i++ {
		entry := &audit.Entry{
			ActorID:  testOwnerID,
			DeviceID: &deviceID,
			Action:   "on",
			Outcome:  audit.OutcomeSuccess,
		}
		if i == 2 {
			entry.Outcome = audit.OutcomeFailure
		}
		if err := env.audits.Create(ctx, entry); err != nil {
			t.Fatalf("creating audit entry: %v", err)
		}
	}

	rec := env.do(t, http.MethodGet, "/api/v1/audit?outcome=failure", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[audit.ListResult](t, rec)
	if result.Total != 1 {
		t.Errorf("total = %d, want 1 failure entry", result.Total)
	}

	rec = env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/audit?device_id=%d", deviceID), nil)
	result = decodeBody[audit.ListResult](t, rec)
	if result.Total != 3 {
		t.Errorf("total = %d, want 3 entries for device", result.Total)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/audit?limit=oops", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for bad limit", rec.Code)
	}
}

func TestTokenRegistration(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/notifications/tokens", tokenRequest{UserID: 2, Token: "tok-abc"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/v1/notifications/tokens", tokenRequest{Token: "   "})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for blank token", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/notifications/tokens", tokenRequest{Token: "tok-abc"})
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
