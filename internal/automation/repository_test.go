package automation

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schema := `
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
		) STRICT;`

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating test schema: %v", err)
	}

	return db
}

func testStateRule() *Rule {
	return &Rule{
		Name:        "hallway motion light",
		Enabled:     true,
		TriggerKind: TriggerDeviceState,
		Trigger:     &StateTrigger{DeviceID: 3, State: "on"},
		Action:      Action{DeviceID: 7, State: "on"},
		OwnerID:     2,
	}
}

func testTimeRule() *Rule {
	return &Rule{
		Name:        "nightly pump",
		Enabled:     true,
		TriggerKind: TriggerTime,
		Schedule:    "interval:3600",
		Action:      Action{DeviceID: 9, State: "off"},
		OwnerID:     2,
	}
}

func TestRepositoryCreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	rule := testStateRule()
	if err := repo.Create(ctx, rule); err != nil {
		t.Fatalf("creating rule: %v", err)
	}
	if rule.ID == 0 {
		t.Fatal("expected assigned ID after create")
	}
	if rule.HomeID != 1 {
		t.Errorf("expected default home_id 1, got %d", rule.HomeID)
	}

	got, err := repo.GetByID(ctx, rule.ID)
	if err != nil {
		t.Fatalf("getting rule: %v", err)
	}
	if got.Name != rule.Name {
		t.Errorf("name = %q, want %q", got.Name, rule.Name)
	}
	if got.Trigger == nil {
		t.Fatal("expected trigger payload to survive the round trip")
	}
	if got.Trigger.DeviceID != 3 || got.Trigger.State != "on" {
		t.Errorf("trigger = %+v, want device 3 state on", got.Trigger)
	}
	if got.Action.DeviceID != 7 || got.Action.State != "on" {
		t.Errorf("action = %+v, want device 7 state on", got.Action)
	}
	if got.Schedule != "" {
		t.Errorf("state rule should have no schedule, got %q", got.Schedule)
	}
}

func TestRepositoryTimeRuleRoundTrip(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	rule := testTimeRule()
	if err := repo.Create(ctx, rule); err != nil {
		t.Fatalf("creating rule: %v", err)
	}

	got, err := repo.GetByID(ctx, rule.ID)
	if err != nil {
		t.Fatalf("getting rule: %v", err)
	}
	if got.Schedule != "interval:3600" {
		t.Errorf("schedule = %q, want interval:3600", got.Schedule)
	}
	if got.Trigger != nil {
		t.Errorf("time rule should have no state trigger, got %+v", got.Trigger)
	}
}

func TestRepositoryGetNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestRepositoryListEnabled(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	enabled := testStateRule()
	if err := repo.Create(ctx, enabled); err != nil {
		t.Fatalf("creating enabled rule: %v", err)
	}

	disabled := testTimeRule()
	disabled.Enabled = false
	if err := repo.Create(ctx, disabled); err != nil {
		t.Fatalf("creating disabled rule: %v", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("listing rules: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(all))
	}

	active, err := repo.ListEnabled(ctx)
	if err != nil {
		t.Fatalf("listing enabled rules: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 enabled rule, got %d", len(active))
	}
	if active[0].ID != enabled.ID {
		t.Errorf("enabled list has rule %d, want %d", active[0].ID, enabled.ID)
	}
}

func TestRepositoryUpdate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	rule := testStateRule()
	if err := repo.Create(ctx, rule); err != nil {
		t.Fatalf("creating rule: %v", err)
	}

	rule.Name = "hallway motion light (dimmed)"
	rule.Trigger.State = "off"
	rule.Action.State = "off"
	if err := repo.Update(ctx, rule); err != nil {
		t.Fatalf("updating rule: %v", err)
	}

	got, err := repo.GetByID(ctx, rule.ID)
	if err != nil {
		t.Fatalf("getting updated rule: %v", err)
	}
	if got.Name != "hallway motion light (dimmed)" {
		t.Errorf("name = %q after update", got.Name)
	}
	if got.Trigger.State != "off" || got.Action.State != "off" {
		t.Errorf("payloads not updated: trigger=%+v action=%+v", got.Trigger, got.Action)
	}
}

func TestRepositoryUpdateNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	rule := testStateRule()
	rule.ID = 404
	if err := repo.Update(context.Background(), rule); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("expected ErrRuleNotFound, got %v", err)
	}
}

func TestRepositoryDelete(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	rule := testStateRule()
	if err := repo.Create(ctx, rule); err != nil {
		t.Fatalf("creating rule: %v", err)
	}

	if err := repo.Delete(ctx, rule.ID); err != nil {
		t.Fatalf("deleting rule: %v", err)
	}
	if _, err := repo.GetByID(ctx, rule.ID); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("expected ErrRuleNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, rule.ID); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("expected ErrRuleNotFound on double delete, got %v", err)
	}
}

func TestRepositorySetEnabled(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	rule := testStateRule()
	if err := repo.Create(ctx, rule); err != nil {
		t.Fatalf("creating rule: %v", err)
	}

	if err := repo.SetEnabled(ctx, rule.ID, false); err != nil {
		t.Fatalf("disabling rule: %v", err)
	}
	got, err := repo.GetByID(ctx, rule.ID)
	if err != nil {
		t.Fatalf("getting rule: %v", err)
	}
	if got.Enabled {
		t.Error("rule still enabled after SetEnabled(false)")
	}

	if err := repo.SetEnabled(ctx, rule.ID, true); err != nil {
		t.Fatalf("re-enabling rule: %v", err)
	}
	got, err = repo.GetByID(ctx, rule.ID)
	if err != nil {
		t.Fatalf("getting rule: %v", err)
	}
	if !got.Enabled {
		t.Error("rule disabled after SetEnabled(true)")
	}

	if err := repo.SetEnabled(ctx, 999, true); !errors.Is(err, ErrRuleNotFound) {
		t.Errorf("expected ErrRuleNotFound for missing rule, got %v", err)
	}
}

func TestRepositoryDeviceReferenced(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	// testStateRule triggers on device 3 and targets device 7;
	// testTimeRule targets device 9.
	if err := repo.Create(ctx, testStateRule()); err != nil {
		t.Fatalf("creating state rule: %v", err)
	}
	timeRule := testTimeRule()
	if err := repo.Create(ctx, timeRule); err != nil {
		t.Fatalf("creating time rule: %v", err)
	}

	tests := []struct {
		name     string
		deviceID int64
		want     bool
	}{
		{"trigger device", 3, true},
		{"action device", 7, true},
		{"time rule action device", 9, true},
		{"unrelated device", 42, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.DeviceReferenced(ctx, tt.deviceID)
			if err != nil {
				t.Fatalf("DeviceReferenced(%d): %v", tt.deviceID, err)
			}
			if got != tt.want {
				t.Errorf("DeviceReferenced(%d) = %v, want %v", tt.deviceID, got, tt.want)
			}
		})
	}

	// Disabled rules still hold their references.
	if err := repo.SetEnabled(ctx, timeRule.ID, false); err != nil {
		t.Fatalf("disabling rule: %v", err)
	}
	got, err := repo.DeviceReferenced(ctx, 9)
	if err != nil {
		t.Fatalf("DeviceReferenced(9): %v", err)
	}
	if !got {
		t.Error("disabled rule reference not reported")
	}
}
