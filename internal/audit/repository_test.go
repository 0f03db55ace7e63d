package audit

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE audit_logs (
			id TEXT PRIMARY KEY,
			actor_id INTEGER NOT NULL,
			device_id INTEGER,
			action TEXT NOT NULL,
			outcome TEXT NOT NULL,
			details TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		t.Fatalf("failed to create test schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func int64Ptr(i int64) *int64 { return &i }

func TestCreateFillsDefaults(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))

	entry := &Entry{
		ActorID:  7,
		DeviceID: int64Ptr(42),
		Action:   "on",
		Outcome:  OutcomeSuccess,
	}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if entry.ID == "" {
		t.Error("Create() did not assign an ID")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("Create() did not stamp CreatedAt")
	}
}

func TestListFilters(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	seed := []Entry{
		{ActorID: 7, DeviceID: int64Ptr(42), Action: "on", Outcome: OutcomeSuccess},
		{ActorID: 7, DeviceID: int64Ptr(42), Action: "off", Outcome: OutcomeSuccess},
		{ActorID: 8, DeviceID: int64Ptr(9), Action: "toggle", Outcome: OutcomeFailure, Details: "device unreachable"},
		{ActorID: 0, Action: "read", Outcome: OutcomeFailure},
	}
	for i := range seed {
		if err := repo.Create(ctx, &seed[i]); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if all.Total != 4 || len(all.Entries) != 4 {
		t.Errorf("List() total = %d, entries = %d, want 4 each", all.Total, len(all.Entries))
	}

	byDevice, err := repo.List(ctx, Filter{DeviceID: int64Ptr(42)})
	if err != nil {
		t.Fatalf("List(device) error = %v", err)
	}
	if byDevice.Total != 2 {
		t.Errorf("List(device=42) total = %d, want 2", byDevice.Total)
	}

	failures, err := repo.List(ctx, Filter{Outcome: OutcomeFailure})
	if err != nil {
		t.Fatalf("List(outcome) error = %v", err)
	}
	if failures.Total != 2 {
		t.Errorf("List(outcome=failure) total = %d, want 2", failures.Total)
	}

	combined, err := repo.List(ctx, Filter{ActorID: int64Ptr(8), Outcome: OutcomeFailure})
	if err != nil {
		t.Fatalf("List(combined) error = %v", err)
	}
	if combined.Total != 1 || combined.Entries[0].Details != "device unreachable" {
		t.Errorf("List(actor=8, failure) = %+v, want single unreachable entry", combined)
	}
}

func TestListPagination(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := &Entry{ActorID: 7, Action: "on", Outcome: OutcomeSuccess}
		if err := repo.Create(ctx, entry); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	page, err := repo.List(ctx, Filter{Limit: 2, Offset: 0})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if page.Total != 5 {
		t.Errorf("Total = %d, want 5", page.Total)
	}
	if len(page.Entries) != 2 {
		t.Errorf("len(Entries) = %d, want 2", len(page.Entries))
	}

	last, err := repo.List(ctx, Filter{Limit: 2, Offset: 4})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(last.Entries) != 1 {
		t.Errorf("len(Entries) at offset 4 = %d, want 1", len(last.Entries))
	}
}
