package notify

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"homeline/internal/infrastructure/config"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	schema := `
		CREATE TABLE push_tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			token TEXT NOT NULL UNIQUE,
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

func TestTokenRepository(t *testing.T) {
	repo := NewSQLiteTokenRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Save(ctx, 7, "token-a"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := repo.Save(ctx, 7, "token-b"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	tokens, err := repo.TokensFor(ctx, 7)
	if err != nil {
		t.Fatalf("TokensFor() error = %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("TokensFor() returned %d tokens, want 2", len(tokens))
	}

	// Re-saving moves the token to the new user instead of erroring.
	if err := repo.Save(ctx, 8, "token-a"); err != nil {
		t.Fatalf("Save() re-register error = %v", err)
	}
	moved, err := repo.TokensFor(ctx, 8)
	if err != nil {
		t.Fatalf("TokensFor() error = %v", err)
	}
	if len(moved) != 1 || moved[0] != "token-a" {
		t.Errorf("TokensFor(8) = %v, want [token-a]", moved)
	}

	if err := repo.Delete(ctx, "token-b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	remaining, err := repo.TokensFor(ctx, 7)
	if err != nil {
		t.Fatalf("TokensFor() error = %v", err)
	}
	if len(remaining) != 0 {
		t.Errorf("TokensFor(7) after delete/move = %v, want empty", remaining)
	}
}

func TestTokenRepositoryRejectsEmpty(t *testing.T) {
	repo := NewSQLiteTokenRepository(setupTestDB(t))

	if err := repo.Save(context.Background(), 7, "  "); err == nil {
		t.Error("Save(empty token) error = nil, want error")
	}
}

// startFCMServer runs a fake FCM endpoint.
func startFCMServer(t *testing.T, status int) (string, *[]fcmMessage) {
	t.Helper()

	var mu sync.Mutex
	var received []fcmMessage

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "key=test-key" {
			http.Error(w, "bad key", http.StatusUnauthorized)
			return
		}
		var msg fcmMessage
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, msg)
		mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)

	return server.URL, &received
}

func newTestSender(t *testing.T, url string) (*Sender, *SQLiteTokenRepository) {
	t.Helper()
	tokens := NewSQLiteTokenRepository(setupTestDB(t))
	sender := NewSender(config.NotificationsConfig{
		ServerKey: "test-key",
		URL:       url,
		Timeout:   5,
	}, tokens)
	return sender, tokens
}

func TestNotifyUserDelivers(t *testing.T) {
	url, received := startFCMServer(t, http.StatusOK)
	sender, tokens := newTestSender(t, url)
	ctx := context.Background()

	tokens.Save(ctx, 7, "token-a")
	tokens.Save(ctx, 7, "token-b")

	outcomes, err := sender.NotifyUser(ctx, 7, "Motion detected", "Hallway sensor fired", map[string]string{"device_id": "42"})
	if err != nil {
		t.Fatalf("NotifyUser() error = %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("NotifyUser() outcomes = %d, want 2", len(outcomes))
	}
	for token, sendErr := range outcomes {
		if sendErr != nil {
			t.Errorf("outcome[%s] = %v, want nil", token, sendErr)
		}
	}

	if len(*received) != 2 {
		t.Fatalf("FCM received %d messages, want 2", len(*received))
	}
	msg := (*received)[0]
	if msg.Notification.Title != "Motion detected" {
		t.Errorf("notification title = %q", msg.Notification.Title)
	}
	if msg.Data["device_id"] != "42" {
		t.Errorf("data device_id = %q, want 42", msg.Data["device_id"])
	}
}

func TestNotifyUserNoKeyConfigured(t *testing.T) {
	tokens := NewSQLiteTokenRepository(setupTestDB(t))
	sender := NewSender(config.NotificationsConfig{ServerKey: ""}, tokens)

	outcomes, err := sender.NotifyUser(context.Background(), 7, "title", "body", nil)
	if err != nil {
		t.Fatalf("NotifyUser() error = %v, want nil (skip, not fail)", err)
	}
	if outcomes != nil {
		t.Errorf("NotifyUser() outcomes = %v, want nil", outcomes)
	}
}

func TestNotifyUserNoTokens(t *testing.T) {
	url, received := startFCMServer(t, http.StatusOK)
	sender, _ := newTestSender(t, url)

	outcomes, err := sender.NotifyUser(context.Background(), 7, "title", "body", nil)
	if err != nil {
		t.Fatalf("NotifyUser() error = %v", err)
	}
	if outcomes != nil {
		t.Errorf("NotifyUser() outcomes = %v, want nil", outcomes)
	}
	if len(*received) != 0 {
		t.Errorf("FCM received %d messages, want 0", len(*received))
	}
}

func TestNotifyUserRejectedTokenReported(t *testing.T) {
	// 400 is permanent: one attempt, failure reported per token.
	url, _ := startFCMServer(t, http.StatusBadRequest)
	sender, tokens := newTestSender(t, url)
	ctx := context.Background()

	tokens.Save(ctx, 7, "stale-token")

	outcomes, err := sender.NotifyUser(ctx, 7, "title", "body", nil)
	if err != nil {
		t.Fatalf("NotifyUser() error = %v, want nil (best-effort)", err)
	}
	if outcomes["stale-token"] == nil {
		t.Error("outcome[stale-token] = nil, want delivery error")
	}
}
