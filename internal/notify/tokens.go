package notify

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// TokenRepository stores FCM registration tokens per user.
type TokenRepository interface {
	// Save registers a token for a user. Saving a token that already
	// exists is a no-op, even if it moved to another user (re-login on a
	// shared tablet re-registers it).
	Save(ctx context.Context, userID int64, token string) error

	// TokensFor returns all tokens registered for a user.
	TokensFor(ctx context.Context, userID int64) ([]string, error)

	// Delete removes a token, typically after FCM reports it invalid.
	Delete(ctx context.Context, token string) error
}

// SQLiteTokenRepository implements TokenRepository using SQLite.
type SQLiteTokenRepository struct {
	db *sql.DB
}

// NewSQLiteTokenRepository creates a token repository over an open
// connection.
func NewSQLiteTokenRepository(db *sql.DB) *SQLiteTokenRepository {
	return &SQLiteTokenRepository{db: db}
}

// Save registers a token for a user.
func (r *SQLiteTokenRepository) Save(ctx context.Context, userID int64, token string) error {
	if strings.TrimSpace(token) == "" {
		return fmt.Errorf("notify: token cannot be empty")
	}

	query := `
		INSERT INTO push_tokens (user_id, token, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(token) DO UPDATE SET user_id = excluded.user_id`

	_, err := r.db.ExecContext(ctx, query,
		userID,
		token,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving push token: %w", err)
	}

	return nil
}

// TokensFor returns all tokens registered for a user.
func (r *SQLiteTokenRepository) TokensFor(ctx context.Context, userID int64) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT token FROM push_tokens WHERE user_id = ? ORDER BY created_at", userID)
	if err != nil {
		return nil, fmt.Errorf("querying push tokens: %w", err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, fmt.Errorf("scanning push token: %w", err)
		}
		tokens = append(tokens, token)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating push tokens: %w", err)
	}

	return tokens, nil
}

// Delete removes a token.
func (r *SQLiteTokenRepository) Delete(ctx context.Context, token string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM push_tokens WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("deleting push token: %w", err)
	}
	return nil
}
