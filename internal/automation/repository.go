package automation

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Repository defines rule persistence operations.
type Repository interface {
	// GetByID retrieves a rule by ID.
	// Returns ErrRuleNotFound if the rule does not exist.
	GetByID(ctx context.Context, id int64) (*Rule, error)

	// List retrieves all rules, ordered by name.
	List(ctx context.Context) ([]Rule, error)

	// ListEnabled retrieves all enabled rules.
	ListEnabled(ctx context.Context) ([]Rule, error)

	// Create inserts a new rule and fills in its assigned ID.
	Create(ctx context.Context, rule *Rule) error

	// Update modifies an existing rule.
	// Returns ErrRuleNotFound if the rule does not exist.
	Update(ctx context.Context, rule *Rule) error

	// Delete removes a rule by ID.
	// Returns ErrRuleNotFound if the rule does not exist.
	Delete(ctx context.Context, id int64) error

	// SetEnabled flips the enabled flag.
	// Returns ErrRuleNotFound if the rule does not exist.
	SetEnabled(ctx context.Context, id int64, enabled bool) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLite-backed rule repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const ruleColumns = `id, name, enabled, trigger_kind, trigger_json, schedule,
	action_json, home_id, owner_id, created_at, updated_at`

// GetByID retrieves a rule by ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM automations WHERE id = ?`

	row := r.db.QueryRowContext(ctx, query, id)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, fmt.Errorf("querying rule by id: %w", err)
	}
	return rule, nil
}

// List retrieves all rules ordered by name.
func (r *SQLiteRepository) List(ctx context.Context) ([]Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM automations ORDER BY name`
	return r.queryRules(ctx, query)
}

// ListEnabled retrieves all enabled rules.
func (r *SQLiteRepository) ListEnabled(ctx context.Context) ([]Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM automations WHERE enabled = 1 ORDER BY name`
	return r.queryRules(ctx, query)
}

// Create inserts a new rule and fills in the assigned ID.
func (r *SQLiteRepository) Create(ctx context.Context, rule *Rule) error {
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	if rule.HomeID == 0 {
		rule.HomeID = 1
	}

	triggerJSON, actionJSON, err := marshalPayloads(rule)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO automations (
			name, enabled, trigger_kind, trigger_json, schedule,
			action_json, home_id, owner_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		rule.Name,
		boolToInt(rule.Enabled),
		string(rule.TriggerKind),
		triggerJSON,
		nullableText(rule.Schedule),
		actionJSON,
		rule.HomeID,
		rule.OwnerID,
		rule.CreatedAt.Format(time.RFC3339),
		rule.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading inserted rule id: %w", err)
	}
	rule.ID = id

	return nil
}

// Update modifies an existing rule.
func (r *SQLiteRepository) Update(ctx context.Context, rule *Rule) error {
	rule.UpdatedAt = time.Now().UTC()

	triggerJSON, actionJSON, err := marshalPayloads(rule)
	if err != nil {
		return err
	}

	query := `
		UPDATE automations SET
			name = ?, enabled = ?, trigger_kind = ?, trigger_json = ?,
			schedule = ?, action_json = ?, home_id = ?, owner_id = ?, updated_at = ?
		WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		rule.Name,
		boolToInt(rule.Enabled),
		string(rule.TriggerKind),
		triggerJSON,
		nullableText(rule.Schedule),
		actionJSON,
		rule.HomeID,
		rule.OwnerID,
		rule.UpdatedAt.Format(time.RFC3339),
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("updating rule: %w", err)
	}

	return requireRow(result)
}

// Delete removes a rule by ID.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM automations WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting rule: %w", err)
	}
	return requireRow(result)
}

// DeviceReferenced reports whether any rule triggers on or targets the
// device. Satisfies device.ReferenceChecker so the registry can refuse
// deleting devices that rules still depend on. Rule counts are home
// sized, so a scan beats keeping a JSON index in sync.
func (r *SQLiteRepository) DeviceReferenced(ctx context.Context, id int64) (bool, error) {
	rules, err := r.List(ctx)
	if err != nil {
		return false, fmt.Errorf("checking device references: %w", err)
	}
	for _, rule := range rules {
		if rule.Action.DeviceID == id {
			return true, nil
		}
		if rule.Trigger != nil && rule.Trigger.DeviceID == id {
			return true, nil
		}
	}
	return false, nil
}

// SetEnabled flips the enabled flag.
func (r *SQLiteRepository) SetEnabled(ctx context.Context, id int64, enabled bool) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE automations SET enabled = ?, updated_at = ? WHERE id = ?",
		boolToInt(enabled),
		time.Now().UTC().Format(time.RFC3339),
		id,
	)
	if err != nil {
		return fmt.Errorf("setting rule enabled: %w", err)
	}
	return requireRow(result)
}

func (r *SQLiteRepository) queryRules(ctx context.Context, query string, args ...any) ([]Rule, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var rules []Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rules: %w", err)
	}

	return rules, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(scanner rowScanner) (*Rule, error) {
	var rule Rule
	var enabled int
	var triggerKind string
	var triggerJSON, schedule sql.NullString
	var actionJSON string
	var createdAt, updatedAt string

	err := scanner.Scan(
		&rule.ID,
		&rule.Name,
		&enabled,
		&triggerKind,
		&triggerJSON,
		&schedule,
		&actionJSON,
		&rule.HomeID,
		&rule.OwnerID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	rule.Enabled = enabled != 0
	rule.TriggerKind = TriggerKind(triggerKind)

	if triggerJSON.Valid && triggerJSON.String != "" {
		var trigger StateTrigger
		if err := json.Unmarshal([]byte(triggerJSON.String), &trigger); err != nil {
			return nil, fmt.Errorf("unmarshalling trigger: %w", err)
		}
		rule.Trigger = &trigger
	}
	if schedule.Valid {
		rule.Schedule = schedule.String
	}

	if err := json.Unmarshal([]byte(actionJSON), &rule.Action); err != nil {
		return nil, fmt.Errorf("unmarshalling action: %w", err)
	}

	var parseErr error
	rule.CreatedAt, parseErr = time.Parse(time.RFC3339, createdAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing created_at: %w", parseErr)
	}
	rule.UpdatedAt, parseErr = time.Parse(time.RFC3339, updatedAt)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", parseErr)
	}

	return &rule, nil
}

func marshalPayloads(rule *Rule) (triggerJSON any, actionJSON string, err error) {
	if rule.Trigger != nil {
		b, err := json.Marshal(rule.Trigger)
		if err != nil {
			return nil, "", fmt.Errorf("marshalling trigger: %w", err)
		}
		triggerJSON = string(b)
	}

	b, err := json.Marshal(rule.Action)
	if err != nil {
		return nil, "", fmt.Errorf("marshalling action: %w", err)
	}

	return triggerJSON, string(b), nil
}

func requireRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableText(s string) any {
	if s == "" {
		return nil
	}
	return s
}
