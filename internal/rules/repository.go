package rules

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for rule persistence operations.
type Repository interface {
	// CreateRule inserts a rule with its conditions and results atomically.
	CreateRule(ctx context.Context, r *Rule) error

	// GetRule loads one rule with conditions and results.
	GetRule(ctx context.Context, id string) (*Rule, error)

	// GetRules loads the given rules with conditions and results. Missing
	// IDs are silently absent from the result (stale references are a
	// steady-state condition, not an error).
	GetRules(ctx context.Context, ids []string) ([]Rule, error)

	// RuleIDsForDevice returns the active rules that reference a device in
	// at least one condition. The gateway precomputes this set per message.
	RuleIDsForDevice(ctx context.Context, deviceID string) ([]string, error)

	// Deactivate flips a rule's active flag off after a terminal execution.
	Deactivate(ctx context.Context, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed rule repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// CreateRule inserts a rule with its conditions and results atomically.
func (r *SQLiteRepository) CreateRule(ctx context.Context, rule *Rule) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning rule transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	const ruleQuery = `INSERT INTO rules
		(id, home_id, user_id, name, type, active, all_conditions, interval_seconds, fire_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	var fireAt sql.NullString
	if rule.FireAt != nil {
		fireAt = sql.NullString{String: rule.FireAt.UTC().Format(time.RFC3339), Valid: true}
	}
	_, err = tx.ExecContext(ctx, ruleQuery,
		rule.ID, rule.HomeID, rule.UserID, rule.Name, rule.Type,
		rule.Active, rule.AllConditions, rule.IntervalSeconds, fireAt)
	if err != nil {
		return fmt.Errorf("inserting rule %s: %w", rule.ID, err)
	}

	const condQuery = `INSERT INTO conditions (id, rule_id, device_id, attribute, operation, value)
		VALUES (?, ?, ?, ?, ?, ?)`
	for _, c := range rule.Conditions {
		_, err = tx.ExecContext(ctx, condQuery,
			c.ID, rule.ID, c.DeviceID, c.Attribute, c.Operation, marshalJSON(c.Value))
		if err != nil {
			return fmt.Errorf("inserting condition %s: %w", c.ID, err)
		}
	}

	const resultQuery = `INSERT INTO results
		(id, rule_id, type, device_id, attribute, value, command, event, channels, resend_after)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	for _, res := range rule.Results {
		_, err = tx.ExecContext(ctx, resultQuery,
			res.ID, rule.ID, res.Type, nullStr(res.DeviceID), nullStr(res.Attribute),
			nullJSON(res.Value), nullJSONMap(res.Command), nullEmpty(res.Event),
			nullJSONSlice(res.Channels), res.ResendAfter)
		if err != nil {
			return fmt.Errorf("inserting result %s: %w", res.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing rule transaction: %w", err)
	}
	return nil
}

// GetRule loads one rule with conditions and results.
func (r *SQLiteRepository) GetRule(ctx context.Context, id string) (*Rule, error) {
	rules, err := r.GetRules(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(rules) == 0 {
		return nil, ErrRuleNotFound
	}
	return &rules[0], nil
}

// GetRules loads the given rules with their conditions and results.
func (r *SQLiteRepository) GetRules(ctx context.Context, ids []string) ([]Rule, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	query := `SELECT id, home_id, user_id, name, type, active, all_conditions, interval_seconds, fire_at
		FROM rules WHERE id IN (` + placeholders + `) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying rules: %w", err)
	}
	defer rows.Close()

	var out []Rule
	index := make(map[string]int)
	for rows.Next() {
		var rule Rule
		var fireAt sql.NullString
		err := rows.Scan(&rule.ID, &rule.HomeID, &rule.UserID, &rule.Name, &rule.Type,
			&rule.Active, &rule.AllConditions, &rule.IntervalSeconds, &fireAt)
		if err != nil {
			return nil, fmt.Errorf("scanning rule row: %w", err)
		}
		if fireAt.Valid {
			if t, err := time.Parse(time.RFC3339, fireAt.String); err == nil {
				rule.FireAt = &t
			}
		}
		index[rule.ID] = len(out)
		out = append(out, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rule rows: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}

	if err := r.loadConditions(ctx, placeholders, args, out, index); err != nil {
		return nil, err
	}
	if err := r.loadResults(ctx, placeholders, args, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

// loadConditions attaches conditions to the loaded rules.
func (r *SQLiteRepository) loadConditions(ctx context.Context, placeholders string, args []any, rules []Rule, index map[string]int) error {
	query := `SELECT id, rule_id, device_id, attribute, operation, value
		FROM conditions WHERE rule_id IN (` + placeholders + `) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying conditions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c Condition
		var valueJSON string
		if err := rows.Scan(&c.ID, &c.RuleID, &c.DeviceID, &c.Attribute, &c.Operation, &valueJSON); err != nil {
			return fmt.Errorf("scanning condition row: %w", err)
		}
		c.Value = unmarshalJSON(valueJSON)
		if i, ok := index[c.RuleID]; ok {
			rules[i].Conditions = append(rules[i].Conditions, c)
		}
	}
	return rows.Err()
}

// loadResults attaches results to the loaded rules.
func (r *SQLiteRepository) loadResults(ctx context.Context, placeholders string, args []any, rules []Rule, index map[string]int) error {
	query := `SELECT id, rule_id, type, device_id, attribute, value, command, event, channels, resend_after
		FROM results WHERE rule_id IN (` + placeholders + `) ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var res Result
		var deviceID, attribute, valueJSON, commandJSON, event, channelsJSON sql.NullString
		err := rows.Scan(&res.ID, &res.RuleID, &res.Type, &deviceID, &attribute,
			&valueJSON, &commandJSON, &event, &channelsJSON, &res.ResendAfter)
		if err != nil {
			return fmt.Errorf("scanning result row: %w", err)
		}
		if deviceID.Valid {
			res.DeviceID = &deviceID.String
		}
		if attribute.Valid {
			res.Attribute = &attribute.String
		}
		if valueJSON.Valid {
			res.Value = unmarshalJSON(valueJSON.String)
		}
		if commandJSON.Valid {
			var cmd map[string]any
			if err := json.Unmarshal([]byte(commandJSON.String), &cmd); err == nil {
				res.Command = cmd
			}
		}
		if event.Valid {
			res.Event = event.String
		}
		if channelsJSON.Valid {
			var channels []string
			if err := json.Unmarshal([]byte(channelsJSON.String), &channels); err == nil {
				res.Channels = channels
			}
		}
		if i, ok := index[res.RuleID]; ok {
			rules[i].Results = append(rules[i].Results, res)
		}
	}
	return rows.Err()
}

// RuleIDsForDevice returns active rules referencing a device in a condition.
func (r *SQLiteRepository) RuleIDsForDevice(ctx context.Context, deviceID string) ([]string, error) {
	const query = `SELECT DISTINCT r.id FROM rules r
		JOIN conditions c ON c.rule_id = r.id
		WHERE c.device_id = ? AND r.active = 1
		ORDER BY r.id`
	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, fmt.Errorf("querying rules for device %s: %w", deviceID, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning rule id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rule ids: %w", err)
	}
	return ids, nil
}

// Deactivate flips a rule's active flag off.
func (r *SQLiteRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE rules SET active = 0, updated_at = datetime('now') WHERE id = ?`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("deactivating rule %s: %w", id, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected for rule %s: %w", id, err)
	}
	if n == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// ─── Column helpers ──────────────────────────────────────────────────────────

func marshalJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func unmarshalJSON(s string) any {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	return v
}

func nullStr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullJSON(v any) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: marshalJSON(v), Valid: true}
}

func nullJSONMap(m map[string]any) sql.NullString {
	if m == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: marshalJSON(m), Valid: true}
}

func nullJSONSlice(s []string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: marshalJSON(s), Valid: true}
}
