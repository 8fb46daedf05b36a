package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-gate
// LogGate writes a gate transition to the gate_log table.
func LogGate(db *sql.DB, entry GateEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO gate_log (run_id, action, reason, input_text, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		entry.RunID,
		entry.Action,
		nullIfEmpty(entry.Reason),
		nullIfEmpty(entry.InputText),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log gate: %w", err)
	}
	return nil
}
// #endregion log-gate

// #region list-gate
// ListGate returns a run's gate transitions in log order.
func ListGate(db *sql.DB, runID string) ([]GateEntry, error) {
	rows, err := db.Query(
		`SELECT run_id, action, reason, input_text, created_at
		 FROM gate_log WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list gate log: %w", err)
	}
	defer rows.Close()

	var entries []GateEntry
	for rows.Next() {
		var e GateEntry
		var reason, input sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.Action, &reason, &input, &createdStr); err != nil {
			return nil, fmt.Errorf("scan gate log: %w", err)
		}
		if reason.Valid {
			e.Reason = reason.String
		}
		if input.Valid {
			e.InputText = input.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
// #endregion list-gate

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
