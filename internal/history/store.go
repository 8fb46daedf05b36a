package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/ritual-engine/internal/event"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id         TEXT PRIMARY KEY,
	started_at     TEXT NOT NULL,
	total_expected INTEGER NOT NULL,
	completed      INTEGER NOT NULL DEFAULT 0,
	final_score    REAL
);

CREATE TABLE IF NOT EXISTS run_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	seq          INTEGER NOT NULL,
	service      TEXT NOT NULL,
	status       TEXT NOT NULL,
	health_score REAL NOT NULL,
	check_id     INTEGER,
	aux_gate_id  INTEGER,
	weight       TEXT,
	event_time   TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS snapshots (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	fraction      REAL NOT NULL,
	phase         TEXT NOT NULL,
	aligned       INTEGER NOT NULL,
	overall_score REAL NOT NULL,
	checks_passed INTEGER NOT NULL,
	ripple        REAL NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);

CREATE TABLE IF NOT EXISTS gate_log (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id     TEXT NOT NULL,
	action     TEXT NOT NULL,
	reason     TEXT,
	input_text TEXT,
	created_at TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`
// #endregion schema

// #region store-struct
// Store manages recorded runs in SQLite. Event lists for a run are read
// repeatedly by replay and fixture export, so they sit behind an LRU
// cache invalidated on append.
type Store struct {
	db     *sql.DB
	events *lru.Cache[string, []event.ServiceEvent]
}
// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	cache, err := lru.New[string, []event.ServiceEvent](64)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("event cache: %w", err)
	}
	return &Store{db: db, events: cache}, nil
}
// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion close

// #region db-accessor
// DB returns the underlying *sql.DB for use by other packages (e.g. logging).
func (s *Store) DB() *sql.DB {
	return s.db
}
// #endregion db-accessor

// #region create-run
// CreateRun registers a new run and returns its record.
func (s *Store) CreateRun(totalExpected int) (RunRecord, error) {
	rec := RunRecord{
		RunID:         uuid.New().String(),
		StartedAt:     time.Now().UTC(),
		TotalExpected: totalExpected,
	}
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, started_at, total_expected, completed) VALUES (?, ?, ?, 0)`,
		rec.RunID, rec.StartedAt.Format(time.RFC3339Nano), totalExpected,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}

// MarkCompleted records the terminal transition with the final score.
func (s *Store) MarkCompleted(runID string, finalScore float64) error {
	_, err := s.db.Exec(
		`UPDATE runs SET completed = 1, final_score = ? WHERE run_id = ?`,
		finalScore, runID,
	)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}
// #endregion create-run

// #region get-run
// GetRun retrieves a run by ID.
func (s *Store) GetRun(runID string) (RunRecord, error) {
	var rec RunRecord
	var startedStr string
	var completed int
	var finalScore sql.NullFloat64

	err := s.db.QueryRow(
		`SELECT run_id, started_at, total_expected, completed, final_score FROM runs WHERE run_id = ?`,
		runID,
	).Scan(&rec.RunID, &startedStr, &rec.TotalExpected, &completed, &finalScore)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
	rec.Completed = completed != 0
	if finalScore.Valid {
		rec.FinalScore = finalScore.Float64
	}
	return rec, nil
}

// ListRuns returns the most recent runs.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT run_id, started_at, total_expected, completed, final_score
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedStr string
		var completed int
		var finalScore sql.NullFloat64
		if err := rows.Scan(&rec.RunID, &startedStr, &rec.TotalExpected, &completed, &finalScore); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
		rec.Completed = completed != 0
		if finalScore.Valid {
			rec.FinalScore = finalScore.Float64
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
// #endregion get-run

// #region append-event
// AppendEvent persists one consumed feed event in arrival order.
func (s *Store) AppendEvent(runID string, seq uint64, ev event.ServiceEvent) error {
	_, err := s.db.Exec(
		`INSERT INTO run_events (run_id, seq, service, status, health_score, check_id, aux_gate_id, weight, event_time)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, seq, ev.Service, string(ev.Status), ev.HealthScore,
		nullIfZero(ev.CheckID), nullIfZero(ev.AuxGateID), nullIfEmpty(string(ev.Weight)),
		ev.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	s.events.Remove(runID)
	return nil
}

// ListEvents returns a run's events in arrival order. The returned
// slice is the caller's to keep; the cached copy stays private.
func (s *Store) ListEvents(runID string) ([]event.ServiceEvent, error) {
	if cached, ok := s.events.Get(runID); ok {
		out := make([]event.ServiceEvent, len(cached))
		copy(out, cached)
		return out, nil
	}

	rows, err := s.db.Query(
		`SELECT service, status, health_score, check_id, aux_gate_id, weight, event_time
		 FROM run_events WHERE run_id = ? ORDER BY seq ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.ServiceEvent
	for rows.Next() {
		var ev event.ServiceEvent
		var status, timeStr string
		var checkID, auxGateID sql.NullInt64
		var weight sql.NullString
		if err := rows.Scan(&ev.Service, &status, &ev.HealthScore, &checkID, &auxGateID, &weight, &timeStr); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Status = event.Status(status)
		if checkID.Valid {
			ev.CheckID = int(checkID.Int64)
		}
		if auxGateID.Valid {
			ev.AuxGateID = int(auxGateID.Int64)
		}
		if weight.Valid {
			ev.Weight = event.Weight(weight.String)
		}
		ev.Timestamp, _ = time.Parse(time.RFC3339Nano, timeStr)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	cached := make([]event.ServiceEvent, len(events))
	copy(cached, events)
	s.events.Add(runID, cached)
	return events, nil
}
// #endregion append-event

// #region snapshots
// RecordSnapshot persists one engine snapshot.
func (s *Store) RecordSnapshot(runID string, row SnapshotRow) error {
	_, err := s.db.Exec(
		`INSERT INTO snapshots (run_id, seq, fraction, phase, aligned, overall_score, checks_passed, ripple, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, row.Seq, row.Fraction, row.Phase, boolToInt(row.Aligned),
		row.OverallScore, row.ChecksPassed, row.Ripple,
		row.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot row for a run.
func (s *Store) LatestSnapshot(runID string) (SnapshotRow, error) {
	var row SnapshotRow
	var aligned int
	var createdStr string
	err := s.db.QueryRow(
		`SELECT seq, fraction, phase, aligned, overall_score, checks_passed, ripple, created_at
		 FROM snapshots WHERE run_id = ? ORDER BY seq DESC LIMIT 1`, runID,
	).Scan(&row.Seq, &row.Fraction, &row.Phase, &aligned, &row.OverallScore, &row.ChecksPassed, &row.Ripple, &createdStr)
	if err != nil {
		return SnapshotRow{}, fmt.Errorf("latest snapshot: %w", err)
	}
	row.Aligned = aligned != 0
	row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return row, nil
}

// ListSnapshots returns a run's snapshots in fold order.
func (s *Store) ListSnapshots(runID string) ([]SnapshotRow, error) {
	rows, err := s.db.Query(
		`SELECT seq, fraction, phase, aligned, overall_score, checks_passed, ripple, created_at
		 FROM snapshots WHERE run_id = ? ORDER BY seq ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []SnapshotRow
	for rows.Next() {
		var row SnapshotRow
		var aligned int
		var createdStr string
		if err := rows.Scan(&row.Seq, &row.Fraction, &row.Phase, &aligned, &row.OverallScore, &row.ChecksPassed, &row.Ripple, &createdStr); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		row.Aligned = aligned != 0
		row.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, row)
	}
	return out, rows.Err()
}
// #endregion snapshots

// #region helpers
func nullIfZero(v int) interface{} {
	if v == 0 {
		return nil
	}
	return v
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
// #endregion helpers
