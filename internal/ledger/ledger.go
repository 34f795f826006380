// Package ledger records pipeline runs in a sqlite database: one row per
// run, one per processed file and one per concatenated series.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// Outcome statuses.
const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
	StatusEmpty   = "empty"
	StatusFailed  = "failed"
)

// Run statuses.
const (
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	stage TEXT NOT NULL,
	status TEXT NOT NULL,
	started_at DATETIME NOT NULL,
	finished_at DATETIME
);
CREATE TABLE IF NOT EXISTS outcomes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	stage TEXT NOT NULL,
	path TEXT NOT NULL,
	status TEXT NOT NULL,
	message TEXT,
	samples INTEGER,
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS outcomes_run ON outcomes(run_id);
CREATE TABLE IF NOT EXISTS series (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	group_key TEXT NOT NULL,
	path TEXT NOT NULL,
	shifted BOOLEAN NOT NULL,
	samples INTEGER,
	numbers TEXT
);
`

// Outcome is the result of one stage on one file.
type Outcome struct {
	RunID   string
	Stage   string
	Path    string
	Status  string
	Message string
	Samples int
}

// Series describes one written concatenated series.
type Series struct {
	RunID    string
	GroupKey string
	Path     string
	Shifted  bool
	Samples  int
	Numbers  []int
}

// Ledger is a handle to the run database. It is safe for concurrent use.
type Ledger struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path and applies the schema.
// ":memory:" gives a private in-memory ledger.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// sqlite serialises writers; one connection also keeps ":memory:" a
	// single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}

	return &Ledger{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// StartRun inserts a running run for stage and returns its id.
func (l *Ledger) StartRun(ctx context.Context, stage string) (string, error) {
	id := uuid.NewString()

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO runs (id, stage, status, started_at) VALUES (?, ?, ?, ?)`,
		id, stage, RunRunning, l.now())
	if err != nil {
		return "", fmt.Errorf("start run: %w", err)
	}

	return id, nil
}

// FinishRun sets the final status of a run.
func (l *Ledger) FinishRun(ctx context.Context, id, status string) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, finished_at = ? WHERE id = ?`,
		status, l.now(), id)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: %w", id, sql.ErrNoRows)
	}

	return nil
}

// RunStatus returns the status of a run.
func (l *Ledger) RunStatus(ctx context.Context, id string) (string, error) {
	var status string

	err := l.db.QueryRowContext(ctx, `SELECT status FROM runs WHERE id = ?`, id).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("run %s: %w", id, err)
	}

	return status, nil
}

// RecordOutcome appends a file outcome.
func (l *Ledger) RecordOutcome(ctx context.Context, o Outcome) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, stage, path, status, message, samples, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.RunID, o.Stage, o.Path, o.Status, o.Message, o.Samples, l.now())
	if err != nil {
		return fmt.Errorf("record outcome %s: %w", o.Path, err)
	}

	return nil
}

// RecordSeries appends a concatenated series.
func (l *Ledger) RecordSeries(ctx context.Context, s Series) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO series (run_id, group_key, path, shifted, samples, numbers) VALUES (?, ?, ?, ?, ?, ?)`,
		s.RunID, s.GroupKey, s.Path, s.Shifted, s.Samples, joinInts(s.Numbers))
	if err != nil {
		return fmt.Errorf("record series %s: %w", s.Path, err)
	}

	return nil
}

// Outcomes returns the outcomes of a run in insertion order.
func (l *Ledger) Outcomes(ctx context.Context, runID string) ([]Outcome, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, stage, path, status, message, samples FROM outcomes WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome

	for rows.Next() {
		var (
			o   Outcome
			msg sql.NullString
			n   sql.NullInt64
		)

		if err := rows.Scan(&o.RunID, &o.Stage, &o.Path, &o.Status, &msg, &n); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}

		o.Message = msg.String
		o.Samples = int(n.Int64)
		out = append(out, o)
	}

	return out, rows.Err()
}

// SeriesOf returns the series written by a run in insertion order.
func (l *Ledger) SeriesOf(ctx context.Context, runID string) ([]Series, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT run_id, group_key, path, shifted, samples, numbers FROM series WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var out []Series

	for rows.Next() {
		var (
			s    Series
			n    sql.NullInt64
			nums sql.NullString
		)

		if err := rows.Scan(&s.RunID, &s.GroupKey, &s.Path, &s.Shifted, &n, &nums); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}

		s.Samples = int(n.Int64)

		s.Numbers, err = splitInts(nums.String)
		if err != nil {
			return nil, fmt.Errorf("series %s numbers: %w", s.Path, err)
		}

		out = append(out, s)
	}

	return out, rows.Err()
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}

	return strings.Join(parts, ",")
}

func splitInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	out := make([]int, len(parts))

	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}

		out[i] = n
	}

	return out, nil
}
