// Package journal records harvest runs and per item sink actions in a
// local sqlite database, so an operator can see what past runs did.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"gagsync/pkg/logger"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Run outcomes
const (
	OutcomeRunning   = "running"
	OutcomeCompleted = "completed"
	OutcomeStopped   = "stopped"
	OutcomeFailed    = "failed"
)

// Run is one recorded invocation
type Run struct {
	ID         string
	Command    string
	StartedAt  time.Time
	FinishedAt time.Time
	Outcome    string
	Written    int
	Skipped    int
	Error      string
}

// Duration returns the run time, or zero for unfinished runs
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Event is one sink action on one item
type Event struct {
	RunID  string
	ItemID string
	Sink   string
	Action string
	At     time.Time
}

// Journal is a sqlite-backed run log
type Journal struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

// Open opens (or creates) the journal at path and applies pending migrations.
func Open(path string, log logger.Logger) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA foreign_keys = ON", "PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	version, err := runMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	log = logger.Component(log, "journal")
	log.DebugWithFields("journal opened", map[string]interface{}{
		"path":    path,
		"version": version,
	})

	return &Journal{db: db, logger: log, now: time.Now}, nil
}

func runMigrations(db *sql.DB) (uint, error) {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return 0, fmt.Errorf("failed to create sqlite migration driver: %w", err)
	}

	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("failed to create iofs source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return 0, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return 0, fmt.Errorf("failed to get migration version: %w", err)
	}
	if dirty {
		return 0, fmt.Errorf("journal schema version %d is dirty", version)
	}
	return version, nil
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}

// Start records a new run and returns its id
func (j *Journal) Start(ctx context.Context, command string) (string, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, started_at, outcome) VALUES (?, ?, ?, ?)`,
		id, command, j.now().UnixNano(), OutcomeRunning)
	if err != nil {
		return "", fmt.Errorf("failed to record run start: %w", err)
	}
	return id, nil
}

// Record logs one sink action for an item
func (j *Journal) Record(ctx context.Context, runID, itemID, sink, action string) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (run_id, item_id, sink, action, at) VALUES (?, ?, ?, ?, ?)`,
		runID, itemID, sink, action, j.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// Finish stores the final counters of a run
func (j *Journal) Finish(ctx context.Context, runID, outcome string, written, skipped int, runErr error) error {
	var message string
	if runErr != nil {
		message = runErr.Error()
	}

	res, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, outcome = ?, written = ?, skipped = ?, error = ? WHERE id = ?`,
		j.now().UnixNano(), outcome, written, skipped, message, runID)
	if err != nil {
		return fmt.Errorf("failed to record run finish: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("unknown run %s", runID)
	}

	j.logger.DebugWithFields("run recorded", map[string]interface{}{
		"run_id":  runID,
		"outcome": outcome,
	})
	return nil
}

// Recent returns the latest runs, newest first
func (j *Journal) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, command, started_at, finished_at, outcome, written, skipped, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  int64
			finished sql.NullInt64
		)
		if err := rows.Scan(&r.ID, &r.Command, &started, &finished, &r.Outcome, &r.Written, &r.Skipped, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		r.StartedAt = time.Unix(0, started)
		if finished.Valid {
			r.FinishedAt = time.Unix(0, finished.Int64)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Events returns the events of one run in order
func (j *Journal) Events(ctx context.Context, runID string) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT run_id, item_id, sink, action, at FROM events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e  Event
			at int64
		)
		if err := rows.Scan(&e.RunID, &e.ItemID, &e.Sink, &e.Action, &at); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.At = time.Unix(0, at)
		events = append(events, e)
	}
	return events, rows.Err()
}
