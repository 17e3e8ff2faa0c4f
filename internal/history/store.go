// Package history keeps a SQLite log of training runs and their per-epoch
// loss and accuracy.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // registers the "sqlite3" driver
)

// ErrRunNotFound is returned for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs(
	id         TEXT PRIMARY KEY,
	started_at TIMESTAMP NOT NULL,
	dataset    TEXT NOT NULL,
	model_path TEXT NOT NULL,
	seed       INTEGER NOT NULL,
	epochs     INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS epochs(
	run_id   TEXT NOT NULL REFERENCES runs(id),
	epoch    INTEGER NOT NULL,
	loss     REAL NOT NULL,
	accuracy REAL NOT NULL,
	PRIMARY KEY(run_id, epoch)
);
CREATE TABLE IF NOT EXISTS evaluations(
	run_id     TEXT NOT NULL,
	model_path TEXT NOT NULL,
	loss       REAL NOT NULL,
	accuracy   REAL NOT NULL,
	created_at TIMESTAMP NOT NULL
);`

// Run describes one training invocation.
type Run struct {
	ID        string
	StartedAt time.Time
	Dataset   string
	ModelPath string
	Seed      uint64
	Epochs    int
}

// EpochRow is one stored epoch.
type EpochRow struct {
	Epoch    int
	Loss     float64
	Accuracy float64
}

// Store is a SQLite-backed run log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", path, err)
	}
	// One connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewRunID returns a fresh random run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// StartRun inserts run, assigning an ID and start time when empty, and
// returns the stored run.
func (s *Store) StartRun(ctx context.Context, run Run) (Run, error) {
	if run.ID == "" {
		run.ID = NewRunID()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO runs(id, started_at, dataset, model_path, seed, epochs) VALUES(?,?,?,?,?,?)",
		run.ID, run.StartedAt, run.Dataset, run.ModelPath, int64(run.Seed), run.Epochs) //nolint:gosec // seeds fit in int64 storage bits
	if err != nil {
		return Run{}, fmt.Errorf("failed to insert run: %w", err)
	}
	return run, nil
}

// RecordEpoch stores the loss and accuracy of one epoch.
func (s *Store) RecordEpoch(ctx context.Context, runID string, epoch int, loss, accuracy float64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO epochs(run_id, epoch, loss, accuracy) VALUES(?,?,?,?)",
		runID, epoch, loss, accuracy)
	if err != nil {
		return fmt.Errorf("failed to record epoch %d: %w", epoch, err)
	}
	return nil
}

// RecordEvaluation stores the scores of a model on the test set.
func (s *Store) RecordEvaluation(ctx context.Context, runID, modelPath string, loss, accuracy float64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO evaluations(run_id, model_path, loss, accuracy, created_at) VALUES(?,?,?,?,?)",
		runID, modelPath, loss, accuracy, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record evaluation: %w", err)
	}
	return nil
}

// Run returns a stored run.
func (s *Store) Run(ctx context.Context, id string) (Run, error) {
	var run Run
	var seed int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, started_at, dataset, model_path, seed, epochs FROM runs WHERE id = ?", id).
		Scan(&run.ID, &run.StartedAt, &run.Dataset, &run.ModelPath, &seed, &run.Epochs)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return Run{}, fmt.Errorf("failed to read run: %w", err)
	}
	run.Seed = uint64(seed) //nolint:gosec // round-trips the stored bits
	return run, nil
}

// Runs lists runs, newest first.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, started_at, dataset, model_path, seed, epochs FROM runs ORDER BY started_at DESC, rowid DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var run Run
		var seed int64
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.Dataset, &run.ModelPath, &seed, &run.Epochs); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Seed = uint64(seed) //nolint:gosec // round-trips the stored bits
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Epochs returns the stored epochs of a run in order.
func (s *Store) Epochs(ctx context.Context, runID string) ([]EpochRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT epoch, loss, accuracy FROM epochs WHERE run_id = ? ORDER BY epoch", runID)
	if err != nil {
		return nil, fmt.Errorf("failed to read epochs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []EpochRow
	for rows.Next() {
		var e EpochRow
		if err := rows.Scan(&e.Epoch, &e.Loss, &e.Accuracy); err != nil {
			return nil, fmt.Errorf("failed to scan epoch: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
