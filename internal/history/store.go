package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"mkvbatch/internal/merge"
	"mkvbatch/internal/progress"
)

// Store manages batch history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

// Run is one recorded batch.
type Run struct {
	RunID      string
	Folder1    string
	Folder2    string
	OutputDir  string
	Total      int
	Processed  int
	Status     progress.State
	FailedFile string
	Message    string
	StartedAt  time.Time
	FinishedAt time.Time
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil || !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) exec(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history database path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path, now: time.Now}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// RecordStart inserts a running batch.
func (s *Store) RecordStart(ctx context.Context, info merge.BatchInfo) error {
	err := s.exec(ctx,
		`INSERT INTO batch_runs (run_id, folder1, folder2, output_dir, total, processed, status, started_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?, ?)`,
		info.RunID, info.Folder1, info.Folder2, info.OutputDir, info.Total,
		string(progress.StateRunning), s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record batch start: %w", err)
	}
	return nil
}

// RecordFinish stores the terminal state of a batch. Processed counts the
// files merged successfully: every file before a failure, or all of them.
func (s *Store) RecordFinish(ctx context.Context, snap progress.Snapshot) error {
	processed := snap.Current
	var failedFile sql.NullString
	if snap.State == progress.StateFailed {
		processed = max(snap.Current-1, 0)
		failedFile = sql.NullString{String: snap.Filename, Valid: snap.Filename != ""}
	}
	err := s.exec(ctx,
		`UPDATE batch_runs SET processed = ?, status = ?, failed_file = ?, message = ?, finished_at = ?
		 WHERE run_id = ?`,
		processed, string(snap.State), failedFile, snap.Message,
		s.now().UTC().Format(time.RFC3339Nano), snap.RunID,
	)
	if err != nil {
		return fmt.Errorf("record batch finish: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, folder1, folder2, output_dir, total, processed, status,
		        failed_file, message, started_at, finished_at
		 FROM batch_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return runs, nil
}

// Get returns the run with runID, or nil when it is unknown.
func (s *Store) Get(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, folder1, folder2, output_dir, total, processed, status,
		        failed_file, message, started_at, finished_at
		 FROM batch_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run                 Run
		status              string
		failedFile, message sql.NullString
		started             string
		finished            sql.NullString
	)
	if err := row.Scan(&run.RunID, &run.Folder1, &run.Folder2, &run.OutputDir, &run.Total, &run.Processed,
		&status, &failedFile, &message, &started, &finished); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan history row: %w", err)
	}
	run.Status = progress.State(status)
	run.FailedFile = failedFile.String
	run.Message = message.String
	run.StartedAt = parseTime(started)
	if finished.Valid {
		run.FinishedAt = parseTime(finished.String)
	}
	return run, nil
}

func parseTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
