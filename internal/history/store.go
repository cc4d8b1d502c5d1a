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
)

// Store manages the run ledger.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates or connects to the ledger at path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginRun records a run in the running state.
func (s *Store) BeginRun(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	started := run.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, project_path, status, log_path, started_at) VALUES (?, ?, ?, ?, ?)`,
		run.ID, run.ProjectPath, StatusRunning, nullableString(run.LogPath), formatTime(started),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// RecordSegments replaces the segment boundaries stored for a run.
func (s *Store) RecordSegments(ctx context.Context, runID string, segments []Segment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin segments tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM segments WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("clear segments: %w", err)
	}
	for _, seg := range segments {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO segments (run_id, idx, name, start, duration, visual_kind) VALUES (?, ?, ?, ?, ?, ?)`,
			runID, seg.Index, seg.Name, seg.Start, seg.Duration, nullableString(seg.VisualKind),
		); err != nil {
			return fmt.Errorf("insert segment %s: %w", seg.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit segments: %w", err)
	}
	return nil
}

// FinishRun stores the terminal state of a run. A nil runErr marks success.
func (s *Store) FinishRun(ctx context.Context, runID, outputPath string, total float64, errorKind string, runErr error) error {
	status := StatusSucceeded
	message := ""
	if runErr != nil {
		status = StatusFailed
		message = runErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, output_path = ?, total_duration = ?, error_kind = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status, nullableString(outputPath), total, nullableString(errorKind), nullableString(message), formatTime(time.Now()), runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

const runColumns = "id, project_path, status, output_path, log_path, total_duration, error_kind, error_message, started_at, finished_at"

// ListRuns returns the most recent runs, newest first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := "SELECT " + runColumns + " FROM runs ORDER BY started_at DESC, id DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun fetches a run by id. A missing run returns nil without error.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+runColumns+" FROM runs WHERE id = ?", id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return &run, nil
}

// LastSucceeded returns the newest successful run for a project, excluding
// the given run id.
func (s *Store) LastSucceeded(ctx context.Context, projectPath, excludeID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE project_path = ? AND status = ? AND id != ? ORDER BY started_at DESC LIMIT 1",
		projectPath, StatusSucceeded, excludeID,
	)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("last succeeded run: %w", err)
	}
	return &run, nil
}

// Segments returns the recorded boundaries of a run in slot order.
func (s *Store) Segments(ctx context.Context, runID string) ([]Segment, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT idx, name, start, duration, visual_kind FROM segments WHERE run_id = ? ORDER BY idx", runID)
	if err != nil {
		return nil, fmt.Errorf("query segments: %w", err)
	}
	defer rows.Close()

	var segments []Segment
	for rows.Next() {
		var (
			seg  Segment
			kind sql.NullString
		)
		if err := rows.Scan(&seg.Index, &seg.Name, &seg.Start, &seg.Duration, &kind); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		seg.VisualKind = kind.String
		segments = append(segments, seg)
	}
	return segments, rows.Err()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (Run, error) {
	var (
		run          Run
		status       string
		outputPath   sql.NullString
		logPath      sql.NullString
		total        sql.NullFloat64
		errorKind    sql.NullString
		errorMessage sql.NullString
		startedRaw   string
		finishedRaw  sql.NullString
	)
	if err := scanner.Scan(&run.ID, &run.ProjectPath, &status, &outputPath, &logPath, &total,
		&errorKind, &errorMessage, &startedRaw, &finishedRaw); err != nil {
		return Run{}, err
	}
	run.Status = Status(status)
	run.OutputPath = outputPath.String
	run.LogPath = logPath.String
	run.TotalDuration = total.Float64
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMessage.String
	run.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		run.FinishedAt = parseTime(finishedRaw.String)
	}
	return run, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}
