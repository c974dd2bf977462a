package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

const (
	SourceStatusOK     = "ok"
	SourceStatusFailed = "failed"
)

// Run represents one recorded merge
type Run struct {
	RunID           int64
	RunUUID         string
	CreatedAt       time.Time
	Elapsed         time.Duration
	OutputPath      string
	OutputSizeBytes int64
	Properties      []string
	SourceCount     int
	SuccessCount    int
	FailedCount     int
	PersistError    string
}

// RunSource is one source document of a run
type RunSource struct {
	Position     int
	Path         string
	Status       string
	ErrorMessage string
}

// InsertRun stores a run and its sources in one transaction and returns the new run ID.
// SourceCount, SuccessCount and FailedCount are derived from sources.
func (db *DB) InsertRun(run Run, sources []RunSource) (int64, error) {
	props, err := json.Marshal(run.Properties)
	if err != nil {
		return 0, fmt.Errorf("failed to encode properties: %w", err)
	}

	success, failed := 0, 0
	for _, s := range sources {
		if s.Status == SourceStatusOK {
			success++
		} else {
			failed++
		}
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	var persistErr interface{}
	if run.PersistError != "" {
		persistErr = run.PersistError
	}

	tx, err := db.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`
		INSERT INTO merge_runs (run_uuid, created_at, elapsed_ms, output_path, output_size_bytes,
		                        properties, source_count, success_count, failed_count, persist_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.RunUUID, run.CreatedAt.UTC(), run.Elapsed.Milliseconds(), run.OutputPath, run.OutputSizeBytes,
		string(props), len(sources), success, failed, persistErr)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run ID: %w", err)
	}

	for i, s := range sources {
		var errMsg interface{}
		if s.ErrorMessage != "" {
			errMsg = s.ErrorMessage
		}
		_, err := tx.Exec(`
			INSERT INTO merge_sources (run_id, position, path, status, error_message)
			VALUES (?, ?, ?, ?, ?)
		`, runID, i, s.Path, s.Status, errMsg)
		if err != nil {
			return 0, fmt.Errorf("failed to insert source %s: %w", s.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return runID, nil
}

const runColumns = `run_id, run_uuid, created_at, elapsed_ms, output_path, output_size_bytes,
	properties, source_count, success_count, failed_count, persist_error`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var elapsedMS int64
	var props string
	var persistErr sql.NullString
	if err := row.Scan(&r.RunID, &r.RunUUID, &r.CreatedAt, &elapsedMS, &r.OutputPath, &r.OutputSizeBytes,
		&props, &r.SourceCount, &r.SuccessCount, &r.FailedCount, &persistErr); err != nil {
		return nil, err
	}
	r.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	if persistErr.Valid {
		r.PersistError = persistErr.String
	}
	if err := json.Unmarshal([]byte(props), &r.Properties); err != nil {
		return nil, fmt.Errorf("failed to decode properties of run %d: %w", r.RunID, err)
	}
	return &r, nil
}

// GetRun retrieves a run and its sources by run ID
func (db *DB) GetRun(runID int64) (*Run, []RunSource, error) {
	run, err := scanRun(db.QueryRow(`SELECT `+runColumns+` FROM merge_runs WHERE run_id = ?`, runID))
	if err == sql.ErrNoRows {
		return nil, nil, fmt.Errorf("run %d not found", runID)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run: %w", err)
	}

	rows, err := db.Query(`
		SELECT position, path, status, error_message
		FROM merge_sources
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get run sources: %w", err)
	}
	defer rows.Close()

	var sources []RunSource
	for rows.Next() {
		var s RunSource
		var errMsg sql.NullString
		if err := rows.Scan(&s.Position, &s.Path, &s.Status, &errMsg); err != nil {
			return nil, nil, fmt.Errorf("failed to scan source: %w", err)
		}
		if errMsg.Valid {
			s.ErrorMessage = errMsg.String
		}
		sources = append(sources, s)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read run sources: %w", err)
	}

	return run, sources, nil
}

// ListRuns retrieves runs ordered by most recent first
func (db *DB) ListRuns(limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM merge_runs ORDER BY created_at DESC, run_id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	return runs, nil
}

// GetLatestRunID returns the most recent run ID, or an error when no runs exist
func (db *DB) GetLatestRunID() (int64, error) {
	var runID int64
	err := db.QueryRow(`SELECT run_id FROM merge_runs ORDER BY created_at DESC, run_id DESC LIMIT 1`).Scan(&runID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("no runs found. Run 'analysis-merger merge --files ...' first")
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get latest run: %w", err)
	}
	return runID, nil
}
