package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const runColumns = "run_id, mode, started_at, completed_at, collected, scored, generated, validated, published, errors_json, success"

// InsertRun appends a completed run record to the ledger. Ledger rows are
// immutable: there is no corresponding update method.
func (s *Store) InsertRun(ctx context.Context, run *Run) error {
	if run == nil {
		return errors.New("run is nil")
	}
	if run.RunID == "" {
		return errors.New("run id is empty")
	}
	var errorsJSON any
	if len(run.Errors) > 0 {
		encoded, err := json.Marshal(run.Errors)
		if err != nil {
			return fmt.Errorf("marshal run errors: %w", err)
		}
		errorsJSON = string(encoded)
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO pipeline_runs (run_id, mode, started_at, completed_at, collected, scored, generated, validated, published, errors_json, success)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.Mode,
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		nullableTime(run.CompletedAt),
		run.Collected,
		run.Scored,
		run.Generated,
		run.Validated,
		run.Published,
		errorsJSON,
		boolToInt(run.Success),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetRun fetches one ledger row by run identifier. Returns nil when absent.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM pipeline_runs WHERE run_id = ?`, runID)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent ledger rows, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+runColumns+` FROM pipeline_runs ORDER BY started_at DESC, run_id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// CountRuns returns the total number of ledger rows.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM pipeline_runs`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count runs: %w", err)
	}
	return count, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		runID        string
		mode         string
		startedRaw   string
		completedRaw sql.NullString
		collected    int
		scored       int
		generated    int
		validated    int
		published    int
		errorsJSON   sql.NullString
		success      int
	)
	if err := scanner.Scan(
		&runID,
		&mode,
		&startedRaw,
		&completedRaw,
		&collected,
		&scored,
		&generated,
		&validated,
		&published,
		&errorsJSON,
		&success,
	); err != nil {
		return nil, err
	}
	run := &Run{
		RunID:     runID,
		Mode:      mode,
		Collected: collected,
		Scored:    scored,
		Generated: generated,
		Validated: validated,
		Published: published,
		Success:   success != 0,
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if completedRaw.Valid {
		run.CompletedAt = timePtr(completedRaw.String)
	}
	if errorsJSON.Valid && errorsJSON.String != "" {
		if err := json.Unmarshal([]byte(errorsJSON.String), &run.Errors); err != nil {
			return nil, fmt.Errorf("decode run errors: %w", err)
		}
	}
	return run, nil
}
