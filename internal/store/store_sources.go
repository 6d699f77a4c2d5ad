package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sourceColumns = "id, name, url, category_hint, neighborhood_id, priority, enabled, last_fetched, fetch_count, error_count, last_error"

// ListSources returns sources ordered by descending priority then name.
// With enabledOnly set, disabled sources are excluded.
func (s *Store) ListSources(ctx context.Context, enabledOnly bool) ([]*Source, error) {
	query := `SELECT ` + sourceColumns + ` FROM sources`
	if enabledOnly {
		query += ` WHERE enabled = 1`
	}
	query += ` ORDER BY priority DESC, name, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

// GetSource fetches a source by identifier. Returns nil when absent.
func (s *Store) GetSource(ctx context.Context, id int64) (*Source, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM sources WHERE id = ?`, id)
	source, err := scanSource(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return source, nil
}

// InsertSource creates a source row and returns it with its assigned ID.
func (s *Store) InsertSource(ctx context.Context, source *Source) (*Source, error) {
	if source == nil {
		return nil, errors.New("source is nil")
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sources (name, url, category_hint, neighborhood_id, priority, enabled)
         VALUES (?, ?, ?, ?, ?, ?)`,
		source.Name,
		source.URL,
		nullableString(source.CategoryHint),
		nullableString(source.NeighborhoodID),
		source.Priority,
		boolToInt(source.Enabled),
	)
	if err != nil {
		return nil, fmt.Errorf("insert source: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetSource(ctx, id)
}

// UpdateSource persists administrator-editable fields of an existing source.
// Health counters are not touched here; only RecordFetchOutcome writes them.
func (s *Store) UpdateSource(ctx context.Context, source *Source) (*Source, error) {
	if source == nil {
		return nil, errors.New("source is nil")
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sources
         SET name = ?, url = ?, category_hint = ?, neighborhood_id = ?, priority = ?, enabled = ?
         WHERE id = ?`,
		source.Name,
		source.URL,
		nullableString(source.CategoryHint),
		nullableString(source.NeighborhoodID),
		source.Priority,
		boolToInt(source.Enabled),
		source.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update source: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, nil
	}
	return s.GetSource(ctx, source.ID)
}

// SetSourceEnabled toggles a source without touching its other fields.
// Returns false when the source does not exist.
func (s *Store) SetSourceEnabled(ctx context.Context, id int64, enabled bool) (bool, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE sources SET enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return false, fmt.Errorf("toggle source: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// DeleteSource removes a source and, via cascade, its collected items.
// Returns false when the source does not exist.
func (s *Store) DeleteSource(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sources WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete source: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// RecordFetchOutcome updates a source's health counters after a fetch
// attempt. fetch_count always increments; error_count increments only on
// failure, so error_count can never exceed fetch_count. last_error holds
// the most recent failure and clears on the next success.
func (s *Store) RecordFetchOutcome(ctx context.Context, id int64, success bool, fetchErr string, at time.Time) error {
	errorIncrement := 0
	var lastError any
	if !success {
		errorIncrement = 1
		if fetchErr == "" {
			fetchErr = "fetch failed"
		}
		lastError = fetchErr
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sources
         SET fetch_count = fetch_count + 1,
             error_count = error_count + ?,
             last_fetched = ?,
             last_error = ?
         WHERE id = ?`,
		errorIncrement,
		at.UTC().Format(time.RFC3339Nano),
		lastError,
		id,
	)
	if err != nil {
		return fmt.Errorf("record fetch outcome: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record fetch outcome: source %d not found", id)
	}
	return nil
}

func scanSource(scanner interface{ Scan(dest ...any) error }) (*Source, error) {
	var (
		id             int64
		name           string
		url            string
		categoryHint   sql.NullString
		neighborhoodID sql.NullString
		priority       int
		enabled        int
		lastFetchedRaw sql.NullString
		fetchCount     int64
		errorCount     int64
		lastError      sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&name,
		&url,
		&categoryHint,
		&neighborhoodID,
		&priority,
		&enabled,
		&lastFetchedRaw,
		&fetchCount,
		&errorCount,
		&lastError,
	); err != nil {
		return nil, err
	}
	source := &Source{
		ID:             id,
		Name:           name,
		URL:            url,
		CategoryHint:   categoryHint.String,
		NeighborhoodID: neighborhoodID.String,
		Priority:       priority,
		Enabled:        enabled != 0,
		FetchCount:     fetchCount,
		ErrorCount:     errorCount,
		LastError:      lastError.String,
	}
	if lastFetchedRaw.Valid {
		source.LastFetched = timePtr(lastFetchedRaw.String)
	}
	return source, nil
}
