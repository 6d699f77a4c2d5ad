package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const contentColumns = "id, source_item_id, title, body, category, neighborhood_id, ai_confidence, status, created_by, created_at, validated_at, published_at, validation_notes"

// ContentFilters narrows review-queue listings. UnvalidatedOnly restricts
// the result to rows that carry no validation outcome yet.
type ContentFilters struct {
	Status          ContentStatus
	Category        string
	NeighborhoodID  string
	UnvalidatedOnly bool
	Limit           int
}

// InsertContent creates a draft row and returns it with its assigned ID.
func (s *Store) InsertContent(ctx context.Context, content *Content) (*Content, error) {
	if content == nil {
		return nil, errors.New("content is nil")
	}
	status := content.Status
	if status == "" {
		status = StatusReview
	}
	if !status.Valid() {
		return nil, fmt.Errorf("insert content: invalid status %q", status)
	}
	createdBy := content.CreatedBy
	if createdBy == "" {
		createdBy = "pipeline"
	}
	createdAt := content.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO content (source_item_id, title, body, category, neighborhood_id, ai_confidence, status, created_by, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		nullableInt(content.SourceItemID),
		content.Title,
		content.Body,
		nullableString(content.Category),
		nullableString(content.NeighborhoodID),
		nullableFloat(content.AIConfidence),
		string(status),
		createdBy,
		createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert content: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetContent(ctx, id)
}

// GetContent fetches a content row by identifier. Returns nil when absent.
func (s *Store) GetContent(ctx context.Context, id int64) (*Content, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+contentColumns+` FROM content WHERE id = ?`, id)
	content, err := scanContent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get content: %w", err)
	}
	return content, nil
}

// ListContent returns content rows matching the filters, oldest first.
func (s *Store) ListContent(ctx context.Context, filters ContentFilters) ([]*Content, error) {
	query := `SELECT ` + contentColumns + ` FROM content`
	var (
		clauses []string
		args    []any
	)
	if filters.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(filters.Status))
	}
	if filters.Category != "" {
		clauses = append(clauses, "category = ?")
		args = append(args, filters.Category)
	}
	if filters.NeighborhoodID != "" {
		clauses = append(clauses, "neighborhood_id = ?")
		args = append(args, filters.NeighborhoodID)
	}
	if filters.UnvalidatedOnly {
		clauses = append(clauses, "validated_at IS NULL")
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at, id"
	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list content: %w", err)
	}
	defer rows.Close()

	var results []*Content
	for rows.Next() {
		content, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		results = append(results, content)
	}
	return results, rows.Err()
}

// ListContentByStatus returns content in the given status, oldest first.
func (s *Store) ListContentByStatus(ctx context.Context, status ContentStatus, limit int) ([]*Content, error) {
	return s.ListContent(ctx, ContentFilters{Status: status, Limit: limit})
}

// SetValidationOutcome persists the validator-owned fields onto a content
// row: ai_confidence, validation_notes, validated_at. Status is untouched;
// transitions go through TransitionContentStatus.
func (s *Store) SetValidationOutcome(ctx context.Context, id int64, confidence float64, notes string, validatedAt time.Time) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE content SET ai_confidence = ?, validation_notes = ?, validated_at = ? WHERE id = ?`,
		confidence,
		nullableString(notes),
		validatedAt.UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set validation outcome: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("set validation outcome: content %d not found", id)
	}
	return nil
}

// TransitionContentStatus moves a content row from one status to another.
// The write is guarded on the current status, so a terminal row can never
// transition again; returns false when the guard fails or the row is
// absent. Moving to published stamps published_at.
func (s *Store) TransitionContentStatus(ctx context.Context, id int64, from, to ContentStatus, at time.Time) (bool, error) {
	if !from.Valid() || !to.Valid() {
		return false, fmt.Errorf("transition content: invalid statuses %q -> %q", from, to)
	}
	var publishedAt any
	if to == StatusPublished {
		publishedAt = at.UTC().Format(time.RFC3339Nano)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE content
         SET status = ?, published_at = COALESCE(?, published_at)
         WHERE id = ? AND status = ?`,
		string(to),
		publishedAt,
		id,
		string(from),
	)
	if err != nil {
		return false, fmt.Errorf("transition content: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ContentStats returns a count of content rows grouped by status.
func (s *Store) ContentStats(ctx context.Context) (map[ContentStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM content GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("content stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[ContentStatus]int)
	for rows.Next() {
		var status ContentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
	}
	return stats, rows.Err()
}

func scanContent(scanner interface{ Scan(dest ...any) error }) (*Content, error) {
	var (
		id             int64
		sourceItemID   sql.NullInt64
		title          string
		body           string
		category       sql.NullString
		neighborhoodID sql.NullString
		aiConfidence   sql.NullFloat64
		statusStr      string
		createdBy      string
		createdRaw     string
		validatedRaw   sql.NullString
		publishedRaw   sql.NullString
		notes          sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&sourceItemID,
		&title,
		&body,
		&category,
		&neighborhoodID,
		&aiConfidence,
		&statusStr,
		&createdBy,
		&createdRaw,
		&validatedRaw,
		&publishedRaw,
		&notes,
	); err != nil {
		return nil, err
	}
	content := &Content{
		ID:              id,
		Title:           title,
		Body:            body,
		Category:        category.String,
		NeighborhoodID:  neighborhoodID.String,
		Status:          ContentStatus(statusStr),
		CreatedBy:       createdBy,
		ValidationNotes: notes.String,
	}
	if sourceItemID.Valid {
		v := sourceItemID.Int64
		content.SourceItemID = &v
	}
	if aiConfidence.Valid {
		v := aiConfidence.Float64
		content.AIConfidence = &v
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		content.CreatedAt = created
	}
	if validatedRaw.Valid {
		content.ValidatedAt = timePtr(validatedRaw.String)
	}
	if publishedRaw.Valid {
		content.PublishedAt = timePtr(publishedRaw.String)
	}
	return content, nil
}
