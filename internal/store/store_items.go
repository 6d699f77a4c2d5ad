package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const itemColumns = "id, source_id, fingerprint, title, link, content_text, published_at, collected_at, raw_score, category, score_note, processed_at"

// InsertItem stores a collected entry. Returns false without error when an
// item with the same fingerprint already exists, which is how repeat
// collection of the same entry becomes a no-op.
func (s *Store) InsertItem(ctx context.Context, item *Item) (bool, error) {
	if item == nil {
		return false, errors.New("item is nil")
	}
	if item.Fingerprint == "" {
		return false, errors.New("item fingerprint is empty")
	}
	collectedAt := item.CollectedAt
	if collectedAt.IsZero() {
		collectedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(
		ctx,
		`INSERT OR IGNORE INTO items (source_id, fingerprint, title, link, content_text, published_at, collected_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		item.SourceID,
		item.Fingerprint,
		item.Title,
		nullableString(item.Link),
		nullableString(item.ContentText),
		nullableTime(item.PublishedAt),
		collectedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return false, fmt.Errorf("insert item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return false, nil
	}
	if id, err := res.LastInsertId(); err == nil {
		item.ID = id
	}
	item.CollectedAt = collectedAt
	return true, nil
}

// GetItem fetches an item by identifier. Returns nil when absent.
func (s *Store) GetItem(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	item, err := scanStoredItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListUnscoredItems returns up to limit items awaiting scoring, oldest
// collected first so nothing starves.
func (s *Store) ListUnscoredItems(ctx context.Context, limit int) ([]*Item, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+itemColumns+` FROM items WHERE raw_score IS NULL ORDER BY collected_at, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unscored items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// SetItemScore records the scoring outcome for an item. The write is
// guarded on raw_score still being null, so a score, once set, never
// changes; a second attempt returns false.
func (s *Store) SetItemScore(ctx context.Context, id int64, score float64, category, note string, processedAt time.Time) (bool, error) {
	if score < 0 || score > 1 {
		return false, fmt.Errorf("set item score: score %v out of range", score)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE items
         SET raw_score = ?, category = ?, score_note = ?, processed_at = ?
         WHERE id = ? AND raw_score IS NULL`,
		score,
		nullableString(category),
		nullableString(note),
		processedAt.UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return false, fmt.Errorf("set item score: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// ListQualifiedItems returns scored items at or above the threshold that no
// content row consumes yet, oldest first. Generation over this set is
// idempotent: once a draft exists for an item, the item stops appearing.
func (s *Store) ListQualifiedItems(ctx context.Context, threshold float64, limit int) ([]*Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i
         WHERE i.raw_score IS NOT NULL AND i.raw_score >= ?
           AND NOT EXISTS (SELECT 1 FROM content c WHERE c.source_item_id = i.id)
         ORDER BY i.collected_at, i.id`
	args := []any{threshold}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list qualified items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// CountItems returns the total number of collected items.
func (s *Store) CountItems(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM items`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return count, nil
}

func collectItems(rows *sql.Rows) ([]*Item, error) {
	var items []*Item
	for rows.Next() {
		item, err := scanStoredItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func scanStoredItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           int64
		sourceID     int64
		fingerprint  string
		title        string
		link         sql.NullString
		contentText  sql.NullString
		publishedRaw sql.NullString
		collectedRaw string
		rawScore     sql.NullFloat64
		category     sql.NullString
		scoreNote    sql.NullString
		processedRaw sql.NullString
	)
	if err := scanner.Scan(
		&id,
		&sourceID,
		&fingerprint,
		&title,
		&link,
		&contentText,
		&publishedRaw,
		&collectedRaw,
		&rawScore,
		&category,
		&scoreNote,
		&processedRaw,
	); err != nil {
		return nil, err
	}
	item := &Item{
		ID:          id,
		SourceID:    sourceID,
		Fingerprint: fingerprint,
		Title:       title,
		Link:        link.String,
		ContentText: contentText.String,
		Category:    category.String,
		ScoreNote:   scoreNote.String,
	}
	if rawScore.Valid {
		score := rawScore.Float64
		item.RawScore = &score
	}
	if publishedRaw.Valid {
		item.PublishedAt = timePtr(publishedRaw.String)
	}
	if collected, err := parseTimeString(collectedRaw); err == nil {
		item.CollectedAt = collected
	}
	if processedRaw.Valid {
		item.ProcessedAt = timePtr(processedRaw.String)
	}
	return item, nil
}
