package store

import "time"

// ContentStatus represents where a generated draft sits in its lifecycle.
type ContentStatus string

const (
	// StatusReview marks a draft awaiting validation or human action.
	StatusReview ContentStatus = "review"
	// StatusPublished marks approved content. Terminal.
	StatusPublished ContentStatus = "published"
	// StatusRejected marks content a human declined. Terminal.
	StatusRejected ContentStatus = "rejected"
)

// IsTerminal reports whether the status permits no further transitions.
func (s ContentStatus) IsTerminal() bool {
	return s == StatusPublished || s == StatusRejected
}

// Valid reports whether the status is one of the known lifecycle states.
func (s ContentStatus) Valid() bool {
	switch s {
	case StatusReview, StatusPublished, StatusRejected:
		return true
	default:
		return false
	}
}

// Source is a configured feed with Collector-owned health counters.
type Source struct {
	ID             int64
	Name           string
	URL            string
	CategoryHint   string
	NeighborhoodID string
	Priority       int
	Enabled        bool
	LastFetched    *time.Time
	FetchCount     int64
	ErrorCount     int64
	LastError      string
}

// Item is a collected feed entry. RawScore is null until the Scorer writes
// it exactly once; the row is never mutated again after that.
type Item struct {
	ID          int64
	SourceID    int64
	Fingerprint string
	Title       string
	Link        string
	ContentText string
	PublishedAt *time.Time
	CollectedAt time.Time
	RawScore    *float64
	Category    string
	ScoreNote   string
	ProcessedAt *time.Time
}

// Scored reports whether the Scorer has already processed this item.
func (i *Item) Scored() bool {
	return i != nil && i.RawScore != nil
}

// Content is a generated draft flowing through review toward publication.
type Content struct {
	ID              int64
	SourceItemID    *int64
	Title           string
	Body            string
	Category        string
	NeighborhoodID  string
	AIConfidence    *float64
	Status          ContentStatus
	CreatedBy       string
	CreatedAt       time.Time
	ValidatedAt     *time.Time
	PublishedAt     *time.Time
	ValidationNotes string
}

// Run is one row of the append-only pipeline run ledger.
type Run struct {
	RunID       string
	Mode        string
	StartedAt   time.Time
	CompletedAt *time.Time
	Collected   int
	Scored      int
	Generated   int
	Validated   int
	Published   int
	Errors      []string
	Success     bool
}

// DatabaseHealth carries diagnostic information about the database file.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	TablesPresent    []string
	MissingTables    []string
	IntegrityCheck   bool
	TotalItems       int
	TotalContent     int
	TotalRuns        int
	Error            string
}
