// Package store manages gazette persistence backed by SQLite.
//
// Four tables share one database: sources (feed registry), items (collected
// entries, unique by fingerprint), content (generated drafts, indexed by
// status), and pipeline_runs (the append-only run ledger). Writes are narrow
// and column-scoped: each pipeline stage updates only the fields it owns, so
// stages never contend on the same columns.
package store
