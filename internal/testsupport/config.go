// Package testsupport provides shared helpers for package tests: temp-dir
// configs, throwaway stores, and httptest-backed oracle and feed stubs.
package testsupport

import (
	"path/filepath"
	"testing"

	"gazette/internal/config"
	"gazette/internal/store"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.LLM.APIKey = "test"
	cfg.LLM.BaseURL = "http://127.0.0.1:0/unused"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithLLMBaseURL points the oracle client at a stub server.
func WithLLMBaseURL(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.LLM.BaseURL = baseURL
	}
}

// WithWorkers sets every stage's worker pool width.
func WithWorkers(workers int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Collector.Workers = workers
		cfg.Scorer.Workers = workers
		cfg.Generator.Workers = workers
		cfg.Validator.Workers = workers
	}
}

// MustOpenStore opens a store in a per-test temp directory and closes it
// during cleanup.
func MustOpenStore(t testing.TB) *store.Store {
	t.Helper()
	st, err := store.OpenPath(filepath.Join(t.TempDir(), "gazette.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}

// MustOpenStoreWithConfig opens a store under the config's data directory.
func MustOpenStoreWithConfig(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	return st
}
