package sources

import (
	"context"
	"errors"
	"testing"

	"gazette/internal/services"
	"gazette/internal/store"
	"gazette/internal/testsupport"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	return NewRegistry(testsupport.MustOpenStore(t), nil)
}

func TestUpsertRejectsBadInput(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		source *store.Source
	}{
		{"missing name", &store.Source{URL: "https://example.com/feed", Priority: 5}},
		{"malformed url", &store.Source{Name: "a", URL: "not a url", Priority: 5}},
		{"bad scheme", &store.Source{Name: "a", URL: "ftp://example.com/feed", Priority: 5}},
		{"priority too low", &store.Source{Name: "a", URL: "https://example.com/feed", Priority: 0}},
		{"priority too high", &store.Source{Name: "a", URL: "https://example.com/feed", Priority: 11}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := registry.Upsert(ctx, tc.source); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestUpsertInsertAndUpdate(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	saved, err := registry.Upsert(ctx, &store.Source{
		Name:     "Neighborhood Times",
		URL:      "https://example.com/feed.xml",
		Priority: 7,
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("upsert insert: %v", err)
	}
	if saved.ID == 0 {
		t.Fatal("expected assigned id")
	}

	saved.Priority = 3
	updated, err := registry.Upsert(ctx, saved)
	if err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	if updated.Priority != 3 {
		t.Fatalf("priority = %d, want 3", updated.Priority)
	}

	missing := &store.Source{ID: 999, Name: "ghost", URL: "https://example.com/x", Priority: 5}
	if _, err := registry.Upsert(ctx, missing); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestToggleAndDelete(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	saved, err := registry.Upsert(ctx, &store.Source{
		Name:     "Times",
		URL:      "https://example.com/feed.xml",
		Priority: 5,
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if err := registry.Toggle(ctx, saved.ID, false); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	enabled, err := registry.List(ctx, true)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(enabled) != 0 {
		t.Fatalf("enabled sources = %d, want 0", len(enabled))
	}

	if err := registry.Delete(ctx, saved.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := registry.Delete(ctx, saved.ID); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := registry.Toggle(ctx, saved.ID, true); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRecordFetchOutcomeDelegates(t *testing.T) {
	registry := newTestRegistry(t)
	ctx := context.Background()

	saved, err := registry.Upsert(ctx, &store.Source{
		Name:     "Times",
		URL:      "https://example.com/feed.xml",
		Priority: 5,
		Enabled:  true,
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := registry.RecordFetchOutcome(ctx, saved.ID, false, errors.New("dns failure")); err != nil {
		t.Fatalf("record outcome: %v", err)
	}
	got, err := registry.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FetchCount != 1 || got.ErrorCount != 1 || got.LastError != "dns failure" {
		t.Fatalf("health counters = %+v", got)
	}
}
