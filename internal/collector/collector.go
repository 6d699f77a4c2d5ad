// Package collector implements the collection stage: every enabled source
// is fetched, parsed, and deduplicated into the item store.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gazette/internal/config"
	"gazette/internal/feed"
	"gazette/internal/logging"
	"gazette/internal/services"
	"gazette/internal/sources"
	"gazette/internal/store"
	"gazette/internal/textutil"
)

// SourceResult reports collection for one source.
type SourceResult struct {
	SourceID   int64
	SourceName string
	Collected  int
	Skipped    int
	Errors     []string
}

// Result aggregates a collection pass. Collected is the sum of per-source
// counts, so the total is identical no matter in which order sources finish.
type Result struct {
	Collected int
	PerSource []SourceResult
	Errors    []string
}

// Collector fetches enabled sources with a bounded worker pool. One dead
// source never aborts collection; its failure degrades only that source's
// health counters.
type Collector struct {
	registry *sources.Registry
	store    *store.Store
	fetcher  *feed.Fetcher
	workers  int
	logger   *slog.Logger
}

// New constructs a collector over the shared store and registry.
func New(cfg config.Collector, registry *sources.Registry, st *store.Store, fetcher *feed.Fetcher, logger *slog.Logger) *Collector {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Collector{
		registry: registry,
		store:    st,
		fetcher:  fetcher,
		workers:  workers,
		logger:   logging.NewComponentLogger(logger, "collector"),
	}
}

// Collect fetches every enabled source, highest priority first, and stores
// entries not seen before. Returns ErrUnavailable only when the store or
// registry itself is unreachable.
func (c *Collector) Collect(ctx context.Context) (*Result, error) {
	enabled, err := c.registry.List(ctx, true)
	if err != nil {
		return nil, err
	}

	// Results land in a slice indexed by source order, so the merge is
	// deterministic regardless of worker completion order.
	perSource := make([]SourceResult, len(enabled))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < c.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				perSource[idx] = c.collectSource(ctx, enabled[idx])
			}
		}()
	}
	for idx := range enabled {
		select {
		case jobs <- idx:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}
	}
	close(jobs)
	wg.Wait()

	result := &Result{PerSource: perSource}
	for _, sr := range perSource {
		result.Collected += sr.Collected
		result.Errors = append(result.Errors, sr.Errors...)
	}
	c.logger.Info("collection finished",
		logging.Int("sources", len(enabled)),
		logging.Int("collected", result.Collected),
		logging.Int("errors", len(result.Errors)))
	if err := ctx.Err(); err != nil {
		return result, services.Wrap(services.ErrTransient, "collect", "run", "canceled", err)
	}
	return result, nil
}

func (c *Collector) collectSource(ctx context.Context, source *store.Source) SourceResult {
	result := SourceResult{SourceID: source.ID, SourceName: source.Name}
	srcCtx := services.WithSourceID(ctx, source.ID)
	logger := logging.WithContext(srcCtx, c.logger)

	entries, err := c.fetcher.Fetch(srcCtx, source.URL)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("source %d (%s): %v", source.ID, source.Name, err))
		logger.Warn("feed fetch failed", logging.Error(err))
		if recErr := c.registry.RecordFetchOutcome(srcCtx, source.ID, false, err); recErr != nil {
			result.Errors = append(result.Errors, recErr.Error())
		}
		return result
	}

	now := time.Now().UTC()
	for _, entry := range entries {
		fingerprint := textutil.ItemFingerprint(source.ID, entry.Link, entry.Title)
		if fingerprint == "" {
			result.Skipped++
			continue
		}
		item := &store.Item{
			SourceID:    source.ID,
			Fingerprint: fingerprint,
			Title:       entry.Title,
			Link:        entry.Link,
			ContentText: entry.Content,
			PublishedAt: entry.PublishedAt,
			CollectedAt: now,
		}
		inserted, err := c.store.InsertItem(srcCtx, item)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("source %d (%s): store item: %v", source.ID, source.Name, err))
			continue
		}
		if inserted {
			result.Collected++
		} else {
			result.Skipped++
		}
	}

	logger.Info("source collected",
		logging.Int("entries", len(entries)),
		logging.Int("new", result.Collected),
		logging.Int("skipped", result.Skipped))
	if recErr := c.registry.RecordFetchOutcome(srcCtx, source.ID, true, nil); recErr != nil {
		result.Errors = append(result.Errors, recErr.Error())
	}
	return result
}
