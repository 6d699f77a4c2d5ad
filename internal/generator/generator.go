// Package generator implements the generation stage: qualified items are
// turned into draft content records awaiting validation and review.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gazette/internal/config"
	"gazette/internal/logging"
	"gazette/internal/services"
	"gazette/internal/services/oracle"
	"gazette/internal/store"
)

// Result aggregates one generation pass.
type Result struct {
	Generated  int
	ContentIDs []int64
	Errors     []string
}

// Generator produces drafts from qualified items via the AI oracle.
type Generator struct {
	store   *store.Store
	oracle  *oracle.Client
	workers int
	logger  *slog.Logger
}

// New constructs a generator over the shared store and oracle client.
func New(cfg config.Generator, st *store.Store, client *oracle.Client, logger *slog.Logger) *Generator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Generator{
		store:   st,
		oracle:  client,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "generator"),
	}
}

type itemOutcome struct {
	contentID int64
	errText   string
}

// GenerateAll drafts content for every qualified item not yet consumed by a
// content record. A failed generation is recorded and skipped; no
// half-populated draft is ever written.
func (g *Generator) GenerateAll(ctx context.Context, threshold float64) (*Result, error) {
	items, err := g.store.ListQualifiedItems(ctx, threshold, 0)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "generate", "load qualified items", "", err)
	}
	sources, err := g.loadSources(ctx, items)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "generate", "load sources", "", err)
	}

	outcomes := make([]itemOutcome, len(items))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < g.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				item := items[idx]
				outcomes[idx] = g.generateItem(ctx, item, sources[item.SourceID])
			}
		}()
	}
	for idx := range items {
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

	result := &Result{}
	for _, outcome := range outcomes {
		if outcome.contentID != 0 {
			result.Generated++
			result.ContentIDs = append(result.ContentIDs, outcome.contentID)
		}
		if outcome.errText != "" {
			result.Errors = append(result.Errors, outcome.errText)
		}
	}
	g.logger.Info("generation finished",
		logging.Int("qualified", len(items)),
		logging.Int("generated", result.Generated),
		logging.Int("errors", len(result.Errors)))
	if err := ctx.Err(); err != nil {
		return result, services.Wrap(services.ErrTransient, "generate", "run", "canceled", err)
	}
	return result, nil
}

type draftPayload struct {
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Confidence *float64 `json:"confidence"`
}

// loadSources resolves each item's source once so drafts inherit the
// source's neighborhood. A source deleted mid-run maps to nil and its
// items generate without a neighborhood.
func (g *Generator) loadSources(ctx context.Context, items []*store.Item) (map[int64]*store.Source, error) {
	sources := make(map[int64]*store.Source)
	for _, item := range items {
		if _, seen := sources[item.SourceID]; seen {
			continue
		}
		source, err := g.store.GetSource(ctx, item.SourceID)
		if err != nil {
			return nil, err
		}
		sources[item.SourceID] = source
	}
	return sources, nil
}

func (g *Generator) generateItem(ctx context.Context, item *store.Item, source *store.Source) itemOutcome {
	itemCtx := services.WithItemID(services.WithSourceID(ctx, item.SourceID), item.ID)
	logger := logging.WithContext(itemCtx, g.logger)

	neighborhood := ""
	if source != nil {
		neighborhood = source.NeighborhoodID
	}
	content, err := g.oracle.CompleteJSON(itemCtx, "generate draft", generateSystemPrompt, generateUserPrompt(item, neighborhood))
	if err != nil {
		logger.Warn("draft generation failed", logging.Error(err))
		return itemOutcome{errText: fmt.Sprintf("generate item %d: oracle call: %v", item.ID, err)}
	}
	var payload draftPayload
	if err := oracle.DecodeJSONPayload(content, &payload); err != nil {
		logger.Warn("draft payload undecodable", logging.Error(err))
		return itemOutcome{errText: fmt.Sprintf("generate item %d: decode draft: %v", item.ID, err)}
	}
	if payload.Title == "" || payload.Body == "" {
		logger.Warn("draft payload incomplete")
		return itemOutcome{errText: fmt.Sprintf("generate item %d: draft missing title or body", item.ID)}
	}

	draft := &store.Content{
		SourceItemID:   &item.ID,
		Title:          payload.Title,
		Body:           payload.Body,
		Category:       item.Category,
		NeighborhoodID: neighborhood,
		Status:         store.StatusReview,
		CreatedBy:      "pipeline",
		CreatedAt:      time.Now().UTC(),
		AIConfidence:   payload.Confidence,
	}
	saved, err := g.store.InsertContent(itemCtx, draft)
	if err != nil {
		return itemOutcome{errText: fmt.Sprintf("generate item %d: persist draft: %v", item.ID, err)}
	}
	logger.Info("draft created", logging.Int64(logging.FieldContentID, saved.ID))
	return itemOutcome{contentID: saved.ID}
}
