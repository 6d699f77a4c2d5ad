// Package scorer implements the scoring stage: each unscored item is rated
// for relevance by the AI oracle and categorized, exactly once.
package scorer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"gazette/internal/config"
	"gazette/internal/logging"
	"gazette/internal/services"
	"gazette/internal/services/oracle"
	"gazette/internal/store"
)

const (
	// FallbackScore is persisted when the oracle call or its payload fails.
	// It sits below every sane qualification threshold, so failed items are
	// never forwarded for generation.
	FallbackScore = 0.3
	// FallbackCategory accompanies FallbackScore.
	FallbackCategory = "other"
)

// Result aggregates one scoring pass.
type Result struct {
	Processed         int
	Qualified         int
	QualificationRate float64
	Errors            []string
}

// Scorer rates collected items with the AI oracle.
type Scorer struct {
	store     *store.Store
	oracle    *oracle.Client
	batchSize int
	workers   int
	threshold float64
	logger    *slog.Logger
}

// New constructs a scorer over the shared store and oracle client.
func New(cfg config.Scorer, st *store.Store, client *oracle.Client, logger *slog.Logger) *Scorer {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}
	threshold := cfg.QualifyThreshold
	if threshold <= 0 || threshold > 1 {
		threshold = 0.6
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scorer{
		store:     st,
		oracle:    client,
		batchSize: batchSize,
		workers:   workers,
		threshold: threshold,
		logger:    logging.NewComponentLogger(logger, "scorer"),
	}
}

// Threshold returns the qualification threshold in effect.
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

type itemOutcome struct {
	processed bool
	qualified bool
	errText   string
}

// ScoreBatch rates one batch of unscored items, oldest first. Oracle
// failures degrade to the fail-soft default and never abort the batch;
// only a store failure is fatal.
func (s *Scorer) ScoreBatch(ctx context.Context) (*Result, error) {
	items, err := s.store.ListUnscoredItems(ctx, s.batchSize)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "score", "load batch", "", err)
	}

	outcomes := make([]itemOutcome, len(items))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				outcomes[idx] = s.scoreItem(ctx, items[idx])
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
		if outcome.processed {
			result.Processed++
		}
		if outcome.qualified {
			result.Qualified++
		}
		if outcome.errText != "" {
			result.Errors = append(result.Errors, outcome.errText)
		}
	}
	if result.Processed > 0 {
		result.QualificationRate = float64(result.Qualified) / float64(result.Processed)
	}
	s.logger.Info("scoring finished",
		logging.Int("processed", result.Processed),
		logging.Int("qualified", result.Qualified),
		logging.Float64("qualification_rate", result.QualificationRate))
	if err := ctx.Err(); err != nil {
		return result, services.Wrap(services.ErrTransient, "score", "run", "canceled", err)
	}
	return result, nil
}

type scorePayload struct {
	Score           float64  `json:"score"`
	Category        string   `json:"category"`
	NeighborhoodIDs []string `json:"neighborhood_ids"`
	Reasoning       string   `json:"reasoning"`
}

func (s *Scorer) scoreItem(ctx context.Context, item *store.Item) itemOutcome {
	outcome := itemOutcome{}
	itemCtx := services.WithItemID(services.WithSourceID(ctx, item.SourceID), item.ID)
	logger := logging.WithContext(itemCtx, s.logger)

	score, category, note := s.rate(itemCtx, item)
	if note != "" {
		outcome.errText = fmt.Sprintf("score item %d: %s", item.ID, note)
		logger.Warn("oracle scoring failed, using fallback", logging.String("reason", note))
	}

	wrote, err := s.store.SetItemScore(itemCtx, item.ID, score, category, note, time.Now().UTC())
	if err != nil {
		outcome.errText = fmt.Sprintf("score item %d: persist: %v", item.ID, err)
		return outcome
	}
	if !wrote {
		// Another run scored this item first; its score stands.
		logger.Debug("item already scored, skipping")
		return outcome
	}
	outcome.processed = true
	outcome.qualified = note == "" && score >= s.threshold
	logger.Info("item scored",
		logging.Float64("score", score),
		logging.String("category", category),
		logging.Bool("qualified", outcome.qualified))
	return outcome
}

// rate calls the oracle and decodes its verdict, returning the fail-soft
// default plus a failure note when anything goes wrong.
func (s *Scorer) rate(ctx context.Context, item *store.Item) (float64, string, string) {
	content, err := s.oracle.CompleteJSON(ctx, "score item", scoreSystemPrompt, scoreUserPrompt(item))
	if err != nil {
		return FallbackScore, FallbackCategory, fmt.Sprintf("oracle call: %v", err)
	}
	var payload scorePayload
	if err := oracle.DecodeJSONPayload(content, &payload); err != nil {
		return FallbackScore, FallbackCategory, fmt.Sprintf("decode verdict: %v", err)
	}
	return clampScore(payload.Score), normalizeCategory(payload.Category), ""
}

func clampScore(score float64) float64 {
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

func normalizeCategory(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return FallbackCategory
	}
	return category
}
