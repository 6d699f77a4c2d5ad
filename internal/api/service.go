package api

import (
	"context"
	"log/slog"

	"gazette/internal/approval"
	"gazette/internal/pipeline"
	"gazette/internal/services"
	"gazette/internal/sources"
	"gazette/internal/store"
)

// ReviewFilters narrows review-queue listings.
type ReviewFilters struct {
	Category       string
	NeighborhoodID string
	Limit          int
}

// Service exposes the pipeline's command surface.
type Service struct {
	store        *store.Store
	registry     *sources.Registry
	gate         *approval.Gate
	orchestrator *pipeline.Orchestrator
	logger       *slog.Logger
}

// NewService wires the facade over its collaborators.
func NewService(st *store.Store, registry *sources.Registry, gate *approval.Gate, orchestrator *pipeline.Orchestrator, logger *slog.Logger) *Service {
	return &Service{
		store:        st,
		registry:     registry,
		gate:         gate,
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// TriggerPipeline runs one pipeline invocation in the given mode and
// returns its ledger record.
func (s *Service) TriggerPipeline(ctx context.Context, mode string) (*store.Run, error) {
	parsed, err := pipeline.ParseMode(mode)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "api", "trigger pipeline", err.Error(), nil)
	}
	return s.orchestrator.Run(ctx, parsed)
}

// ApproveContent publishes a draft on explicit human approval.
func (s *Service) ApproveContent(ctx context.Context, id int64) error {
	return s.gate.Approve(ctx, id)
}

// RejectContent rejects a draft on explicit human decision.
func (s *Service) RejectContent(ctx context.Context, id int64, reason string) error {
	return s.gate.Reject(ctx, id, reason)
}

// ListReviewQueue returns drafts awaiting review, oldest first.
func (s *Service) ListReviewQueue(ctx context.Context, filters ReviewFilters) ([]*store.Content, error) {
	contents, err := s.store.ListContent(ctx, store.ContentFilters{
		Status:         store.StatusReview,
		Category:       filters.Category,
		NeighborhoodID: filters.NeighborhoodID,
		Limit:          filters.Limit,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "api", "list review queue", "", err)
	}
	return contents, nil
}

// GetContent fetches a single content record.
func (s *Service) GetContent(ctx context.Context, id int64) (*store.Content, error) {
	content, err := s.store.GetContent(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "api", "get content", "", err)
	}
	if content == nil {
		return nil, services.Wrap(services.ErrNotFound, "api", "get content", "", nil)
	}
	return content, nil
}

// GetRunHistory returns the most recent pipeline runs, newest first.
func (s *Service) GetRunHistory(ctx context.Context, limit int) ([]*store.Run, error) {
	runs, err := s.store.ListRuns(ctx, limit)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "api", "run history", "", err)
	}
	return runs, nil
}

// ListSources returns configured sources with their health counters.
func (s *Service) ListSources(ctx context.Context, enabledOnly bool) ([]*store.Source, error) {
	return s.registry.List(ctx, enabledOnly)
}

// UpsertSource creates or updates a source configuration.
func (s *Service) UpsertSource(ctx context.Context, source *store.Source) (*store.Source, error) {
	return s.registry.Upsert(ctx, source)
}

// ToggleSource enables or disables a source.
func (s *Service) ToggleSource(ctx context.Context, id int64, enabled bool) error {
	return s.registry.Toggle(ctx, id, enabled)
}

// DeleteSource removes a source and its collected items.
func (s *Service) DeleteSource(ctx context.Context, id int64) error {
	return s.registry.Delete(ctx, id)
}

// CheckHealth reports database diagnostics.
func (s *Service) CheckHealth(ctx context.Context) (store.DatabaseHealth, error) {
	return s.store.CheckHealth(ctx)
}
