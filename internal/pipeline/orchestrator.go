// Package pipeline sequences the five content stages into auditable runs.
// The orchestrator is the only component aware of cross-stage ordering;
// every invocation writes exactly one row to the run ledger.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"gazette/internal/approval"
	"gazette/internal/collector"
	"gazette/internal/config"
	"gazette/internal/feed"
	"gazette/internal/generator"
	"gazette/internal/logging"
	"gazette/internal/notifications"
	"gazette/internal/scorer"
	"gazette/internal/services"
	"gazette/internal/services/oracle"
	"gazette/internal/sources"
	"gazette/internal/store"
	"gazette/internal/validator"
)

// Deps bundles the stage components an orchestrator drives.
type Deps struct {
	Registry  *sources.Registry
	Collector *collector.Collector
	Scorer    *scorer.Scorer
	Generator *generator.Generator
	Validator *validator.Validator
	Gate      *approval.Gate
	Notifier  notifications.Service
}

// DefaultDeps wires the standard stage components from configuration.
func DefaultDeps(cfg *config.Config, st *store.Store, logger *slog.Logger) Deps {
	registry := sources.NewRegistry(st, logger)
	client := oracle.NewClient(cfg.LLM)
	return Deps{
		Registry:  registry,
		Collector: collector.New(cfg.Collector, registry, st, feed.NewFetcher(cfg.Collector), logger),
		Scorer:    scorer.New(cfg.Scorer, st, client, logger),
		Generator: generator.New(cfg.Generator, st, client, logger),
		Validator: validator.New(cfg.Validator, st, client, logger),
		Gate:      approval.New(cfg.Approval, st, logger),
		Notifier:  notifications.NewService(cfg),
	}
}

// Orchestrator drives pipeline runs.
type Orchestrator struct {
	store    *store.Store
	deps     Deps
	lockPath string
	logger   *slog.Logger
}

// New constructs an orchestrator. lockPath guards against overlapping runs;
// pass "" to disable the lease.
func New(st *store.Store, deps Deps, lockPath string, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(&config.Config{})
	}
	return &Orchestrator{
		store:    st,
		deps:     deps,
		lockPath: lockPath,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Run executes one pipeline invocation in the given mode. Item-level
// failures accumulate into the run's error list; the run fails only when a
// stage is unreachable outright or the context is canceled. The ledger row
// is written in every case, including aborts.
func (o *Orchestrator) Run(ctx context.Context, mode Mode) (*store.Run, error) {
	if o.lockPath != "" {
		lease := flock.New(o.lockPath)
		locked, err := lease.TryLock()
		if err != nil {
			return nil, services.Wrap(services.ErrUnavailable, "pipeline", "acquire lease", o.lockPath, err)
		}
		if !locked {
			return nil, services.Wrap(services.ErrValidation, "pipeline", "acquire lease", "another run is in progress", nil)
		}
		defer func() { _ = lease.Unlock() }()
	}

	run := &store.Run{
		RunID:     uuid.NewString(),
		Mode:      string(mode),
		StartedAt: time.Now().UTC(),
		Success:   true,
	}
	runCtx := services.WithRunID(ctx, run.RunID)
	logger := logging.WithContext(runCtx, o.logger)
	logger.Info("run started", logging.String("mode", string(mode)))
	_ = o.deps.Notifier.NotifyRunStarted(runCtx, run.RunID, string(mode))

	fatal := o.execute(runCtx, mode, run, logger)

	completed := time.Now().UTC()
	run.CompletedAt = &completed
	if fatal != nil {
		run.Success = false
		run.Errors = append(run.Errors, fatal.Error())
	}
	// The ledger write itself must not depend on the (possibly canceled)
	// run context.
	if err := o.store.InsertRun(context.WithoutCancel(runCtx), run); err != nil {
		logger.Error("write run ledger", logging.Error(err))
		if fatal == nil {
			fatal = services.Wrap(services.ErrUnavailable, "pipeline", "write ledger", "", err)
		}
	}

	logger.Info("run finished",
		logging.Bool("success", run.Success),
		logging.Int("collected", run.Collected),
		logging.Int("scored", run.Scored),
		logging.Int("generated", run.Generated),
		logging.Int("validated", run.Validated),
		logging.Int("published", run.Published),
		logging.Int("errors", len(run.Errors)),
		logging.Duration("duration", completed.Sub(run.StartedAt)))
	_ = o.deps.Notifier.NotifyRunCompleted(context.WithoutCancel(runCtx), run, completed.Sub(run.StartedAt))
	o.notifyReviewBacklog(context.WithoutCancel(runCtx), mode)

	return run, fatal
}

// execute drives the stages for the chosen mode. It returns the first
// fatal error; item-level failures are already folded into run.Errors.
func (o *Orchestrator) execute(ctx context.Context, mode Mode, run *store.Run, logger *slog.Logger) error {
	var assessments []validator.Assessment

	if mode == ModeCollect || mode == ModeFull {
		stageCtx := services.WithStage(ctx, "collect")
		result, err := o.deps.Collector.Collect(stageCtx)
		if result != nil {
			run.Collected = result.Collected
			run.Errors = append(run.Errors, result.Errors...)
		}
		if fatal := classify(err); fatal != nil {
			return fatal
		}
	}

	if mode == ModeScore || mode == ModeFull {
		stageCtx := services.WithStage(ctx, "score")
		result, err := o.deps.Scorer.ScoreBatch(stageCtx)
		if result != nil {
			run.Scored = result.Processed
			run.Errors = append(run.Errors, result.Errors...)
		}
		if fatal := classify(err); fatal != nil {
			return fatal
		}
	}

	if mode == ModeGenerate || mode == ModeFull {
		stageCtx := services.WithStage(ctx, "generate")
		result, err := o.deps.Generator.GenerateAll(stageCtx, o.deps.Scorer.Threshold())
		if result != nil {
			run.Generated = result.Generated
			run.Errors = append(run.Errors, result.Errors...)
		}
		if fatal := classify(err); fatal != nil {
			return fatal
		}
	}

	if mode == ModeValidate || mode == ModePublish || mode == ModeFull {
		stageCtx := services.WithStage(ctx, "validate")
		// The gate modes re-assess parked drafts because check/flag
		// verdicts only exist in memory; plain validate skips them.
		revisit := mode == ModePublish || mode == ModeFull
		result, err := o.deps.Validator.ValidatePending(stageCtx, revisit)
		if result != nil {
			run.Validated = result.Validated
			run.Errors = append(run.Errors, result.Errors...)
			assessments = result.Assessments
		}
		if fatal := classify(err); fatal != nil {
			return fatal
		}
	}

	if mode == ModePublish || mode == ModeFull {
		stageCtx := services.WithStage(ctx, "publish")
		result, err := o.deps.Gate.Apply(stageCtx, assessments)
		if result != nil {
			run.Published = result.Published
			run.Errors = append(run.Errors, result.Errors...)
		}
		if fatal := classify(err); fatal != nil {
			return fatal
		}
	}

	return nil
}

// classify decides whether a stage error aborts the run. Infrastructure
// failures and cancellation are fatal; anything else was already recorded
// per item and the run continues.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if services.IsFatal(err) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func (o *Orchestrator) notifyReviewBacklog(ctx context.Context, mode Mode) {
	if mode != ModeValidate && mode != ModePublish && mode != ModeFull {
		return
	}
	pending, err := o.store.ListContentByStatus(ctx, store.StatusReview, 0)
	if err != nil {
		return
	}
	_ = o.deps.Notifier.NotifyReviewPending(ctx, len(pending))
}
