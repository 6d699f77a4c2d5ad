// Package validator implements the validation stage: each draft in review
// gets a structured oracle assessment feeding the auto-approval gate.
package validator

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

const (
	// FallbackConfidence is used when the oracle call or its payload fails.
	// Combined with all-false checks and the validation_error flag, it keeps
	// the draft parked in review for a human.
	FallbackConfidence = 0.3
	// FallbackFlag marks assessments that came from the fail-soft default.
	FallbackFlag = "validation_error"
)

// Checks are the boolean dimensions of an oracle assessment.
type Checks struct {
	Accuracy  bool `json:"accuracy"`
	Relevance bool `json:"relevance"`
	Safety    bool `json:"safety"`
	Quality   bool `json:"quality"`
}

// Assessment is the validator's verdict for one draft.
type Assessment struct {
	ContentID  int64
	Confidence float64
	Checks     Checks
	Flags      []string
	Notes      string
}

// Result aggregates one validation pass.
type Result struct {
	Validated   int
	Assessments []Assessment
	Errors      []string
}

// Validator assesses drafts with the AI oracle. It persists ai_confidence
// and validation_notes; status transitions belong to the approval gate.
type Validator struct {
	store   *store.Store
	oracle  *oracle.Client
	workers int
	logger  *slog.Logger
}

// New constructs a validator over the shared store and oracle client.
func New(cfg config.Validator, st *store.Store, client *oracle.Client, logger *slog.Logger) *Validator {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 2
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Validator{
		store:   st,
		oracle:  client,
		workers: workers,
		logger:  logging.NewComponentLogger(logger, "validator"),
	}
}

// ValidateContent assesses the given drafts. Oracle failures degrade to the
// fail-soft assessment and never abort the pass.
func (v *Validator) ValidateContent(ctx context.Context, contents []*store.Content) (*Result, error) {
	type outcome struct {
		assessment *Assessment
		errText    string
	}
	outcomes := make([]outcome, len(contents))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < v.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				assessment, errText := v.validateOne(ctx, contents[idx])
				outcomes[idx] = outcome{assessment: assessment, errText: errText}
			}
		}()
	}
	for idx := range contents {
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
	for _, o := range outcomes {
		if o.assessment != nil {
			result.Validated++
			result.Assessments = append(result.Assessments, *o.assessment)
		}
		if o.errText != "" {
			result.Errors = append(result.Errors, o.errText)
		}
	}
	v.logger.Info("validation finished",
		logging.Int("validated", result.Validated),
		logging.Int("errors", len(result.Errors)))
	if err := ctx.Err(); err != nil {
		return result, services.Wrap(services.ErrTransient, "validate", "run", "canceled", err)
	}
	return result, nil
}

// ValidatePending assesses drafts currently in review. With revisit false,
// drafts that already carry a validation outcome are left alone, so
// repeated passes do not re-spend oracle calls on parked drafts. The
// approval paths pass true: check and flag results are held in memory
// only, so the gate needs a fresh assessment for every pending draft.
func (v *Validator) ValidatePending(ctx context.Context, revisit bool) (*Result, error) {
	pending, err := v.store.ListContent(ctx, store.ContentFilters{
		Status:          store.StatusReview,
		UnvalidatedOnly: !revisit,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "validate", "load pending", "", err)
	}
	return v.ValidateContent(ctx, pending)
}

type assessmentPayload struct {
	Confidence float64  `json:"confidence"`
	Checks     Checks   `json:"checks"`
	Flags      []string `json:"flags"`
	Notes      string   `json:"notes"`
}

// validateOne returns the assessment to feed the approval gate, plus a
// non-empty error string when the fail-soft default was substituted. The
// assessment is nil only when persisting to the store failed.
func (v *Validator) validateOne(ctx context.Context, content *store.Content) (*Assessment, string) {
	contentCtx := ctx
	logger := v.logger.With(logging.Int64(logging.FieldContentID, content.ID))

	assessment, failReason := v.assess(contentCtx, content)
	if failReason != "" {
		logger.Warn("oracle validation failed, using fallback", logging.String("reason", failReason))
	}

	if err := v.store.SetValidationOutcome(contentCtx, content.ID, assessment.Confidence, assessment.Notes, time.Now().UTC()); err != nil {
		return nil, fmt.Sprintf("validate content %d: persist: %v", content.ID, err)
	}
	logger.Info("content validated",
		logging.Float64("confidence", assessment.Confidence),
		logging.Int("flags", len(assessment.Flags)))
	if failReason != "" {
		return &assessment, fmt.Sprintf("validate content %d: %s", content.ID, failReason)
	}
	return &assessment, ""
}

func (v *Validator) assess(ctx context.Context, content *store.Content) (Assessment, string) {
	fallback := Assessment{
		ContentID:  content.ID,
		Confidence: FallbackConfidence,
		Flags:      []string{FallbackFlag},
		Notes:      "automatic validation failed",
	}
	raw, err := v.oracle.CompleteJSON(ctx, "validate draft", validateSystemPrompt, validateUserPrompt(content))
	if err != nil {
		return fallback, fmt.Sprintf("oracle call: %v", err)
	}
	var payload assessmentPayload
	if err := oracle.DecodeJSONPayload(raw, &payload); err != nil {
		return fallback, fmt.Sprintf("decode assessment: %v", err)
	}
	return Assessment{
		ContentID:  content.ID,
		Confidence: clampConfidence(payload.Confidence),
		Checks:     payload.Checks,
		Flags:      payload.Flags,
		Notes:      payload.Notes,
	}, ""
}

func clampConfidence(confidence float64) float64 {
	switch {
	case confidence < 0:
		return 0
	case confidence > 1:
		return 1
	default:
		return confidence
	}
}
