// Package approval implements the auto-approval gate: the single
// authoritative owner of content status transitions out of review.
package approval

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gazette/internal/config"
	"gazette/internal/logging"
	"gazette/internal/services"
	"gazette/internal/store"
	"gazette/internal/validator"
)

// Gate decides, from a validator assessment, whether a draft publishes
// automatically. It also carries the explicit human approve/reject paths so
// every status transition funnels through one place.
type Gate struct {
	store         *store.Store
	minConfidence float64
	logger        *slog.Logger
}

// New constructs the gate with the configured approval policy.
func New(cfg config.Approval, st *store.Store, logger *slog.Logger) *Gate {
	minConfidence := cfg.MinConfidence
	if minConfidence <= 0 || minConfidence > 1 {
		minConfidence = 0.85
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gate{
		store:         st,
		minConfidence: minConfidence,
		logger:        logging.NewComponentLogger(logger, "approval"),
	}
}

// Decide is the pure approval policy: confidence at or above the threshold,
// accuracy and safety checks passing, and no flags raised. Low-confidence
// drafts are never auto-rejected; they stay in review for a human.
func (g *Gate) Decide(assessment validator.Assessment) bool {
	return assessment.Confidence >= g.minConfidence &&
		assessment.Checks.Accuracy &&
		assessment.Checks.Safety &&
		len(assessment.Flags) == 0
}

// Result aggregates one gate pass over validator assessments.
type Result struct {
	Published int
	Remaining int
	Errors    []string
}

// Apply evaluates each assessment and publishes the drafts that pass.
// Drafts that do not pass are left untouched in review.
func (g *Gate) Apply(ctx context.Context, assessments []validator.Assessment) (*Result, error) {
	result := &Result{}
	for _, assessment := range assessments {
		if !g.Decide(assessment) {
			result.Remaining++
			g.logger.Info("draft held for review",
				logging.Int64(logging.FieldContentID, assessment.ContentID),
				logging.Float64("confidence", assessment.Confidence),
				logging.Int("flags", len(assessment.Flags)))
			continue
		}
		ok, err := g.store.TransitionContentStatus(ctx, assessment.ContentID, store.StatusReview, store.StatusPublished, time.Now().UTC())
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("publish content %d: %v", assessment.ContentID, err))
			continue
		}
		if !ok {
			// Already moved by a human or a concurrent run.
			result.Remaining++
			continue
		}
		result.Published++
		g.logger.Info("draft auto-published",
			logging.Int64(logging.FieldContentID, assessment.ContentID),
			logging.Float64("confidence", assessment.Confidence))
	}
	if err := ctx.Err(); err != nil {
		return result, services.Wrap(services.ErrTransient, "publish", "run", "canceled", err)
	}
	return result, nil
}

// Approve is the explicit human approval path: review to published.
func (g *Gate) Approve(ctx context.Context, contentID int64) error {
	return g.transition(ctx, contentID, store.StatusPublished, "approve")
}

// Reject is the explicit human rejection path: review to rejected. The
// reason is appended to the draft's validation notes for the audit trail.
func (g *Gate) Reject(ctx context.Context, contentID int64, reason string) error {
	if err := g.transition(ctx, contentID, store.StatusRejected, "reject"); err != nil {
		return err
	}
	if reason != "" {
		content, err := g.store.GetContent(ctx, contentID)
		if err != nil || content == nil {
			return nil
		}
		notes := content.ValidationNotes
		if notes != "" {
			notes += "\n"
		}
		notes += "rejected: " + reason
		if err := g.store.SetValidationOutcome(ctx, contentID, confidenceOrFallback(content), notes, time.Now().UTC()); err != nil {
			g.logger.Warn("record rejection reason", logging.Error(err))
		}
	}
	return nil
}

func (g *Gate) transition(ctx context.Context, contentID int64, to store.ContentStatus, op string) error {
	content, err := g.store.GetContent(ctx, contentID)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "publish", op, "", err)
	}
	if content == nil {
		return services.Wrap(services.ErrNotFound, "publish", op, fmt.Sprintf("content %d", contentID), nil)
	}
	if content.Status != store.StatusReview {
		return services.Wrap(services.ErrValidation, "publish", op,
			fmt.Sprintf("content %d is %s, not review", contentID, content.Status), nil)
	}
	ok, err := g.store.TransitionContentStatus(ctx, contentID, store.StatusReview, to, time.Now().UTC())
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "publish", op, "", err)
	}
	if !ok {
		return services.Wrap(services.ErrValidation, "publish", op,
			fmt.Sprintf("content %d left review concurrently", contentID), nil)
	}
	g.logger.Info("status transition",
		logging.Int64(logging.FieldContentID, contentID),
		logging.String("to", string(to)),
		logging.String("by", op))
	return nil
}

func confidenceOrFallback(content *store.Content) float64 {
	if content.AIConfidence != nil {
		return *content.AIConfidence
	}
	return validator.FallbackConfidence
}
