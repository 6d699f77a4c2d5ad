// Package notifications sends ntfy push notifications for pipeline events.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gazette/internal/config"
	"gazette/internal/store"
)

const userAgent = "Gazette/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyRunStarted(ctx context.Context, runID, mode string) error
	NotifyRunCompleted(ctx context.Context, run *store.Run, duration time.Duration) error
	NotifyReviewPending(ctx context.Context, count int) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		runs:     cfg.Notifications.Runs,
		review:   cfg.Notifications.Review,
		errors:   cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
	runs     bool
	review   bool
	errors   bool
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, runID, mode string) error {
	if !n.runs {
		return nil
	}
	data := payload{
		title:   "Gazette - Run Started",
		message: fmt.Sprintf("Pipeline run %s started (mode %s)", runID, mode),
		tags:    []string{"gazette", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, run *store.Run, duration time.Duration) error {
	if !n.runs || run == nil {
		return nil
	}
	duration = duration.Round(time.Second)
	if duration <= 0 {
		duration = time.Second
	}

	var title string
	if run.Success {
		title = "Gazette - Run Complete"
	} else {
		title = "Gazette - Run Failed"
	}
	message := fmt.Sprintf(
		"Run %s (%s) in %s: collected %d, scored %d, generated %d, validated %d, published %d",
		run.RunID, run.Mode, duration,
		run.Collected, run.Scored, run.Generated, run.Validated, run.Published,
	)
	if len(run.Errors) > 0 {
		message = fmt.Sprintf("%s\n%d item errors", message, len(run.Errors))
	}

	data := payload{
		title:   title,
		message: message,
		tags:    []string{"gazette", "run", "completed"},
	}
	if !run.Success {
		data.priority = "high"
		data.tags = []string{"gazette", "run", "failed"}
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyReviewPending(ctx context.Context, count int) error {
	if !n.review || count <= 0 {
		return nil
	}
	data := payload{
		title:   "Gazette - Review Pending",
		message: fmt.Sprintf("%d drafts waiting in the review queue", count),
		tags:    []string{"gazette", "review", "pending"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errors {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Gazette - Error",
		message:  builder.String(),
		tags:     []string{"gazette", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Gazette - Test",
		message:  "Notification system test",
		tags:     []string{"gazette", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyRunStarted(context.Context, string, string) error { return nil }
func (noopService) NotifyRunCompleted(context.Context, *store.Run, time.Duration) error {
	return nil
}
func (noopService) NotifyReviewPending(context.Context, int) error  { return nil }
func (noopService) NotifyError(context.Context, error, string) error { return nil }
func (noopService) TestNotification(context.Context) error           { return nil }
