// Package sources implements the feed registry: administrator-managed feed
// configurations plus the Collector-owned health counters.
package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"gazette/internal/logging"
	"gazette/internal/services"
	"gazette/internal/store"
)

const (
	// MinPriority and MaxPriority bound the administrator-assigned fetch priority.
	MinPriority = 1
	MaxPriority = 10
)

// Registry validates and persists feed configurations.
type Registry struct {
	store  *store.Store
	logger *slog.Logger
}

// NewRegistry constructs a registry over the shared store.
func NewRegistry(st *store.Store, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Registry{
		store:  st,
		logger: logging.NewComponentLogger(logger, "sources"),
	}
}

// List returns configured sources ordered by descending priority. With
// enabledOnly set, disabled sources are excluded.
func (r *Registry) List(ctx context.Context, enabledOnly bool) ([]*store.Source, error) {
	sources, err := r.store.ListSources(ctx, enabledOnly)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "sources", "list", "", err)
	}
	return sources, nil
}

// Get fetches a source by identifier.
func (r *Registry) Get(ctx context.Context, id int64) (*store.Source, error) {
	source, err := r.store.GetSource(ctx, id)
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "sources", "get", "", err)
	}
	if source == nil {
		return nil, services.Wrap(services.ErrNotFound, "sources", "get", fmt.Sprintf("source %d", id), nil)
	}
	return source, nil
}

// Upsert validates the source and inserts it (ID zero) or updates the
// existing row. Malformed URLs and out-of-range priorities are rejected
// synchronously; nothing is coerced.
func (r *Registry) Upsert(ctx context.Context, source *store.Source) (*store.Source, error) {
	if source == nil {
		return nil, services.Wrap(services.ErrValidation, "sources", "upsert", "source is nil", nil)
	}
	if err := validateSource(source); err != nil {
		return nil, err
	}

	var (
		saved *store.Source
		err   error
	)
	if source.ID == 0 {
		saved, err = r.store.InsertSource(ctx, source)
	} else {
		saved, err = r.store.UpdateSource(ctx, source)
	}
	if err != nil {
		return nil, services.Wrap(services.ErrUnavailable, "sources", "upsert", "", err)
	}
	if saved == nil {
		return nil, services.Wrap(services.ErrNotFound, "sources", "upsert", fmt.Sprintf("source %d", source.ID), nil)
	}
	r.logger.Info("source saved",
		logging.Int64(logging.FieldSourceID, saved.ID),
		logging.String("name", saved.Name),
		logging.Bool("enabled", saved.Enabled))
	return saved, nil
}

// Toggle enables or disables a source.
func (r *Registry) Toggle(ctx context.Context, id int64, enabled bool) error {
	ok, err := r.store.SetSourceEnabled(ctx, id, enabled)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "sources", "toggle", "", err)
	}
	if !ok {
		return services.Wrap(services.ErrNotFound, "sources", "toggle", fmt.Sprintf("source %d", id), nil)
	}
	r.logger.Info("source toggled",
		logging.Int64(logging.FieldSourceID, id),
		logging.Bool("enabled", enabled))
	return nil
}

// Delete removes a source and its collected items.
func (r *Registry) Delete(ctx context.Context, id int64) error {
	ok, err := r.store.DeleteSource(ctx, id)
	if err != nil {
		return services.Wrap(services.ErrUnavailable, "sources", "delete", "", err)
	}
	if !ok {
		return services.Wrap(services.ErrNotFound, "sources", "delete", fmt.Sprintf("source %d", id), nil)
	}
	r.logger.Info("source deleted", logging.Int64(logging.FieldSourceID, id))
	return nil
}

// RecordFetchOutcome updates a source's health counters after a fetch
// attempt. The Collector is the only caller; every other component reads
// the counters through List/Get.
func (r *Registry) RecordFetchOutcome(ctx context.Context, id int64, success bool, fetchErr error) error {
	message := ""
	if fetchErr != nil {
		message = fetchErr.Error()
	}
	if err := r.store.RecordFetchOutcome(ctx, id, success, message, time.Now().UTC()); err != nil {
		return services.Wrap(services.ErrUnavailable, "sources", "record fetch outcome", "", err)
	}
	return nil
}

func validateSource(source *store.Source) error {
	if strings.TrimSpace(source.Name) == "" {
		return services.Wrap(services.ErrValidation, "sources", "upsert", "name is required", nil)
	}
	parsed, err := url.Parse(strings.TrimSpace(source.URL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return services.Wrap(services.ErrValidation, "sources", "upsert", fmt.Sprintf("malformed url %q", source.URL), nil)
	}
	if source.Priority < MinPriority || source.Priority > MaxPriority {
		return services.Wrap(services.ErrValidation, "sources", "upsert",
			fmt.Sprintf("priority %d out of range [%d,%d]", source.Priority, MinPriority, MaxPriority), nil)
	}
	return nil
}
