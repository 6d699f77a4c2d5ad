// Package scheduler triggers pipeline runs at configured local clock times.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gazette/internal/config"
	"gazette/internal/logging"
)

type clockTime struct {
	hour   int
	minute int
}

// TriggerFunc starts one pipeline run. Errors are logged, not propagated;
// the schedule keeps going.
type TriggerFunc func(ctx context.Context) error

// Scheduler fires a trigger at fixed times of day.
type Scheduler struct {
	times   []clockTime
	trigger TriggerFunc
	logger  *slog.Logger
	now     func() time.Time
}

// Option customizes the scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// New parses the configured trigger times and builds a scheduler.
func New(cfg config.Schedule, trigger TriggerFunc, logger *slog.Logger, opts ...Option) (*Scheduler, error) {
	if len(cfg.Times) == 0 {
		return nil, fmt.Errorf("schedule: no trigger times configured")
	}
	times := make([]clockTime, 0, len(cfg.Times))
	for _, value := range cfg.Times {
		var ct clockTime
		if _, err := fmt.Sscanf(value, "%d:%d", &ct.hour, &ct.minute); err != nil {
			return nil, fmt.Errorf("schedule: parse time %q: %w", value, err)
		}
		if ct.hour < 0 || ct.hour > 23 || ct.minute < 0 || ct.minute > 59 {
			return nil, fmt.Errorf("schedule: time %q out of range", value)
		}
		times = append(times, ct)
	}
	sort.Slice(times, func(i, j int) bool {
		if times[i].hour != times[j].hour {
			return times[i].hour < times[j].hour
		}
		return times[i].minute < times[j].minute
	})
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scheduler{
		times:   times,
		trigger: trigger,
		logger:  logging.NewComponentLogger(logger, "scheduler"),
		now:     time.Now,
	}, nil
}

// Next returns the first trigger instant strictly after the given time.
func (s *Scheduler) Next(after time.Time) time.Time {
	for _, ct := range s.times {
		candidate := time.Date(after.Year(), after.Month(), after.Day(), ct.hour, ct.minute, 0, 0, after.Location())
		if candidate.After(after) {
			return candidate
		}
	}
	first := s.times[0]
	tomorrow := after.AddDate(0, 0, 1)
	return time.Date(tomorrow.Year(), tomorrow.Month(), tomorrow.Day(), first.hour, first.minute, 0, 0, after.Location())
}

// Run blocks, firing the trigger at each scheduled time until the context
// is canceled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.now()
		next := s.Next(now)
		s.logger.Info("next run scheduled", logging.String("at", next.Format(time.RFC3339)))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := s.trigger(ctx); err != nil {
			s.logger.Error("scheduled run failed", logging.Error(err))
		}
	}
}
