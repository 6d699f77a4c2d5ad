package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validateStages(); err != nil {
		return err
	}
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLLM() error {
	if c.LLM.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/gazette/config.toml"
		}
		return fmt.Errorf("llm.api_key is required. Set GAZETTE_LLM_API_KEY env var or edit %s (create with 'gazette config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateStages() error {
	if err := ensurePositiveMap(map[string]int{
		"collector.workers":               c.Collector.Workers,
		"collector.fetch_timeout_seconds": c.Collector.FetchTimeoutSeconds,
		"collector.max_items_per_feed":    c.Collector.MaxItemsPerFeed,
		"scorer.batch_size":               c.Scorer.BatchSize,
		"scorer.workers":                  c.Scorer.Workers,
		"generator.workers":               c.Generator.Workers,
		"validator.workers":               c.Validator.Workers,
		"llm.timeout_seconds":             c.LLM.TimeoutSeconds,
		"llm.retry_attempts":              c.LLM.RetryAttempts,
	}); err != nil {
		return err
	}
	if c.Scorer.QualifyThreshold < 0 || c.Scorer.QualifyThreshold > 1 {
		return errors.New("scorer.qualify_threshold must be between 0 and 1")
	}
	if c.Approval.MinConfidence < 0 || c.Approval.MinConfidence > 1 {
		return errors.New("approval.min_confidence must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateSchedule() error {
	for _, value := range c.Schedule.Times {
		if _, err := time.Parse("15:04", value); err != nil {
			return fmt.Errorf("schedule.times: %q is not a valid HH:MM clock time", value)
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
