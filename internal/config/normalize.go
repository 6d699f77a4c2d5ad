package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLLM()
	c.normalizeStages()
	c.normalizeSchedule()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLLM() {
	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		if value, ok := os.LookupEnv("GAZETTE_LLM_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok {
			c.LLM.APIKey = strings.TrimSpace(value)
		}
	}
	c.LLM.BaseURL = strings.TrimSpace(c.LLM.BaseURL)
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	c.LLM.Referer = strings.TrimSpace(c.LLM.Referer)
	c.LLM.Title = strings.TrimSpace(c.LLM.Title)
	if c.LLM.MaxTokens <= 0 {
		c.LLM.MaxTokens = defaultLLMMaxTokens
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
	if c.LLM.RetryAttempts <= 0 {
		c.LLM.RetryAttempts = defaultLLMRetryAttempts
	}
}

func (c *Config) normalizeStages() {
	if c.Collector.Workers <= 0 {
		c.Collector.Workers = defaultCollectorWorkers
	}
	if c.Collector.FetchTimeoutSeconds <= 0 {
		c.Collector.FetchTimeoutSeconds = defaultFetchTimeoutSeconds
	}
	if c.Collector.MaxItemsPerFeed <= 0 {
		c.Collector.MaxItemsPerFeed = defaultMaxItemsPerFeed
	}
	if c.Scorer.BatchSize <= 0 {
		c.Scorer.BatchSize = defaultScorerBatchSize
	}
	if c.Scorer.Workers <= 0 {
		c.Scorer.Workers = defaultScorerWorkers
	}
	if c.Scorer.QualifyThreshold == 0 {
		c.Scorer.QualifyThreshold = defaultQualifyThreshold
	}
	if c.Generator.Workers <= 0 {
		c.Generator.Workers = defaultGeneratorWorkers
	}
	if c.Validator.Workers <= 0 {
		c.Validator.Workers = defaultValidatorWorkers
	}
	if c.Approval.MinConfidence == 0 {
		c.Approval.MinConfidence = defaultApprovalConfidence
	}
}

func (c *Config) normalizeSchedule() {
	times := make([]string, 0, len(c.Schedule.Times))
	seen := make(map[string]struct{}, len(c.Schedule.Times))
	for _, value := range c.Schedule.Times {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		times = append(times, trimmed)
	}
	c.Schedule.Times = times
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
