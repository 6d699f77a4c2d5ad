package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultsValidateWithAPIKey(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "test-key"
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Collector.Workers != defaultCollectorWorkers {
		t.Fatalf("collector workers = %d, want %d", cfg.Collector.Workers, defaultCollectorWorkers)
	}
	if cfg.Scorer.QualifyThreshold != defaultQualifyThreshold {
		t.Fatalf("qualify threshold = %f, want %f", cfg.Scorer.QualifyThreshold, defaultQualifyThreshold)
	}
}

func TestValidateRejectsMissingAPIKey(t *testing.T) {
	t.Setenv("GAZETTE_LLM_API_KEY", "")
	t.Setenv("OPENROUTER_API_KEY", "")

	cfg := Default()
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing api key")
	}
	if !strings.Contains(err.Error(), "llm.api_key") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsBadScheduleTime(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "test-key"
	cfg.Schedule.Times = []string{"25:99"}
	if err := cfg.normalize(); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for bad schedule time")
	}
}

func TestValidateRejectsThresholdOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.LLM.APIKey = "test-key"
	cfg.Scorer.QualifyThreshold = 1.5
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for out-of-range threshold")
	}
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[llm]
api_key = "from-file"
model = "test/model"

[collector]
workers = 8

[logging]
format = "JSON"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be reported as existing")
	}
	if resolved != path {
		t.Fatalf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.LLM.APIKey != "from-file" {
		t.Fatalf("api key = %q", cfg.LLM.APIKey)
	}
	if cfg.LLM.Model != "test/model" {
		t.Fatalf("model = %q", cfg.LLM.Model)
	}
	if cfg.Collector.Workers != 8 {
		t.Fatalf("collector workers = %d", cfg.Collector.Workers)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging format = %q", cfg.Logging.Format)
	}
	// Untouched sections keep defaults.
	if cfg.Scorer.BatchSize != defaultScorerBatchSize {
		t.Fatalf("scorer batch size = %d", cfg.Scorer.BatchSize)
	}
}

func TestLoadMissingFileFallsBackToEnv(t *testing.T) {
	t.Setenv("GAZETTE_LLM_API_KEY", "env-key")

	cfg, _, exists, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if cfg.LLM.APIKey != "env-key" {
		t.Fatalf("api key = %q, want env fallback", cfg.LLM.APIKey)
	}
}

func TestCreateSampleParses(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("create sample: %v", err)
	}
	t.Setenv("GAZETTE_LLM_API_KEY", "env-key")
	if _, _, _, err := Load(path); err != nil {
		t.Fatalf("load sample: %v", err)
	}
}
