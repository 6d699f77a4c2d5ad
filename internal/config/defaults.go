package config

const (
	defaultDataDir             = "~/.local/share/gazette"
	defaultLogDir              = "~/.local/share/gazette/logs"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLLMBaseURL          = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel            = "google/gemini-3-flash-preview"
	defaultLLMReferer          = "https://github.com/gazette-news/gazette"
	defaultLLMTitle            = "Gazette Pipeline"
	defaultLLMMaxTokens        = 2048
	defaultLLMTimeoutSeconds   = 60
	defaultLLMRetryAttempts    = 3
	defaultCollectorWorkers    = 4
	defaultFetchTimeoutSeconds = 30
	defaultMaxItemsPerFeed     = 50
	defaultScorerBatchSize     = 20
	defaultScorerWorkers       = 4
	defaultQualifyThreshold    = 0.6
	defaultGeneratorWorkers    = 2
	defaultValidatorWorkers    = 2
	defaultApprovalConfidence  = 0.85
	defaultNotifyTimeout       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			MaxTokens:      defaultLLMMaxTokens,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
			RetryAttempts:  defaultLLMRetryAttempts,
		},
		Collector: Collector{
			Workers:             defaultCollectorWorkers,
			FetchTimeoutSeconds: defaultFetchTimeoutSeconds,
			MaxItemsPerFeed:     defaultMaxItemsPerFeed,
		},
		Scorer: Scorer{
			BatchSize:        defaultScorerBatchSize,
			Workers:          defaultScorerWorkers,
			QualifyThreshold: defaultQualifyThreshold,
		},
		Generator: Generator{
			Workers: defaultGeneratorWorkers,
		},
		Validator: Validator{
			Workers: defaultValidatorWorkers,
		},
		Approval: Approval{
			MinConfidence: defaultApprovalConfidence,
		},
		Schedule: Schedule{
			Times: []string{"06:00", "12:00", "18:00"},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Runs:           true,
			Review:         true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
