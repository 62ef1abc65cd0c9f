package config

const (
	defaultStateDir             = "~/.local/share/burnish/state"
	defaultLogDir               = "~/.local/share/burnish/logs"
	defaultAPIBind              = "127.0.0.1:7815"
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLLMBaseURL           = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel             = "google/gemini-3-flash-preview"
	defaultLLMReferer           = "https://github.com/burnish-dev/burnish"
	defaultLLMTitle             = "Burnish Metadata Enrichment"
	defaultLLMTimeoutSeconds    = 30
	defaultMaxAttempts          = 3
	defaultRetryBaseSeconds     = 1.0
	defaultRetryMaxSeconds      = 10.0
	defaultSubmitTimeoutSeconds = 120
	defaultSinkRetryAttempts    = 3
	defaultSinkRetryBaseMS      = 50
	defaultMinConfidence        = 0.5
	defaultTitleMinLength       = 3
	defaultTitleMaxLength       = 120
	defaultMaxTags              = 12
	defaultBreakerThreshold     = 5
	defaultBreakerOpenSeconds   = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Pipeline: Pipeline{
			MaxAttempts:          defaultMaxAttempts,
			RetryBaseSeconds:     defaultRetryBaseSeconds,
			RetryMaxSeconds:      defaultRetryMaxSeconds,
			SubmitTimeoutSeconds: defaultSubmitTimeoutSeconds,
		},
		Sink: Sink{
			RetryAttempts: defaultSinkRetryAttempts,
			RetryBaseMS:   defaultSinkRetryBaseMS,
		},
		Rules: Rules{
			MinConfidence:  defaultMinConfidence,
			TitleMinLength: defaultTitleMinLength,
			TitleMaxLength: defaultTitleMaxLength,
			MaxTags:        defaultMaxTags,
			BannedTags:     []string{"violence", "gore", "explicit"},
		},
		Breaker: Breaker{
			FailureThreshold: defaultBreakerThreshold,
			OpenSeconds:      defaultBreakerOpenSeconds,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Accepted:       true,
			Rejected:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
