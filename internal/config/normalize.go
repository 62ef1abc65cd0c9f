package config

import (
	"os"
	"strings"
)

// normalize expands paths, trims string settings, and applies environment
// fallbacks before validation runs.
func (c *Config) normalize() error {
	var err error
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return err
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}

	c.LLM.APIKey = strings.TrimSpace(c.LLM.APIKey)
	if c.LLM.APIKey == "" {
		c.LLM.APIKey = strings.TrimSpace(os.Getenv("OPENROUTER_API_KEY"))
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
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}

	if c.Pipeline.MaxAttempts <= 0 {
		c.Pipeline.MaxAttempts = defaultMaxAttempts
	}
	if c.Pipeline.RetryBaseSeconds <= 0 {
		c.Pipeline.RetryBaseSeconds = defaultRetryBaseSeconds
	}
	if c.Pipeline.RetryMaxSeconds <= 0 {
		c.Pipeline.RetryMaxSeconds = defaultRetryMaxSeconds
	}
	if c.Pipeline.SubmitTimeoutSeconds <= 0 {
		c.Pipeline.SubmitTimeoutSeconds = defaultSubmitTimeoutSeconds
	}

	if c.Sink.RetryAttempts <= 0 {
		c.Sink.RetryAttempts = defaultSinkRetryAttempts
	}
	if c.Sink.RetryBaseMS <= 0 {
		c.Sink.RetryBaseMS = defaultSinkRetryBaseMS
	}

	c.Rules.BannedTags = normalizeList(c.Rules.BannedTags)
	c.Rules.BannedTerms = normalizeList(c.Rules.BannedTerms)
	expressions := make([]RuleExpression, 0, len(c.Rules.Expressions))
	for _, expr := range c.Rules.Expressions {
		expr.Name = strings.TrimSpace(expr.Name)
		expr.Expression = strings.TrimSpace(expr.Expression)
		expr.Reason = strings.TrimSpace(expr.Reason)
		if expr.Name == "" && expr.Expression == "" {
			continue
		}
		expressions = append(expressions, expr)
	}
	c.Rules.Expressions = expressions

	if c.Breaker.FailureThreshold <= 0 {
		c.Breaker.FailureThreshold = defaultBreakerThreshold
	}
	if c.Breaker.OpenSeconds <= 0 {
		c.Breaker.OpenSeconds = defaultBreakerOpenSeconds
	}

	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)

	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}

	return nil
}

func normalizeList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		normalized := strings.ToLower(strings.TrimSpace(value))
		if normalized == "" {
			continue
		}
		if _, ok := seen[normalized]; ok {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}
