package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration consistency. It assumes normalize has already
// run, so unset values carry their defaults.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if err := c.validateLLM(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateRules(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLLM() error {
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		return errors.New("llm.base_url must be set")
	}
	if strings.TrimSpace(c.LLM.Model) == "" {
		return errors.New("llm.model must be set")
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return errors.New("llm.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MaxAttempts < 1 {
		return errors.New("pipeline.max_attempts must be >= 1")
	}
	if c.Pipeline.RetryBaseSeconds <= 0 {
		return errors.New("pipeline.retry_base_seconds must be positive")
	}
	if c.Pipeline.RetryMaxSeconds < c.Pipeline.RetryBaseSeconds {
		return errors.New("pipeline.retry_max_seconds must be >= pipeline.retry_base_seconds")
	}
	if c.Pipeline.SubmitTimeoutSeconds <= 0 {
		return errors.New("pipeline.submit_timeout_seconds must be positive")
	}
	if c.Sink.RetryAttempts < 1 {
		return errors.New("sink.retry_attempts must be >= 1")
	}
	return nil
}

func (c *Config) validateRules() error {
	if c.Rules.MinConfidence < 0 || c.Rules.MinConfidence > 1 {
		return errors.New("rules.min_confidence must be between 0 and 1")
	}
	if c.Rules.TitleMinLength < 0 {
		return errors.New("rules.title_min_length must be >= 0")
	}
	if c.Rules.TitleMaxLength > 0 && c.Rules.TitleMaxLength < c.Rules.TitleMinLength {
		return errors.New("rules.title_max_length must be >= rules.title_min_length")
	}
	if c.Rules.MaxTags < 0 {
		return errors.New("rules.max_tags must be >= 0")
	}
	for _, expr := range c.Rules.Expressions {
		if expr.Name == "" {
			return errors.New("rules.expressions entries must have a name")
		}
		if expr.Expression == "" {
			return fmt.Errorf("rules.expressions %q must have an expression", expr.Name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
