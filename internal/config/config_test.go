package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, path, exists, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if exists {
		t.Fatal("expected exists=false for missing file")
	}
	if path == "" {
		t.Fatal("expected resolved path")
	}
	if cfg.Pipeline.MaxAttempts != defaultMaxAttempts {
		t.Fatalf("expected default max attempts, got %d", cfg.Pipeline.MaxAttempts)
	}
	if cfg.Logging.Format != "console" {
		t.Fatalf("expected console format, got %q", cfg.Logging.Format)
	}
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[paths]
state_dir = "` + filepath.Join(dir, "state") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[llm]
api_key = "  key  "
model = "test/model"

[pipeline]
max_attempts = 5

[rules]
banned_tags = ["Violence", "violence", " GORE "]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
	if cfg.LLM.APIKey != "key" {
		t.Fatalf("expected trimmed api key, got %q", cfg.LLM.APIKey)
	}
	if cfg.Pipeline.MaxAttempts != 5 {
		t.Fatalf("expected max attempts 5, got %d", cfg.Pipeline.MaxAttempts)
	}
	if got := cfg.Rules.BannedTags; len(got) != 2 || got[0] != "violence" || got[1] != "gore" {
		t.Fatalf("expected deduped lowercase banned tags, got %v", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{
			name:   "confidence out of range",
			mutate: func(c *Config) { c.Rules.MinConfidence = 1.5 },
			want:   "min_confidence",
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Logging.Format = "yaml" },
			want:   "logging.format",
		},
		{
			name:   "retry max below base",
			mutate: func(c *Config) { c.Pipeline.RetryBaseSeconds = 5; c.Pipeline.RetryMaxSeconds = 1 },
			want:   "retry_max_seconds",
		},
		{
			name: "cel expression without name",
			mutate: func(c *Config) {
				c.Rules.Expressions = []RuleExpression{{Expression: "true"}}
			},
			want: "must have a name",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			if err := cfg.normalize(); err != nil {
				t.Fatalf("normalize: %v", err)
			}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	if _, _, exists, err := Load(path); err != nil || !exists {
		t.Fatalf("expected sample config to load, exists=%v err=%v", exists, err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}
	got, err := ExpandPath("~/x")
	if err != nil {
		t.Fatalf("ExpandPath: %v", err)
	}
	if got != filepath.Join(home, "x") {
		t.Fatalf("expected %s, got %s", filepath.Join(home, "x"), got)
	}
}
