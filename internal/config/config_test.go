package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	if errs := cfg.Validate(); len(errs) > 0 {
		t.Fatalf("default config should validate, got %v", ValidationErrors(errs))
	}
	if cfg.Pipeline.FailurePolicy != "keep-original" {
		t.Errorf("Pipeline.FailurePolicy = %q, want keep-original", cfg.Pipeline.FailurePolicy)
	}
	if cfg.Classifier.Mode != "model" {
		t.Errorf("Classifier.Mode = %q, want model", cfg.Classifier.Mode)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
model:
  provider: openrouter
  name: qwen/qwen2.5-72b-instruct
  timeout: 30s
pipeline:
  max_concurrency: 8
  failure_policy: fail-document
  block_timeout: 5m
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	SetDefaults()
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	t.Setenv("REVTRAN_MODEL_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model.Provider != "openrouter" || cfg.Model.APIKey != "sk-test" {
		t.Errorf("unexpected model config %+v", cfg.Model)
	}
	if cfg.Model.Timeout != 30*time.Second {
		t.Errorf("Model.Timeout = %v, want 30s", cfg.Model.Timeout)
	}
	if cfg.Pipeline.MaxConcurrency != 8 || cfg.Pipeline.BlockTimeout != 5*time.Minute {
		t.Errorf("unexpected pipeline config %+v", cfg.Pipeline)
	}
	// untouched keys keep their defaults
	if cfg.LLM.MaxAttempts != 3 {
		t.Errorf("LLM.MaxAttempts = %d, want 3", cfg.LLM.MaxAttempts)
	}
}

func TestLoad_Invalid(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set("pipeline.max_concurrency", 0)
	viper.Set("classifier.mode", "vibes")

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 2 {
		t.Errorf("expected 2 errors, got %d: %v", len(verrs), verrs)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"provider", func(c *Config) { c.Model.Provider = "bard" }, "model.provider"},
		{"model name", func(c *Config) { c.Model.Name = "" }, "model.name"},
		{"service", func(c *Config) { c.Translator.Service = "deepl" }, "translator.service"},
		{"policy", func(c *Config) { c.Pipeline.FailurePolicy = "retry" }, "pipeline.failure_policy"},
		{"block timeout", func(c *Config) { c.Pipeline.BlockTimeout = -time.Second }, "pipeline.block_timeout"},
		{"attempts", func(c *Config) { c.LLM.MaxAttempts = 0 }, "llm.max_attempts"},
		{"burst", func(c *Config) { c.LLM.RequestsPerSecond = 2; c.LLM.Burst = 0 }, "llm.burst"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"exporter", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.Exporter = "jaeger" }, "tracing.exporter"},
		{"endpoint", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.Exporter = "otlp"; c.Tracing.Endpoint = "" }, "tracing.endpoint"},
		{"db path", func(c *Config) { c.Store.DBPath = "" }, "store.db_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if len(errs) != 1 {
				t.Fatalf("expected 1 error, got %v", ValidationErrors(errs))
			}
			if errs[0].Field != tt.field {
				t.Errorf("Field = %q, want %q", errs[0].Field, tt.field)
			}
		})
	}
}

func TestValidate_DisabledTracingIgnoresExporter(t *testing.T) {
	cfg := Default()
	cfg.Tracing.Exporter = "jaeger"
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("expected no errors, got %v", ValidationErrors(errs))
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "a", Value: 1, Message: "bad"},
		{Field: "b", Value: 2, Message: "worse"},
	}
	got := errs.Error()
	if !strings.HasPrefix(got, "2 validation errors:") || !strings.Contains(got, "b: worse (got: 2)") {
		t.Errorf("unexpected message %q", got)
	}
}

func TestConfigDir(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := ConfigDir(); got != filepath.Join("/tmp/xdg", "revtran") {
		t.Errorf("ConfigDir() = %q", got)
	}
	if got := ConfigFile(); got != filepath.Join("/tmp/xdg", "revtran", "config.yaml") {
		t.Errorf("ConfigFile() = %q", got)
	}
}
