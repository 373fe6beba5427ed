package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/valpere/revtran/internal/llm"
)

// EnvPrefix is prepended to environment overrides, e.g. REVTRAN_MODEL_API_KEY.
const EnvPrefix = "REVTRAN"

type Config struct {
	Model      llm.Config       `mapstructure:"model"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Translator TranslatorConfig `mapstructure:"translator"`
	Pipeline   PipelineConfig   `mapstructure:"pipeline"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
	Store      StoreConfig      `mapstructure:"store"`
	Feedback   FeedbackConfig   `mapstructure:"feedback"`
}

type ClassifierConfig struct {
	// Mode is "model" (a second model call per review) or "exact" (literal NONE).
	Mode string `mapstructure:"mode"`
	// Model overrides model.name for classification calls.
	Model string `mapstructure:"model"`
}

type TranslatorConfig struct {
	// Service is "llm" or "google".
	Service       string `mapstructure:"service"`
	Credentials   string `mapstructure:"credentials"`
	ProjectID     string `mapstructure:"project_id"`
	ProtectMarkup bool   `mapstructure:"protect_markup"`
}

type PipelineConfig struct {
	MaxConcurrency int `mapstructure:"max_concurrency"`
	// FailurePolicy is "keep-original" or "fail-document".
	FailurePolicy string `mapstructure:"failure_policy"`
	// BlockTimeout bounds one block's run; zero means no limit.
	BlockTimeout time.Duration `mapstructure:"block_timeout"`
}

type LLMConfig struct {
	// MaxAttempts counts the first call; 1 disables retries.
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
	// RequestsPerSecond of zero disables rate limiting.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type LoggingConfig struct {
	Mode  string `mapstructure:"mode"`
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Exporter is "stdout" or "otlp".
	Exporter string `mapstructure:"exporter"`
	// Endpoint is the OTLP/HTTP collector address, host:port.
	Endpoint string `mapstructure:"endpoint"`
}

type StoreConfig struct {
	DBPath  string `mapstructure:"db_path"`
	NoCache bool   `mapstructure:"no_cache"`
}

type FeedbackConfig struct {
	// File is an optional YAML file of per-pair feedback.
	File string `mapstructure:"file"`
}

func Default() *Config {
	return &Config{
		Model: llm.Config{
			Provider: "ollama",
			Name:     "gemma2:27b",
			BaseURL:  "http://localhost:11434",
			Timeout:  2 * time.Minute,
		},
		Classifier: ClassifierConfig{
			Mode: "model",
		},
		Translator: TranslatorConfig{
			Service:       "llm",
			ProtectMarkup: true,
		},
		Pipeline: PipelineConfig{
			MaxConcurrency: 4,
			FailurePolicy:  "keep-original",
		},
		LLM: LLMConfig{
			MaxAttempts: 3,
			RetryDelay:  2 * time.Second,
			Burst:       1,
		},
		Logging: LoggingConfig{
			Mode:  "dev",
			Level: "warn",
		},
		Tracing: TracingConfig{
			Exporter: "stdout",
			Endpoint: "localhost:4318",
		},
		Store: StoreConfig{
			DBPath: "./data/revtran.db",
		},
	}
}

// SetDefaults registers every key with viper so env overrides and Unmarshal
// see the full key set.
func SetDefaults() {
	d := Default()

	viper.SetDefault("model.provider", d.Model.Provider)
	viper.SetDefault("model.name", d.Model.Name)
	viper.SetDefault("model.base_url", d.Model.BaseURL)
	viper.SetDefault("model.api_key", d.Model.APIKey)
	viper.SetDefault("model.timeout", d.Model.Timeout)

	viper.SetDefault("classifier.mode", d.Classifier.Mode)
	viper.SetDefault("classifier.model", d.Classifier.Model)

	viper.SetDefault("translator.service", d.Translator.Service)
	viper.SetDefault("translator.credentials", d.Translator.Credentials)
	viper.SetDefault("translator.project_id", d.Translator.ProjectID)
	viper.SetDefault("translator.protect_markup", d.Translator.ProtectMarkup)

	viper.SetDefault("pipeline.max_concurrency", d.Pipeline.MaxConcurrency)
	viper.SetDefault("pipeline.failure_policy", d.Pipeline.FailurePolicy)
	viper.SetDefault("pipeline.block_timeout", d.Pipeline.BlockTimeout)

	viper.SetDefault("llm.max_attempts", d.LLM.MaxAttempts)
	viper.SetDefault("llm.retry_delay", d.LLM.RetryDelay)
	viper.SetDefault("llm.requests_per_second", d.LLM.RequestsPerSecond)
	viper.SetDefault("llm.burst", d.LLM.Burst)

	viper.SetDefault("logging.mode", d.Logging.Mode)
	viper.SetDefault("logging.level", d.Logging.Level)

	viper.SetDefault("tracing.enabled", d.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", d.Tracing.Exporter)
	viper.SetDefault("tracing.endpoint", d.Tracing.Endpoint)

	viper.SetDefault("store.db_path", d.Store.DBPath)
	viper.SetDefault("store.no_cache", d.Store.NoCache)

	viper.SetDefault("feedback.file", d.Feedback.File)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "revtran")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".revtran"
	}
	return filepath.Join(home, ".config", "revtran")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
