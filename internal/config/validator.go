package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "pipeline.max_concurrency")
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

func ValidProviders() []string      { return []string{"ollama", "openrouter", "openai"} }
func ValidClassifierModes() []string { return []string{"model", "exact"} }
func ValidServices() []string        { return []string{"llm", "google"} }
func ValidFailurePolicies() []string { return []string{"keep-original", "fail-document"} }
func ValidLogModes() []string        { return []string{"dev", "prod"} }
func ValidLogLevels() []string       { return []string{"debug", "info", "warn", "error"} }
func ValidExporters() []string       { return []string{"stdout", "otlp"} }

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	oneOf := func(field, value string, valid []string) {
		if !slices.Contains(valid, strings.ToLower(value)) {
			errs = append(errs, ValidationError{
				Field:   field,
				Value:   value,
				Message: "must be one of " + strings.Join(valid, ", "),
			})
		}
	}

	oneOf("model.provider", c.Model.Provider, ValidProviders())
	if c.Model.Name == "" {
		errs = append(errs, ValidationError{Field: "model.name", Value: c.Model.Name, Message: "must be set"})
	}
	if c.Model.Timeout < 0 {
		errs = append(errs, ValidationError{Field: "model.timeout", Value: c.Model.Timeout, Message: "must not be negative"})
	}

	oneOf("classifier.mode", c.Classifier.Mode, ValidClassifierModes())
	oneOf("translator.service", c.Translator.Service, ValidServices())

	if c.Pipeline.MaxConcurrency < 1 {
		errs = append(errs, ValidationError{Field: "pipeline.max_concurrency", Value: c.Pipeline.MaxConcurrency, Message: "must be at least 1"})
	}
	oneOf("pipeline.failure_policy", c.Pipeline.FailurePolicy, ValidFailurePolicies())
	if c.Pipeline.BlockTimeout < 0 {
		errs = append(errs, ValidationError{Field: "pipeline.block_timeout", Value: c.Pipeline.BlockTimeout, Message: "must not be negative"})
	}

	if c.LLM.MaxAttempts < 1 {
		errs = append(errs, ValidationError{Field: "llm.max_attempts", Value: c.LLM.MaxAttempts, Message: "must be at least 1"})
	}
	if c.LLM.RetryDelay < 0 {
		errs = append(errs, ValidationError{Field: "llm.retry_delay", Value: c.LLM.RetryDelay, Message: "must not be negative"})
	}
	if c.LLM.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{Field: "llm.requests_per_second", Value: c.LLM.RequestsPerSecond, Message: "must not be negative"})
	}
	if c.LLM.RequestsPerSecond > 0 && c.LLM.Burst < 1 {
		errs = append(errs, ValidationError{Field: "llm.burst", Value: c.LLM.Burst, Message: "must be at least 1 when rate limiting"})
	}

	oneOf("logging.mode", c.Logging.Mode, ValidLogModes())
	oneOf("logging.level", c.Logging.Level, ValidLogLevels())

	if c.Tracing.Enabled {
		oneOf("tracing.exporter", c.Tracing.Exporter, ValidExporters())
		if strings.EqualFold(c.Tracing.Exporter, "otlp") && c.Tracing.Endpoint == "" {
			errs = append(errs, ValidationError{Field: "tracing.endpoint", Value: c.Tracing.Endpoint, Message: "required for the otlp exporter"})
		}
	}

	if !c.Store.NoCache && c.Store.DBPath == "" {
		errs = append(errs, ValidationError{Field: "store.db_path", Value: c.Store.DBPath, Message: "required unless store.no_cache is set"})
	}

	return errs
}
