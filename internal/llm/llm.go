// Package llm provides the chat model clients used by every pipeline stage
// and decorators for retrying and rate limiting them.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrEmptyResponse is returned when a model answers with no content.
var ErrEmptyResponse = errors.New("empty response from model")

// Model generates a completion for a system and user prompt.
type Model interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// JSONModel is implemented by models that can constrain output to a JSON
// object.
type JSONModel interface {
	Model
	GenerateJSON(ctx context.Context, system, user string) (string, error)
}

// GenerateJSON uses JSON mode when m supports it and plain generation
// otherwise.
func GenerateJSON(ctx context.Context, m Model, system, user string) (string, error) {
	if jm, ok := m.(JSONModel); ok {
		return jm.GenerateJSON(ctx, system, user)
	}
	return m.Generate(ctx, system, user)
}

// HTTPError is a non-2xx answer from a model endpoint.
type HTTPError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *HTTPError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("API returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, body)
}

// Retryable reports whether the status is worth another attempt.
func (e *HTTPError) Retryable() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusRequestTimeout,
		http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// Config selects and configures a model client.
type Config struct {
	Provider string        `mapstructure:"provider" json:"provider"`
	Name     string        `mapstructure:"name" json:"name"`
	BaseURL  string        `mapstructure:"base_url" json:"base_url"`
	APIKey   string        `mapstructure:"api_key" json:"-"`
	Timeout  time.Duration `mapstructure:"timeout" json:"timeout"`
}

// New builds the client for cfg.Provider: "ollama", "openrouter" or "openai".
func New(cfg Config) (Model, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "ollama":
		return NewOllama(cfg.BaseURL, cfg.Name, cfg.Timeout), nil
	case "openrouter":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenRouter API key required")
		}
		base := cfg.BaseURL
		if base == "" {
			base = OpenRouterBaseURL
		}
		return NewOpenAICompatible("openrouter", base, cfg.APIKey, cfg.Name, cfg.Timeout), nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		base := cfg.BaseURL
		if base == "" {
			base = OpenAIBaseURL
		}
		return NewOpenAICompatible("openai", base, cfg.APIKey, cfg.Name, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}
