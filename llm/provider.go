// Package llm holds the language model boundary: a small Provider interface,
// the concrete Gemini and OpenAI implementations behind it and the
// Inferencer that turns prompts into typed extraction results. Everything
// above this package talks to models exclusively through the Provider
// interface.
package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Options are the per-request generation parameters
type Options struct {
	Temperature float64
	MaxTokens   int
}

// DefaultOptions are used when a caller passes the zero value
var DefaultOptions = Options{
	Temperature: 0.2,
	MaxTokens:   4096,
}

// Provider generates a completion for a prompt. Implementations retry
// transient failures internally and return a *ProviderError when the
// provider cannot be reached or rejects the request.
type Provider interface {
	Generate(ctx context.Context, prompt string, options Options) (string, error)
	Name() string
}

// ProviderError wraps a failure of the underlying model API. It is always
// propagated to the caller, never silently degraded.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Config selects and configures a provider. Provider must be one of
// "gemini" or "openai"; there is no automatic fallback between them.
type Config struct {
	Provider string
	Model    string
	APIKey   string
}

// NewConfigFromEnv reads LLM_PROVIDER, LLM_MODEL and LLM_API_KEY
func NewConfigFromEnv() (*Config, error) {
	godotenv.Load()

	provider, ok := os.LookupEnv("LLM_PROVIDER")
	if !ok {
		return nil, fmt.Errorf("environment variable LLM_PROVIDER not set")
	}
	model, ok := os.LookupEnv("LLM_MODEL")
	if !ok {
		return nil, fmt.Errorf("environment variable LLM_MODEL not set")
	}
	apiKey, ok := os.LookupEnv("LLM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("environment variable LLM_API_KEY not set")
	}

	return &Config{Provider: provider, Model: model, APIKey: apiKey}, nil
}

// NewProvider creates the provider named by the config. Unknown provider
// names are an error, not a fallback.
func NewProvider(ctx context.Context, config *Config) (Provider, error) {
	if config == nil {
		return nil, fmt.Errorf("llm config is nil")
	}

	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "gemini":
		return NewGeminiProvider(ctx, config.Model, config.APIKey)
	case "openai":
		return NewOpenAIProvider(config.Model, config.APIKey)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", config.Provider)
	}
}

const (
	maxAttempts  = 3
	retryBackoff = 2 * time.Second
)

// withRetry runs the generate call with exponential backoff on failure
func withRetry(ctx context.Context, provider string, generate func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", &ProviderError{Provider: provider, Err: ctx.Err()}
			case <-time.After(retryBackoff << (attempt - 1)):
			}
		}

		output, err := generate()
		if err == nil {
			return output, nil
		}
		lastErr = err
	}
	return "", &ProviderError{Provider: provider, Err: lastErr}
}
