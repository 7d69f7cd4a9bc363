package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiProvider generates completions through the Google Gemini API
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a Gemini-backed provider
func NewGeminiProvider(ctx context.Context, model, apiKey string) (*GeminiProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiProvider{client: client, model: model}, nil
}

// Generate runs one completion, retrying transient failures
func (p *GeminiProvider) Generate(ctx context.Context, prompt string, options Options) (string, error) {
	if options == (Options{}) {
		options = DefaultOptions
	}

	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(options.Temperature)),
		MaxOutputTokens: int32(options.MaxTokens),
	}

	return withRetry(ctx, p.Name(), func() (string, error) {
		result, err := p.client.Models.GenerateContent(ctx, p.model, genai.Text(prompt), config)
		if err != nil {
			return "", err
		}
		text := result.Text()
		if text == "" {
			return "", fmt.Errorf("empty completion")
		}
		return text, nil
	})
}

// Name returns the provider name with its model
func (p *GeminiProvider) Name() string {
	return fmt.Sprintf("gemini:%s", p.model)
}
