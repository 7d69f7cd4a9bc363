package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider generates completions through the OpenAI chat API
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates an OpenAI-backed provider
func NewOpenAIProvider(model, apiKey string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if model == "" {
		model = openai.ChatModelGPT4o
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &OpenAIProvider{client: client, model: model}, nil
}

// Generate runs one completion, retrying transient failures
func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, options Options) (string, error) {
	if options == (Options{}) {
		options = DefaultOptions
	}

	params := openai.ChatCompletionNewParams{
		Model: p.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Temperature:         openai.Float(options.Temperature),
		MaxCompletionTokens: openai.Int(int64(options.MaxTokens)),
	}

	return withRetry(ctx, p.Name(), func() (string, error) {
		completion, err := p.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", err
		}
		if len(completion.Choices) == 0 {
			return "", fmt.Errorf("empty completion")
		}
		return completion.Choices[0].Message.Content, nil
	})
}

// Name returns the provider name with its model
func (p *OpenAIProvider) Name() string {
	return fmt.Sprintf("openai:%s", p.model)
}
