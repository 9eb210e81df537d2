package llm

import (
	"context"
	"fmt"

	"github.com/mfateev/smartcalc/internal/models"
)

// MultiProviderClient implements Client by dispatching to the appropriate
// provider based on the ModelConfig.Provider field, or on the model name
// when no provider is set.
type MultiProviderClient struct {
	openai    Client
	anthropic Client
}

// NewMultiProviderClient creates a client that can dispatch to both
// providers. Missing keys are read from the environment.
func NewMultiProviderClient(creds Credentials) *MultiProviderClient {
	creds = creds.WithEnvFallback()
	return &MultiProviderClient{
		openai:    NewOpenAIClient(creds.OpenAIKey),
		anthropic: NewAnthropicClient(creds.AnthropicKey),
	}
}

// Generate dispatches to the provider resolved for the request.
func (c *MultiProviderClient) Generate(ctx context.Context, request Request) (Response, error) {
	provider := request.ModelConfig.Provider
	if provider == "" {
		provider = DetectProvider(request.ModelConfig.Model)
	}

	switch provider {
	case models.ProviderOpenAI:
		return c.openai.Generate(ctx, request)
	case models.ProviderAnthropic:
		return c.anthropic.Generate(ctx, request)
	default:
		return Response{}, models.NewFatalError(
			fmt.Sprintf("unsupported LLM provider: %s (supported: openai, anthropic)", provider))
	}
}
