// Package llm provides language-model client integrations that return a
// single JSON document constrained by an output schema.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/mfateev/smartcalc/internal/models"
)

// Schema describes the JSON object the model must produce.
type Schema struct {
	Name        string         // identifier, used as the forced tool name for Anthropic
	Description string
	Properties  map[string]any // JSON Schema property definitions
	Required    []string
}

// JSONSchema returns the schema as a JSON Schema object. Extra properties
// are disallowed so strict structured-output modes accept it.
func (s Schema) JSONSchema() map[string]any {
	required := s.Required
	if required == nil {
		required = []string{}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           s.Properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// Request is a single-shot generation request.
type Request struct {
	ModelConfig  models.ModelConfig `json:"model_config"`
	Instructions string             `json:"instructions,omitempty"`
	Prompt       string             `json:"prompt"`
	Schema       *Schema            `json:"-"`
}

// Response carries the raw model output. When the request had a Schema,
// Text is a JSON document matching it.
type Response struct {
	Text       string            `json:"text"`
	TokenUsage models.TokenUsage `json:"token_usage"`
}

// Client is the interface for language-model providers.
type Client interface {
	Generate(ctx context.Context, request Request) (Response, error)
}

// Credentials holds provider API keys. Empty keys fall back to the
// provider's standard environment variable.
type Credentials struct {
	OpenAIKey    string `yaml:"openai_api_key"`
	AnthropicKey string `yaml:"anthropic_api_key"`
}

// CredentialsFromEnv reads OPENAI_API_KEY and ANTHROPIC_API_KEY.
func CredentialsFromEnv() Credentials {
	return Credentials{
		OpenAIKey:    os.Getenv("OPENAI_API_KEY"),
		AnthropicKey: os.Getenv("ANTHROPIC_API_KEY"),
	}
}

// WithEnvFallback fills empty keys from the environment.
func (c Credentials) WithEnvFallback() Credentials {
	env := CredentialsFromEnv()
	if c.OpenAIKey == "" {
		c.OpenAIKey = env.OpenAIKey
	}
	if c.AnthropicKey == "" {
		c.AnthropicKey = env.AnthropicKey
	}
	return c
}

// classifyByStatusCode maps an HTTP status code to the appropriate AssistantError.
// Shared by all provider error classifiers.
//
// Classification:
//   - 429 (Too Many Requests): rate limit
//   - 408 (Request Timeout), 409 (Conflict): transient
//   - Other 4xx: fatal client error (e.g., 400, 401, 403, 404)
//   - 5xx: transient server error
func classifyByStatusCode(statusCode int, err error) *models.AssistantError {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return models.NewRateLimitError(fmt.Sprintf("rate limit (%d): %v", statusCode, err))
	case statusCode == http.StatusRequestTimeout || statusCode == http.StatusConflict:
		return models.NewTransientError(fmt.Sprintf("retryable error (%d): %v", statusCode, err))
	case statusCode >= 400 && statusCode < 500:
		return models.NewFatalError(fmt.Sprintf("client error (%d): %v", statusCode, err))
	case statusCode >= 500:
		return models.NewTransientError(fmt.Sprintf("server error (%d): %v", statusCode, err))
	default:
		return models.NewTransientError(fmt.Sprintf("unexpected status (%d): %v", statusCode, err))
	}
}
