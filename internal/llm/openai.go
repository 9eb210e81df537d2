package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mfateev/smartcalc/internal/models"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAIClient implements Client using OpenAI's Responses API with a
// strict json_schema text format.
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates an OpenAI client. Extra request options (base
// URL, retries) are applied after the API key.
func NewOpenAIClient(apiKey string, opts ...option.RequestOption) *OpenAIClient {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAIClient{client: openai.NewClient(all...)}
}

// Generate sends one prompt and returns the output text.
func (c *OpenAIClient) Generate(ctx context.Context, request Request) (Response, error) {
	params := c.buildParams(request)

	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return Response{}, classifyError(err)
	}

	text := c.parseOutput(resp)
	if text == "" {
		return Response{}, models.NewInvalidResponseError("OpenAI returned no output text")
	}

	return Response{
		Text: text,
		TokenUsage: models.TokenUsage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (c *OpenAIClient) buildParams(request Request) responses.ResponseNewParams {
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(request.ModelConfig.Model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(request.Prompt),
		},
		Store: openai.Bool(false),
	}

	if request.Instructions != "" {
		params.Instructions = openai.String(request.Instructions)
	}
	if request.ModelConfig.Temperature > 0 {
		params.Temperature = openai.Float(request.ModelConfig.Temperature)
	}
	if request.ModelConfig.MaxTokens > 0 {
		params.MaxOutputTokens = openai.Int(int64(request.ModelConfig.MaxTokens))
	}

	if request.Schema != nil {
		format := &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:   request.Schema.Name,
			Schema: request.Schema.JSONSchema(),
			Strict: openai.Bool(true),
		}
		if request.Schema.Description != "" {
			format.Description = openai.String(request.Schema.Description)
		}
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: format,
			},
		}
	}

	return params
}

// parseOutput concatenates output_text content across message items.
//
// Uses flat fields from ResponseOutputItemUnion directly (rather than
// .AsMessage() which relies on internal JSON state).
func (c *OpenAIClient) parseOutput(resp *responses.Response) string {
	var b strings.Builder
	for _, outputItem := range resp.Output {
		if outputItem.Type != "message" {
			continue
		}
		for _, content := range outputItem.Content {
			if content.Type == "output_text" {
				b.WriteString(content.Text)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// classifyError categorizes an OpenAI API error using the HTTP status code
// when available, falling back to message-based heuristics.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return classifyByStatusCode(apiErr.StatusCode, err)
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "rate_limit") || strings.Contains(errMsg, "rate limit") {
		return models.NewRateLimitError(err.Error())
	}
	return models.NewTransientError(fmt.Sprintf("OpenAI API error: %v", err))
}
