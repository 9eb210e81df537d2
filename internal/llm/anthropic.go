package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mfateev/smartcalc/internal/models"
)

const defaultAnthropicMaxTokens = 1024

// AnthropicClient implements Client using Anthropic's Messages API.
//
// Anthropic has no response-format parameter, so a schema is enforced by
// offering a single tool whose input schema is the output schema and
// forcing the model to call it. The tool input is the result.
type AnthropicClient struct {
	client anthropic.Client
}

// NewAnthropicClient creates an Anthropic client.
func NewAnthropicClient(apiKey string, opts ...option.RequestOption) *AnthropicClient {
	all := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &AnthropicClient{client: anthropic.NewClient(all...)}
}

// Generate sends one prompt and returns the output text, or the forced
// tool's input when the request carries a Schema.
func (c *AnthropicClient) Generate(ctx context.Context, request Request) (Response, error) {
	params := c.buildParams(request)

	response, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return Response{}, classifyAnthropicError(err)
	}

	text, err := c.parseResponse(response, request.Schema)
	if err != nil {
		return Response{}, err
	}

	return Response{
		Text: text,
		TokenUsage: models.TokenUsage{
			PromptTokens:     int(response.Usage.InputTokens),
			CompletionTokens: int(response.Usage.OutputTokens),
			TotalTokens:      int(response.Usage.InputTokens + response.Usage.OutputTokens),
		},
	}, nil
}

func (c *AnthropicClient) buildParams(request Request) anthropic.MessageNewParams {
	maxTokens := request.ModelConfig.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(request.ModelConfig.Model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{{
			Role: anthropic.MessageParamRoleUser,
			Content: []anthropic.ContentBlockParamUnion{{
				OfText: &anthropic.TextBlockParam{Text: request.Prompt},
			}},
		}},
	}

	if request.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: request.Instructions}}
	}
	if request.ModelConfig.Temperature > 0 {
		params.Temperature = anthropic.Float(request.ModelConfig.Temperature)
	}

	if request.Schema != nil {
		schema := request.Schema
		inputSchema := anthropic.ToolInputSchemaParam{
			Properties: schema.Properties,
		}
		if len(schema.Required) > 0 {
			inputSchema.Required = schema.Required
		}
		tool := &anthropic.ToolParam{
			Name:        schema.Name,
			InputSchema: inputSchema,
		}
		if schema.Description != "" {
			tool.Description = anthropic.String(schema.Description)
		}
		params.Tools = []anthropic.ToolUnionParam{{OfTool: tool}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: schema.Name},
		}
	}

	return params
}

// parseResponse extracts the result from the content blocks. With a
// schema, the matching tool_use input is returned as JSON; otherwise the
// text blocks are concatenated.
func (c *AnthropicClient) parseResponse(response *anthropic.Message, schema *Schema) (string, error) {
	var text strings.Builder

	for _, contentBlock := range response.Content {
		switch contentBlock.Type {
		case "text":
			text.WriteString(contentBlock.AsText().Text)

		case "tool_use":
			toolBlock := contentBlock.AsToolUse()
			if schema == nil || toolBlock.Name != schema.Name {
				continue
			}
			argsJSON, err := json.Marshal(toolBlock.Input)
			if err != nil {
				return "", models.NewInvalidResponseError(fmt.Sprintf("encode tool input: %v", err))
			}
			return string(argsJSON), nil
		}
	}

	if schema != nil {
		return "", models.NewInvalidResponseError(
			fmt.Sprintf("Anthropic did not call %s (stop reason %q)", schema.Name, response.StopReason))
	}
	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", models.NewInvalidResponseError("Anthropic returned no text")
	}
	return out, nil
}

// classifyAnthropicError categorizes an Anthropic API error using the HTTP
// status code when available, falling back to message-based heuristics.
func classifyAnthropicError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return classifyByStatusCode(apiErr.StatusCode, err)
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "rate_limit") || strings.Contains(errMsg, "rate limit") {
		return models.NewRateLimitError(err.Error())
	}
	return models.NewTransientError(fmt.Sprintf("Anthropic API error: %v", err))
}
