package llm

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	openaiopt "github.com/openai/openai-go/v3/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfateev/smartcalc/internal/models"
)

var testSchema = &Schema{
	Name:        "explanation",
	Description: "A step-by-step explanation.",
	Properties: map[string]any{
		"explanation": map[string]any{"type": "string"},
		"steps":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
	Required: []string{"explanation", "steps"},
}

// recordingServer serves a canned body and captures the decoded request.
func recordingServer(t *testing.T, status int, body string) (*httptest.Server, *map[string]any, *string) {
	t.Helper()
	var captured map[string]any
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &captured)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &captured, &path
}

const openAIOK = `{
  "id": "resp_1",
  "object": "response",
  "status": "completed",
  "model": "gpt-4o-mini",
  "output": [{
    "type": "message",
    "id": "msg_1",
    "role": "assistant",
    "status": "completed",
    "content": [{"type": "output_text", "text": "{\"explanation\":\"add\",\"steps\":[\"7 + 3 = 10\"]}", "annotations": []}]
  }],
  "usage": {"input_tokens": 12, "output_tokens": 8, "total_tokens": 20}
}`

func TestOpenAIClient_GenerateWithSchema(t *testing.T) {
	srv, captured, path := recordingServer(t, http.StatusOK, openAIOK)
	client := NewOpenAIClient("test-key", openaiopt.WithBaseURL(srv.URL+"/"), openaiopt.WithMaxRetries(0))

	resp, err := client.Generate(context.Background(), Request{
		ModelConfig:  models.ModelConfig{Model: "gpt-4o-mini", MaxTokens: 256},
		Instructions: "be a tutor",
		Prompt:       "explain 7 + 3",
		Schema:       testSchema,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"explanation":"add","steps":["7 + 3 = 10"]}`, resp.Text)
	assert.Equal(t, 20, resp.TokenUsage.TotalTokens)

	assert.Equal(t, "/responses", *path)
	body := *captured
	assert.Equal(t, "gpt-4o-mini", body["model"])
	assert.Equal(t, "explain 7 + 3", body["input"])
	assert.Equal(t, "be a tutor", body["instructions"])
	assert.EqualValues(t, 256, body["max_output_tokens"])

	format := body["text"].(map[string]any)["format"].(map[string]any)
	assert.Equal(t, "json_schema", format["type"])
	assert.Equal(t, "explanation", format["name"])
	assert.Equal(t, true, format["strict"])
	schema := format["schema"].(map[string]any)
	assert.Equal(t, false, schema["additionalProperties"])
}

func TestOpenAIClient_EmptyOutputIsInvalid(t *testing.T) {
	srv, _, _ := recordingServer(t, http.StatusOK,
		`{"id":"resp_2","object":"response","output":[],"usage":{"input_tokens":1,"output_tokens":0,"total_tokens":1}}`)
	client := NewOpenAIClient("test-key", openaiopt.WithBaseURL(srv.URL+"/"), openaiopt.WithMaxRetries(0))

	_, err := client.Generate(context.Background(), Request{ModelConfig: models.ModelConfig{Model: "gpt-4o"}, Prompt: "x"})
	require.Error(t, err)
	assert.Equal(t, models.ErrorTypeInvalidResponse, models.ErrorTypeOf(err))
}

func TestOpenAIClient_ClassifiesStatus(t *testing.T) {
	tests := []struct {
		status int
		want   models.ErrorType
	}{
		{http.StatusBadRequest, models.ErrorTypeFatal},
		{http.StatusUnauthorized, models.ErrorTypeFatal},
		{http.StatusTooManyRequests, models.ErrorTypeRateLimit},
		{http.StatusInternalServerError, models.ErrorTypeTransient},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv, _, _ := recordingServer(t, tt.status, `{"error":{"message":"nope","type":"invalid_request_error"}}`)
			client := NewOpenAIClient("test-key", openaiopt.WithBaseURL(srv.URL+"/"), openaiopt.WithMaxRetries(0))

			_, err := client.Generate(context.Background(), Request{ModelConfig: models.ModelConfig{Model: "gpt-4o"}, Prompt: "x"})
			var ae *models.AssistantError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, tt.want, ae.Type)
		})
	}
}

const anthropicToolUse = `{
  "id": "msg_1",
  "type": "message",
  "role": "assistant",
  "model": "claude-haiku-4-5",
  "content": [
    {"type": "text", "text": "Sure."},
    {"type": "tool_use", "id": "toolu_1", "name": "explanation", "input": {"explanation": "add", "steps": ["7 + 3 = 10"]}}
  ],
  "stop_reason": "tool_use",
  "usage": {"input_tokens": 30, "output_tokens": 10}
}`

func TestAnthropicClient_GenerateForcesSchemaTool(t *testing.T) {
	srv, captured, path := recordingServer(t, http.StatusOK, anthropicToolUse)
	client := NewAnthropicClient("test-key", anthropicopt.WithBaseURL(srv.URL+"/"), anthropicopt.WithMaxRetries(0))

	resp, err := client.Generate(context.Background(), Request{
		ModelConfig:  models.ModelConfig{Model: "claude-haiku-4-5"},
		Instructions: "be a tutor",
		Prompt:       "explain 7 + 3",
		Schema:       testSchema,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{"explanation":"add","steps":["7 + 3 = 10"]}`, resp.Text)
	assert.Equal(t, 40, resp.TokenUsage.TotalTokens)

	assert.Equal(t, "/v1/messages", *path)
	body := *captured
	assert.EqualValues(t, defaultAnthropicMaxTokens, body["max_tokens"])
	assert.Equal(t, map[string]any{"type": "tool", "name": "explanation"}, body["tool_choice"])

	tools := body["tools"].([]any)
	require.Len(t, tools, 1)
	assert.Equal(t, "explanation", tools[0].(map[string]any)["name"])

	system := body["system"].([]any)
	assert.Equal(t, "be a tutor", system[0].(map[string]any)["text"])
}

func TestAnthropicClient_MissingToolCallIsInvalid(t *testing.T) {
	srv, _, _ := recordingServer(t, http.StatusOK, `{
	  "id": "msg_2", "type": "message", "role": "assistant", "model": "claude-haiku-4-5",
	  "content": [{"type": "text", "text": "I cannot."}],
	  "stop_reason": "end_turn",
	  "usage": {"input_tokens": 3, "output_tokens": 3}
	}`)
	client := NewAnthropicClient("test-key", anthropicopt.WithBaseURL(srv.URL+"/"), anthropicopt.WithMaxRetries(0))

	_, err := client.Generate(context.Background(), Request{
		ModelConfig: models.ModelConfig{Model: "claude-haiku-4-5"},
		Prompt:      "explain",
		Schema:      testSchema,
	})
	assert.Equal(t, models.ErrorTypeInvalidResponse, models.ErrorTypeOf(err))
}

func TestAnthropicClient_PlainText(t *testing.T) {
	srv, captured, _ := recordingServer(t, http.StatusOK, `{
	  "id": "msg_3", "type": "message", "role": "assistant", "model": "claude-haiku-4-5",
	  "content": [{"type": "text", "text": " ten "}],
	  "stop_reason": "end_turn",
	  "usage": {"input_tokens": 3, "output_tokens": 1}
	}`)
	client := NewAnthropicClient("test-key", anthropicopt.WithBaseURL(srv.URL+"/"), anthropicopt.WithMaxRetries(0))

	resp, err := client.Generate(context.Background(), Request{
		ModelConfig: models.ModelConfig{Model: "claude-haiku-4-5"},
		Prompt:      "7 + 3?",
	})
	require.NoError(t, err)
	assert.Equal(t, "ten", resp.Text)
	assert.NotContains(t, *captured, "tool_choice")
}

func TestAnthropicClient_ClassifiesStatus(t *testing.T) {
	srv, _, _ := recordingServer(t, http.StatusTooManyRequests,
		`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	client := NewAnthropicClient("test-key", anthropicopt.WithBaseURL(srv.URL+"/"), anthropicopt.WithMaxRetries(0))

	_, err := client.Generate(context.Background(), Request{ModelConfig: models.ModelConfig{Model: "claude-haiku-4-5"}, Prompt: "x"})
	assert.Equal(t, models.ErrorTypeRateLimit, models.ErrorTypeOf(err))
}

func TestClassifyError_PassesThroughCancellation(t *testing.T) {
	assert.True(t, errors.Is(classifyError(context.Canceled), context.Canceled))
	assert.True(t, errors.Is(classifyAnthropicError(context.DeadlineExceeded), context.DeadlineExceeded))
}

func TestClassifyByStatusCode(t *testing.T) {
	base := errors.New("boom")
	assert.Equal(t, models.ErrorTypeRateLimit, classifyByStatusCode(429, base).Type)
	assert.Equal(t, models.ErrorTypeTransient, classifyByStatusCode(408, base).Type)
	assert.Equal(t, models.ErrorTypeTransient, classifyByStatusCode(409, base).Type)
	assert.Equal(t, models.ErrorTypeFatal, classifyByStatusCode(403, base).Type)
	assert.Equal(t, models.ErrorTypeTransient, classifyByStatusCode(503, base).Type)
}

func TestSchema_JSONSchema(t *testing.T) {
	s := Schema{Name: "x", Properties: map[string]any{}}
	js := s.JSONSchema()
	assert.Equal(t, "object", js["type"])
	assert.Equal(t, []string{}, js["required"])
	assert.Equal(t, false, js["additionalProperties"])
}
