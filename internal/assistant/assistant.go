// Package assistant asks a language model to explain a finished
// calculation or to solve a word problem, and decodes the structured reply.
package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mfateev/smartcalc/internal/llm"
	"github.com/mfateev/smartcalc/internal/models"
)

// ErrEmptyProblem is returned by Solve for a blank problem statement.
var ErrEmptyProblem = errors.New("assistant: word problem is empty")

// Assistant is the collaborator behind the explain and solve features.
// A nil result is never returned together with a nil error.
type Assistant interface {
	Explain(ctx context.Context, expression, result string) (*models.Explanation, error)
	Solve(ctx context.Context, problem string) (*models.Solution, error)
}

// Service implements Assistant on top of an llm.Client.
type Service struct {
	client llm.Client
	config models.AssistantConfig
	logger *slog.Logger
}

// NewService creates a Service. A nil logger discards output.
func NewService(client llm.Client, config models.AssistantConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{client: client, config: config, logger: logger}
}

// Explain asks for a plain-language explanation of how expression yields
// result.
func (s *Service) Explain(ctx context.Context, expression, result string) (*models.Explanation, error) {
	return s.ExplainWith(ctx, models.ExplainInput{
		Expression: expression,
		Result:     result,
		Model:      s.config.Explain,
	})
}

// ExplainWith is Explain with an explicit model configuration.
func (s *Service) ExplainWith(ctx context.Context, in models.ExplainInput) (*models.Explanation, error) {
	resp, err := s.client.Generate(ctx, ExplainRequest(in))
	if err != nil {
		s.logger.Warn("explain request failed", "expression", in.Expression, "error", err)
		return nil, fmt.Errorf("explain %q: %w", in.Expression, err)
	}
	s.logger.Debug("explain request done", "expression", in.Expression, "tokens", resp.TokenUsage.TotalTokens)
	return DecodeExplanation(resp.Text)
}

// Solve asks for the expression, result and reasoning behind a word
// problem.
func (s *Service) Solve(ctx context.Context, problem string) (*models.Solution, error) {
	return s.SolveWith(ctx, models.SolveInput{Problem: problem, Model: s.config.Solve})
}

// SolveWith is Solve with an explicit model configuration.
func (s *Service) SolveWith(ctx context.Context, in models.SolveInput) (*models.Solution, error) {
	if strings.TrimSpace(in.Problem) == "" {
		return nil, ErrEmptyProblem
	}
	resp, err := s.client.Generate(ctx, SolveRequest(in))
	if err != nil {
		s.logger.Warn("solve request failed", "error", err)
		return nil, fmt.Errorf("solve word problem: %w", err)
	}
	s.logger.Debug("solve request done", "tokens", resp.TokenUsage.TotalTokens)
	return DecodeSolution(resp.Text)
}

// DecodeExplanation parses a model reply into an Explanation.
func DecodeExplanation(text string) (*models.Explanation, error) {
	var out models.Explanation
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err != nil {
		return nil, models.NewInvalidResponseError(fmt.Sprintf("decode explanation: %v", err))
	}
	if out.Explanation == "" {
		return nil, models.NewInvalidResponseError("explanation is empty")
	}
	if out.Steps == nil {
		out.Steps = []string{}
	}
	return &out, nil
}

// DecodeSolution parses a model reply into a Solution.
func DecodeSolution(text string) (*models.Solution, error) {
	var out models.Solution
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &out); err != nil {
		return nil, models.NewInvalidResponseError(fmt.Sprintf("decode solution: %v", err))
	}
	if out.Result == "" {
		return nil, models.NewInvalidResponseError("solution has no result")
	}
	return &out, nil
}
