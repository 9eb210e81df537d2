// Package mcpserver exposes the calculator to MCP clients.
//
// Tools:
//   - evaluate: evaluate an arithmetic expression and record it in history
//   - list_history: return the most recent history records
package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mfateev/smartcalc/internal/calc"
	"github.com/mfateev/smartcalc/internal/history"
)

// EvaluateInput is the evaluate tool's argument object.
type EvaluateInput struct {
	Expression string `json:"expression" jsonschema:"arithmetic expression using + - * / parentheses and decimals"`
}

// EvaluateOutput is the evaluate tool's structured result.
type EvaluateOutput struct {
	Expression string `json:"expression"`
	Result     string `json:"result"`
}

// ListHistoryInput is the list_history tool's argument object.
type ListHistoryInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of records to return, most recent first"`
}

// HistoryEntry is one record as returned by list_history.
type HistoryEntry struct {
	ID         string `json:"id"`
	Expression string `json:"expression"`
	Result     string `json:"result"`
	Timestamp  string `json:"timestamp"`
}

// ListHistoryOutput is the list_history tool's structured result.
type ListHistoryOutput struct {
	Records []HistoryEntry `json:"records"`
}

// Server wraps an MCP server bound to a history log.
type Server struct {
	log    *history.Log
	logger *slog.Logger
	now    func() time.Time
	server *gomcp.Server
}

// New creates a Server that records evaluations in log.
func New(log *history.Log, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{log: log, logger: logger, now: time.Now}

	s.server = gomcp.NewServer(&gomcp.Implementation{
		Name:    "smartcalc",
		Version: version,
	}, nil)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "evaluate",
		Description: "Evaluate an arithmetic expression and record it in the calculator history.",
	}, s.evaluate)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_history",
		Description: "List recent calculations, most recent first.",
	}, s.listHistory)

	return s
}

// Run serves the given transport until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context, transport gomcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// ServeStdio serves over the process's stdin and stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.Run(ctx, &gomcp.StdioTransport{})
}

func (s *Server) evaluate(_ context.Context, _ *gomcp.CallToolRequest, in EvaluateInput) (*gomcp.CallToolResult, EvaluateOutput, error) {
	expr := strings.TrimSpace(in.Expression)
	v, err := calc.Evaluate(expr)
	if err != nil {
		s.logger.Info("mcp evaluate failed", "expression", expr, "error", err)
		return toolError(fmt.Sprintf("%s: %v", calc.ErrorSentinel, err)), EvaluateOutput{}, nil
	}

	result := calc.FormatNumber(v)
	if s.log != nil {
		s.log.Add(history.NewRecord(expr, result, s.now()))
	}
	return nil, EvaluateOutput{Expression: expr, Result: result}, nil
}

func (s *Server) listHistory(_ context.Context, _ *gomcp.CallToolRequest, in ListHistoryInput) (*gomcp.CallToolResult, ListHistoryOutput, error) {
	if in.Limit < 0 {
		return toolError("limit must not be negative"), ListHistoryOutput{}, nil
	}
	out := ListHistoryOutput{Records: []HistoryEntry{}}
	if s.log == nil {
		return nil, out, nil
	}

	records := s.log.Records()
	if in.Limit > 0 && in.Limit < len(records) {
		records = records[:in.Limit]
	}
	for _, r := range records {
		out.Records = append(out.Records, HistoryEntry{
			ID:         r.ID,
			Expression: r.Expression,
			Result:     r.Result,
			Timestamp:  r.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return nil, out, nil
}

func toolError(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		IsError: true,
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
	}
}
