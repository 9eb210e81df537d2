package cli

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mfateev/smartcalc/internal/assistant"
	"github.com/mfateev/smartcalc/internal/calc"
)

// explainCmd asks the assistant to explain a finished calculation.
func explainCmd(ctx context.Context, a assistant.Assistant, seq int, expression, result string) tea.Cmd {
	return func() tea.Msg {
		exp, err := a.Explain(ctx, expression, result)
		return ExplanationMsg{
			Seq:         seq,
			Expression:  expression,
			Result:      result,
			Explanation: exp,
			Err:         err,
		}
	}
}

// solveCmd asks the assistant to solve a word problem.
func solveCmd(ctx context.Context, a assistant.Assistant, seq int, problem string) tea.Cmd {
	return func() tea.Msg {
		sol, err := a.Solve(ctx, problem)
		return SolutionMsg{
			Seq:      seq,
			Problem:  problem,
			Solution: sol,
			Err:      err,
		}
	}
}

// recoverCmd fires RecoverMsg after the sentinel display duration.
func recoverCmd(seq int) tea.Cmd {
	return tea.Tick(calc.ErrorDisplayDuration, func(time.Time) tea.Msg {
		return RecoverMsg{Seq: seq}
	})
}
