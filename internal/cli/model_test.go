package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfateev/smartcalc/internal/calc"
	"github.com/mfateev/smartcalc/internal/history"
	"github.com/mfateev/smartcalc/internal/models"
)

type stubAssistant struct {
	explanation *models.Explanation
	solution    *models.Solution
	err         error

	explainCalls []string
	solveCalls   []string
	lastCtx      context.Context
}

func (s *stubAssistant) Explain(ctx context.Context, expression, result string) (*models.Explanation, error) {
	s.lastCtx = ctx
	s.explainCalls = append(s.explainCalls, expression+" = "+result)
	return s.explanation, s.err
}

func (s *stubAssistant) Solve(ctx context.Context, problem string) (*models.Solution, error) {
	s.lastCtx = ctx
	s.solveCalls = append(s.solveCalls, problem)
	return s.solution, s.err
}

func newTestModel(a *stubAssistant) *Model {
	deps := Deps{History: history.NewLog(0)}
	if a != nil {
		deps.Assistant = a
	}
	m := NewModel(context.Background(), Config{NoColor: true, NoMarkdown: true}, deps)
	res, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return res.(*Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// typeKeys sends each message through Update and returns the final model
// plus the last command.
func typeKeys(m *Model, msgs ...tea.Msg) (*Model, tea.Cmd) {
	var cmd tea.Cmd
	for _, msg := range msgs {
		var res tea.Model
		res, cmd = m.Update(msg)
		m = res.(*Model)
	}
	return m, cmd
}

func typeString(m *Model, s string) *Model {
	for _, r := range s {
		m, _ = typeKeys(m, runes(string(r)))
	}
	return m
}

// collect runs cmd, flattening batches, and returns every message produced.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func findMsg[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v
		}
	}
	var zero T
	t.Fatalf("no %T among %d messages", zero, len(msgs))
	return zero
}

func TestModel_InitialState(t *testing.T) {
	m := newTestModel(nil)
	assert.Equal(t, ModeCalc, m.mode)
	assert.Equal(t, "0", m.acc.Operand())
	assert.True(t, m.ready)
	assert.False(t, m.loading)
}

func TestModel_SevenPlusThree(t *testing.T) {
	m := newTestModel(nil)
	m = typeString(m, "7+3")
	m, _ = typeKeys(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, "10", m.acc.Operand())
	assert.Equal(t, "", m.acc.Committed())
	records := m.history.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "7 + 3", records[0].Expression)
	assert.Equal(t, "10", records[0].Result)
}

func TestModel_EqualsKeyFinalizes(t *testing.T) {
	m := newTestModel(nil)
	m = typeString(m, "6*7=")
	assert.Equal(t, "42", m.acc.Operand())
}

func TestModel_DivideByZeroRecovers(t *testing.T) {
	m := newTestModel(nil)
	m = typeString(m, "5/0")
	m, cmd := typeKeys(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, calc.ErrorSentinel, m.acc.Operand())
	assert.Equal(t, 0, m.history.Len())
	require.NotNil(t, cmd, "recovery must be scheduled")

	// A stale timer from an earlier failure does nothing.
	m, _ = typeKeys(m, RecoverMsg{Seq: m.errorSeq - 1})
	assert.Equal(t, calc.ErrorSentinel, m.acc.Operand())

	m, _ = typeKeys(m, RecoverMsg{Seq: m.errorSeq})
	assert.Equal(t, "0", m.acc.Operand())
}

func TestModel_EditingKeys(t *testing.T) {
	m := newTestModel(nil)
	m = typeString(m, "125")
	m, _ = typeKeys(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "12", m.acc.Operand())

	m = typeString(m, "n")
	assert.Equal(t, "-12", m.acc.Operand())

	m = typeString(m, "%")
	assert.Equal(t, "-0.12", m.acc.Operand())

	m, _ = typeKeys(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, "0", m.acc.Operand())

	m = typeString(m, "9+c")
	assert.Equal(t, "", m.acc.Committed())
	m = typeString(m, "4+C")
	assert.Equal(t, "0", m.acc.Operand())
}

func TestModel_WordProblemInputSwallowsCalculatorKeys(t *testing.T) {
	m := newTestModel(nil)
	m = typeString(m, "w")
	require.Equal(t, ModeWordProblem, m.mode)

	m = typeString(m, "5+5")
	assert.Equal(t, "0", m.acc.Operand())
	assert.Equal(t, "5+5", m.textarea.Value())

	m, _ = typeKeys(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeCalc, m.mode)
	assert.Equal(t, "0", m.acc.Operand())
}

func TestModel_SolveLoadsResult(t *testing.T) {
	a := &stubAssistant{solution: &models.Solution{
		Expression: "3 * 25",
		Result:     "75",
		Reasoning:  "Three boxes of twenty-five.",
	}}
	m := newTestModel(a)
	m = typeString(m, "w")
	m = typeString(m, "three boxes of 25")
	m, cmd := typeKeys(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.loading)

	// A second submission while loading is ignored.
	m, again := typeKeys(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, again)

	reply := findMsg[SolutionMsg](t, collect(cmd))
	assert.Equal(t, []string{"three boxes of 25"}, a.solveCalls)

	m, _ = typeKeys(m, reply)
	assert.False(t, m.loading)
	assert.Equal(t, ModeModal, m.mode)
	assert.Equal(t, "75", m.acc.Operand())
	assert.Equal(t, "", m.acc.Committed())
	assert.Empty(t, m.textarea.Value())
	assert.Contains(t, m.viewport.View(), "Final result: 75")

	m, _ = typeKeys(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ModeCalc, m.mode)
	assert.Contains(t, m.View(), "3 * 25 =")

	// The caption is for display only and goes away on the next edit.
	m = typeString(m, "+")
	assert.Equal(t, "75 + ", m.acc.Caption())
}

func TestModel_SolveWithNonNumericResultRecovers(t *testing.T) {
	for _, result := range []string{"NaN", "Inf", "1e3", "about 40"} {
		t.Run(result, func(t *testing.T) {
			a := &stubAssistant{solution: &models.Solution{Expression: "x", Result: result}}
			m := newTestModel(a)
			m = typeString(m, "w")
			m = typeString(m, "something odd")
			m, cmd := typeKeys(m, tea.KeyMsg{Type: tea.KeyEnter})
			reply := findMsg[SolutionMsg](t, collect(cmd))

			m, cmd = typeKeys(m, reply)
			assert.Equal(t, calc.ErrorSentinel, m.acc.Operand())
			require.NotNil(t, cmd, "recovery must be scheduled")

			m, _ = typeKeys(m, RecoverMsg{Seq: m.errorSeq})
			assert.Equal(t, "0", m.acc.Operand())
			assert.Equal(t, calc.StateIdle, m.acc.State())
		})
	}
}

func TestModel_BlankWordProblemIsNotSubmitted(t *testing.T) {
	a := &stubAssistant{}
	m := newTestModel(a)
	m = typeString(m, "w")
	m = typeString(m, "   ")
	m, cmd := typeKeys(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.loading)
	assert.Empty(t, a.solveCalls)
}

func TestModel_SolveFailureShowsGenericMessage(t *testing.T) {
	a := &stubAssistant{err: errors.New("upstream 500")}
	m := newTestModel(a)
	m = typeString(m, "w")
	m = typeString(m, "x")
	m, cmd := typeKeys(m, tea.KeyMsg{Type: tea.KeyEnter})

	m, _ = typeKeys(m, findMsg[SolutionMsg](t, collect(cmd)))
	assert.Equal(t, ModeModal, m.mode)
	assert.Contains(t, m.viewport.View(), FailureMessage)
	assert.Equal(t, "0", m.acc.Operand(), "the accumulator is untouched")
}

func TestModel_ExplainFromHistory(t *testing.T) {
	a := &stubAssistant{explanation: &models.Explanation{
		Explanation: "Adding joins two groups.",
		Steps:       []string{"Start at 7", "Count up 3"},
	}}
	m := newTestModel(a)
	m = typeString(m, "7+3=")
	m = typeString(m, "h")
	require.Equal(t, ModeHistory, m.mode)

	m, cmd := typeKeys(m, runes("e"))
	assert.Equal(t, ModeModal, m.mode)
	assert.True(t, m.loading)
	assert.Contains(t, m.View(), explainLoadingMessage)

	reply := findMsg[ExplanationMsg](t, collect(cmd))
	assert.Equal(t, []string{"7 + 3 = 10"}, a.explainCalls)

	m, _ = typeKeys(m, reply)
	assert.False(t, m.loading)
	view := m.viewport.View()
	assert.Contains(t, view, "Adding joins two groups.")
	assert.Contains(t, view, "1. Start at 7")
	assert.Contains(t, view, "2. Count up 3")

	m, _ = typeKeys(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, ModeHistory, m.mode, "closing returns to the panel that opened the modal")
}

func TestModel_ClosingModalCancelsRequest(t *testing.T) {
	a := &stubAssistant{explanation: &models.Explanation{Explanation: "late"}}
	m := newTestModel(a)
	m = typeString(m, "1+1=")
	m, cmd := typeKeys(m, runes("e"))
	require.True(t, m.loading)

	m, _ = typeKeys(m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.loading)
	assert.Equal(t, ModeCalc, m.mode)

	// The call runs with an already cancelled context and its reply is stale.
	reply := findMsg[ExplanationMsg](t, collect(cmd))
	require.NotNil(t, a.lastCtx)
	assert.ErrorIs(t, a.lastCtx.Err(), context.Canceled)

	m, _ = typeKeys(m, reply)
	assert.Equal(t, ModeCalc, m.mode)
	assert.False(t, m.loading)
}

func TestModel_QuitCancelsInFlightRequest(t *testing.T) {
	a := &stubAssistant{}
	m := newTestModel(a)
	m = typeString(m, "2+2=")
	m, cmd := typeKeys(m, runes("e"))
	require.True(t, m.loading)

	m, quit := typeKeys(m, tea.KeyMsg{Type: tea.KeyCtrlC})
	assert.True(t, m.quitting)
	require.NotNil(t, quit)
	assert.Equal(t, tea.Quit(), quit())
	assert.Equal(t, "", m.View())

	collect(cmd)
	require.NotNil(t, a.lastCtx)
	assert.ErrorIs(t, a.lastCtx.Err(), context.Canceled)
}

func TestModel_ParentContextBoundsRequests(t *testing.T) {
	a := &stubAssistant{}
	ctx, cancel := context.WithCancel(context.Background())
	m0 := NewModel(ctx, Config{NoColor: true, NoMarkdown: true}, Deps{Assistant: a})
	res, _ := m0.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m := res.(*Model)

	m = typeString(m, "w")
	m = typeString(m, "ten minus four")
	m, cmd := typeKeys(m, tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, m.loading)

	cancel()
	collect(cmd)
	assert.ErrorIs(t, a.lastCtx.Err(), context.Canceled)
}

func TestModel_HistoryPanel(t *testing.T) {
	m := newTestModel(nil)
	m = typeString(m, "1+1=")
	m = typeString(m, "c2*3=")
	m = typeString(m, "c")

	m = typeString(m, "h")
	assert.Contains(t, m.View(), "2 * 3 = 6")

	m, _ = typeKeys(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.historyCursor)
	m, _ = typeKeys(m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.historyCursor, "cursor stops at the last record")
	m, _ = typeKeys(m, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyDown})

	m = typeString(m, "u")
	assert.Equal(t, ModeCalc, m.mode)
	assert.Equal(t, "2", m.acc.Operand())
}

func TestModel_HistoryValueMustBeANumber(t *testing.T) {
	m := newTestModel(nil)
	m.history.Add(history.NewRecord("edited by hand", "1e3", time.Now()))

	m = typeString(m, "hu")
	assert.Equal(t, ModeHistory, m.mode)
	assert.Equal(t, "0", m.acc.Operand())
}

func TestModel_HistoryClearAll(t *testing.T) {
	m := newTestModel(nil)
	m = typeString(m, "1+1=")
	m = typeString(m, "hx")
	assert.Equal(t, 0, m.history.Len())
	assert.Contains(t, m.View(), "No calculations yet.")

	m = typeString(m, "h")
	assert.Equal(t, ModeCalc, m.mode)
}

func TestModel_NoAssistantShowsFailure(t *testing.T) {
	m := newTestModel(nil)
	m = typeString(m, "1+1=")
	m, cmd := typeKeys(m, runes("e"))
	assert.Nil(t, cmd)
	assert.Equal(t, ModeModal, m.mode)
	assert.False(t, m.loading)
	assert.Contains(t, m.viewport.View(), FailureMessage)
}

func TestModel_ViewShowsDisplayAndPad(t *testing.T) {
	m := newTestModel(nil)
	m = typeString(m, "12+")
	view := m.View()
	assert.Contains(t, view, "12 +")
	assert.Contains(t, view, "⌫")
	assert.Contains(t, view, "assistant off")
}
