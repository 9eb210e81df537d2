package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mfateev/smartcalc/internal/assistant"
	"github.com/mfateev/smartcalc/internal/calc"
	"github.com/mfateev/smartcalc/internal/history"
	"github.com/mfateev/smartcalc/internal/logging"
)

const (
	historyPanelRows = 8
	modalWidth       = 64
	displayWidth     = 22
	panelWidth       = 44
)

// Mode is the part of the screen that owns the keyboard.
type Mode int

const (
	ModeCalc Mode = iota
	ModeHistory
	ModeWordProblem
	ModeModal
)

// Config holds TUI configuration.
type Config struct {
	NoColor    bool
	NoMarkdown bool
	Inline     bool // Disable alt-screen mode

	// AssistantLabel is shown in the status bar, e.g. "openai/gpt-4o-mini".
	AssistantLabel string
}

// Deps are the collaborators the TUI drives.
type Deps struct {
	History   *history.Log
	Assistant assistant.Assistant // nil disables explain and solve
	Logger    *slog.Logger
}

var padRows = [][]string{
	{"C", "⌫", "%", "/"},
	{"7", "8", "9", "*"},
	{"4", "5", "6", "-"},
	{"1", "2", "3", "+"},
	{"±", "0", ".", "="},
}

// Model is the bubbletea model for the calculator.
type Model struct {
	config Config
	keys   KeyMap
	styles Styles
	logger *slog.Logger

	acc       *calc.Accumulator
	history   *history.Log
	assistant assistant.Assistant

	mode          Mode
	returnMode    Mode
	historyCursor int

	// Sub-models
	textarea textarea.Model
	spinner  spinner.Model
	viewport viewport.Model

	renderer *Renderer

	// Assistant request state. requestSeq identifies the in-flight call;
	// replies carrying another sequence number are stale and dropped.
	ctx        context.Context
	cancel     context.CancelFunc
	loading    bool
	loadingMsg string
	requestSeq int
	modalTitle string

	// errorSeq ties a RecoverMsg to the failure that scheduled it.
	errorSeq int

	// Layout
	width  int
	height int
	ready  bool

	quitting bool
}

// NewModel creates a new bubbletea model. ctx bounds every assistant call.
func NewModel(ctx context.Context, config Config, deps Deps) Model {
	styles := DefaultStyles()
	if config.NoColor {
		styles = NoColorStyles()
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	log := deps.History
	if log == nil {
		log = history.NewLog(history.DefaultLimit)
	}

	ta := textarea.New()
	ta.Placeholder = "How many apples does Ana have left if..."
	ta.Prompt = "❯ "
	ta.CharLimit = 1000
	ta.ShowLineNumbers = false
	ta.SetWidth(panelWidth - 2)
	ta.SetHeight(4)
	ta.KeyMap.InsertNewline.SetKeys("ctrl+j")

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		config:    config,
		keys:      DefaultKeyMap(),
		styles:    styles,
		logger:    logger,
		acc:       calc.NewAccumulator(log),
		history:   log,
		assistant: deps.Assistant,
		mode:      ModeCalc,
		textarea:  ta,
		spinner:   sp,
		viewport:  viewport.New(modalWidth-4, 12),
		renderer:  NewRenderer(modalWidth-4, config.NoMarkdown, styles),
		ctx:       ctx,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case RecoverMsg:
		if msg.Seq == m.errorSeq {
			m.acc.Recover()
		}

	case ExplanationMsg:
		return m.handleExplanation(msg)

	case SolutionMsg:
		return m.handleSolution(msg)
	}

	return &m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return m.styles.SpinnerMessage.Render("Starting...")
	}

	var body string
	if m.mode == ModeModal {
		body = m.renderModal()
	} else {
		calcView := lipgloss.JoinVertical(lipgloss.Left, m.renderDisplay(), "", m.renderPad())
		switch m.mode {
		case ModeHistory:
			body = lipgloss.JoinHorizontal(lipgloss.Top, calcView, "   ", m.renderHistory())
		case ModeWordProblem:
			body = lipgloss.JoinHorizontal(lipgloss.Top, calcView, "   ", m.renderWordProblem())
		default:
			body = calcView
		}
	}

	sep := m.styles.Separator.Render(strings.Repeat("─", max(m.width, 1)))
	return lipgloss.JoinVertical(lipgloss.Left,
		body,
		sep,
		m.renderStatusBar(),
	)
}

func (m Model) renderDisplay() string {
	committed := m.acc.Caption()
	if committed == "" {
		committed = " "
	}
	operandStyle := m.styles.Display
	if m.acc.State() == calc.StateError {
		operandStyle = m.styles.DisplayError
	}
	inner := lipgloss.JoinVertical(lipgloss.Right,
		m.styles.Committed.Render(committed),
		operandStyle.Render(m.acc.Operand()),
	)
	return m.styles.DisplayFrame.Width(displayWidth).Align(lipgloss.Right).Render(inner)
}

func (m Model) renderPad() string {
	rows := make([]string, 0, len(padRows))
	for _, row := range padRows {
		cells := make([]string, 0, len(row))
		for _, label := range row {
			cells = append(cells, m.keyStyle(label).Render(label))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) keyStyle(label string) lipgloss.Style {
	switch label {
	case calc.OpAdd, calc.OpSubtract, calc.OpMultiply, calc.OpDivide:
		return m.styles.OperatorKey
	case "=":
		return m.styles.EqualsKey
	case "C", "⌫", "%", "±":
		return m.styles.FunctionKey
	default:
		return m.styles.Key
	}
}

func (m Model) renderHistory() string {
	var b strings.Builder
	b.WriteString(m.styles.PanelTitle.Render("History"))
	b.WriteString("\n\n")

	records := m.history.Records()
	if len(records) == 0 {
		b.WriteString(m.styles.Hint.Render("No calculations yet."))
		return b.String()
	}

	start := 0
	if m.historyCursor >= historyPanelRows {
		start = m.historyCursor - historyPanelRows + 1
	}
	end := min(start+historyPanelRows, len(records))
	for i := start; i < end; i++ {
		rec := records[i]
		line := m.styles.HistoryExpression.Render(rec.Expression+" = ") + m.styles.HistoryResult.Render(rec.Result)
		if i == m.historyCursor {
			b.WriteString(m.styles.SelectorChevron.Render("❯ "))
			line = m.styles.HistorySelected.Render(rec.Expression + " = " + rec.Result)
		} else {
			b.WriteString("  ")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(records) > historyPanelRows {
		b.WriteString(m.styles.Hint.Render(fmt.Sprintf("  %d of %d", m.historyCursor+1, len(records))))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderWordProblem() string {
	var b strings.Builder
	b.WriteString(m.styles.PanelTitle.Render("Word problem"))
	b.WriteString("\n\n")
	b.WriteString(m.textarea.View())
	b.WriteString("\n")
	if m.loading {
		b.WriteString(m.spinner.View() + " " + m.styles.SpinnerMessage.Render(m.loadingMsg))
	}
	return b.String()
}

func (m Model) renderModal() string {
	var content string
	if m.loading {
		content = "\n" + m.spinner.View() + " " + m.styles.SpinnerMessage.Render(m.loadingMsg) + "\n"
	} else {
		content = m.viewport.View()
	}
	inner := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.ModalTitle.Render(m.modalTitle),
		"",
		content,
	)
	modal := m.styles.Modal.Width(modalWidth).Render(inner)
	if m.width > 0 && m.height > 2 {
		return lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, modal)
	}
	return modal
}

func (m Model) renderStatusBar() string {
	var hints string
	switch m.mode {
	case ModeHistory:
		hints = "↑/↓ select · u use · e explain · x clear all · h close"
	case ModeWordProblem:
		hints = "enter solve · ctrl+j newline · esc back"
	case ModeModal:
		hints = "↑/↓ scroll · esc close"
	default:
		hints = "enter/= evaluate · n ± · % percent · h history · w word problem · ctrl+c quit"
	}
	label := m.config.AssistantLabel
	if m.assistant == nil {
		label = "assistant off"
	}
	if label != "" {
		hints += " · " + label
	}
	return m.styles.StatusBar.Render(hints)
}

func (m *Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := m.height - 8 // title, borders, separator, status
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Height = vpHeight
	m.ready = true
	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.cancelRequest()
		m.quitting = true
		return m, tea.Quit
	}

	switch m.mode {
	case ModeModal:
		return m.handleModalKey(msg)
	case ModeWordProblem:
		return m.handleWordProblemKey(msg)
	case ModeHistory:
		return m.handleHistoryKey(msg)
	default:
		return m.handleCalcKey(msg)
	}
}

func (m *Model) handleCalcKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Digit), key.Matches(msg, m.keys.Dot):
		m.acc.AppendDigit(msg.String())
	case key.Matches(msg, m.keys.Operator):
		if err := m.acc.ApplyOperator(msg.String()); err != nil {
			return m, m.evaluationFailed(err)
		}
	case key.Matches(msg, m.keys.Finalize):
		rec, err := m.acc.Finalize()
		if err != nil {
			return m, m.evaluationFailed(err)
		}
		if rec != nil {
			m.historyCursor = 0
			m.logger.Debug("calculation recorded", "expression", rec.Expression, "result", rec.Result)
		}
	case key.Matches(msg, m.keys.Backspace):
		m.acc.DeleteLast()
	case key.Matches(msg, m.keys.Clear):
		m.acc.Clear()
	case key.Matches(msg, m.keys.Percent):
		m.acc.Percentage()
	case key.Matches(msg, m.keys.Negate):
		m.acc.ToggleSign()
	case key.Matches(msg, m.keys.History):
		m.mode = ModeHistory
		m.historyCursor = 0
	case key.Matches(msg, m.keys.WordProblem):
		m.mode = ModeWordProblem
		return m, m.textarea.Focus()
	case key.Matches(msg, m.keys.Explain):
		if rec, ok := m.history.Get(0); ok {
			return m, m.startExplain(rec.Expression, rec.Result)
		}
	}
	return m, nil
}

func (m *Model) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.historyCursor > 0 {
			m.historyCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.historyCursor < m.history.Len()-1 {
			m.historyCursor++
		}
	case key.Matches(msg, m.keys.Use):
		if rec, ok := m.history.Get(m.historyCursor); ok {
			if err := m.acc.UseValue(rec.Result); err != nil {
				m.logger.Warn("history value not usable", "result", rec.Result, "error", err)
				return m, nil
			}
			m.mode = ModeCalc
		}
	case key.Matches(msg, m.keys.Explain):
		if rec, ok := m.history.Get(m.historyCursor); ok {
			return m, m.startExplain(rec.Expression, rec.Result)
		}
	case key.Matches(msg, m.keys.ClearHistory):
		m.history.Clear()
		m.historyCursor = 0
		m.logger.Info("history cleared")
	case key.Matches(msg, m.keys.History), key.Matches(msg, m.keys.Close):
		m.mode = ModeCalc
	}
	return m, nil
}

func (m *Model) handleWordProblemKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		m.cancelRequest()
		m.textarea.Blur()
		m.mode = ModeCalc
		return m, nil
	case key.Matches(msg, m.keys.Submit):
		problem := strings.TrimSpace(m.textarea.Value())
		if problem == "" || m.loading {
			return m, nil
		}
		return m, m.startSolve(problem)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) handleModalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close), key.Matches(msg, m.keys.Submit):
		m.closeModal()
		return m, nil
	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down),
		msg.Type == tea.KeyPgUp, msg.Type == tea.KeyPgDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// evaluationFailed schedules recovery from the error sentinel.
func (m *Model) evaluationFailed(err error) tea.Cmd {
	m.errorSeq++
	m.logger.Debug("evaluation failed", "error", err)
	return recoverCmd(m.errorSeq)
}

// beginRequest marks an assistant call as in flight and returns its context.
func (m *Model) beginRequest(op string) (context.Context, int) {
	ctx, cancel := context.WithCancel(m.ctx)
	m.cancel = cancel
	m.loading = true
	m.loadingMsg = LoadingMessage(op)
	m.requestSeq++
	return ctx, m.requestSeq
}

// finishRequest clears the loading flag after a reply arrived.
func (m *Model) finishRequest() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.loading = false
}

// cancelRequest abandons the in-flight call, if any.
func (m *Model) cancelRequest() {
	if !m.loading {
		return
	}
	m.finishRequest()
	m.requestSeq++
}

func (m *Model) startExplain(expression, result string) tea.Cmd {
	if m.loading {
		return nil
	}
	m.openModal(fmt.Sprintf("Explanation · %s = %s", expression, result))
	if m.assistant == nil {
		m.viewport.SetContent(m.renderer.RenderFailure())
		return nil
	}
	ctx, seq := m.beginRequest("explain")
	return tea.Batch(m.spinner.Tick, explainCmd(ctx, m.assistant, seq, expression, result))
}

func (m *Model) startSolve(problem string) tea.Cmd {
	if m.assistant == nil {
		m.openModal("Word problem")
		m.viewport.SetContent(m.renderer.RenderFailure())
		return nil
	}
	ctx, seq := m.beginRequest("solve")
	return tea.Batch(m.spinner.Tick, solveCmd(ctx, m.assistant, seq, problem))
}

func (m *Model) handleExplanation(msg ExplanationMsg) (tea.Model, tea.Cmd) {
	if msg.Seq != m.requestSeq || !m.loading {
		return m, nil
	}
	m.finishRequest()

	if msg.Err != nil || msg.Explanation == nil {
		m.logger.Warn("explain failed", "expression", msg.Expression, "error", msg.Err)
		m.viewport.SetContent(m.renderer.RenderFailure())
		return m, nil
	}
	m.viewport.SetContent(m.renderer.RenderExplanation(msg.Explanation))
	m.viewport.GotoTop()
	return m, nil
}

func (m *Model) handleSolution(msg SolutionMsg) (tea.Model, tea.Cmd) {
	if msg.Seq != m.requestSeq || !m.loading {
		return m, nil
	}
	m.finishRequest()

	m.openModal("Word problem")
	if msg.Err != nil || msg.Solution == nil {
		if !errors.Is(msg.Err, assistant.ErrEmptyProblem) {
			m.logger.Warn("solve failed", "error", msg.Err)
		}
		m.viewport.SetContent(m.renderer.RenderFailure())
		return m, nil
	}

	var cmd tea.Cmd
	if err := m.acc.LoadSolution(msg.Solution.Expression, msg.Solution.Result); err != nil {
		m.logger.Warn("solution result is not a number", "result", msg.Solution.Result)
		cmd = m.evaluationFailed(err)
	}
	m.textarea.Reset()
	m.textarea.Blur()
	m.returnMode = ModeCalc
	m.viewport.SetContent(m.renderer.RenderExplanation(SolutionExplanation(msg.Solution)))
	m.viewport.GotoTop()
	return m, cmd
}

func (m *Model) openModal(title string) {
	if m.mode != ModeModal {
		m.returnMode = m.mode
	}
	m.mode = ModeModal
	m.modalTitle = title
	m.viewport.SetContent("")
}

func (m *Model) closeModal() {
	m.cancelRequest()
	m.mode = m.returnMode
	if m.mode == ModeWordProblem {
		m.textarea.Focus()
	}
}

// Run starts the TUI and blocks until the user quits or ctx is done.
func Run(ctx context.Context, config Config, deps Deps) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := NewModel(ctx, config, deps)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if !config.Inline {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(model, opts...)

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
