package cli

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings for the TUI.
type KeyMap struct {
	// Calculator pad
	Digit     key.Binding
	Dot       key.Binding
	Operator  key.Binding
	Finalize  key.Binding
	Backspace key.Binding
	Clear     key.Binding
	Percent   key.Binding
	Negate    key.Binding

	// Panels
	History     key.Binding
	WordProblem key.Binding

	// History panel
	Up           key.Binding
	Down         key.Binding
	Use          key.Binding
	Explain      key.Binding
	ClearHistory key.Binding

	// Word problem input and modal
	Submit key.Binding
	Close  key.Binding

	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Digit: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "digit"),
		),
		Dot: key.NewBinding(
			key.WithKeys("."),
			key.WithHelp(".", "decimal point"),
		),
		Operator: key.NewBinding(
			key.WithKeys("+", "-", "*", "/"),
			key.WithHelp("+-*/", "operator"),
		),
		Finalize: key.NewBinding(
			key.WithKeys("enter", "="),
			key.WithHelp("enter/=", "evaluate"),
		),
		Backspace: key.NewBinding(
			key.WithKeys("backspace"),
			key.WithHelp("⌫", "delete"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc", "c", "C"),
			key.WithHelp("esc/c", "clear"),
		),
		Percent: key.NewBinding(
			key.WithKeys("%"),
			key.WithHelp("%", "percent"),
		),
		Negate: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "±"),
		),
		History: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "history"),
		),
		WordProblem: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "word problem"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Use: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "use result"),
		),
		Explain: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "explain"),
		),
		ClearHistory: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear all"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "solve"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}
