package cli

import "github.com/charmbracelet/lipgloss"

// Styles holds all lipgloss styles for the TUI.
type Styles struct {
	// Main display (current operand)
	Display lipgloss.Style
	// Display while showing the error sentinel
	DisplayError lipgloss.Style
	// Secondary display (committed expression)
	Committed lipgloss.Style
	// Frame around both displays
	DisplayFrame lipgloss.Style
	// Digit and dot keys on the pad
	Key lipgloss.Style
	// Operator keys on the pad
	OperatorKey lipgloss.Style
	// Equals key
	EqualsKey lipgloss.Style
	// Clear/delete/percent keys
	FunctionKey lipgloss.Style
	// Panel titles (history, word problem)
	PanelTitle lipgloss.Style
	// History row expression
	HistoryExpression lipgloss.Style
	// History row result
	HistoryResult lipgloss.Style
	// Highlighted history row
	HistorySelected lipgloss.Style
	// Selector chevron indicator
	SelectorChevron lipgloss.Style
	// Assistant modal frame
	Modal lipgloss.Style
	// Assistant modal title
	ModalTitle lipgloss.Style
	// Generic failure text
	Failure lipgloss.Style
	// Dimmed hint text
	Hint lipgloss.Style
	// Separator line
	Separator lipgloss.Style
	// Status bar
	StatusBar lipgloss.Style
	// Spinner message
	SpinnerMessage lipgloss.Style
}

// DefaultStyles returns styles with colors enabled.
func DefaultStyles() Styles {
	key := lipgloss.NewStyle().Width(5).Align(lipgloss.Center)
	return Styles{
		Display:           lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")),
		DisplayError:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")), // red
		Committed:         lipgloss.NewStyle().Faint(true),
		DisplayFrame:      lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("5")).Padding(0, 1),
		Key:               key,
		OperatorKey:       key.Foreground(lipgloss.Color("5")).Bold(true), // magenta
		EqualsKey:         key.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("5")).Bold(true),
		FunctionKey:       key.Foreground(lipgloss.Color("3")), // yellow
		PanelTitle:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		HistoryExpression: lipgloss.NewStyle().Faint(true),
		HistoryResult:     lipgloss.NewStyle().Bold(true),
		HistorySelected:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true), // cyan
		SelectorChevron:   lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		Modal:             lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("5")).Padding(0, 1),
		ModalTitle:        lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		Failure:           lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Hint:              lipgloss.NewStyle().Faint(true),
		Separator:         lipgloss.NewStyle().Faint(true),
		StatusBar:         lipgloss.NewStyle().Faint(true),
		SpinnerMessage:    lipgloss.NewStyle().Faint(true),
	}
}

// NoColorStyles returns styles with no colors (plain text).
func NoColorStyles() Styles {
	key := lipgloss.NewStyle().Width(5).Align(lipgloss.Center)
	frame := lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1)
	return Styles{
		Display:           lipgloss.NewStyle(),
		DisplayError:      lipgloss.NewStyle(),
		Committed:         lipgloss.NewStyle(),
		DisplayFrame:      frame,
		Key:               key,
		OperatorKey:       key,
		EqualsKey:         key,
		FunctionKey:       key,
		PanelTitle:        lipgloss.NewStyle(),
		HistoryExpression: lipgloss.NewStyle(),
		HistoryResult:     lipgloss.NewStyle(),
		HistorySelected:   lipgloss.NewStyle(),
		SelectorChevron:   lipgloss.NewStyle(),
		Modal:             frame,
		ModalTitle:        lipgloss.NewStyle(),
		Failure:           lipgloss.NewStyle(),
		Hint:              lipgloss.NewStyle(),
		Separator:         lipgloss.NewStyle(),
		StatusBar:         lipgloss.NewStyle(),
		SpinnerMessage:    lipgloss.NewStyle(),
	}
}
