// Package cli implements the interactive terminal calculator for smartcalc.
package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/term"

	"github.com/mfateev/smartcalc/internal/models"
)

// FailureMessage is shown whenever the assistant could not produce an answer.
const FailureMessage = "Something went wrong in the world of numbers."

// Renderer turns assistant answers into styled strings for the modal and
// for the one-shot subcommands.
type Renderer struct {
	width      int
	noMarkdown bool
	styles     Styles
	mdRenderer *glamour.TermRenderer
}

// NewRenderer creates a renderer. A width of zero means the terminal width.
func NewRenderer(width int, noMarkdown bool, styles Styles) *Renderer {
	r := &Renderer{
		width:      width,
		noMarkdown: noMarkdown,
		styles:     styles,
	}
	if !noMarkdown {
		w := width
		if w <= 0 {
			w = 80
			if tw, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && tw > 0 {
				w = tw
			}
		}
		md, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(w),
		)
		if err == nil {
			r.mdRenderer = md
		}
	}
	return r
}

// ExplanationMarkdown lays an explanation out as markdown: the concept
// paragraph followed by a numbered step list.
func ExplanationMarkdown(exp *models.Explanation) string {
	var b strings.Builder
	b.WriteString("### Concept\n\n")
	b.WriteString(strings.TrimSpace(exp.Explanation))
	b.WriteString("\n")
	if len(exp.Steps) > 0 {
		b.WriteString("\n### Step by step\n\n")
		for i, step := range exp.Steps {
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(step))
		}
	}
	return b.String()
}

// SolutionExplanation folds a solved word problem into the explanation
// shape shown by the modal.
func SolutionExplanation(sol *models.Solution) *models.Explanation {
	return &models.Explanation{
		Explanation: sol.Reasoning,
		Steps: []string{
			"Expression: " + sol.Expression,
			"Final result: " + sol.Result,
		},
	}
}

// RenderExplanation renders an explanation, through glamour when enabled.
func (r *Renderer) RenderExplanation(exp *models.Explanation) string {
	if exp == nil {
		return r.RenderFailure()
	}
	md := ExplanationMarkdown(exp)
	if r.mdRenderer != nil {
		rendered, err := r.mdRenderer.Render(md)
		if err == nil {
			return rendered
		}
	}
	return md
}

// RenderFailure renders the generic failure message.
func (r *Renderer) RenderFailure() string {
	return r.styles.Failure.Render(FailureMessage) + "\n"
}
