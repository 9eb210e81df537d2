package cli

import "github.com/mfateev/smartcalc/internal/models"

// ExplanationMsg is sent when an explain request finishes.
type ExplanationMsg struct {
	Seq         int
	Expression  string
	Result      string
	Explanation *models.Explanation
	Err         error
}

// SolutionMsg is sent when a word problem request finishes.
type SolutionMsg struct {
	Seq      int
	Problem  string
	Solution *models.Solution
	Err      error
}

// RecoverMsg is sent once the error sentinel has been on screen for
// calc.ErrorDisplayDuration. Seq ties it to the failure that scheduled it.
type RecoverMsg struct {
	Seq int
}
