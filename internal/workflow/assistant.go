// Package workflow contains Temporal workflow definitions.
package workflow

import (
	"strings"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/mfateev/smartcalc/internal/activities"
	"github.com/mfateev/smartcalc/internal/models"
)

// TaskQueue is the task queue the worker polls.
const TaskQueue = "smartcalc"

// assistantActivityOptions allows one attempt. A failed assistant call is
// reported to the user, who may ask again.
func assistantActivityOptions() workflow.ActivityOptions {
	return workflow.ActivityOptions{
		StartToCloseTimeout: 60 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
}

// ExplainCalculationWorkflow explains a finished calculation.
func ExplainCalculationWorkflow(ctx workflow.Context, input models.ExplainInput) (models.Explanation, error) {
	logger := workflow.GetLogger(ctx)
	if strings.TrimSpace(input.Expression) == "" {
		return models.Explanation{}, temporal.NewNonRetryableApplicationError("expression must not be empty", "InvalidRequest", nil)
	}

	ctx = workflow.WithActivityOptions(ctx, assistantActivityOptions())

	var out models.Explanation
	if err := workflow.ExecuteActivity(ctx, "ExplainCalculation", input).Get(ctx, &out); err != nil {
		logger.Warn("Explain activity failed", "expression", input.Expression, "error", err)
		return models.Explanation{}, err
	}

	logger.Info("Calculation explained", "expression", input.Expression, "steps", len(out.Steps))
	return out, nil
}

// SolveWordProblemWorkflow solves a natural-language word problem.
func SolveWordProblemWorkflow(ctx workflow.Context, input models.SolveInput) (models.Solution, error) {
	logger := workflow.GetLogger(ctx)
	if strings.TrimSpace(input.Problem) == "" {
		return models.Solution{}, temporal.NewNonRetryableApplicationError("word problem must not be empty", activities.ErrTypeEmptyProblem, nil)
	}

	ctx = workflow.WithActivityOptions(ctx, assistantActivityOptions())

	var out models.Solution
	if err := workflow.ExecuteActivity(ctx, "SolveWordProblem", input).Get(ctx, &out); err != nil {
		logger.Warn("Solve activity failed", "error", err)
		return models.Solution{}, err
	}

	logger.Info("Word problem solved", "expression", out.Expression, "result", out.Result)
	return out, nil
}
