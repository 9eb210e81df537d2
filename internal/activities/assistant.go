// Package activities contains Temporal activity implementations.
package activities

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/mfateev/smartcalc/internal/assistant"
	"github.com/mfateev/smartcalc/internal/models"
)

// ErrTypeEmptyProblem is the ApplicationError type used for a blank word
// problem.
const ErrTypeEmptyProblem = "EmptyProblem"

// AssistantActivities runs assistant calls inside a worker.
type AssistantActivities struct {
	service *assistant.Service
}

// NewAssistantActivities creates a new AssistantActivities instance.
func NewAssistantActivities(service *assistant.Service) *AssistantActivities {
	return &AssistantActivities{service: service}
}

// ExplainCalculation explains how input.Expression yields input.Result.
func (a *AssistantActivities) ExplainCalculation(ctx context.Context, input models.ExplainInput) (models.Explanation, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Explaining calculation", "expression", input.Expression, "model", input.Model.Model)

	out, err := a.service.ExplainWith(ctx, input)
	if err != nil {
		return models.Explanation{}, toApplicationError(err)
	}
	return *out, nil
}

// SolveWordProblem solves a natural-language word problem.
func (a *AssistantActivities) SolveWordProblem(ctx context.Context, input models.SolveInput) (models.Solution, error) {
	logger := activity.GetLogger(ctx)
	logger.Info("Solving word problem", "model", input.Model.Model)

	out, err := a.service.SolveWith(ctx, input)
	if err != nil {
		return models.Solution{}, toApplicationError(err)
	}
	return *out, nil
}

// toApplicationError converts an assistant failure into a non-retryable
// ApplicationError whose type is the AssistantError classification.
// Retrying is left to the user.
func toApplicationError(err error) error {
	if errors.Is(err, assistant.ErrEmptyProblem) {
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeEmptyProblem, err)
	}
	var ae *models.AssistantError
	if errors.As(err, &ae) {
		return temporal.NewNonRetryableApplicationError(err.Error(), ae.Type.String(), err, *ae)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return temporal.NewNonRetryableApplicationError(err.Error(), models.ErrorTypeTransient.String(), err)
}
