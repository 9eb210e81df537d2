package temporalclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	"github.com/mfateev/smartcalc/internal/activities"
	"github.com/mfateev/smartcalc/internal/assistant"
	"github.com/mfateev/smartcalc/internal/models"
	"github.com/mfateev/smartcalc/internal/workflow"
)

// RemoteAssistant implements assistant.Assistant by running the assistant
// workflows on a Temporal worker and waiting for their results.
type RemoteAssistant struct {
	client    client.Client
	taskQueue string
	config    models.AssistantConfig
}

var _ assistant.Assistant = (*RemoteAssistant)(nil)

// NewRemoteAssistant creates a RemoteAssistant. An empty taskQueue uses
// workflow.TaskQueue.
func NewRemoteAssistant(c client.Client, taskQueue string, config models.AssistantConfig) *RemoteAssistant {
	if taskQueue == "" {
		taskQueue = workflow.TaskQueue
	}
	return &RemoteAssistant{client: c, taskQueue: taskQueue, config: config}
}

// Explain runs ExplainCalculationWorkflow.
func (r *RemoteAssistant) Explain(ctx context.Context, expression, result string) (*models.Explanation, error) {
	input := models.ExplainInput{Expression: expression, Result: result, Model: r.config.Explain}

	run, err := r.client.ExecuteWorkflow(ctx, r.startOptions("explain"), workflow.ExplainCalculationWorkflow, input)
	if err != nil {
		return nil, fmt.Errorf("start explain workflow: %w", fromStartError(err))
	}

	var out models.Explanation
	if err := run.Get(ctx, &out); err != nil {
		return nil, fromWorkflowError(err)
	}
	return &out, nil
}

// Solve runs SolveWordProblemWorkflow. A blank problem is rejected
// locally without starting a workflow.
func (r *RemoteAssistant) Solve(ctx context.Context, problem string) (*models.Solution, error) {
	input := models.SolveInput{Problem: problem, Model: r.config.Solve}
	if strings.TrimSpace(problem) == "" {
		return nil, assistant.ErrEmptyProblem
	}

	run, err := r.client.ExecuteWorkflow(ctx, r.startOptions("solve"), workflow.SolveWordProblemWorkflow, input)
	if err != nil {
		return nil, fmt.Errorf("start solve workflow: %w", fromStartError(err))
	}

	var out models.Solution
	if err := run.Get(ctx, &out); err != nil {
		return nil, fromWorkflowError(err)
	}
	return &out, nil
}

func (r *RemoteAssistant) startOptions(kind string) client.StartWorkflowOptions {
	return client.StartWorkflowOptions{
		ID:        fmt.Sprintf("smartcalc-%s-%s", kind, uuid.New().String()[:8]),
		TaskQueue: r.taskQueue,
	}
}

// fromStartError classifies a failure to reach the Temporal frontend.
func fromStartError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var (
		unavailable *serviceerror.Unavailable
		exhausted   *serviceerror.ResourceExhausted
		noNamespace *serviceerror.NamespaceNotFound
	)
	switch {
	case errors.As(err, &unavailable):
		return models.NewTransientError(fmt.Sprintf("temporal unavailable: %v", err))
	case errors.As(err, &exhausted):
		return models.NewRateLimitError(fmt.Sprintf("temporal rate limited: %v", err))
	case errors.As(err, &noNamespace):
		return models.NewFatalError(fmt.Sprintf("temporal namespace not found: %v", err))
	default:
		return models.NewTransientError(err.Error())
	}
}

// fromWorkflowError maps the ApplicationError raised by an activity back
// onto the assistant error vocabulary.
func fromWorkflowError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var appErr *temporal.ApplicationError
	if !errors.As(err, &appErr) {
		return models.NewTransientError(fmt.Sprintf("workflow failed: %v", err))
	}
	if appErr.Type() == activities.ErrTypeEmptyProblem {
		return assistant.ErrEmptyProblem
	}
	var details models.AssistantError
	if appErr.HasDetails() && appErr.Details(&details) == nil && details.Message != "" {
		return &details
	}
	if t, ok := models.ParseErrorType(appErr.Type()); ok {
		return &models.AssistantError{Type: t, Message: appErr.Error()}
	}
	return models.NewFatalError(appErr.Error())
}

