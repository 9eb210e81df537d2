package assistant

import (
	"fmt"

	"github.com/mfateev/smartcalc/internal/llm"
	"github.com/mfateev/smartcalc/internal/models"
)

const explainInstructions = "You are a friendly and patient math tutor. " +
	"Your job is to explain calculations step by step."

const solveInstructions = "You are an advanced math assistant. Solve the word problem you are given, " +
	"show the final mathematical calculation and explain the reasoning."

// ExplanationSchema constrains explain replies.
var ExplanationSchema = llm.Schema{
	Name:        "calculation_explanation",
	Description: "A step-by-step explanation of a calculation.",
	Properties: map[string]any{
		"explanation": map[string]any{
			"type":        "string",
			"description": "A simple overview of the calculation.",
		},
		"steps": map[string]any{
			"type":        "array",
			"items":       map[string]any{"type": "string"},
			"description": "An ordered list of logical steps that solve the calculation.",
		},
	},
	Required: []string{"explanation", "steps"},
}

// SolutionSchema constrains solve replies.
var SolutionSchema = llm.Schema{
	Name:        "word_problem_solution",
	Description: "The solution to a word problem.",
	Properties: map[string]any{
		"expression": map[string]any{
			"type":        "string",
			"description": "The simplified mathematical expression.",
		},
		"result": map[string]any{
			"type":        "string",
			"description": "The final numeric value.",
		},
		"reasoning": map[string]any{
			"type":        "string",
			"description": "The reasoning behind the solution.",
		},
	},
	Required: []string{"expression", "result", "reasoning"},
}

// ExplainPrompt is the user prompt for an explanation.
func ExplainPrompt(expression, result string) string {
	return fmt.Sprintf("Explain in detail how we arrive at the result %s from the expression %s. "+
		"Use simple, instructive language.", result, expression)
}

// ExplainRequest builds the llm request for an explanation.
func ExplainRequest(in models.ExplainInput) llm.Request {
	schema := ExplanationSchema
	return llm.Request{
		ModelConfig:  in.Model,
		Instructions: explainInstructions,
		Prompt:       ExplainPrompt(in.Expression, in.Result),
		Schema:       &schema,
	}
}

// SolveRequest builds the llm request for a word problem. The problem
// text is sent verbatim.
func SolveRequest(in models.SolveInput) llm.Request {
	schema := SolutionSchema
	return llm.Request{
		ModelConfig:  in.Model,
		Instructions: solveInstructions,
		Prompt:       in.Problem,
		Schema:       &schema,
	}
}
