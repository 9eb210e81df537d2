package models

// Explanation is a step-by-step walkthrough of a finished calculation.
type Explanation struct {
	Explanation string   `json:"explanation"`
	Steps       []string `json:"steps"`
}

// Solution is the answer to a natural-language word problem.
type Solution struct {
	Expression string `json:"expression"`
	Result     string `json:"result"`
	Reasoning  string `json:"reasoning"`
}

// ExplainInput is the payload of an explain request.
type ExplainInput struct {
	Expression string      `json:"expression"`
	Result     string      `json:"result"`
	Model      ModelConfig `json:"model"`
}

// SolveInput is the payload of a word-problem request.
type SolveInput struct {
	Problem string      `json:"problem"`
	Model   ModelConfig `json:"model"`
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
