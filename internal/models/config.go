package models

// Provider names understood by the llm package.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// ModelConfig configures the model used for one assistant task.
type ModelConfig struct {
	Provider    string  `json:"provider" yaml:"provider"` // "openai" or "anthropic"; empty means detect from Model
	Model       string  `json:"model" yaml:"model"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxTokens   int     `json:"max_tokens" yaml:"max_tokens"`
}

// DefaultExplainModelConfig is used for calculation explanations, which
// favour a fast model.
func DefaultExplainModelConfig() ModelConfig {
	return ModelConfig{
		Provider:    ProviderOpenAI,
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   1024,
	}
}

// DefaultSolveModelConfig is used for word problems, which favour a
// stronger reasoning model.
func DefaultSolveModelConfig() ModelConfig {
	return ModelConfig{
		Provider:    ProviderOpenAI,
		Model:       "gpt-4o",
		Temperature: 0.2,
		MaxTokens:   1024,
	}
}

// AssistantConfig holds the per-task model configuration.
type AssistantConfig struct {
	Explain ModelConfig `json:"explain" yaml:"explain"`
	Solve   ModelConfig `json:"solve" yaml:"solve"`
}

// DefaultAssistantConfig returns the default per-task models.
func DefaultAssistantConfig() AssistantConfig {
	return AssistantConfig{
		Explain: DefaultExplainModelConfig(),
		Solve:   DefaultSolveModelConfig(),
	}
}
