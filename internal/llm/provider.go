package llm

import (
	"strings"

	"github.com/mfateev/smartcalc/internal/models"
)

// DetectProvider returns the provider name inferred from a model name string.
// Returns "anthropic" for Claude models and "openai" for everything else.
func DetectProvider(model string) string {
	m := strings.ToLower(model)
	if strings.HasPrefix(m, "claude-") {
		return models.ProviderAnthropic
	}
	return models.ProviderOpenAI
}
