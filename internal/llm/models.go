package llm

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/openai/openai-go/v3"
	openaiopt "github.com/openai/openai-go/v3/option"

	"github.com/mfateev/smartcalc/internal/models"
)

// AvailableModel describes a model returned by a provider's list-models API.
type AvailableModel struct {
	Provider    string // "openai" or "anthropic"
	ID          string // model identifier usable in API calls
	DisplayName string // human-readable name (Anthropic provides this; empty for OpenAI)
}

// FetchAvailableModels queries each provider whose key is set and returns a
// merged list sorted by provider then ID. A provider that fails is
// skipped; the joined provider errors are returned only when nothing
// could be listed.
func FetchAvailableModels(ctx context.Context, creds Credentials) ([]AvailableModel, error) {
	var all []AvailableModel
	var errs []error

	if creds.OpenAIKey != "" {
		found, err := fetchOpenAIModels(ctx, openai.NewClient(openaiopt.WithAPIKey(creds.OpenAIKey)))
		if err != nil {
			errs = append(errs, classifyError(err))
		}
		all = append(all, found...)
	}

	if creds.AnthropicKey != "" {
		found, err := fetchAnthropicModels(ctx, anthropic.NewClient(anthropicopt.WithAPIKey(creds.AnthropicKey)))
		if err != nil {
			errs = append(errs, classifyAnthropicError(err))
		}
		all = append(all, found...)
	}

	if len(all) == 0 {
		return nil, errors.Join(errs...)
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Provider != all[j].Provider {
			return all[i].Provider < all[j].Provider // "anthropic" < "openai"
		}
		return all[i].ID < all[j].ID
	})
	return all, nil
}

func fetchOpenAIModels(ctx context.Context, client openai.Client) ([]AvailableModel, error) {
	page, err := client.Models.List(ctx)
	if err != nil {
		return nil, err
	}

	var result []AvailableModel
	for _, m := range page.Data {
		if supportsStructuredOutput(m.ID) {
			result = append(result, AvailableModel{Provider: models.ProviderOpenAI, ID: m.ID})
		}
	}
	return result, nil
}

// supportsStructuredOutput reports whether an OpenAI model ID belongs to
// a text-generation family that accepts json_schema output. Date-pinned
// snapshots are dropped to keep the list short.
func supportsStructuredOutput(id string) bool {
	if strings.HasPrefix(id, "ft:") {
		return false
	}
	family := false
	for _, prefix := range []string{"gpt-4o", "gpt-4.1", "gpt-5", "o1", "o3", "o4"} {
		if strings.HasPrefix(id, prefix) {
			family = true
			break
		}
	}
	if !family {
		return false
	}
	for _, sub := range []string{"-tts", "-realtime", "-transcribe", "-audio", "-search", "-image", "-preview"} {
		if strings.Contains(id, sub) {
			return false
		}
	}
	return !hasDateSuffix(id)
}

// hasDateSuffix returns true for snapshot IDs such as "gpt-4o-2024-05-13"
// or "gpt-4-0613".
func hasDateSuffix(id string) bool {
	parts := strings.Split(id, "-")
	for i, p := range parts {
		if len(p) == 4 && strings.HasPrefix(p, "20") && allDigits(p) && i > 0 {
			return true
		}
	}
	last := parts[len(parts)-1]
	return len(parts) > 1 && len(last) >= 4 && allDigits(last)
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return len(s) > 0
}

// fetchAnthropicModels pages through the Anthropic Models API.
// Anthropic only returns Claude models so no filtering is needed.
func fetchAnthropicModels(ctx context.Context, client anthropic.Client) ([]AvailableModel, error) {
	iter := client.Models.ListAutoPaging(ctx, anthropic.ModelListParams{})

	var result []AvailableModel
	for iter.Next() {
		m := iter.Current()
		result = append(result, AvailableModel{
			Provider:    models.ProviderAnthropic,
			ID:          m.ID,
			DisplayName: m.DisplayName,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
