package reason

import "strings"

// modelRate holds USD prices per 1K tokens.
type modelRate struct {
	PromptPer1K     float64
	CompletionPer1K float64
}

// Published list prices, keyed by model name prefix. Unknown models fall back
// to defaultRate so cost accounting never blocks a run.
var modelRates = map[string]modelRate{
	"gpt-4o":        {PromptPer1K: 0.0025, CompletionPer1K: 0.01},
	"gpt-4o-mini":   {PromptPer1K: 0.00015, CompletionPer1K: 0.0006},
	"gpt-4-turbo":   {PromptPer1K: 0.01, CompletionPer1K: 0.03},
	"gpt-3.5-turbo": {PromptPer1K: 0.0005, CompletionPer1K: 0.0015},
}

var defaultRate = modelRate{PromptPer1K: 0.001, CompletionPer1K: 0.002}

func rateFor(model string) modelRate {
	if r, ok := modelRates[model]; ok {
		return r
	}
	// Longest-prefix match so versioned names like gpt-4o-2024-08-06 price
	// as their base model.
	best := ""
	for prefix := range modelRates {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best != "" {
		return modelRates[best]
	}
	return defaultRate
}

// Cost returns the USD cost of a model call. The result is never negative,
// even for malformed usage counts.
func Cost(model string, usage Usage) float64 {
	rate := rateFor(model)
	prompt := usage.PromptTokens
	completion := usage.CompletionTokens
	if prompt < 0 {
		prompt = 0
	}
	if completion < 0 {
		completion = 0
	}
	return float64(prompt)*rate.PromptPer1K/1000 + float64(completion)*rate.CompletionPer1K/1000
}
