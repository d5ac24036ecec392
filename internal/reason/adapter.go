package reason

import (
	"context"
	"fmt"
	"strings"

	"github.com/wardenhq/warden/internal/tools"
)

// Kind discriminates the two normalized outcomes of a model turn.
type Kind int

const (
	// KindText means the model answered with free text.
	KindText Kind = iota
	// KindFunctionCall means the model asked for a tool invocation.
	KindFunctionCall
)

// Result is the normalized outcome of one reasoning turn.
type Result struct {
	Kind    Kind
	Content string
	Call    *FunctionCall
	Usage   Usage
	CostUSD float64
	Model   string
}

// Adapter drives the reasoning model and normalizes its answer into either
// free text or exactly one structured function call.
type Adapter struct {
	provider    Provider
	model       string
	maxTokens   int
	temperature float64
}

// NewAdapter creates an adapter around a provider. An empty model name uses
// the provider default.
func NewAdapter(provider Provider, model string, maxTokens int, temperature float64) *Adapter {
	if model == "" {
		model = provider.DefaultModel()
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Adapter{
		provider:    provider,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
	}
}

// Complete runs one reasoning turn: system prompt, prior history oldest first,
// then the current user message. Structured tool calls win over text; when the
// model answers with print-wrapped pseudo-code instead, the fallback parser
// recovers the call.
func (a *Adapter) Complete(ctx context.Context, systemPrompt string, history []Message, userMessage string, descriptors []tools.Descriptor) (*Result, error) {
	messages := make([]Message, 0, len(history)+2)
	if systemPrompt != "" {
		messages = append(messages, Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, history...)
	messages = append(messages, Message{Role: "user", Content: userMessage})

	resp, err := a.provider.Chat(ctx, &ChatRequest{
		Messages:    messages,
		Tools:       descriptors,
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Temperature: a.temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("model call: %w", err)
	}

	result := &Result{
		Content: resp.Content,
		Usage:   resp.Usage,
		CostUSD: Cost(a.model, resp.Usage),
		Model:   a.model,
	}

	switch {
	case resp.FunctionCall != nil && resp.FunctionCall.Name != "":
		result.Kind = KindFunctionCall
		result.Call = resp.FunctionCall
	default:
		if call := ExtractFunctionCall(resp.Content); call != nil {
			result.Kind = KindFunctionCall
			result.Call = call
			break
		}
		result.Kind = KindText
		result.Content = strings.TrimSpace(resp.Content)
	}
	return result, nil
}
