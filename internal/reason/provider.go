// Package reason wraps the opaque reasoning-model call and normalizes its
// output into either free text or a structured function call.
package reason

import (
	"context"

	"github.com/wardenhq/warden/internal/tools"
)

// Provider is the interface for reasoning-model API clients.
type Provider interface {
	// Chat sends a completion request and returns the response.
	Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
	// DefaultModel returns the configured default model.
	DefaultModel() string
}

// ChatRequest contains the parameters for a completion request.
type ChatRequest struct {
	Messages    []Message
	Tools       []tools.Descriptor
	Model       string
	MaxTokens   int
	Temperature float64
}

// ChatResponse contains the response from a completion request.
type ChatResponse struct {
	Content      string
	FunctionCall *FunctionCall
	FinishReason string
	Usage        Usage
}

// Message represents one turn of conversation history.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// FunctionCall is a structured request to invoke one named function.
type FunctionCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// Usage contains token usage information. Fields default to zero when the
// model's answer omits them.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
