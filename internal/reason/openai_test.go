package reason

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wardenhq/warden/internal/tools"
)

func TestOpenAIProvider_DefaultModel(t *testing.T) {
	p := NewOpenAIProvider("test-key", "", "", 0)
	if p.DefaultModel() != "gpt-4o-mini" {
		t.Errorf("expected default model gpt-4o-mini, got %s", p.DefaultModel())
	}

	p = NewOpenAIProvider("test-key", "", "gpt-4o", 0)
	if p.DefaultModel() != "gpt-4o" {
		t.Errorf("expected model gpt-4o, got %s", p.DefaultModel())
	}
}

func TestOpenAIProvider_ParseSimpleResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing bearer auth: %s", r.Header.Get("Authorization"))
		}
		resp := openAIResponse{
			Choices: []openAIChoice{
				{
					Message:      openAIMessage{Role: "assistant", Content: "Hello, world!"},
					FinishReason: "stop",
				},
			},
		}
		resp.Usage.PromptTokens = 10
		resp.Usage.CompletionTokens = 5
		resp.Usage.TotalTokens = 15
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", server.URL, "test-model", 0)
	resp, err := p.Chat(context.Background(), &ChatRequest{
		Messages:    []Message{{Role: "user", Content: "Hello"}},
		MaxTokens:   100,
		Temperature: 0.7,
	})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if resp.Content != "Hello, world!" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.FinishReason != "stop" {
		t.Errorf("finish_reason = %q", resp.FinishReason)
	}
	if resp.Usage.TotalTokens != 15 {
		t.Errorf("total_tokens = %d, want 15", resp.Usage.TotalTokens)
	}
	if resp.FunctionCall != nil {
		t.Errorf("unexpected function call: %+v", resp.FunctionCall)
	}
}

func TestOpenAIProvider_ParseToolCallResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if _, ok := body["tools"]; !ok {
			t.Error("request body missing tools")
		}
		if body["tool_choice"] != "auto" {
			t.Errorf("tool_choice = %v", body["tool_choice"])
		}

		tc := openAIToolCall{ID: "call_123", Type: "function"}
		tc.Function.Name = "send_email"
		tc.Function.Arguments = `{"recipient":"bob@example.com","subject":"Hi"}`
		resp := openAIResponse{
			Choices: []openAIChoice{
				{
					Message:      openAIMessage{Role: "assistant", ToolCalls: []openAIToolCall{tc}},
					FinishReason: "tool_calls",
				},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", server.URL, "test-model", 0)
	resp, err := p.Chat(context.Background(), &ChatRequest{
		Messages: []Message{{Role: "user", Content: "email Bob"}},
		Tools: []tools.Descriptor{{
			Name:        "send_email",
			Description: "Send an email",
			Parameters:  map[string]any{"type": "object"},
		}},
	})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if resp.FunctionCall == nil {
		t.Fatal("expected a function call")
	}
	if resp.FunctionCall.Name != "send_email" {
		t.Errorf("call name = %q", resp.FunctionCall.Name)
	}
	if got, _ := resp.FunctionCall.Arguments["recipient"].(string); got != "bob@example.com" {
		t.Errorf("recipient = %q", got)
	}
}

func TestOpenAIProvider_MalformedToolArgumentsFallBackToRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tc := openAIToolCall{ID: "call_1", Type: "function"}
		tc.Function.Name = "echo"
		tc.Function.Arguments = `not json at all`
		resp := openAIResponse{
			Choices: []openAIChoice{{Message: openAIMessage{ToolCalls: []openAIToolCall{tc}}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", server.URL, "test-model", 0)
	resp, err := p.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "x"}}})
	if err != nil {
		t.Fatalf("Chat() error: %v", err)
	}
	if resp.FunctionCall == nil {
		t.Fatal("expected a function call")
	}
	if raw, _ := resp.FunctionCall.Arguments["raw"].(string); raw != "not json at all" {
		t.Errorf("raw fallback = %q", raw)
	}
}

func TestOpenAIProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", server.URL, "test-model", 0)
	if _, err := p.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "x"}}}); err == nil {
		t.Fatal("expected error on 429")
	}
}

func TestOpenAIProvider_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openAIResponse{})
	}))
	defer server.Close()

	p := NewOpenAIProvider("test-key", server.URL, "test-model", 0)
	if _, err := p.Chat(context.Background(), &ChatRequest{Messages: []Message{{Role: "user", Content: "x"}}}); err == nil {
		t.Fatal("expected error on empty choices")
	}
}
