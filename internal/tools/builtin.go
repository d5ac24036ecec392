package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// NewDefaultRegistry returns a registry with the built-in tools registered.
// Pass a nil mailer to get LogMailer.
func NewDefaultRegistry(mailer Mailer) *Registry {
	if mailer == nil {
		mailer = &LogMailer{}
	}
	r := NewRegistry()
	r.Register(&EchoTool{})
	r.Register(&TimeTool{})
	r.Register(&SendEmailTool{Mailer: mailer})
	return r
}

// EchoTool returns its input. Useful for smoke-testing an agent's tool wiring.
type EchoTool struct{}

func (t *EchoTool) Name() string        { return "echo" }
func (t *EchoTool) Description() string { return "Echo the given text back to the user." }

func (t *EchoTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"text": map[string]any{"type": "string", "description": "Text to echo"},
		},
		"required": []string{"text"},
	}
}

func (t *EchoTool) Execute(_ context.Context, args map[string]any) (string, error) {
	return GetString(args, "text", ""), nil
}

// TimeTool reports the current time.
type TimeTool struct{}

func (t *TimeTool) Name() string        { return "get_time" }
func (t *TimeTool) Description() string { return "Get the current date and time." }

func (t *TimeTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (t *TimeTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	return time.Now().Format(time.RFC1123), nil
}

// Mailer delivers an email on behalf of SendEmailTool. The default
// implementation is injected at startup; tests substitute fakes.
type Mailer interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// LogMailer writes mail to the structured log instead of delivering it. The
// default until an outbound mail integration is configured.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(_ context.Context, recipient, subject, body string) error {
	logger := m.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("outbound email",
		"recipient", recipient,
		"subject", subject,
		"body_len", len(body))
	return nil
}

// SendEmailTool sends an email. It is gated by default: the worker suspends
// the call into a pending governance task until a human approves it.
type SendEmailTool struct {
	Mailer Mailer
}

func (t *SendEmailTool) Name() string { return "send_email" }

func (t *SendEmailTool) Description() string {
	return "Send an email to a recipient. Requires human approval before sending."
}

func (t *SendEmailTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recipient": map[string]any{"type": "string", "description": "Email address of the recipient"},
			"subject":   map[string]any{"type": "string", "description": "Email subject line"},
			"body":      map[string]any{"type": "string", "description": "Email body text"},
		},
		"required": []string{"recipient", "subject", "body"},
	}
}

func (t *SendEmailTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	recipient := GetString(args, "recipient", "")
	subject := GetString(args, "subject", "")
	body := GetString(args, "body", "")
	if recipient == "" {
		return "", fmt.Errorf("send_email: recipient is required")
	}
	if t.Mailer == nil {
		return "", fmt.Errorf("send_email: no mailer configured")
	}
	if err := t.Mailer.Send(ctx, recipient, subject, body); err != nil {
		return "", fmt.Errorf("send_email: %w", err)
	}
	return fmt.Sprintf("Email sent to %s: %s", recipient, subject), nil
}
