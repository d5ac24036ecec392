package tools

import (
	"context"
	"fmt"
	"testing"
)

func TestRegistryExecute(t *testing.T) {
	r := NewDefaultRegistry(nil)

	out, err := r.Execute(context.Background(), "echo", map[string]any{"text": "ping"})
	if err != nil {
		t.Fatalf("execute echo: %v", err)
	}
	if out != "ping" {
		t.Errorf("output = %q, want ping", out)
	}

	if _, err := r.Execute(context.Background(), "nope", nil); err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestDescriptorsSkipUnregistered(t *testing.T) {
	r := NewDefaultRegistry(nil)

	descs := r.Descriptors([]string{"echo", "not_a_tool", "get_time"})
	if len(descs) != 2 {
		t.Fatalf("got %d descriptors, want 2", len(descs))
	}
	if descs[0].Name != "echo" || descs[1].Name != "get_time" {
		t.Errorf("descriptors = %+v", descs)
	}
	if descs[0].Parameters["type"] != "object" {
		t.Errorf("echo parameters = %v", descs[0].Parameters)
	}
}

func TestNamesSorted(t *testing.T) {
	r := NewDefaultRegistry(nil)
	names := r.Names()
	want := []string{"echo", "get_time", "send_email"}
	if len(names) != len(want) {
		t.Fatalf("names = %v", names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

type recordingMailer struct {
	recipient string
	err       error
}

func (m *recordingMailer) Send(_ context.Context, recipient, _, _ string) error {
	m.recipient = recipient
	return m.err
}

func TestSendEmailTool(t *testing.T) {
	mailer := &recordingMailer{}
	tool := &SendEmailTool{Mailer: mailer}

	out, err := tool.Execute(context.Background(), map[string]any{
		"recipient": "bob@example.com",
		"subject":   "Hi",
		"body":      "Hello",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if mailer.recipient != "bob@example.com" {
		t.Errorf("recipient = %q", mailer.recipient)
	}
	if out == "" {
		t.Error("empty confirmation")
	}
}

func TestSendEmailToolRequiresRecipient(t *testing.T) {
	tool := &SendEmailTool{Mailer: &recordingMailer{}}
	if _, err := tool.Execute(context.Background(), map[string]any{"subject": "x"}); err == nil {
		t.Fatal("expected error without recipient")
	}
}

func TestSendEmailToolPropagatesMailerError(t *testing.T) {
	tool := &SendEmailTool{Mailer: &recordingMailer{err: fmt.Errorf("smtp down")}}
	if _, err := tool.Execute(context.Background(), map[string]any{"recipient": "a@b.c"}); err == nil {
		t.Fatal("expected mailer error")
	}
}

func TestGetString(t *testing.T) {
	args := map[string]any{"a": "x", "b": 7}
	if got := GetString(args, "a", "d"); got != "x" {
		t.Errorf("got %q", got)
	}
	if got := GetString(args, "b", "d"); got != "d" {
		t.Errorf("non-string value: got %q, want default", got)
	}
	if got := GetString(args, "c", "d"); got != "d" {
		t.Errorf("missing key: got %q, want default", got)
	}
}
