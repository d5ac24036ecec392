package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wardenhq/warden/internal/bus"
	"github.com/wardenhq/warden/internal/reason"
	"github.com/wardenhq/warden/internal/risk"
	"github.com/wardenhq/warden/internal/store"
	"github.com/wardenhq/warden/internal/trace"
)

// handleChat processes one CHAT event: safety gate, agent resolution, the
// reasoning turn, then either plain text, direct execution of a safe tool, or
// suspension of a gated tool into a governance task.
func (w *Worker) handleChat(ctx context.Context, ev *bus.Event, span *trace.Span) error {
	// The gate fails closed: an unreadable flag drops the event the same as
	// an engaged stop. Dropped events leave no message and no usage log.
	if active, err := w.gate.Active(); active {
		w.logger.Warn("emergency stop active, dropping chat event",
			"agent_id", ev.AgentID, "error", err)
		gateSpan := w.tracer.StartChild(span, "safety_gate")
		gateSpan.End(map[string]any{"halted": true})
		return nil
	}

	agent, err := w.store.GetAgent(ev.AgentID)
	if errors.Is(err, store.ErrNotFound) {
		w.logger.Error("chat for unknown agent, dropping", "agent_id", ev.AgentID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load agent %s: %w", ev.AgentID, err)
	}
	if agent.Status != store.AgentLive {
		w.logger.Warn("chat for non-live agent, dropping",
			"agent_id", ev.AgentID, "status", agent.Status)
		return nil
	}

	userText := ev.Message
	if ev.DBMessageID != "" {
		// The ingress already persisted the user turn; don't write it twice.
		if m, err := w.store.GetMessage(ev.DBMessageID); err == nil {
			userText = m.Content
		}
	}
	if userText == "" {
		w.logger.Error("chat event with no message, dropping", "agent_id", ev.AgentID)
		return nil
	}

	// History is fetched before the current turn is persisted so the model
	// does not see the user message twice. When the ingress already wrote the
	// turn, it is the newest history row; fetch one extra and drop it so it
	// neither duplicates the current turn nor eats a history slot.
	limit := w.opts.HistoryTurns
	if ev.DBMessageID != "" {
		limit++
	}
	history, err := w.store.ListRecentMessages(agent.AgentID, limit)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if ev.DBMessageID != "" {
		history = dropMessage(history, ev.DBMessageID)
		if len(history) > w.opts.HistoryTurns {
			history = history[len(history)-w.opts.HistoryTurns:]
		}
	}
	if ev.DBMessageID == "" {
		if _, err := w.store.CreateMessage(&store.Message{
			AgentID: agent.AgentID,
			Role:    "user",
			Content: userText,
		}); err != nil {
			return fmt.Errorf("persist user message: %w", err)
		}
	}

	modelSpan := w.tracer.StartChild(span, "model_call")
	result, err := w.reasoner.Complete(ctx, agent.SystemPrompt, toModelHistory(history), userText, w.registry.Descriptors(agent.Tools))
	if err != nil {
		modelSpan.EndError(err)
		return err
	}
	modelSpan.End(map[string]any{
		"model":        result.Model,
		"total_tokens": result.Usage.TotalTokens,
	})

	if err := w.recordModelUsage(agent.AgentID, result); err != nil {
		return err
	}

	if result.Kind == reason.KindText {
		_, err := w.store.CreateMessage(&store.Message{
			AgentID:          agent.AgentID,
			Role:             "assistant",
			Content:          result.Content,
			PromptTokens:     result.Usage.PromptTokens,
			CompletionTokens: result.Usage.CompletionTokens,
			TotalTokens:      result.Usage.TotalTokens,
			CostUSD:          result.CostUSD,
		})
		if err != nil {
			return fmt.Errorf("persist assistant message: %w", err)
		}
		return nil
	}

	call := result.Call
	if w.classifier.Classify(call.Name) == risk.RequiresApproval {
		govSpan := w.tracer.StartChild(span, "governance_create")
		task, err := w.govern.CreateGated(agent.AgentID, span.TraceID, call.Name, call.Arguments)
		if err != nil {
			govSpan.EndError(err)
			return err
		}
		govSpan.End(map[string]any{"task_id": task.TaskID, "tool": call.Name})
		return nil
	}

	toolSpan := w.tracer.StartChild(span, "tool_execution")
	execCtx, cancel := context.WithTimeout(ctx, w.opts.ToolTimeout)
	output, err := w.registry.Execute(execCtx, call.Name, call.Arguments)
	cancel()
	if err != nil {
		toolSpan.EndError(err)
		return fmt.Errorf("execute %s: %w", call.Name, err)
	}
	toolSpan.End(map[string]any{"tool": call.Name})

	meta, _ := json.Marshal(map[string]string{"tool": call.Name})
	if err := w.store.CreateUsageLog(&store.UsageLog{
		AgentID:  agent.AgentID,
		Action:   store.ActionToolExecution,
		Metadata: string(meta),
	}); err != nil {
		return err
	}
	if _, err := w.store.CreateMessage(&store.Message{
		AgentID: agent.AgentID,
		Role:    "assistant",
		Content: output,
	}); err != nil {
		return fmt.Errorf("persist tool result message: %w", err)
	}
	return nil
}

func (w *Worker) recordModelUsage(agentID string, result *reason.Result) error {
	meta, _ := json.Marshal(map[string]any{
		"model":             result.Model,
		"prompt_tokens":     result.Usage.PromptTokens,
		"completion_tokens": result.Usage.CompletionTokens,
	})
	return w.store.CreateUsageLog(&store.UsageLog{
		AgentID:     agentID,
		Action:      store.ActionModelCall,
		TotalTokens: result.Usage.TotalTokens,
		CostUSD:     result.CostUSD,
		Metadata:    string(meta),
	})
}

func dropMessage(msgs []store.Message, messageID string) []store.Message {
	out := make([]store.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.MessageID != messageID {
			out = append(out, m)
		}
	}
	return out
}

func toModelHistory(msgs []store.Message) []reason.Message {
	out := make([]reason.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, reason.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
