package worker

import (
	"context"

	"github.com/wardenhq/warden/internal/bus"
	"github.com/wardenhq/warden/internal/trace"
)

// handleResume processes one RESUME event. The emergency stop is not checked
// here: a human approved the underlying action, and gating the resume would
// orphan already-approved tasks.
func (w *Worker) handleResume(ctx context.Context, ev *bus.Event, span *trace.Span) error {
	if ev.Action != bus.ActionApproved {
		w.logger.Info("resume without approval, nothing to execute",
			"task_id", ev.TaskID, "action", ev.Action)
		return nil
	}

	resumeSpan := w.tracer.StartChild(span, "task_resume")
	status, err := w.govern.Resume(ctx, ev.TaskID)
	if err != nil {
		resumeSpan.EndError(err)
		return err
	}
	resumeSpan.End(map[string]any{"task_id": ev.TaskID, "outcome": status.String()})
	return nil
}
