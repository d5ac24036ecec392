package worker

import (
	"context"
	"time"
)

// scanZombies periodically flags tasks stuck pending past the staleness
// threshold. Detection only: the flag is an observability signal and the task
// status is never touched.
func (w *Worker) scanZombies(ctx context.Context) {
	ticker := time.NewTicker(w.opts.ZombieScanEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.flagStaleTasks()
		}
	}
}

func (w *Worker) flagStaleTasks() {
	stale, err := w.store.ListStaleTasks(w.opts.ZombieThreshold)
	if err != nil {
		w.logger.Error("zombie scan failed", "error", err)
		return
	}
	for _, task := range stale {
		if err := w.store.FlagZombie(task.TaskID); err != nil {
			w.logger.Error("failed to flag zombie task", "task_id", task.TaskID, "error", err)
			continue
		}
		w.logger.Warn("zombie task detected",
			"task_id", task.TaskID,
			"agent_id", task.AgentID,
			"age", time.Since(task.CreatedAt).Round(time.Second).String())
	}
}
