package worker

import (
	"testing"
	"time"

	"github.com/wardenhq/warden/internal/store"
)

func TestFlagStaleTasksDetectionOnly(t *testing.T) {
	f := newFixture(t)
	f.worker.opts.ZombieThreshold = 10 * time.Minute

	stale, err := f.store.CreateTask(&store.Task{AgentID: f.agent.AgentID, Description: "old"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	fresh, err := f.store.CreateTask(&store.Task{AgentID: f.agent.AgentID, Description: "new"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := f.store.DB().Exec(
		`UPDATE tasks SET created_at = datetime('now', '-30 minutes') WHERE task_id = ?`,
		stale.TaskID); err != nil {
		t.Fatalf("backdate task: %v", err)
	}

	f.worker.flagStaleTasks()

	got, err := f.store.GetTask(stale.TaskID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if got.ZombieFlaggedAt == nil {
		t.Error("stale task not flagged")
	}
	if got.Status != store.TaskPending {
		t.Errorf("status = %s, want pending; detection must not remediate", got.Status)
	}

	fresh2, err := f.store.GetTask(fresh.TaskID)
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if fresh2.ZombieFlaggedAt != nil {
		t.Error("fresh task flagged as zombie")
	}

	// A second scan must not re-flag the same task.
	f.worker.flagStaleTasks()
	again, _ := f.store.GetTask(stale.TaskID)
	if !again.ZombieFlaggedAt.Equal(*got.ZombieFlaggedAt) {
		t.Error("zombie flag timestamp rewritten on rescan")
	}
}
