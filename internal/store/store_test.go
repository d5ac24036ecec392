package store

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestAgentRoundtrip(t *testing.T) {
	st := openTestStore(t)

	created, err := st.CreateAgent(&Agent{
		Name:         "helper",
		Role:         "assistant",
		SystemPrompt: "be helpful",
		Tools:        []string{"echo", "send_email"},
	})
	if err != nil {
		t.Fatalf("create agent: %v", err)
	}
	if created.AgentID == "" {
		t.Fatal("agent_id not generated")
	}
	if created.Status != AgentDraft {
		t.Errorf("status = %s, want draft by default", created.Status)
	}

	if err := st.SetAgentStatus(created.AgentID, AgentLive); err != nil {
		t.Fatalf("set status: %v", err)
	}
	got, err := st.GetAgent(created.AgentID)
	if err != nil {
		t.Fatalf("get agent: %v", err)
	}
	if got.Status != AgentLive {
		t.Errorf("status = %s, want live", got.Status)
	}
	if len(got.Tools) != 2 || got.Tools[1] != "send_email" {
		t.Errorf("tools = %v", got.Tools)
	}

	if _, err := st.GetAgent("missing"); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := st.SetAgentStatus("missing", AgentLive); err != ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListRecentMessagesOldestFirst(t *testing.T) {
	st := openTestStore(t)
	for _, content := range []string{"one", "two", "three", "four"} {
		if _, err := st.CreateMessage(&Message{AgentID: "a1", Role: "user", Content: content}); err != nil {
			t.Fatalf("create message: %v", err)
		}
	}

	msgs, err := st.ListRecentMessages("a1", 3)
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	want := []string{"two", "three", "four"}
	for i, w := range want {
		if msgs[i].Content != w {
			t.Errorf("message %d = %q, want %q", i, msgs[i].Content, w)
		}
	}
}

func TestBackfillMessageUsage(t *testing.T) {
	st := openTestStore(t)
	m, err := st.CreateMessage(&Message{AgentID: "a1", Role: "assistant", Content: "hi"})
	if err != nil {
		t.Fatalf("create message: %v", err)
	}
	if err := st.BackfillMessageUsage(m.MessageID, 10, 5, 15, 0.002); err != nil {
		t.Fatalf("backfill: %v", err)
	}
	got, err := st.GetMessage(m.MessageID)
	if err != nil {
		t.Fatalf("get message: %v", err)
	}
	if got.TotalTokens != 15 || got.CostUSD != 0.002 {
		t.Errorf("usage = %d tokens / %f USD", got.TotalTokens, got.CostUSD)
	}
	if got.Content != "hi" {
		t.Errorf("content mutated: %q", got.Content)
	}
}

func TestTransitionTaskCompareAndSwap(t *testing.T) {
	st := openTestStore(t)
	task, err := st.CreateTask(&Task{AgentID: "a1", Description: "d", ToolName: "send_email", Payload: `{"recipient":"x"}`})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Status != TaskPending {
		t.Fatalf("status = %s, want pending", task.Status)
	}

	won, err := st.TransitionTask(task.TaskID, TaskPending, TaskApproved)
	if err != nil || !won {
		t.Fatalf("transition pending->approved: won=%v err=%v", won, err)
	}
	// Second identical swap loses.
	won, err = st.TransitionTask(task.TaskID, TaskPending, TaskApproved)
	if err != nil {
		t.Fatalf("second transition: %v", err)
	}
	if won {
		t.Error("duplicate transition reported as won")
	}

	won, err = st.TransitionTask(task.TaskID, TaskApproved, TaskCompleted)
	if err != nil || !won {
		t.Fatalf("transition approved->completed: won=%v err=%v", won, err)
	}
	got, _ := st.GetTask(task.TaskID)
	if got.CompletedAt == nil {
		t.Error("completed_at not stamped")
	}
}

func TestCompleteTaskIsAtomic(t *testing.T) {
	st := openTestStore(t)
	task, err := st.CreateTask(&Task{AgentID: "a1", Payload: `{}`})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := st.TransitionTask(task.TaskID, TaskPending, TaskApproved); err != nil {
		t.Fatalf("approve: %v", err)
	}

	msg := &Message{AgentID: "a1", Role: "assistant", Content: "done"}
	usage := &UsageLog{AgentID: "a1", Action: ActionToolExecution}
	won, err := st.CompleteTask(task.TaskID, msg, usage)
	if err != nil || !won {
		t.Fatalf("complete: won=%v err=%v", won, err)
	}

	// The losing swap must write neither the message nor the usage log.
	won, err = st.CompleteTask(task.TaskID, msg, usage)
	if err != nil {
		t.Fatalf("second complete: %v", err)
	}
	if won {
		t.Error("second complete reported as won")
	}
	if n, _ := st.CountMessages("a1"); n != 1 {
		t.Errorf("messages = %d, want 1", n)
	}
	logs, _ := st.ListUsageLogs("a1", 10)
	if len(logs) != 1 {
		t.Errorf("usage logs = %d, want 1", len(logs))
	}
}

func TestCreatePendingTaskWritesMessageTogether(t *testing.T) {
	st := openTestStore(t)
	task, err := st.CreatePendingTask(
		&Task{AgentID: "a1", ToolName: "send_email", Payload: `{"recipient":"b@c.d"}`},
		&Message{AgentID: "a1", Role: "assistant", Content: "approval required"},
	)
	if err != nil {
		t.Fatalf("create pending task: %v", err)
	}
	if task.Status != TaskPending {
		t.Errorf("status = %s, want pending", task.Status)
	}
	if n, _ := st.CountMessages("a1"); n != 1 {
		t.Errorf("messages = %d, want 1", n)
	}
}

func TestListStaleTasks(t *testing.T) {
	st := openTestStore(t)
	old, err := st.CreateTask(&Task{AgentID: "a1", Description: "old"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := st.CreateTask(&Task{AgentID: "a1", Description: "new"}); err != nil {
		t.Fatalf("create task: %v", err)
	}
	if _, err := st.DB().Exec(`UPDATE tasks SET created_at = datetime('now', '-20 minutes') WHERE task_id = ?`, old.TaskID); err != nil {
		t.Fatalf("backdate: %v", err)
	}

	stale, err := st.ListStaleTasks(10 * time.Minute)
	if err != nil {
		t.Fatalf("list stale: %v", err)
	}
	if len(stale) != 1 || stale[0].TaskID != old.TaskID {
		t.Fatalf("stale = %+v, want only the old task", stale)
	}

	if err := st.FlagZombie(old.TaskID); err != nil {
		t.Fatalf("flag: %v", err)
	}
	stale, err = st.ListStaleTasks(10 * time.Minute)
	if err != nil {
		t.Fatalf("list stale: %v", err)
	}
	if len(stale) != 0 {
		t.Errorf("flagged task listed again: %+v", stale)
	}
}

func TestSettingsUpsert(t *testing.T) {
	st := openTestStore(t)

	val, err := st.GetSetting("emergency_stop")
	if err != nil || val != "" {
		t.Fatalf("missing key: val=%q err=%v", val, err)
	}
	if err := st.SetSetting("emergency_stop", "true"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := st.SetSetting("emergency_stop", "false"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	val, err = st.GetSetting("emergency_stop")
	if err != nil || val != "false" {
		t.Errorf("val = %q err=%v, want false", val, err)
	}
}

func TestTraceSpanTree(t *testing.T) {
	st := openTestStore(t)
	root := &TraceSpan{SpanID: "s1", TraceID: "tr1", Service: "worker", Operation: "handle_CHAT"}
	if err := st.CreateTraceSpan(root); err != nil {
		t.Fatalf("create root span: %v", err)
	}
	child := &TraceSpan{SpanID: "s2", TraceID: "tr1", ParentSpanID: "s1", Service: "worker", Operation: "model_call"}
	if err := st.CreateTraceSpan(child); err != nil {
		t.Fatalf("create child span: %v", err)
	}
	if err := st.UpdateTraceSpan("s2", SpanError, 120, `{"error":"boom"}`); err != nil {
		t.Fatalf("update span: %v", err)
	}

	spans, err := st.ListTraceSpans("tr1")
	if err != nil {
		t.Fatalf("list spans: %v", err)
	}
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	if spans[0].SpanID != "s1" || spans[1].ParentSpanID != "s1" {
		t.Errorf("span tree broken: %+v", spans)
	}
	if spans[1].Status != SpanError || spans[1].DurationMs != 120 {
		t.Errorf("child span = %+v", spans[1])
	}
}
