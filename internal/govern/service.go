package govern

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/wardenhq/warden/internal/store"
	"github.com/wardenhq/warden/internal/tools"
)

// ResumeStatus reports how a resume attempt ended.
type ResumeStatus int

const (
	// ResumeCompleted means the task's action ran and the task completed.
	ResumeCompleted ResumeStatus = iota
	// ResumeDuplicate means another delivery already completed the task.
	ResumeDuplicate
	// ResumeUnrecoverable means the task is missing, has no usable payload,
	// or is in a terminal state that cannot execute. Redelivery cannot fix
	// these, so the caller acknowledges without retry.
	ResumeUnrecoverable
)

func (s ResumeStatus) String() string {
	switch s {
	case ResumeCompleted:
		return "completed"
	case ResumeDuplicate:
		return "duplicate"
	default:
		return "unrecoverable"
	}
}

// Service drives the governance task lifecycle.
type Service struct {
	store       *store.Store
	exec        tools.Executor
	logger      *slog.Logger
	toolTimeout time.Duration
}

// NewService creates a governance service. A zero toolTimeout defaults to 60
// seconds.
func NewService(st *store.Store, exec tools.Executor, logger *slog.Logger, toolTimeout time.Duration) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if toolTimeout <= 0 {
		toolTimeout = 60 * time.Second
	}
	return &Service{store: st, exec: exec, logger: logger, toolTimeout: toolTimeout}
}

// CreateGated suspends a gated tool call into a pending task, writing the
// task and the "approval required" assistant message in one unit.
func (s *Service) CreateGated(agentID, traceID, toolName string, args map[string]any) (*store.Task, error) {
	payload, err := json.Marshal(args)
	if err != nil {
		return nil, fmt.Errorf("marshal task payload: %w", err)
	}

	task := &store.Task{
		AgentID:     agentID,
		Description: fmt.Sprintf("Approval required for tool call: %s", toolName),
		ToolName:    toolName,
		Payload:     string(payload),
		TraceID:     traceID,
	}
	msg := &store.Message{
		AgentID: agentID,
		Role:    "assistant",
		Content: fmt.Sprintf("This action requires human approval. The %s call has been queued as a governance task and will run once approved.", toolName),
	}
	created, err := s.store.CreatePendingTask(task, msg)
	if err != nil {
		return nil, err
	}

	s.logger.Info("gated tool call suspended",
		"task_id", created.TaskID,
		"agent_id", agentID,
		"tool", toolName)
	return created, nil
}

// Approve moves a pending task to approved. Any other starting state is an
// invalid transition.
func (s *Service) Approve(taskID string) error {
	return s.transition(taskID, store.TaskPending, store.TaskApproved)
}

// Reject moves a pending task to rejected. Rejected tasks are terminal.
func (s *Service) Reject(taskID string) error {
	return s.transition(taskID, store.TaskPending, store.TaskRejected)
}

func (s *Service) transition(taskID, from, to string) error {
	if !CanTransition(from, to) {
		return &InvalidTransitionError{TaskID: taskID, From: from, To: to}
	}
	won, err := s.store.TransitionTask(taskID, from, to)
	if err != nil {
		return err
	}
	if !won {
		task, err := s.store.GetTask(taskID)
		if err != nil {
			return err
		}
		return &InvalidTransitionError{TaskID: taskID, From: task.Status, To: to}
	}
	return nil
}

// Resume executes the suspended action of an approved task and completes it.
// The completion compare-and-swap makes duplicate deliveries harmless: the
// loser observes ResumeDuplicate and writes nothing. Unrecoverable conditions
// (missing task, empty or malformed payload, terminal state) are logged and
// reported so the caller can acknowledge without retry.
func (s *Service) Resume(ctx context.Context, taskID string) (ResumeStatus, error) {
	task, err := s.store.GetTask(taskID)
	if errors.Is(err, store.ErrNotFound) {
		s.logger.Error("resume for unknown task", "task_id", taskID)
		return ResumeUnrecoverable, nil
	}
	if err != nil {
		return ResumeUnrecoverable, fmt.Errorf("load task %s: %w", taskID, err)
	}

	switch task.Status {
	case store.TaskCompleted:
		s.logger.Info("task already completed, ignoring duplicate resume", "task_id", taskID)
		return ResumeDuplicate, nil
	case store.TaskRejected:
		s.logger.Warn("resume for rejected task, ignoring", "task_id", taskID)
		return ResumeUnrecoverable, nil
	}

	if task.Payload == "" {
		s.logger.Error("task has no payload, cannot execute", "task_id", taskID)
		return ResumeUnrecoverable, nil
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(task.Payload), &args); err != nil {
		s.logger.Error("task payload is malformed, cannot execute",
			"task_id", taskID, "error", err)
		return ResumeUnrecoverable, nil
	}

	toolName := task.ToolName
	if toolName == "" {
		// Externally ingested tasks may predate tool name persistence.
		toolName = InferToolName(args)
	}
	if toolName == "" {
		s.logger.Error("cannot determine tool for task", "task_id", taskID)
		return ResumeUnrecoverable, nil
	}

	if task.Status == store.TaskPending {
		// An approved resume for a still-pending task records the approval
		// step first so the transition sequence stays legal.
		won, err := s.store.TransitionTask(taskID, store.TaskPending, store.TaskApproved)
		if err != nil {
			return ResumeUnrecoverable, err
		}
		if !won {
			reloaded, err := s.store.GetTask(taskID)
			if err != nil {
				return ResumeUnrecoverable, fmt.Errorf("reload task %s: %w", taskID, err)
			}
			if reloaded.Status != store.TaskApproved {
				s.logger.Info("task moved to terminal state during resume",
					"task_id", taskID, "status", reloaded.Status)
				return ResumeDuplicate, nil
			}
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, s.toolTimeout)
	defer cancel()
	result, err := s.exec.Execute(execCtx, toolName, args)
	if err != nil {
		return ResumeUnrecoverable, fmt.Errorf("execute %s for task %s: %w", toolName, taskID, err)
	}

	meta, _ := json.Marshal(map[string]string{"task_id": taskID, "tool": toolName})
	won, err := s.store.CompleteTask(taskID,
		&store.Message{
			AgentID: task.AgentID,
			Role:    "assistant",
			Content: fmt.Sprintf("Approved action executed: %s", result),
		},
		&store.UsageLog{
			AgentID:  task.AgentID,
			Action:   store.ActionToolExecution,
			Metadata: string(meta),
		},
	)
	if err != nil {
		return ResumeUnrecoverable, err
	}
	if !won {
		s.logger.Info("task completed by a concurrent delivery", "task_id", taskID)
		return ResumeDuplicate, nil
	}

	s.logger.Info("governance task completed",
		"task_id", taskID,
		"agent_id", task.AgentID,
		"tool", toolName)
	return ResumeCompleted, nil
}

// InferToolName guesses the pending tool from the shape of its stored
// arguments. Only used for payloads written before tool names were persisted
// on the task record.
func InferToolName(args map[string]any) string {
	if _, ok := args["recipient"]; ok {
		return "send_email"
	}
	if _, ok := args["text"]; ok {
		return "echo"
	}
	return ""
}
