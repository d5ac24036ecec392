// Package store provides SQLite-backed persistence for agents, messages,
// tasks, usage logs and trace spans.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dbPath and applies the schema.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB returns the underlying *sql.DB for shared access.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error {
	return s.db.Close()
}

// --- Agents ---

// CreateAgent inserts an agent definition. AgentID is generated if empty.
func (s *Store) CreateAgent(a *Agent) (*Agent, error) {
	if a.AgentID == "" {
		a.AgentID = uuid.NewString()
	}
	if a.Status == "" {
		a.Status = AgentDraft
	}
	toolsJSON, err := json.Marshal(a.Tools)
	if err != nil {
		return nil, fmt.Errorf("marshal tools: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO agents (agent_id, name, role, goal, system_prompt, knowledge_ref, tools, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.AgentID, a.Name, a.Role, a.Goal, a.SystemPrompt, a.KnowledgeRef, string(toolsJSON), a.Status,
	)
	if err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return s.GetAgent(a.AgentID)
}

const agentColumns = `id, agent_id, name, role, goal, system_prompt,
	COALESCE(knowledge_ref,''), tools, status, created_at`

// GetAgent returns an agent by agent_id.
func (s *Store) GetAgent(agentID string) (*Agent, error) {
	row := s.db.QueryRow(`SELECT `+agentColumns+` FROM agents WHERE agent_id = ?`, agentID)
	return scanAgent(row)
}

// ListAgents returns all agents ordered by creation time.
func (s *Store) ListAgents() ([]Agent, error) {
	rows, err := s.db.Query(`SELECT ` + agentColumns + ` FROM agents ORDER BY created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, *a)
	}
	return agents, rows.Err()
}

// SetAgentStatus moves an agent between draft and live.
func (s *Store) SetAgentStatus(agentID, status string) error {
	res, err := s.db.Exec(`UPDATE agents SET status = ? WHERE agent_id = ?`, status, agentID)
	if err != nil {
		return fmt.Errorf("set agent status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*Agent, error) {
	var a Agent
	var toolsJSON string
	err := row.Scan(&a.ID, &a.AgentID, &a.Name, &a.Role, &a.Goal, &a.SystemPrompt,
		&a.KnowledgeRef, &toolsJSON, &a.Status, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan agent: %w", err)
	}
	if err := json.Unmarshal([]byte(toolsJSON), &a.Tools); err != nil {
		return nil, fmt.Errorf("parse agent tools: %w", err)
	}
	return &a, nil
}

// --- Messages ---

// CreateMessage appends one conversation turn. MessageID is generated if empty.
func (s *Store) CreateMessage(m *Message) (*Message, error) {
	if m.MessageID == "" {
		m.MessageID = uuid.NewString()
	}
	_, err := s.db.Exec(`
		INSERT INTO messages (message_id, agent_id, role, content, prompt_tokens, completion_tokens, total_tokens, cost_usd)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.MessageID, m.AgentID, m.Role, m.Content,
		m.PromptTokens, m.CompletionTokens, m.TotalTokens, m.CostUSD,
	)
	if err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return s.GetMessage(m.MessageID)
}

const messageColumns = `id, message_id, agent_id, role, content,
	prompt_tokens, completion_tokens, total_tokens, cost_usd, created_at`

// GetMessage returns a message by message_id.
func (s *Store) GetMessage(messageID string) (*Message, error) {
	var m Message
	err := s.db.QueryRow(`SELECT `+messageColumns+` FROM messages WHERE message_id = ?`, messageID).
		Scan(&m.ID, &m.MessageID, &m.AgentID, &m.Role, &m.Content,
			&m.PromptTokens, &m.CompletionTokens, &m.TotalTokens, &m.CostUSD, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get message: %w", err)
	}
	return &m, nil
}

// BackfillMessageUsage sets token and cost accounting on an existing message.
// The only permitted mutation of a message record.
func (s *Store) BackfillMessageUsage(messageID string, promptTokens, completionTokens, totalTokens int, costUSD float64) error {
	_, err := s.db.Exec(`
		UPDATE messages SET prompt_tokens = ?, completion_tokens = ?, total_tokens = ?, cost_usd = ?
		WHERE message_id = ?`,
		promptTokens, completionTokens, totalTokens, costUSD, messageID)
	return err
}

// ListRecentMessages returns the last `limit` turns for an agent,
// oldest-first, ready for use as model context.
func (s *Store) ListRecentMessages(agentID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.Query(`SELECT `+messageColumns+` FROM messages
		WHERE agent_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.MessageID, &m.AgentID, &m.Role, &m.Content,
			&m.PromptTokens, &m.CompletionTokens, &m.TotalTokens, &m.CostUSD, &m.CreatedAt); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Fetched newest-first; reverse to oldest-first.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// CountMessages returns the number of messages for an agent.
func (s *Store) CountMessages(agentID string) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM messages WHERE agent_id = ?`, agentID).Scan(&n)
	return n, err
}

// --- Tasks ---

// CreateTask inserts a governance task. Tasks are always created pending.
func (s *Store) CreateTask(t *Task) (*Task, error) {
	if t.TaskID == "" {
		t.TaskID = uuid.NewString()
	}
	t.Status = TaskPending
	_, err := s.db.Exec(`
		INSERT INTO tasks (task_id, agent_id, description, status, tool_name, payload, trace_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.TaskID, t.AgentID, t.Description, t.Status, t.ToolName, t.Payload, t.TraceID,
	)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return s.GetTask(t.TaskID)
}

const taskColumns = `id, task_id, agent_id, description, status,
	COALESCE(tool_name,''), COALESCE(payload,''), COALESCE(trace_id,''),
	zombie_flagged_at, created_at, updated_at, completed_at`

// GetTask returns a task by task_id.
func (s *Store) GetTask(taskID string) (*Task, error) {
	row := s.db.QueryRow(`SELECT `+taskColumns+` FROM tasks WHERE task_id = ?`, taskID)
	return scanTask(row)
}

func scanTask(row rowScanner) (*Task, error) {
	var t Task
	var zombieAt, completedAt sql.NullTime
	err := row.Scan(&t.ID, &t.TaskID, &t.AgentID, &t.Description, &t.Status,
		&t.ToolName, &t.Payload, &t.TraceID,
		&zombieAt, &t.CreatedAt, &t.UpdatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	if zombieAt.Valid {
		t.ZombieFlaggedAt = &zombieAt.Time
	}
	if completedAt.Valid {
		t.CompletedAt = &completedAt.Time
	}
	return &t, nil
}

// TransitionTask atomically moves a task from one status to another.
// Returns false when the task was not in the expected `from` status, which
// makes duplicate transitions safe no-ops for the caller to inspect.
func (s *Store) TransitionTask(taskID, from, to string) (bool, error) {
	return transitionTask(s.db, taskID, from, to)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func transitionTask(db execer, taskID, from, to string) (bool, error) {
	query := `UPDATE tasks SET status = ?, updated_at = datetime('now')`
	if to == TaskCompleted {
		query += `, completed_at = datetime('now')`
	}
	query += ` WHERE task_id = ? AND status = ?`
	res, err := db.Exec(query, to, taskID, from)
	if err != nil {
		return false, fmt.Errorf("transition task: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// CompleteTask finishes an approved task in one transaction: the status
// compare-and-swap, the confirmation message, and the execution usage log.
// Returns false without side effects when the task was not in the approved
// state, so a duplicate resume delivery loses the swap and writes nothing.
func (s *Store) CompleteTask(taskID string, msg *Message, usage *UsageLog) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin complete task: %w", err)
	}
	defer tx.Rollback()

	won, err := transitionTask(tx, taskID, TaskApproved, TaskCompleted)
	if err != nil {
		return false, err
	}
	if !won {
		return false, nil
	}

	if msg != nil {
		if msg.MessageID == "" {
			msg.MessageID = uuid.NewString()
		}
		if _, err := tx.Exec(`
			INSERT INTO messages (message_id, agent_id, role, content)
			VALUES (?, ?, ?, ?)`,
			msg.MessageID, msg.AgentID, msg.Role, msg.Content); err != nil {
			return false, fmt.Errorf("complete task message: %w", err)
		}
	}
	if usage != nil {
		if _, err := tx.Exec(`
			INSERT INTO usage_logs (agent_id, action, total_tokens, cost_usd, metadata)
			VALUES (?, ?, ?, ?, ?)`,
			usage.AgentID, usage.Action, usage.TotalTokens, usage.CostUSD, usage.Metadata); err != nil {
			return false, fmt.Errorf("complete task usage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit complete task: %w", err)
	}
	return true, nil
}

// CreatePendingTask inserts a pending task and its companion message in one
// transaction. Used when a gated tool call suspends into governance.
func (s *Store) CreatePendingTask(t *Task, msg *Message) (*Task, error) {
	if t.TaskID == "" {
		t.TaskID = uuid.NewString()
	}
	t.Status = TaskPending

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin create pending task: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO tasks (task_id, agent_id, description, status, tool_name, payload, trace_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.TaskID, t.AgentID, t.Description, t.Status, t.ToolName, t.Payload, t.TraceID); err != nil {
		return nil, fmt.Errorf("create pending task: %w", err)
	}
	if msg != nil {
		if msg.MessageID == "" {
			msg.MessageID = uuid.NewString()
		}
		if _, err := tx.Exec(`
			INSERT INTO messages (message_id, agent_id, role, content)
			VALUES (?, ?, ?, ?)`,
			msg.MessageID, msg.AgentID, msg.Role, msg.Content); err != nil {
			return nil, fmt.Errorf("create pending task message: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create pending task: %w", err)
	}
	return s.GetTask(t.TaskID)
}

// ListTasks returns tasks filtered by optional status.
func (s *Store) ListTasks(status string, limit int) ([]Task, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + taskColumns + ` FROM tasks`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// ListStaleTasks returns unflagged pending tasks older than the threshold.
func (s *Store) ListStaleTasks(olderThan time.Duration) ([]Task, error) {
	modifier := fmt.Sprintf("-%d seconds", int(olderThan.Seconds()))
	rows, err := s.db.Query(`SELECT `+taskColumns+` FROM tasks
		WHERE status = ? AND zombie_flagged_at IS NULL AND created_at <= datetime('now', ?)
		ORDER BY created_at ASC`, TaskPending, modifier)
	if err != nil {
		return nil, fmt.Errorf("list stale tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

// FlagZombie stamps a stale task as observed. Detection only; the status is
// untouched.
func (s *Store) FlagZombie(taskID string) error {
	_, err := s.db.Exec(`UPDATE tasks SET zombie_flagged_at = datetime('now')
		WHERE task_id = ? AND zombie_flagged_at IS NULL`, taskID)
	return err
}

// --- Usage logs ---

// CreateUsageLog appends an accounting record.
func (s *Store) CreateUsageLog(u *UsageLog) error {
	_, err := s.db.Exec(`
		INSERT INTO usage_logs (agent_id, action, total_tokens, cost_usd, metadata)
		VALUES (?, ?, ?, ?, ?)`,
		u.AgentID, u.Action, u.TotalTokens, u.CostUSD, u.Metadata)
	if err != nil {
		return fmt.Errorf("create usage log: %w", err)
	}
	return nil
}

// ListUsageLogs returns usage records for an agent, newest first.
func (s *Store) ListUsageLogs(agentID string, limit int) ([]UsageLog, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`SELECT id, agent_id, action, total_tokens, cost_usd, COALESCE(metadata,'{}'), created_at
		FROM usage_logs WHERE agent_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, agentID, limit)
	if err != nil {
		return nil, fmt.Errorf("list usage logs: %w", err)
	}
	defer rows.Close()

	var logs []UsageLog
	for rows.Next() {
		var u UsageLog
		if err := rows.Scan(&u.ID, &u.AgentID, &u.Action, &u.TotalTokens, &u.CostUSD, &u.Metadata, &u.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, u)
	}
	return logs, rows.Err()
}

// --- Trace spans ---

// CreateTraceSpan appends a span record.
func (s *Store) CreateTraceSpan(sp *TraceSpan) error {
	if sp.SpanID == "" {
		sp.SpanID = uuid.NewString()
	}
	if sp.Status == "" {
		sp.Status = SpanOK
	}
	_, err := s.db.Exec(`
		INSERT INTO trace_spans (span_id, trace_id, parent_span_id, service, operation, status, duration_ms, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sp.SpanID, sp.TraceID, sp.ParentSpanID, sp.Service, sp.Operation, sp.Status, sp.DurationMs, sp.Metadata)
	if err != nil {
		return fmt.Errorf("create trace span: %w", err)
	}
	return nil
}

// UpdateTraceSpan finalizes a span's status, duration and metadata.
func (s *Store) UpdateTraceSpan(spanID, status string, durationMs int64, metadata string) error {
	_, err := s.db.Exec(`UPDATE trace_spans SET status = ?, duration_ms = ?, metadata = ?
		WHERE span_id = ?`, status, durationMs, metadata, spanID)
	return err
}

// ListTraceSpans returns all spans for a trace, oldest first.
func (s *Store) ListTraceSpans(traceID string) ([]TraceSpan, error) {
	rows, err := s.db.Query(`SELECT id, span_id, trace_id, COALESCE(parent_span_id,''),
		service, operation, status, duration_ms, COALESCE(metadata,'{}'), created_at
		FROM trace_spans WHERE trace_id = ? ORDER BY id ASC`, traceID)
	if err != nil {
		return nil, fmt.Errorf("list trace spans: %w", err)
	}
	defer rows.Close()

	var spans []TraceSpan
	for rows.Next() {
		var sp TraceSpan
		if err := rows.Scan(&sp.ID, &sp.SpanID, &sp.TraceID, &sp.ParentSpanID,
			&sp.Service, &sp.Operation, &sp.Status, &sp.DurationMs, &sp.Metadata, &sp.CreatedAt); err != nil {
			return nil, err
		}
		spans = append(spans, sp)
	}
	return spans, rows.Err()
}

// --- Settings ---

// GetSetting returns a setting value by key. Missing keys return "".
func (s *Store) GetSetting(key string) (string, error) {
	var val string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// SetSetting persists a setting value.
func (s *Store) SetSetting(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value)
	return err
}
