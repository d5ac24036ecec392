package store

import "time"

// Agent is an operator-registered agent definition. Read-only from the
// worker's perspective; the management surface creates and edits it.
type Agent struct {
	ID           int64     `json:"id"`
	AgentID      string    `json:"agent_id"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	Goal         string    `json:"goal"`
	SystemPrompt string    `json:"system_prompt"`
	KnowledgeRef string    `json:"knowledge_ref,omitempty"`
	Tools        []string  `json:"tools"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// Agent lifecycle statuses.
const (
	AgentDraft = "draft"
	AgentLive  = "live"
)

// Message is one append-only conversation turn. Cost fields are backfilled
// after the model call completes; nothing else is ever mutated.
type Message struct {
	ID               int64     `json:"id"`
	MessageID        string    `json:"message_id"`
	AgentID          string    `json:"agent_id"`
	Role             string    `json:"role"` // user | assistant
	Content          string    `json:"content"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	TotalTokens      int       `json:"total_tokens"`
	CostUSD          float64   `json:"cost_usd"`
	CreatedAt        time.Time `json:"created_at"`
}

// Task is the unit of governance. Payload holds the gated tool arguments as
// JSON; ToolName is persisted at creation so resume never has to guess.
type Task struct {
	ID              int64      `json:"id"`
	TaskID          string     `json:"task_id"`
	AgentID         string     `json:"agent_id"`
	Description     string     `json:"description"`
	Status          string     `json:"status"`
	ToolName        string     `json:"tool_name,omitempty"`
	Payload         string     `json:"payload,omitempty"` // JSON arguments
	TraceID         string     `json:"trace_id,omitempty"`
	ZombieFlaggedAt *time.Time `json:"zombie_flagged_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// Task statuses.
const (
	TaskPending   = "pending"
	TaskApproved  = "approved"
	TaskRejected  = "rejected"
	TaskCompleted = "completed"
)

// UsageLog is an append-only accounting record, written once per model
// invocation and once per gated-tool resume execution.
type UsageLog struct {
	ID          int64     `json:"id"`
	AgentID     string    `json:"agent_id"`
	Action      string    `json:"action"`
	TotalTokens int       `json:"total_tokens"`
	CostUSD     float64   `json:"cost_usd"`
	Metadata    string    `json:"metadata,omitempty"` // JSON blob
	CreatedAt   time.Time `json:"created_at"`
}

// Usage log actions.
const (
	ActionModelCall     = "model_call"
	ActionToolExecution = "tool_execution"
)

// TraceSpan is an append-only observability record. Spans form a tree via
// ParentSpanID; one root span per inbound event.
type TraceSpan struct {
	ID           int64     `json:"id"`
	SpanID       string    `json:"span_id"`
	TraceID      string    `json:"trace_id"`
	ParentSpanID string    `json:"parent_span_id,omitempty"`
	Service      string    `json:"service"`
	Operation    string    `json:"operation"`
	Status       string    `json:"status"`
	DurationMs   int64     `json:"duration_ms"`
	Metadata     string    `json:"metadata,omitempty"` // JSON blob
	CreatedAt    time.Time `json:"created_at"`
}

// Span statuses.
const (
	SpanOK    = "ok"
	SpanError = "error"
)

const Schema = `
CREATE TABLE IF NOT EXISTS agents (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id TEXT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT '',
	goal TEXT NOT NULL DEFAULT '',
	system_prompt TEXT NOT NULL DEFAULT '',
	knowledge_ref TEXT DEFAULT '',
	tools TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL DEFAULT 'draft',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_agents_status ON agents(status);

CREATE TABLE IF NOT EXISTS messages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id TEXT UNIQUE NOT NULL,
	agent_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	prompt_tokens INTEGER NOT NULL DEFAULT 0,
	completion_tokens INTEGER NOT NULL DEFAULT 0,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd REAL NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_messages_agent ON messages(agent_id, created_at);

CREATE TABLE IF NOT EXISTS tasks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	task_id TEXT UNIQUE NOT NULL,
	agent_id TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'pending',
	tool_name TEXT DEFAULT '',
	payload TEXT DEFAULT '',
	trace_id TEXT DEFAULT '',
	zombie_flagged_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	completed_at DATETIME
);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_agent ON tasks(agent_id);
CREATE INDEX IF NOT EXISTS idx_tasks_trace ON tasks(trace_id);

CREATE TABLE IF NOT EXISTS usage_logs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	agent_id TEXT NOT NULL,
	action TEXT NOT NULL,
	total_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd REAL NOT NULL DEFAULT 0,
	metadata TEXT DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_usage_agent ON usage_logs(agent_id, created_at);

CREATE TABLE IF NOT EXISTS trace_spans (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	span_id TEXT UNIQUE NOT NULL,
	trace_id TEXT NOT NULL,
	parent_span_id TEXT DEFAULT '',
	service TEXT NOT NULL DEFAULT '',
	operation TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'ok',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	metadata TEXT DEFAULT '{}',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_spans_trace ON trace_spans(trace_id);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT,
	updated_at DATETIME
);
`
