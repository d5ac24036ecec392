// Package trace records execution telemetry as a tree of spans in the store.
// One root span per inbound event, one child per significant sub-operation.
package trace

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/wardenhq/warden/internal/store"
)

// Tracer writes spans for one service. Recording failures are logged and
// swallowed so telemetry never fails event processing.
type Tracer struct {
	store   *store.Store
	service string
	logger  *slog.Logger
}

// New creates a tracer writing spans under the given service name.
func New(st *store.Store, service string, logger *slog.Logger) *Tracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracer{store: st, service: service, logger: logger}
}

// Span is one recorded operation. End it exactly once.
type Span struct {
	tracer  *Tracer
	SpanID  string
	TraceID string
	start   time.Time
}

// StartRoot opens the root span for an inbound event. An empty traceID gets a
// fresh one so every event is traceable.
func (t *Tracer) StartRoot(traceID, operation string) *Span {
	if traceID == "" {
		traceID = uuid.NewString()
	}
	return t.start(traceID, "", operation)
}

// StartChild opens a child span under parent.
func (t *Tracer) StartChild(parent *Span, operation string) *Span {
	return t.start(parent.TraceID, parent.SpanID, operation)
}

func (t *Tracer) start(traceID, parentSpanID, operation string) *Span {
	span := &Span{
		tracer:  t,
		SpanID:  uuid.NewString(),
		TraceID: traceID,
		start:   time.Now(),
	}
	err := t.store.CreateTraceSpan(&store.TraceSpan{
		SpanID:       span.SpanID,
		TraceID:      traceID,
		ParentSpanID: parentSpanID,
		Service:      t.service,
		Operation:    operation,
		Status:       store.SpanOK,
	})
	if err != nil {
		t.logger.Warn("failed to record trace span", "operation", operation, "error", err)
	}
	return span
}

// End finalizes the span with an OK status.
func (s *Span) End(metadata map[string]any) {
	s.finish(store.SpanOK, metadata)
}

// EndError finalizes the span with an ERROR status carrying the error text.
func (s *Span) EndError(err error) {
	meta := map[string]any{}
	if err != nil {
		meta["error"] = err.Error()
	}
	s.finish(store.SpanError, meta)
}

func (s *Span) finish(status string, metadata map[string]any) {
	metaJSON := "{}"
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			metaJSON = string(b)
		}
	}
	durationMs := time.Since(s.start).Milliseconds()
	if err := s.tracer.store.UpdateTraceSpan(s.SpanID, status, durationMs, metaJSON); err != nil {
		s.tracer.logger.Warn("failed to finalize trace span", "span_id", s.SpanID, "error", err)
	}
}
