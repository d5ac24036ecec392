// Package worker consumes bus events and orchestrates the safety gate, the
// reasoning adapter, risk classification, governance and telemetry around
// each one.
package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wardenhq/warden/internal/bus"
	"github.com/wardenhq/warden/internal/govern"
	"github.com/wardenhq/warden/internal/reason"
	"github.com/wardenhq/warden/internal/risk"
	"github.com/wardenhq/warden/internal/safety"
	"github.com/wardenhq/warden/internal/store"
	"github.com/wardenhq/warden/internal/tools"
	"github.com/wardenhq/warden/internal/trace"
)

// Reasoner runs one reasoning turn. Satisfied by *reason.Adapter.
type Reasoner interface {
	Complete(ctx context.Context, systemPrompt string, history []reason.Message, userMessage string, descriptors []tools.Descriptor) (*reason.Result, error)
}

// receiveRetryDelay paces the consume loop when the bus client itself is
// failing, so a broker outage does not spin the pool hot.
const receiveRetryDelay = time.Second

// Options tunes the worker pool.
type Options struct {
	Concurrency     int
	HistoryTurns    int
	ToolTimeout     time.Duration
	ZombieThreshold time.Duration
	ZombieScanEvery time.Duration
}

func (o *Options) applyDefaults() {
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.HistoryTurns <= 0 {
		o.HistoryTurns = 10
	}
	if o.ToolTimeout <= 0 {
		o.ToolTimeout = 60 * time.Second
	}
	if o.ZombieThreshold <= 0 {
		o.ZombieThreshold = 10 * time.Minute
	}
	if o.ZombieScanEvery <= 0 {
		o.ZombieScanEvery = time.Minute
	}
}

// Worker processes inbound CHAT and RESUME events.
type Worker struct {
	opts       Options
	client     bus.Client
	store      *store.Store
	gate       safety.Gate
	classifier *risk.Classifier
	reasoner   Reasoner
	registry   *tools.Registry
	govern     *govern.Service
	tracer     *trace.Tracer
	logger     *slog.Logger
}

// New wires a worker from its collaborators.
func New(opts Options, client bus.Client, st *store.Store, gate safety.Gate,
	classifier *risk.Classifier, reasoner Reasoner, registry *tools.Registry,
	gov *govern.Service, tracer *trace.Tracer, logger *slog.Logger) *Worker {
	opts.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Worker{
		opts:       opts,
		client:     client,
		store:      st,
		gate:       gate,
		classifier: classifier,
		reasoner:   reasoner,
		registry:   registry,
		govern:     gov,
		tracer:     tracer,
		logger:     logger,
	}
}

// Run consumes events until ctx is cancelled. It starts the configured number
// of consumer goroutines plus the zombie task scanner, and blocks until all
// have stopped.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.consume(ctx)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.scanZombies(ctx)
	}()
	wg.Wait()
}

func (w *Worker) consume(ctx context.Context) {
	for {
		delivery, err := w.client.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Connection-level failures are the client library's problem to
			// retry; the worker just keeps consuming after a pause.
			w.logger.Error("bus receive failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(receiveRetryDelay):
			}
			continue
		}
		w.process(ctx, delivery)
	}
}

// process handles one delivery end to end. Unhandled errors mark the root
// span ERROR and negative-acknowledge so the bus redelivers up to its attempt
// limit; everything else acknowledges.
func (w *Worker) process(ctx context.Context, delivery *bus.Delivery) {
	ev, err := delivery.Decode()
	if err != nil {
		w.logger.Error("dropping malformed event", "error", err, "attempt", delivery.Attempt)
		w.ack(ctx, delivery)
		return
	}

	span := w.tracer.StartRoot(ev.TraceID, "handle_"+ev.Type)

	switch ev.Type {
	case bus.TypeChat:
		err = w.handleChat(ctx, ev, span)
	case bus.TypeResume:
		err = w.handleResume(ctx, ev, span)
	default:
		w.logger.Warn("ignoring event of unknown type", "type", ev.Type)
	}

	if err != nil {
		w.logger.Error("event processing failed",
			"type", ev.Type,
			"trace_id", span.TraceID,
			"attempt", delivery.Attempt,
			"error", err)
		span.EndError(err)
		if nackErr := delivery.Nack(ctx); nackErr != nil {
			w.logger.Error("nack failed", "error", nackErr)
		}
		return
	}

	span.End(nil)
	w.ack(ctx, delivery)
}

func (w *Worker) ack(ctx context.Context, delivery *bus.Delivery) {
	if err := delivery.Ack(ctx); err != nil {
		w.logger.Error("ack failed", "error", err)
	}
}
