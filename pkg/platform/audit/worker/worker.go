package worker

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	audit "paycustom/pkg/platform/audit"
)

// Publisher hands events to the worker without blocking the caller. When the
// buffer is full the event is dropped and counted; audit never slows checkout.
type Publisher struct {
	inbox   chan audit.Event
	dropped atomic.Int64
}

// NewPublisher creates a publisher with a buffer of the given size.
func NewPublisher(buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Publisher{inbox: make(chan audit.Event, buffer)}
}

// Emit enqueues the event. It never returns an error for a full buffer.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.inbox <- event.Normalize(time.Now()):
	default:
		p.dropped.Add(1)
	}
	return nil
}

// Dropped returns the number of events dropped because the buffer was full.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan audit.Event {
	return p.inbox
}

// Worker consumes audit events from a channel and forwards them to a sink.
// Sink failures are logged and the event is skipped; the worker keeps running.
type Worker struct {
	sink   audit.Sink
	inbox  <-chan audit.Event
	logger *slog.Logger
}

func NewWorker(sink audit.Sink, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Worker{sink: sink, inbox: inbox, logger: logger}
}

// Run drains the inbox until ctx is cancelled, then flushes what is already
// buffered using a short grace period.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.drain()
			return ctx.Err()
		case event := <-w.inbox:
			w.forward(ctx, event)
		}
	}
}

func (w *Worker) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		select {
		case event := <-w.inbox:
			w.forward(ctx, event)
		default:
			return
		}
	}
}

func (w *Worker) forward(ctx context.Context, event audit.Event) {
	if err := w.sink.Append(ctx, event); err != nil {
		w.logger.ErrorContext(ctx, "failed to forward audit event",
			"event_id", event.ID,
			"action", event.Action,
			"error", err,
		)
	}
}
