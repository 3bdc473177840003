package logger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/genocem/Edumond-AI-portal/internal/ctxutil"
)

// contextAttr copies one context value onto every record.
type contextAttr struct {
	key string
	get func(context.Context) string
}

var defaultContextAttrs = []contextAttr{
	{key: "session_id", get: ctxutil.GetSessionID},
	{key: "request_id", get: func(ctx context.Context) string {
		id, _ := ctxutil.GetRequestID(ctx)
		return id
	}},
}

// ContextHandler adds the session and request IDs carried by the context to
// every record, so call sites only pass ctx.
type ContextHandler struct {
	next  slog.Handler
	attrs []contextAttr
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next, attrs: defaultContextAttrs}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, a := range h.attrs {
		if v := a.get(ctx); v != "" {
			r.AddAttrs(slog.String(a.key, v))
		}
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs), attrs: h.attrs}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name), attrs: h.attrs}
}

// sink is one named destination of a teeHandler.
type sink struct {
	name    string
	handler slog.Handler
}

// teeHandler sends each record to every sink enabled for its level.
// Errors are joined and prefixed with the sink name.
type teeHandler struct {
	sinks []sink
}

func newTeeHandler(sinks ...sink) *teeHandler {
	kept := make([]sink, 0, len(sinks))
	for _, s := range sinks {
		if s.handler != nil {
			kept = append(kept, s)
		}
	}
	return &teeHandler{sinks: kept}
}

func (t *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, s := range t.sinks {
		if s.handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, s := range t.sinks {
		if !s.handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := s.handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

func (t *teeHandler) derive(fn func(slog.Handler) slog.Handler) *teeHandler {
	next := make([]sink, len(t.sinks))
	for i, s := range t.sinks {
		next[i] = sink{name: s.name, handler: fn(s.handler)}
	}
	return &teeHandler{sinks: next}
}

func (t *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (t *teeHandler) WithGroup(name string) slog.Handler {
	return t.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

const (
	defaultAsyncBufferSize   = 1024
	defaultAsyncFlushTimeout = 5 * time.Second
)

// AsyncOptions configures the buffer in front of a slow sink.
type AsyncOptions struct {
	BufferSize   int
	FlushTimeout time.Duration
}

type queuedRecord struct {
	ctx     context.Context
	record  slog.Record
	handler slog.Handler
}

// recordQueue is shared by an AsyncHandler and every handler derived from it.
type recordQueue struct {
	records      chan queuedRecord
	flushTimeout time.Duration
	mu           sync.RWMutex // guards closed against sends on a closed channel
	closed       bool
	dropped      atomic.Uint64
	done         sync.WaitGroup
}

// AsyncHandler hands records to a single background goroutine so network
// sinks never block request handling. Records are dropped when the buffer
// is full.
type AsyncHandler struct {
	queue *recordQueue
	next  slog.Handler
}

// NewAsyncHandler starts the delivery goroutine for next.
func NewAsyncHandler(next slog.Handler, opts AsyncOptions) *AsyncHandler {
	if opts.BufferSize <= 0 {
		opts.BufferSize = defaultAsyncBufferSize
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = defaultAsyncFlushTimeout
	}
	q := &recordQueue{
		records:      make(chan queuedRecord, opts.BufferSize),
		flushTimeout: opts.FlushTimeout,
	}
	q.done.Add(1)
	go func() {
		defer q.done.Done()
		for qr := range q.records {
			_ = qr.handler.Handle(qr.ctx, qr.record)
		}
	}()
	return &AsyncHandler{queue: q, next: next}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle enqueues a copy of r. It never blocks and never fails.
func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.next.Enabled(ctx, r.Level) {
		return nil
	}
	h.queue.mu.RLock()
	defer h.queue.mu.RUnlock()
	if h.queue.closed {
		return nil
	}
	select {
	case h.queue.records <- queuedRecord{ctx: ctx, record: r.Clone(), handler: h.next}:
	default:
		h.queue.dropped.Add(1)
	}
	return nil
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{queue: h.queue, next: h.next.WithAttrs(attrs)}
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{queue: h.queue, next: h.next.WithGroup(name)}
}

// Shutdown stops accepting records and waits for the queue to drain, bounded
// by ctx or, without a deadline, the configured flush timeout.
func (h *AsyncHandler) Shutdown(ctx context.Context) error {
	if h == nil || h.queue == nil {
		return nil
	}
	h.queue.mu.Lock()
	if h.queue.closed {
		h.queue.mu.Unlock()
		return nil
	}
	h.queue.closed = true
	close(h.queue.records)
	h.queue.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.queue.flushTimeout)
		defer cancel()
	}

	drained := make(chan struct{})
	go func() {
		h.queue.done.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped returns the number of records discarded because the buffer was full.
func (h *AsyncHandler) Dropped() uint64 {
	if h == nil || h.queue == nil {
		return 0
	}
	return h.queue.dropped.Load()
}
