package logger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// defaultQueueSize buffers this many records before Handle starts dropping.
const defaultQueueSize = 1024

// queued pairs a record with the handler it was enqueued through, so attrs
// and groups added via With travel with the record to the drainer.
type queued struct {
	h   slog.Handler
	rec slog.Record
}

// asyncCore owns the record queue shared by every derived handler. Clones
// made by WithAttrs and WithGroup feed the same queue, so a single Close
// drains them all.
type asyncCore struct {
	queue   chan queued
	wg      sync.WaitGroup
	dropped atomic.Int64
}

func (c *asyncCore) drain() {
	defer c.wg.Done()
	for q := range c.queue {
		_ = q.h.Handle(context.Background(), q.rec)
	}
}

// AsyncHandler decouples log emission from I/O: Handle enqueues and returns
// immediately while background drainers write through the wrapped handler.
// A full queue drops the record and counts it rather than blocking the
// caller.
type AsyncHandler struct {
	inner slog.Handler
	core  *asyncCore
}

// NewAsyncHandler wraps inner with a record queue of the given size and
// workers drain goroutines. Non-positive arguments select the defaults
// (defaultQueueSize and a single drainer).
func NewAsyncHandler(inner slog.Handler, queueSize, workers int) *AsyncHandler {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if workers <= 0 {
		workers = 1
	}
	core := &asyncCore{queue: make(chan queued, queueSize)}
	for range workers {
		core.wg.Add(1)
		go core.drain()
	}
	return &AsyncHandler{inner: inner, core: core}
}

// Enabled delegates to the wrapped handler.
func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

// Handle enqueues the record, dropping it when the queue is full.
func (h *AsyncHandler) Handle(_ context.Context, rec slog.Record) error { //nolint:gocritic // slog.Handler interface requires value receiver
	select {
	case h.core.queue <- queued{h: h.inner, rec: rec}:
	default:
		h.core.dropped.Add(1)
	}
	return nil
}

// WithAttrs derives a handler feeding the same queue.
func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithAttrs(attrs), core: h.core}
}

// WithGroup derives a handler feeding the same queue.
func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return &AsyncHandler{inner: h.inner.WithGroup(name), core: h.core}
}

// DroppedCount reports how many records were discarded on a full queue.
func (h *AsyncHandler) DroppedCount() int64 {
	return h.core.dropped.Load()
}

// Close stops accepting records and drains the queue. When any records were
// dropped, a final warning carrying the count is written synchronously so
// the loss is visible in the output.
func (h *AsyncHandler) Close() {
	close(h.core.queue)
	h.core.wg.Wait()
	if n := h.core.dropped.Load(); n > 0 {
		rec := slog.NewRecord(time.Now(), slog.LevelWarn, "log records dropped", 0)
		rec.AddAttrs(slog.Int64("count", n))
		_ = h.inner.Handle(context.Background(), rec)
	}
}
