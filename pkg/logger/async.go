package logger

import (
	"context"
	"log/slog"
)

// AsyncHandler buffers records on a channel and writes them from a single
// background goroutine, so the calling goroutine never blocks on I/O.
// When the buffer is full, AsyncHandler either drops the record (dropOnFull)
// or falls back to a synchronous write.
type AsyncHandler struct {
	next       slog.Handler
	records    chan asyncRecord
	dropOnFull bool
}

type asyncRecord struct {
	ctx context.Context
	r   slog.Record
}

// NewAsyncHandler starts a background writer with the given buffer size.
func NewAsyncHandler(next slog.Handler, bufferSize int, dropOnFull bool) *AsyncHandler {
	if bufferSize <= 0 {
		bufferSize = 1024
	}
	h := &AsyncHandler{
		next:       next,
		records:    make(chan asyncRecord, bufferSize),
		dropOnFull: dropOnFull,
	}
	go h.run()
	return h
}

func (h *AsyncHandler) run() {
	for ar := range h.records {
		_ = h.next.Handle(ar.ctx, ar.r)
	}
}

func (h *AsyncHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *AsyncHandler) Handle(ctx context.Context, r slog.Record) error {
	select {
	case h.records <- asyncRecord{ctx: ctx, r: r.Clone()}:
		return nil
	default:
		if h.dropOnFull {
			return nil
		}
		return h.next.Handle(ctx, r)
	}
}

func (h *AsyncHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewAsyncHandler(h.next.WithAttrs(attrs), cap(h.records), h.dropOnFull)
}

func (h *AsyncHandler) WithGroup(name string) slog.Handler {
	return NewAsyncHandler(h.next.WithGroup(name), cap(h.records), h.dropOnFull)
}
