package logging

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

type bufferedRecord struct {
	ctx    context.Context
	record Record
}

// BufferHandler holds accepted records in memory and hands them to the
// wrapped handler, in acceptance order, only when flushed. It accepts the
// levels the wrapped handler accepts.
type BufferHandler struct {
	inner Handler
	limit int

	mu      sync.Mutex
	buffer  []bufferedRecord
	closed  bool
	flushMu sync.Mutex
}

// NewBufferHandler wraps inner. A limit above zero flushes the buffer when
// it is full; zero buffers without bound.
func NewBufferHandler(inner Handler, limit int) (*BufferHandler, error) {
	if inner == nil {
		return nil, ErrNilHandler
	}
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBufferLimit, limit)
	}
	return &BufferHandler{inner: inner, limit: limit}, nil
}

// Inner returns the wrapped handler.
func (h *BufferHandler) Inner() Handler { return h.inner }

// Limit returns the buffer limit, 0 meaning unbounded.
func (h *BufferHandler) Limit() int { return h.limit }

// Len returns the number of buffered records.
func (h *BufferHandler) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.buffer)
}

// IsHandling implements Handler.
func (h *BufferHandler) IsHandling(level Level) bool {
	return h.inner.IsHandling(level)
}

// Handle implements Handler by buffering r. The context is kept without
// its cancellation so a flush after the request ended still carries its
// values.
func (h *BufferHandler) Handle(ctx context.Context, r Record) error {
	if !h.IsHandling(r.Level) {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return &SinkError{Handler: "buffer", Err: ErrHandlerClosed}
	}
	full := h.limit > 0 && len(h.buffer) >= h.limit
	h.mu.Unlock()

	var err error
	if full {
		err = h.Flush()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return errors.Join(err, &SinkError{Handler: "buffer", Err: ErrHandlerClosed})
	}
	h.buffer = append(h.buffer, bufferedRecord{ctx: context.WithoutCancel(ctx), record: r.Clone()})
	return err
}

// Flush writes the buffered records to the wrapped handler in acceptance
// order and empties the buffer. Concurrent flushes are serialized.
func (h *BufferHandler) Flush() error {
	return h.drain(false)
}

// Close flushes and closes the wrapped handler. Records handled after Close
// are rejected.
func (h *BufferHandler) Close() error {
	return errors.Join(h.drain(true), h.inner.Close())
}

func (h *BufferHandler) drain(closing bool) error {
	h.flushMu.Lock()
	defer h.flushMu.Unlock()

	h.mu.Lock()
	pending := h.buffer
	h.buffer = nil
	if closing {
		h.closed = true
	}
	h.mu.Unlock()

	var errs []error
	for _, br := range pending {
		if err := h.inner.Handle(br.ctx, br.record); err != nil {
			errs = append(errs, err)
		}
	}
	if err := h.inner.Flush(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
