package logging

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Handler is a sink-bound stage of a logger: it filters by level, enriches
// with its own processors, formats, and writes.
type Handler interface {
	// IsHandling reports whether records at level would be accepted.
	IsHandling(level Level) bool

	// Handle processes and writes r. Records below the threshold are
	// ignored without error.
	Handle(ctx context.Context, r Record) error

	// Flush writes anything the handler holds back.
	Flush() error

	// Close flushes and releases the sink.
	Close() error
}

// ProcessingHandler carries the parts every concrete handler shares: a
// minimum level, an ordered processor list, and a formatter. Concrete
// handlers embed it and supply the write.
type ProcessingHandler struct {
	mu         sync.RWMutex
	level      Level
	processors []Processor
	formatter  Formatter
}

// Level returns the minimum accepted level.
func (h *ProcessingHandler) Level() Level {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.level
}

// IsHandling implements Handler.
func (h *ProcessingHandler) IsHandling(level Level) bool {
	return level >= h.Level()
}

// PushProcessor appends a processor. Processors run in the order pushed.
func (h *ProcessingHandler) PushProcessor(p Processor) {
	h.mu.Lock()
	h.processors = append(h.processors, p)
	h.mu.Unlock()
}

// Processors returns a copy of the processor list.
func (h *ProcessingHandler) Processors() []Processor {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return slices.Clone(h.processors)
}

// SetFormatter replaces the formatter.
func (h *ProcessingHandler) SetFormatter(f Formatter) {
	h.mu.Lock()
	h.formatter = f
	h.mu.Unlock()
}

// Formatter returns the formatter, which may be nil.
func (h *ProcessingHandler) Formatter() Formatter {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.formatter
}

// process runs the processors in order.
func (h *ProcessingHandler) process(ctx context.Context, r Record) Record {
	return runProcessors(ctx, h.Processors(), r)
}

// format renders r, falling back to a plain line when the formatter is
// missing or fails.
func (h *ProcessingHandler) format(r Record) string {
	f := h.Formatter()
	if f == nil {
		return fallbackLine(r)
	}
	line, err := safeFormat(f, r)
	if err != nil {
		return fallbackLine(r.WithExtra("formatter_error", err.Error()))
	}
	return line
}

// runProcessors applies processors in order. A panicking processor is
// skipped and its failure recorded under extra.processor_error.
func runProcessors(ctx context.Context, processors []Processor, r Record) Record {
	for _, p := range processors {
		r = safeProcess(ctx, p, r)
	}
	return r
}

func safeProcess(ctx context.Context, p Processor, r Record) (out Record) {
	defer func() {
		if rec := recover(); rec != nil {
			out = r.WithExtra("processor_error", fmt.Sprintf("%T: %v", p, rec))
		}
	}()
	return p.Process(ctx, r)
}

func safeFormat(f Formatter, r Record) (line string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: formatter %T: %v", ErrPanic, f, rec)
		}
	}()
	return f.Format(r)
}
