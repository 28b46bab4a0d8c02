package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// StreamHandler writes formatted records to an io.Writer, or to a file
// opened on first write.
type StreamHandler struct {
	ProcessingHandler

	mu     sync.Mutex
	out    io.Writer
	path   string
	file   *os.File
	closed bool
}

// NewStreamHandler creates a handler writing to w.
func NewStreamHandler(w io.Writer, level Level, formatter Formatter) *StreamHandler {
	return &StreamHandler{
		ProcessingHandler: ProcessingHandler{level: level, formatter: formatter},
		out:               w,
	}
}

// OpenStreamHandler creates a handler for a destination name: "stdout",
// "php://stdout" and "" select stdout, "stderr" and "php://stderr" select
// os.Stderr, and anything else is a file path appended to with mode 0644.
func OpenStreamHandler(dest string, level Level, formatter Formatter, stdout io.Writer) (*StreamHandler, error) {
	if stdout == nil {
		stdout = os.Stdout
	}
	switch dest {
	case "", "stdout", "php://stdout", "php://output":
		return NewStreamHandler(stdout, level, formatter), nil
	case "stderr", "php://stderr":
		return NewStreamHandler(os.Stderr, level, formatter), nil
	}
	if filepath.Base(dest) == "." || filepath.Base(dest) == string(filepath.Separator) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStream, dest)
	}
	return &StreamHandler{
		ProcessingHandler: ProcessingHandler{level: level, formatter: formatter},
		path:              dest,
	}, nil
}

// Path returns the file path for file-backed handlers.
func (h *StreamHandler) Path() string { return h.path }

// Handle implements Handler.
func (h *StreamHandler) Handle(ctx context.Context, r Record) error {
	if !h.IsHandling(r.Level) {
		return nil
	}
	line := h.format(h.process(ctx, r))
	return h.write(line)
}

func (h *StreamHandler) write(line string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return &SinkError{Handler: "stream", Err: ErrHandlerClosed}
	}
	if h.out == nil {
		if err := h.open(); err != nil {
			return &SinkError{Handler: "stream", Err: err}
		}
	}
	if _, err := io.WriteString(h.out, line); err != nil {
		return &SinkError{Handler: "stream", Err: err}
	}
	return nil
}

func (h *StreamHandler) open() error {
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(h.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log stream: %w", err)
	}
	h.file = f
	h.out = f
	return nil
}

// Flush syncs file-backed handlers.
func (h *StreamHandler) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.file != nil {
		if err := h.file.Sync(); err != nil {
			return fmt.Errorf("failed to sync log stream: %w", err)
		}
	}
	return nil
}

// Close closes the file a path-based handler opened. Writers passed in by
// the caller are left open.
func (h *StreamHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	if h.file != nil {
		err := h.file.Close()
		h.file = nil
		h.out = nil
		if err != nil {
			return fmt.Errorf("failed to close log stream: %w", err)
		}
	}
	return nil
}
