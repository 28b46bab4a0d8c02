package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

const badKey = "!BADKEY"

// Logger is a named channel with an ordered list of handlers. Handlers and
// processors are added during assembly; Freeze makes both lists read-only.
// Log calls are safe for concurrent use and never return errors: sink
// failures are written to the error sink.
type Logger struct {
	name string

	mu         sync.RWMutex
	handlers   []Handler
	processors []Processor
	frozen     atomic.Bool

	clock     func() time.Time
	errorSink io.Writer
	sinkMu    sync.Mutex
}

// Option configures a Logger.
type Option func(*Logger)

// WithClock sets the time source for record timestamps.
func WithClock(clock func() time.Time) Option {
	return func(l *Logger) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithErrorSink sets where handler failures are reported. Defaults to
// os.Stderr.
func WithErrorSink(w io.Writer) Option {
	return func(l *Logger) {
		if w != nil {
			l.errorSink = w
		}
	}
}

// NewLogger creates a logger for channel name.
func NewLogger(name string, opts ...Option) *Logger {
	l := &Logger{
		name:      name,
		clock:     time.Now,
		errorSink: os.Stderr,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Name returns the channel name.
func (l *Logger) Name() string { return l.name }

// PushHandler appends h. Records reach handlers in the order they were
// pushed.
func (l *Logger) PushHandler(h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen.Load() {
		return fmt.Errorf("%w: %s", ErrLoggerFrozen, l.name)
	}
	l.handlers = append(l.handlers, h)
	return nil
}

// PushProcessor appends a processor that runs once per record, before any
// handler sees it.
func (l *Logger) PushProcessor(p Processor) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.frozen.Load() {
		return fmt.Errorf("%w: %s", ErrLoggerFrozen, l.name)
	}
	l.processors = append(l.processors, p)
	return nil
}

// Handlers returns a copy of the handler list.
func (l *Logger) Handlers() []Handler {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.handlers)
}

// Processors returns a copy of the logger-level processor list.
func (l *Logger) Processors() []Processor {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.processors)
}

// Freeze makes the handler and processor lists immutable.
func (l *Logger) Freeze() { l.frozen.Store(true) }

// Frozen reports whether Freeze was called.
func (l *Logger) Frozen() bool { return l.frozen.Load() }

// IsHandling reports whether any handler accepts level.
func (l *Logger) IsHandling(level Level) bool {
	for _, h := range l.Handlers() {
		if h.IsHandling(level) {
			return true
		}
	}
	return false
}

// Log emits a record. args are alternating key/value pairs stored in the
// record Context; a single map[string]any argument is used as the Context
// directly.
func (l *Logger) Log(ctx context.Context, level Level, msg string, args ...any) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.mu.RLock()
	handlers := l.handlers
	processors := l.processors
	l.mu.RUnlock()

	accepted := false
	for _, h := range handlers {
		if h.IsHandling(level) {
			accepted = true
			break
		}
	}
	if !accepted {
		return
	}

	r := Record{
		Time:    l.clock(),
		Channel: l.name,
		Level:   level,
		Message: msg,
		Context: argsToContext(args),
		Extra:   map[string]any{},
	}
	r = runProcessors(ctx, processors, r)

	for _, h := range handlers {
		if !h.IsHandling(level) {
			continue
		}
		if err := safeHandle(ctx, h, r); err != nil {
			l.report(err)
		}
	}
}

func safeHandle(ctx context.Context, h Handler, r Record) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: handler %T: %v", ErrPanic, h, rec)
		}
	}()
	return h.Handle(ctx, r)
}

func (l *Logger) report(err error) {
	l.sinkMu.Lock()
	defer l.sinkMu.Unlock()
	_, _ = fmt.Fprintf(l.errorSink, "logging: channel %s: %v\n", l.name, err)
}

func (l *Logger) Debug(msg string, args ...any) {
	l.Log(context.Background(), LevelDebug, msg, args...)
}

func (l *Logger) Info(msg string, args ...any) {
	l.Log(context.Background(), LevelInfo, msg, args...)
}

func (l *Logger) Notice(msg string, args ...any) {
	l.Log(context.Background(), LevelNotice, msg, args...)
}

// Warn is an alias of Warning.
func (l *Logger) Warn(msg string, args ...any) {
	l.Log(context.Background(), LevelWarning, msg, args...)
}

func (l *Logger) Warning(msg string, args ...any) {
	l.Log(context.Background(), LevelWarning, msg, args...)
}

func (l *Logger) Error(msg string, args ...any) {
	l.Log(context.Background(), LevelError, msg, args...)
}

func (l *Logger) Critical(msg string, args ...any) {
	l.Log(context.Background(), LevelCritical, msg, args...)
}

func (l *Logger) Alert(msg string, args ...any) {
	l.Log(context.Background(), LevelAlert, msg, args...)
}

func (l *Logger) Emergency(msg string, args ...any) {
	l.Log(context.Background(), LevelEmergency, msg, args...)
}

// Flush flushes every handler in order.
func (l *Logger) Flush() error {
	var errs []error
	for _, h := range l.Handlers() {
		if err := h.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close flushes and closes every handler in order.
func (l *Logger) Close() error {
	var errs []error
	for _, h := range l.Handlers() {
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func argsToContext(args []any) map[string]any {
	if len(args) == 0 {
		return map[string]any{}
	}
	if len(args) == 1 {
		if m, ok := args[0].(map[string]any); ok {
			return maps.Clone(m)
		}
	}
	out := make(map[string]any, (len(args)+1)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out[badKey] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		out[key] = args[i+1]
	}
	return out
}
