package logging

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"sync"
)

// ErrorHandler routes otherwise unhandled failures into a logger as
// ERROR records. Go has no process-wide uncaught-error hook, so panics are
// captured with Recover (deferred in main) and Go (for goroutines).
type ErrorHandler struct {
	mu     sync.RWMutex
	logger *Logger
}

// NewErrorHandler creates an error handler. logger may be nil and
// installed later.
func NewErrorHandler(logger *Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Install sets the destination logger.
func (e *ErrorHandler) Install(logger *Logger) {
	e.mu.Lock()
	e.logger = logger
	e.mu.Unlock()
}

// Logger returns the destination logger, or nil before Install.
func (e *ErrorHandler) Logger() *Logger {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.logger
}

// Report logs err at ERROR level with the error under "exception".
func (e *ErrorHandler) Report(err error) {
	if err == nil {
		return
	}
	e.log(context.Background(), LevelError, "Uncaught error: {exception}", "exception", err)
}

// Recover must be deferred directly. It logs a panic with its stack,
// flushes the logger so buffered records reach their sinks, and panics
// again so the process still fails.
func (e *ErrorHandler) Recover() {
	if rec := recover(); rec != nil {
		e.logPanic(rec, debug.Stack())
		panic(rec)
	}
}

// Go runs fn in a new goroutine. A panic in fn is logged and flushed
// instead of crashing the process.
func (e *ErrorHandler) Go(fn func()) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				e.logPanic(rec, debug.Stack())
			}
		}()
		fn()
	}()
}

func (e *ErrorHandler) logPanic(rec any, stack []byte) {
	err, ok := rec.(error)
	if !ok {
		err = fmt.Errorf("%w: %v", ErrPanic, rec)
	}
	e.log(context.Background(), LevelError, "Uncaught panic: {exception}", "exception", err, "trace", string(stack))
	if l := e.Logger(); l != nil {
		_ = l.Flush()
	}
}

func (e *ErrorHandler) log(ctx context.Context, level Level, msg string, args ...any) {
	l := e.Logger()
	if l == nil {
		return
	}
	l.Log(ctx, level, msg, args...)
}

// RedirectStdLog sends output of the standard library log package to the
// logger at level. The returned function restores the previous output.
func (e *ErrorHandler) RedirectStdLog(level Level) (restore func()) {
	prevOut, prevFlags, prevPrefix := log.Writer(), log.Flags(), log.Prefix()
	log.SetOutput(&stdLogWriter{eh: e, level: level})
	log.SetFlags(0)
	log.SetPrefix("")
	return func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
		log.SetPrefix(prevPrefix)
	}
}

type stdLogWriter struct {
	eh    *ErrorHandler
	level Level
}

func (w *stdLogWriter) Write(p []byte) (int, error) {
	w.eh.log(context.Background(), w.level, string(bytes.TrimRight(p, "\n")))
	return len(p), nil
}
