package logging

import (
	"context"
	"errors"
	"sync"
	"time"
)

var testTime = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

func testRecord(level Level, msg string) Record {
	return Record{
		Time:    testTime,
		Channel: "app",
		Level:   level,
		Message: msg,
		Context: map[string]any{},
		Extra:   map[string]any{},
	}
}

// memoryHandler records everything it is given.
type memoryHandler struct {
	mu      sync.Mutex
	level   Level
	records []Record
	ctxs    []context.Context
	flushes int
	closed  bool
	failErr error
	panics  bool
}

func (h *memoryHandler) IsHandling(level Level) bool { return level >= h.level }

func (h *memoryHandler) Handle(ctx context.Context, r Record) error {
	if h.panics {
		panic("handler exploded")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failErr != nil {
		return h.failErr
	}
	h.records = append(h.records, r)
	h.ctxs = append(h.ctxs, ctx)
	return nil
}

func (h *memoryHandler) Flush() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.flushes++
	return nil
}

func (h *memoryHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

func (h *memoryHandler) Messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, 0, len(h.records))
	for _, r := range h.records {
		out = append(out, r.Message)
	}
	return out
}

func (h *memoryHandler) Records() []Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Record(nil), h.records...)
}

// fakeSyslog is an in-memory SyslogWriter and dialer.
type fakeSyslog struct {
	mu         sync.Mutex
	dials      int
	dialErr    error
	writeErrs  int
	closes     int
	facility   Facility
	ident      string
	severities []Severity
	messages   []string
}

func (f *fakeSyslog) Dial(facility Facility, ident string) (SyslogWriter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials++
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	f.facility = facility
	f.ident = ident
	return f, nil
}

func (f *fakeSyslog) Write(sev Severity, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErrs > 0 {
		f.writeErrs--
		return errors.New("connection refused")
	}
	f.severities = append(f.severities, sev)
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakeSyslog) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	return nil
}
