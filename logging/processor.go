package logging

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/google/uuid"
)

// Processor enriches a record. Implementations return a new record and
// must not mutate the maps of the one they receive; Record.WithExtra does
// the copying.
type Processor interface {
	Process(ctx context.Context, r Record) Record
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, r Record) Record

// Process calls f(ctx, r).
func (f ProcessorFunc) Process(ctx context.Context, r Record) Record {
	return f(ctx, r)
}

// UIDProcessor tags every record with a random token that stays the same
// for the lifetime of the processor (or until Reset), so all records of
// one process run can be correlated.
type UIDProcessor struct {
	length int

	mu  sync.RWMutex
	uid string
}

// NewUIDProcessor creates a UID processor producing tokens of length hex
// characters (1 to 32).
func NewUIDProcessor(length int) (*UIDProcessor, error) {
	if length < 1 || length > 32 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidUIDLength, length)
	}
	p := &UIDProcessor{length: length}
	p.uid = p.generate()
	return p, nil
}

func (p *UIDProcessor) generate() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])[:p.length]
}

// UID returns the current token.
func (p *UIDProcessor) UID() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.uid
}

// Reset replaces the token with a fresh one.
func (p *UIDProcessor) Reset() {
	p.mu.Lock()
	p.uid = p.generate()
	p.mu.Unlock()
}

// Process implements Processor.
func (p *UIDProcessor) Process(_ context.Context, r Record) Record {
	return r.WithExtra("uid", p.UID())
}

// ProcessIDProcessor adds the operating system process id as "process_id".
type ProcessIDProcessor struct {
	pid int
}

// NewProcessIDProcessor creates a process id processor.
func NewProcessIDProcessor() *ProcessIDProcessor {
	return &ProcessIDProcessor{pid: os.Getpid()}
}

// Process implements Processor.
func (p *ProcessIDProcessor) Process(_ context.Context, r Record) Record {
	return r.WithExtra("process_id", p.pid)
}

// MemoryUsageProcessor adds the bytes of allocated heap objects as
// "memory_usage".
type MemoryUsageProcessor struct {
	// Raw disables the human readable "12.5 MB" formatting.
	Raw bool
}

// NewMemoryUsageProcessor creates a memory usage processor.
func NewMemoryUsageProcessor() *MemoryUsageProcessor {
	return &MemoryUsageProcessor{}
}

// Process implements Processor.
func (p *MemoryUsageProcessor) Process(_ context.Context, r Record) Record {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return r.WithExtra("memory_usage", formatBytes(ms.HeapAlloc, p.Raw))
}

// MemoryPeakUsageProcessor adds the heap memory obtained from the operating
// system, the high-water mark of the heap, as "memory_peak_usage".
type MemoryPeakUsageProcessor struct {
	Raw bool
}

// NewMemoryPeakUsageProcessor creates a peak memory processor.
func NewMemoryPeakUsageProcessor() *MemoryPeakUsageProcessor {
	return &MemoryPeakUsageProcessor{}
}

// Process implements Processor.
func (p *MemoryPeakUsageProcessor) Process(_ context.Context, r Record) Record {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return r.WithExtra("memory_peak_usage", formatBytes(ms.HeapSys, p.Raw))
}

func formatBytes(b uint64, raw bool) any {
	if raw {
		return b
	}
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
