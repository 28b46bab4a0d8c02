package logging

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ctxKey string

func TestBufferHandler_HoldsUntilFlush(t *testing.T) {
	inner := &memoryHandler{level: LevelNotice}
	h, err := NewBufferHandler(inner, 0)
	require.NoError(t, err)
	assert.Same(t, inner, h.Inner().(*memoryHandler))

	assert.False(t, h.IsHandling(LevelInfo))
	assert.True(t, h.IsHandling(LevelNotice))

	require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, "ignored")))
	for i := range 3 {
		require.NoError(t, h.Handle(context.Background(), testRecord(LevelError, fmt.Sprintf("r%d", i))))
	}

	assert.Empty(t, inner.Messages())
	assert.Equal(t, 3, h.Len())

	require.NoError(t, h.Flush())
	assert.Equal(t, []string{"r0", "r1", "r2"}, inner.Messages())
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 1, inner.flushes)

	require.NoError(t, h.Flush())
	assert.Len(t, inner.Messages(), 3, "an empty flush writes nothing")
}

func TestBufferHandler_Limit(t *testing.T) {
	inner := &memoryHandler{}
	h, err := NewBufferHandler(inner, 2)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, "a")))
	require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, "b")))
	assert.Empty(t, inner.Messages())

	require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, "c")))
	assert.Equal(t, []string{"a", "b"}, inner.Messages())
	assert.Equal(t, 1, h.Len())
}

// closingHandler marks its buffer closed while an overflow flush runs, as a
// concurrent Close would.
type closingHandler struct {
	memoryHandler
	buffer *BufferHandler
}

func (h *closingHandler) Flush() error {
	h.buffer.mu.Lock()
	h.buffer.closed = true
	h.buffer.mu.Unlock()
	return h.memoryHandler.Flush()
}

func TestBufferHandler_RejectsRecordWhenClosedDuringOverflowFlush(t *testing.T) {
	inner := &closingHandler{}
	h, err := NewBufferHandler(inner, 1)
	require.NoError(t, err)
	inner.buffer = h

	require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, "a")))
	err = h.Handle(context.Background(), testRecord(LevelInfo, "b"))

	require.ErrorIs(t, err, ErrHandlerClosed)
	assert.Equal(t, []string{"a"}, inner.Messages())
	assert.Equal(t, 0, h.Len())
}

func TestBufferHandler_RecordsAreIsolated(t *testing.T) {
	inner := &memoryHandler{}
	h, err := NewBufferHandler(inner, 0)
	require.NoError(t, err)

	r := testRecord(LevelInfo, "snapshot")
	r.Context["k"] = "before"
	require.NoError(t, h.Handle(context.Background(), r))
	r.Context["k"] = "after"

	require.NoError(t, h.Flush())
	assert.Equal(t, "before", inner.Records()[0].Context["k"])
}

func TestBufferHandler_KeepsContextValuesAfterCancel(t *testing.T) {
	inner := &memoryHandler{}
	h, err := NewBufferHandler(inner, 0)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.WithValue(context.Background(), ctxKey("request"), "r-1"))
	require.NoError(t, h.Handle(ctx, testRecord(LevelInfo, "late")))
	cancel()

	require.NoError(t, h.Flush())
	flushed := inner.ctxs[0]
	assert.NoError(t, flushed.Err())
	assert.Equal(t, "r-1", flushed.Value(ctxKey("request")))
}

func TestBufferHandler_Close(t *testing.T) {
	inner := &memoryHandler{}
	h, err := NewBufferHandler(inner, 0)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, "pending")))
	require.NoError(t, h.Close())

	assert.Equal(t, []string{"pending"}, inner.Messages())
	assert.True(t, inner.closed)

	err = h.Handle(context.Background(), testRecord(LevelInfo, "rejected"))
	assert.ErrorIs(t, err, ErrHandlerClosed)
}

func TestBufferHandler_InnerErrors(t *testing.T) {
	inner := &memoryHandler{failErr: fmt.Errorf("disk full")}
	h, err := NewBufferHandler(inner, 0)
	require.NoError(t, err)

	require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, "a")))
	require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, "b")))
	err = h.Flush()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, h.Len())
}

func TestBufferHandler_Validation(t *testing.T) {
	_, err := NewBufferHandler(nil, 0)
	assert.ErrorIs(t, err, ErrNilHandler)

	_, err = NewBufferHandler(&memoryHandler{}, -1)
	assert.ErrorIs(t, err, ErrInvalidBufferLimit)
}

func TestBufferHandler_Concurrent(t *testing.T) {
	inner := &memoryHandler{}
	h, err := NewBufferHandler(inner, 10)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range 25 {
				_ = h.Handle(context.Background(), testRecord(LevelInfo, fmt.Sprintf("%d-%d", i, j)))
			}
		}()
	}
	wg.Wait()
	require.NoError(t, h.Flush())

	assert.Len(t, inner.Messages(), 200)
}
