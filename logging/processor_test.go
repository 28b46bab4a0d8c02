package logging

import (
	"context"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordValueSemantics(t *testing.T) {
	original := testRecord(LevelInfo, "msg")
	enriched := original.WithExtra("uid", "x")

	assert.Empty(t, original.Extra)
	assert.Equal(t, "x", enriched.Extra["uid"])

	clone := enriched.Clone()
	clone.Extra["uid"] = "y"
	assert.Equal(t, "x", enriched.Extra["uid"])

	multi := original.WithExtras(map[string]any{"a": 1, "b": 2})
	assert.Len(t, multi.Extra, 2)
	assert.Empty(t, original.Extra)
}

func TestUIDProcessor(t *testing.T) {
	p, err := NewUIDProcessor(24)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{24}$`), p.UID())

	first := p.Process(context.Background(), testRecord(LevelInfo, "a"))
	second := p.Process(context.Background(), testRecord(LevelInfo, "b"))
	assert.Equal(t, p.UID(), first.Extra["uid"])
	assert.Equal(t, first.Extra["uid"], second.Extra["uid"])

	before := p.UID()
	p.Reset()
	assert.NotEqual(t, before, p.UID())

	for _, length := range []int{0, -1, 33} {
		_, err := NewUIDProcessor(length)
		assert.ErrorIs(t, err, ErrInvalidUIDLength)
	}
	short, err := NewUIDProcessor(1)
	require.NoError(t, err)
	assert.Len(t, short.UID(), 1)
}

func TestProcessIDProcessor(t *testing.T) {
	r := NewProcessIDProcessor().Process(context.Background(), testRecord(LevelInfo, "pid"))
	assert.Equal(t, os.Getpid(), r.Extra["process_id"])
}

func TestMemoryProcessors(t *testing.T) {
	r := NewMemoryUsageProcessor().Process(context.Background(), testRecord(LevelInfo, "mem"))
	r = NewMemoryPeakUsageProcessor().Process(context.Background(), r)

	usage, ok := r.Extra["memory_usage"].(string)
	require.True(t, ok)
	assert.Regexp(t, `^\d+(\.\d{2} [KM]B| B)$`, usage)
	assert.Contains(t, r.Extra, "memory_peak_usage")

	raw := (&MemoryUsageProcessor{Raw: true}).Process(context.Background(), testRecord(LevelInfo, "mem"))
	assert.IsType(t, uint64(0), raw.Extra["memory_usage"])
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512, false))
	assert.Equal(t, "1.50 KB", formatBytes(1536, false))
	assert.Equal(t, "2.00 MB", formatBytes(2<<20, false))
	assert.Equal(t, uint64(7), formatBytes(7, true))
}

func TestWebProcessor(t *testing.T) {
	p := NewWebProcessor()

	plain := p.Process(context.Background(), testRecord(LevelInfo, "no request"))
	assert.Empty(t, plain.Extra)

	req := httptest.NewRequest("POST", "http://example.com/orders?id=7", nil)
	req.RemoteAddr = "10.0.0.5:43210"
	req.Header.Set("Referer", "http://example.com/cart")

	r := p.Process(WithRequest(context.Background(), req), testRecord(LevelInfo, "with request"))
	assert.Equal(t, "http://example.com/orders?id=7", r.Extra["url"])
	assert.Equal(t, "10.0.0.5", r.Extra["ip"])
	assert.Equal(t, "POST", r.Extra["http_method"])
	assert.Equal(t, "example.com", r.Extra["server"])
	assert.Equal(t, "http://example.com/cart", r.Extra["referrer"])

	_, ok := RequestFromContext(context.Background())
	assert.False(t, ok)
}

type introspectionCaller struct{}

func (introspectionCaller) log(p Processor) Record {
	return p.Process(context.Background(), testRecord(LevelInfo, "from method"))
}

func TestIntrospectionProcessor(t *testing.T) {
	p := NewIntrospectionProcessor()

	r := p.Process(context.Background(), testRecord(LevelInfo, "here"))
	assert.True(t, strings.HasSuffix(r.Extra["file"].(string), "processor_test.go"))
	assert.Equal(t, "TestIntrospectionProcessor", r.Extra["function"])
	assert.Equal(t, "", r.Extra["class"])
	assert.Greater(t, r.Extra["line"].(int), 0)

	m := introspectionCaller{}.log(p)
	assert.Equal(t, "introspectionCaller.log", m.Extra["function"])
	assert.Equal(t, "logging.introspectionCaller", m.Extra["class"])

	p.Level = LevelError
	below := p.Process(context.Background(), testRecord(LevelInfo, "skipped"))
	assert.NotContains(t, below.Extra, "file")
}

func TestIntrospectionNames(t *testing.T) {
	assert.Equal(t, "(*Logger).Log", funcName("github.com/x/logging.(*Logger).Log"))
	assert.Equal(t, "logging.Logger", receiverName("github.com/x/logging.(*Logger).Log"))
	assert.Equal(t, "", receiverName("main.main"))
	assert.Equal(t, "", receiverName("main.main.func1"))
}

func TestMessageInterpolationProcessor(t *testing.T) {
	p := NewMessageInterpolationProcessor()
	when := time.Date(2026, 10, 17, 8, 30, 0, 0, time.UTC)

	r := testRecord(LevelInfo, "{user} paid {amount} at %when% via {uid} for {missing}")
	r.Context = map[string]any{"user": "alice", "amount": 12.5, "when": when}
	r.Extra = map[string]any{"uid": "abc", "user": "ignored"}

	out := p.Process(context.Background(), r)
	assert.Equal(t, "alice paid 12.5 at 2026-10-17T08:30:00Z via abc for {missing}", out.Message)
	assert.Equal(t, "{user} paid {amount} at %when% via {uid} for {missing}", r.Message)
}

func TestProcessorPanicIsContained(t *testing.T) {
	boom := ProcessorFunc(func(context.Context, Record) Record { panic("bad processor") })
	after := ProcessorFunc(func(_ context.Context, r Record) Record { return r.WithExtra("after", true) })

	r := runProcessors(context.Background(), []Processor{boom, after}, testRecord(LevelInfo, "x"))
	assert.Contains(t, r.Extra["processor_error"], "bad processor")
	assert.Equal(t, true, r.Extra["after"])
}
