package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStreamHandler(t *testing.T) {
	var buf bytes.Buffer
	h := NewStreamHandler(&buf, LevelInfo, NewLineFormatter("%level_name%: %message% %extra.uid%\n", "", false))
	uid, err := NewUIDProcessor(8)
	require.NoError(t, err)
	h.PushProcessor(uid)

	assert.False(t, h.IsHandling(LevelDebug))
	assert.True(t, h.IsHandling(LevelInfo))
	assert.Equal(t, LevelInfo, h.Level())
	assert.Len(t, h.Processors(), 1)

	require.NoError(t, h.Handle(context.Background(), testRecord(LevelDebug, "dropped")))
	require.NoError(t, h.Handle(context.Background(), testRecord(LevelWarning, "kept")))

	assert.Equal(t, "WARNING: kept "+uid.UID()+"\n", buf.String())

	h.SetFormatter(NewLineFormatter("%message%\n", "", false))
	require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, "reformatted")))
	assert.Contains(t, buf.String(), "\nreformatted\n")

	require.NoError(t, h.Close())
	err = h.Handle(context.Background(), testRecord(LevelError, "after close"))
	assert.ErrorIs(t, err, ErrHandlerClosed)
	var sinkErr *SinkError
	require.ErrorAs(t, err, &sinkErr)
	assert.Equal(t, "stream", sinkErr.Handler)
}

func TestStreamHandler_NilFormatterFallsBack(t *testing.T) {
	var buf bytes.Buffer
	h := NewStreamHandler(&buf, LevelDebug, nil)
	require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, "plain")))
	assert.Contains(t, buf.String(), "app.INFO: plain\n")
}

func TestOpenStreamHandler(t *testing.T) {
	stdout := &bytes.Buffer{}
	for _, dest := range []string{"", "stdout", "php://stdout", "php://output"} {
		h, err := OpenStreamHandler(dest, LevelDebug, NewLineFormatter("%message%\n", "", false), stdout)
		require.NoError(t, err)
		assert.Empty(t, h.Path())
		require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, dest)))
	}
	assert.Equal(t, "\nstdout\nphp://stdout\nphp://output\n", stdout.String())

	stderr, err := OpenStreamHandler("php://stderr", LevelDebug, nil, stdout)
	require.NoError(t, err)
	assert.Empty(t, stderr.Path())

	_, err = OpenStreamHandler(string(filepath.Separator), LevelDebug, nil, stdout)
	assert.ErrorIs(t, err, ErrInvalidStream)
}

func TestOpenStreamHandler_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "console.log")
	h, err := OpenStreamHandler(path, LevelDebug, NewLineFormatter("%message%\n", "", false), nil)
	require.NoError(t, err)
	assert.Equal(t, path, h.Path())

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file is opened lazily")

	require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, "one")))
	require.NoError(t, h.Handle(context.Background(), testRecord(LevelInfo, "two")))
	require.NoError(t, h.Flush())
	require.NoError(t, h.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}
