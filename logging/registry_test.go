package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	app := NewLogger("app")
	audit := NewLogger("audit")

	require.NoError(t, r.Add(app))
	require.NoError(t, r.Add(audit))
	assert.ErrorIs(t, r.Add(NewLogger("app")), ErrLoggerExists)
	assert.ErrorIs(t, r.Add(nil), ErrNilLogger)

	got, err := r.Get("app")
	require.NoError(t, err)
	assert.Same(t, app, got)
	assert.True(t, r.Has("audit"))
	assert.Equal(t, []string{"app", "audit"}, r.Names())

	r.Remove("audit")
	assert.False(t, r.Has("audit"))
	_, err = r.Get("audit")
	assert.ErrorIs(t, err, ErrLoggerNotFound)
}
