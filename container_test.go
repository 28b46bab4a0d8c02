package bootstrap

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	tags []string
}

var keyWidget = NewKey[*widget]("widget")

func TestContainer_RegisterAndResolve(t *testing.T) {
	t.Run("singleton is built once and cached", func(t *testing.T) {
		c := NewContainer()
		calls := 0
		require.NoError(t, Register(c, keyWidget, func(*Container) (*widget, error) {
			calls++
			return &widget{}, nil
		}))

		assert.False(t, c.Resolved("widget"))
		first, err := Resolve(c, keyWidget)
		require.NoError(t, err)
		second, err := Resolve(c, keyWidget)
		require.NoError(t, err)

		assert.Same(t, first, second)
		assert.Equal(t, 1, calls)
		assert.True(t, c.Resolved("widget"))
	})

	t.Run("registration does not invoke the factory", func(t *testing.T) {
		c := NewContainer()
		called := false
		require.NoError(t, Register(c, keyWidget, func(*Container) (*widget, error) {
			called = true
			return &widget{}, nil
		}))
		assert.False(t, called)
		assert.True(t, c.Has("widget"))
	})

	t.Run("value registration", func(t *testing.T) {
		c := NewContainer()
		key := NewKey[string]("greeting")
		require.NoError(t, RegisterValue(c, key, "hello"))
		assert.Equal(t, "hello", MustResolve(c, key))
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		c := NewContainer()
		require.NoError(t, RegisterValue(c, keyWidget, &widget{}))
		err := RegisterValue(c, keyWidget, &widget{})
		assert.ErrorIs(t, err, ErrDuplicateService)
	})

	t.Run("nil factory fails", func(t *testing.T) {
		c := NewContainer()
		err := Register[*widget](c, keyWidget, nil)
		assert.ErrorIs(t, err, ErrNilFactory)
		assert.False(t, c.Has("widget"))
	})

	t.Run("unknown service", func(t *testing.T) {
		c := NewContainer()
		_, err := Resolve(c, keyWidget)
		assert.ErrorIs(t, err, ErrUnknownService)
		assert.Panics(t, func() { MustResolve(c, keyWidget) })
	})

	t.Run("type mismatch", func(t *testing.T) {
		c := NewContainer()
		require.NoError(t, RegisterValue(c, NewKey[string]("widget"), "not a widget"))
		_, err := Resolve(c, keyWidget)
		assert.ErrorIs(t, err, ErrServiceTypeMismatch)
		assert.Contains(t, err.Error(), "*bootstrap.widget")
	})

	t.Run("factory error is returned and not cached", func(t *testing.T) {
		c := NewContainer()
		boom := errors.New("boom")
		attempts := 0
		require.NoError(t, Register(c, keyWidget, func(*Container) (*widget, error) {
			attempts++
			if attempts == 1 {
				return nil, boom
			}
			return &widget{}, nil
		}))

		_, err := Resolve(c, keyWidget)
		require.ErrorIs(t, err, boom)
		assert.False(t, c.Resolved("widget"))

		w, err := Resolve(c, keyWidget)
		require.NoError(t, err)
		assert.NotNil(t, w)
		assert.Equal(t, 2, attempts)
	})
}

func TestContainer_Extend(t *testing.T) {
	tag := func(name string) func(*widget, *Container) (*widget, error) {
		return func(w *widget, _ *Container) (*widget, error) {
			w.tags = append(w.tags, name)
			return w, nil
		}
	}

	t.Run("extensions apply in registration order", func(t *testing.T) {
		c := NewContainer()
		require.NoError(t, RegisterValue(c, keyWidget, &widget{}))
		require.NoError(t, Extend(c, keyWidget, tag("f1")))
		require.NoError(t, Extend(c, keyWidget, tag("f2")))
		require.NoError(t, Extend(c, keyWidget, tag("f3")))

		w := MustResolve(c, keyWidget)
		assert.Equal(t, []string{"f1", "f2", "f3"}, w.tags)
	})

	t.Run("extension may replace the value", func(t *testing.T) {
		c := NewContainer()
		key := NewKey[int]("n")
		require.NoError(t, RegisterValue(c, key, 2))
		require.NoError(t, Extend(c, key, func(n int, _ *Container) (int, error) { return n + 1, nil }))
		require.NoError(t, Extend(c, key, func(n int, _ *Container) (int, error) { return n * 10, nil }))
		assert.Equal(t, 30, MustResolve(c, key))
	})

	t.Run("extension added after resolution does not alter the cached value", func(t *testing.T) {
		c := NewContainer()
		require.NoError(t, RegisterValue(c, keyWidget, &widget{}))
		require.NoError(t, Extend(c, keyWidget, tag("early")))

		w := MustResolve(c, keyWidget)
		require.NoError(t, Extend(c, keyWidget, tag("late")))

		again := MustResolve(c, keyWidget)
		assert.Same(t, w, again)
		assert.Equal(t, []string{"early"}, again.tags)
	})

	t.Run("extension of unknown service fails", func(t *testing.T) {
		c := NewContainer()
		err := Extend(c, keyWidget, tag("x"))
		assert.ErrorIs(t, err, ErrUnknownService)
	})

	t.Run("nil extension fails", func(t *testing.T) {
		c := NewContainer()
		require.NoError(t, RegisterValue(c, keyWidget, &widget{}))
		assert.ErrorIs(t, Extend[*widget](c, keyWidget, nil), ErrNilExtension)
	})

	t.Run("extension can resolve other services", func(t *testing.T) {
		c := NewContainer()
		label := NewKey[string]("label")
		require.NoError(t, RegisterValue(c, label, "from-container"))
		require.NoError(t, RegisterValue(c, keyWidget, &widget{}))
		require.NoError(t, Extend(c, keyWidget, func(w *widget, c *Container) (*widget, error) {
			l, err := Resolve(c, label)
			if err != nil {
				return nil, err
			}
			w.tags = append(w.tags, l)
			return w, nil
		}))

		assert.Equal(t, []string{"from-container"}, MustResolve(c, keyWidget).tags)
	})

	t.Run("extension error is wrapped with its position", func(t *testing.T) {
		c := NewContainer()
		boom := errors.New("bad decorator")
		require.NoError(t, RegisterValue(c, keyWidget, &widget{}))
		require.NoError(t, Extend(c, keyWidget, tag("ok")))
		require.NoError(t, Extend(c, keyWidget, func(*widget, *Container) (*widget, error) { return nil, boom }))

		_, err := Resolve(c, keyWidget)
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "extend widget (#1)")
		assert.False(t, c.Resolved("widget"))
	})
}

func TestContainer_TransientScope(t *testing.T) {
	c := NewContainer()
	calls := 0
	require.NoError(t, Register(c, keyWidget, func(*Container) (*widget, error) {
		calls++
		return &widget{}, nil
	}, WithScope(ServiceScopeTransient)))
	require.NoError(t, Extend(c, keyWidget, func(w *widget, _ *Container) (*widget, error) {
		w.tags = append(w.tags, "decorated")
		return w, nil
	}))

	first := MustResolve(c, keyWidget)
	second := MustResolve(c, keyWidget)

	assert.NotSame(t, first, second)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"decorated"}, first.tags)
	assert.Equal(t, []string{"decorated"}, second.tags)
	assert.False(t, c.Resolved("widget"))
}

func TestContainer_InvalidScope(t *testing.T) {
	c := NewContainer()
	err := RegisterValue(c, keyWidget, &widget{})
	require.NoError(t, err)

	err = Register(c, NewKey[int]("n"), func(*Container) (int, error) { return 1, nil }, WithScope("request"))
	assert.ErrorIs(t, err, ErrInvalidServiceScope)
	assert.False(t, c.Has("n"))
}

func TestContainer_CyclicDependency(t *testing.T) {
	t.Run("mutual factories", func(t *testing.T) {
		c := NewContainer()
		a := NewKey[int]("a")
		b := NewKey[int]("b")
		require.NoError(t, Register(c, a, func(c *Container) (int, error) { return Resolve(c, b) }))
		require.NoError(t, Register(c, b, func(c *Container) (int, error) { return Resolve(c, a) }))

		_, err := Resolve(c, a)
		require.ErrorIs(t, err, ErrCyclicDependency)
		assert.Contains(t, err.Error(), "a -> b -> a")
		assert.False(t, c.Resolved("a"))
		assert.False(t, c.Resolved("b"))
	})

	t.Run("extension resolving its own key", func(t *testing.T) {
		c := NewContainer()
		require.NoError(t, RegisterValue(c, keyWidget, &widget{}))
		require.NoError(t, Extend(c, keyWidget, func(w *widget, c *Container) (*widget, error) {
			return Resolve(c, keyWidget)
		}))

		_, err := Resolve(c, keyWidget)
		require.ErrorIs(t, err, ErrCyclicDependency)
		assert.Contains(t, err.Error(), "widget -> widget")
	})

	t.Run("diamond is not a cycle", func(t *testing.T) {
		c := NewContainer()
		base := NewKey[int]("base")
		left := NewKey[int]("left")
		right := NewKey[int]("right")
		top := NewKey[int]("top")
		require.NoError(t, RegisterValue(c, base, 1))
		require.NoError(t, Register(c, left, func(c *Container) (int, error) { return Resolve(c, base) }))
		require.NoError(t, Register(c, right, func(c *Container) (int, error) { return Resolve(c, base) }))
		require.NoError(t, Register(c, top, func(c *Container) (int, error) {
			l, err := Resolve(c, left)
			if err != nil {
				return 0, err
			}
			r, err := Resolve(c, right)
			return l + r, err
		}))

		assert.Equal(t, 2, MustResolve(c, top))
	})
}

func TestContainer_ConcurrentResolution(t *testing.T) {
	c := NewContainer()
	var calls atomic.Int32
	require.NoError(t, Register(c, keyWidget, func(*Container) (*widget, error) {
		calls.Add(1)
		return &widget{}, nil
	}))

	const workers = 32
	results := make([]*widget, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = MustResolve(c, keyWidget)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, w := range results {
		assert.Same(t, results[0], w)
	}
}

func TestContainer_Invoke(t *testing.T) {
	c := NewContainer()
	require.NoError(t, RegisterValue(c, NewKey[int]("b"), 2))
	require.NoError(t, RegisterValue(c, NewKey[int]("a"), 1))

	has, err := c.Invoke("has", "a")
	require.NoError(t, err)
	assert.Equal(t, true, has)

	has, err = c.Invoke("has", "missing")
	require.NoError(t, err)
	assert.Equal(t, false, has)

	keys, err := c.Invoke("keys")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	tests := []struct {
		name string
		op   string
		args []any
	}{
		{"unknown operation", "frobnicate", []any{1, 2}},
		{"has without args", "has", nil},
		{"has with non-string", "has", []any{42}},
		{"keys with args", "keys", []any{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Invoke(tt.op, tt.args...)
			require.ErrorIs(t, err, ErrUnsupportedOperation)
			var opErr *UnsupportedOperationError
			require.ErrorAs(t, err, &opErr)
			assert.Equal(t, tt.op, opErr.Op)
			assert.Contains(t, err.Error(), tt.op)
		})
	}
}

func TestContainer_LoggerAndObserver(t *testing.T) {
	logger := NewTestLogger()
	var mu sync.Mutex
	var events []cloudevents.Event
	observer := NewFunctionalObserver("recorder", func(_ context.Context, e cloudevents.Event) error {
		mu.Lock()
		defer mu.Unlock()
		events = append(events, e)
		return nil
	})

	c := NewContainer(WithContainerLogger(logger), WithContainerObserver(observer))
	require.NoError(t, RegisterValue(c, keyWidget, &widget{}))
	require.NoError(t, Extend(c, keyWidget, func(w *widget, _ *Container) (*widget, error) { return w, nil }))
	MustResolve(c, keyWidget)
	MustResolve(c, keyWidget)

	entry := logger.FindEntry("debug", "Registered service")
	require.NotNil(t, entry)
	args := argsToMap(entry.Args)
	assert.Equal(t, "container", args["component"])
	assert.Equal(t, "widget", args["name"])

	mu.Lock()
	defer mu.Unlock()
	types := make([]string, 0, len(events))
	for _, e := range events {
		types = append(types, e.Type())
		assert.Equal(t, eventSource, e.Source())
	}
	assert.Equal(t, []string{
		EventTypeServiceRegistered,
		EventTypeServiceExtended,
		EventTypeServiceResolved,
	}, types)
}

func TestContainer_ObserverErrorIsLogged(t *testing.T) {
	logger := NewTestLogger()
	observer := NewFunctionalObserver("failing", func(context.Context, cloudevents.Event) error {
		return errors.New("observer down")
	})
	c := NewContainer(WithContainerLogger(logger), WithContainerObserver(observer))

	require.NoError(t, RegisterValue(c, keyWidget, &widget{}))

	entry := logger.FindEntry("warn", "Observer failed")
	require.NotNil(t, entry)
	assert.Equal(t, "failing", argsToMap(entry.Args)["observer"])
}

func TestContainer_FailureEvent(t *testing.T) {
	var failed []map[string]any
	observer := NewFunctionalObserver("recorder", func(_ context.Context, e cloudevents.Event) error {
		if e.Type() == EventTypeServiceFailed {
			var data map[string]any
			if err := e.DataAs(&data); err != nil {
				return err
			}
			failed = append(failed, data)
		}
		return nil
	})
	c := NewContainer(WithContainerObserver(observer))
	require.NoError(t, Register(c, keyWidget, func(*Container) (*widget, error) {
		return nil, errors.New("nope")
	}))

	_, err := Resolve(c, keyWidget)
	require.Error(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "widget", failed[0]["name"])
	assert.Equal(t, "nope", failed[0]["error"])
}

func TestKey(t *testing.T) {
	k := NewKey[int]("answer")
	assert.Equal(t, "answer", k.Name())
	assert.Equal(t, "answer", k.String())
}
