package bootstrap

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sort"
	"sync"
)

// Key is a typed token naming a service in a Container. The type parameter
// is checked at resolution time so callers never type-assert themselves.
type Key[T any] struct {
	name string
}

// NewKey creates a key for a service of type T.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the registry name of the key.
func (k Key[T]) Name() string { return k.name }

func (k Key[T]) String() string { return k.name }

type (
	factoryFunc   func(*Container) (any, error)
	extensionFunc func(any, *Container) (any, error)
)

// serviceDefinition holds everything known about one registered service.
// The mutex is the per-key resolution guard.
type serviceDefinition struct {
	name       string
	factory    factoryFunc
	extensions []extensionFunc
	scope      ServiceScope

	mu       sync.Mutex
	resolved bool
	value    any
}

// registry is the state shared by every view of a container.
type registry struct {
	mu       sync.RWMutex
	defs     map[string]*serviceDefinition
	logger   Logger
	observer Observer
}

// Container is a lazy service container. Services are registered as
// factories and built on first resolution; ordered extensions decorate the
// factory result before it is cached.
//
// A *Container passed to a factory or extension is a view carrying the
// chain of services currently being resolved, which is how cyclic
// dependencies are detected without confusing independent goroutines.
type Container struct {
	reg   *registry
	chain []string
}

// ContainerOption configures a Container.
type ContainerOption func(*registry)

// WithContainerLogger sets the diagnostic logger used by the container.
func WithContainerLogger(logger Logger) ContainerOption {
	return func(r *registry) {
		if logger != nil {
			r.logger = NewValueInjectionLoggerDecorator(logger, "component", "container")
		}
	}
}

// WithContainerObserver sets the observer notified of container events.
func WithContainerObserver(observer Observer) ContainerOption {
	return func(r *registry) {
		r.observer = observer
	}
}

// NewContainer creates an empty container.
func NewContainer(opts ...ContainerOption) *Container {
	reg := &registry{
		defs:   make(map[string]*serviceDefinition),
		logger: nopLogger{},
	}
	for _, opt := range opts {
		opt(reg)
	}
	return &Container{reg: reg}
}

// Register stores a factory for key. It fails with ErrDuplicateService when
// the key is already registered.
func Register[T any](c *Container, key Key[T], factory func(*Container) (T, error), opts ...ServiceOption) error {
	if factory == nil {
		return fmt.Errorf("%w: %s", ErrNilFactory, key.name)
	}
	return c.register(key.name, func(c *Container) (any, error) {
		return factory(c)
	}, opts)
}

// RegisterValue registers a service whose factory returns value unchanged.
func RegisterValue[T any](c *Container, key Key[T], value T) error {
	return Register(c, key, func(*Container) (T, error) {
		return value, nil
	})
}

// Extend appends a decorator to key's extension chain. Decorators run in
// the order they were added. A decorator added after a singleton has been
// cached does not change the cached value.
func Extend[T any](c *Container, key Key[T], decorator func(T, *Container) (T, error)) error {
	if decorator == nil {
		return fmt.Errorf("%w: %s", ErrNilExtension, key.name)
	}
	return c.extend(key.name, func(v any, c *Container) (any, error) {
		typed, err := castService[T](key.name, v)
		if err != nil {
			return nil, err
		}
		return decorator(typed, c)
	})
}

// Resolve builds (or returns the cached) service for key.
func Resolve[T any](c *Container, key Key[T]) (T, error) {
	v, err := c.resolve(key.name)
	if err != nil {
		var zero T
		return zero, err
	}
	return castService[T](key.name, v)
}

// MustResolve is like Resolve but panics on error. It is intended for
// wiring code and tests.
func MustResolve[T any](c *Container, key Key[T]) T {
	v, err := Resolve(c, key)
	if err != nil {
		panic(err)
	}
	return v
}

func castService[T any](name string, v any) (T, error) {
	var zero T
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, want %s", ErrServiceTypeMismatch, name, v, reflect.TypeFor[T]())
	}
	return typed, nil
}

// Has reports whether a service is registered under name.
func (c *Container) Has(name string) bool {
	c.reg.mu.RLock()
	defer c.reg.mu.RUnlock()
	_, ok := c.reg.defs[name]
	return ok
}

// Keys returns the registered service names in sorted order.
func (c *Container) Keys() []string {
	c.reg.mu.RLock()
	keys := make([]string, 0, len(c.reg.defs))
	for name := range c.reg.defs {
		keys = append(keys, name)
	}
	c.reg.mu.RUnlock()
	sort.Strings(keys)
	return keys
}

// Resolved reports whether the singleton registered under name has been
// built and cached.
func (c *Container) Resolved(name string) bool {
	def, ok := c.lookup(name)
	if !ok {
		return false
	}
	def.mu.Lock()
	defer def.mu.Unlock()
	return def.resolved
}

// Invoke dispatches a container operation by name. Only "has" and "keys"
// are supported; anything else fails with *UnsupportedOperationError.
func (c *Container) Invoke(op string, args ...any) (any, error) {
	switch op {
	case "has":
		if len(args) == 1 {
			if name, ok := args[0].(string); ok {
				return c.Has(name), nil
			}
		}
	case "keys":
		if len(args) == 0 {
			return c.Keys(), nil
		}
	}
	return nil, &UnsupportedOperationError{Op: op, Args: args}
}

func (c *Container) lookup(name string) (*serviceDefinition, bool) {
	c.reg.mu.RLock()
	defer c.reg.mu.RUnlock()
	def, ok := c.reg.defs[name]
	return def, ok
}

func (c *Container) register(name string, factory factoryFunc, opts []ServiceOption) error {
	def := &serviceDefinition{
		name:    name,
		factory: factory,
		scope:   GetDefaultServiceScope(),
	}
	for _, opt := range opts {
		if err := opt(def); err != nil {
			return err
		}
	}

	c.reg.mu.Lock()
	if _, exists := c.reg.defs[name]; exists {
		c.reg.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrDuplicateService, name)
	}
	c.reg.defs[name] = def
	c.reg.mu.Unlock()

	c.reg.logger.Debug("Registered service", "name", name, "scope", def.scope)
	c.emit(EventTypeServiceRegistered, map[string]any{"name": name, "scope": def.scope.String()})
	return nil
}

func (c *Container) extend(name string, ext extensionFunc) error {
	def, ok := c.lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, name)
	}

	def.mu.Lock()
	def.extensions = append(def.extensions, ext)
	count := len(def.extensions)
	def.mu.Unlock()

	c.reg.logger.Debug("Extended service", "name", name, "extensions", count)
	c.emit(EventTypeServiceExtended, map[string]any{"name": name, "extensions": count})
	return nil
}

func (c *Container) resolve(name string) (any, error) {
	if slices.Contains(c.chain, name) {
		return nil, cycleError(c.chain, name)
	}
	def, ok := c.lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownService, name)
	}

	child := &Container{reg: c.reg, chain: append(slices.Clip(c.chain), name)}

	if !def.scope.IsCacheable() {
		def.mu.Lock()
		exts := slices.Clone(def.extensions)
		def.mu.Unlock()
		return c.build(child, def, exts)
	}

	def.mu.Lock()
	defer def.mu.Unlock()
	if def.resolved {
		return def.value, nil
	}
	value, err := c.build(child, def, def.extensions)
	if err != nil {
		return nil, err
	}
	def.value = value
	def.resolved = true
	return value, nil
}

func (c *Container) build(child *Container, def *serviceDefinition, exts []extensionFunc) (any, error) {
	value, err := def.factory(child)
	if err != nil {
		c.emit(EventTypeServiceFailed, map[string]any{"name": def.name, "error": err.Error()})
		return nil, fmt.Errorf("resolve %s: %w", def.name, err)
	}
	for i, ext := range exts {
		value, err = ext(value, child)
		if err != nil {
			c.emit(EventTypeServiceFailed, map[string]any{"name": def.name, "extension": i, "error": err.Error()})
			return nil, fmt.Errorf("extend %s (#%d): %w", def.name, i, err)
		}
	}
	c.reg.logger.Debug("Resolved service", "name", def.name, "extensions", len(exts))
	c.emit(EventTypeServiceResolved, map[string]any{"name": def.name, "extensions": len(exts)})
	return value, nil
}

func (c *Container) emit(eventType string, data map[string]any) {
	if c.reg.observer == nil {
		return
	}
	event := NewCloudEvent(eventType, eventSource, data, nil)
	if err := c.reg.observer.OnEvent(context.Background(), event); err != nil {
		c.reg.logger.Warn("Observer failed to handle event", "type", eventType, "observer", c.reg.observer.ObserverID(), "error", err)
	}
}
