package logging

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds published loggers by channel name.
type Registry struct {
	mu      sync.RWMutex
	loggers map[string]*Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{loggers: make(map[string]*Logger)}
}

// Add publishes logger under its channel name.
func (r *Registry) Add(logger *Logger) error {
	if logger == nil {
		return ErrNilLogger
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.loggers[logger.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrLoggerExists, logger.Name())
	}
	r.loggers[logger.Name()] = logger
	return nil
}

// Get returns the logger published under name.
func (r *Registry) Get(name string) (*Logger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.loggers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLoggerNotFound, name)
	}
	return l, nil
}

// Has reports whether a logger is published under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.loggers[name]
	return ok
}

// Names returns the published channel names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.loggers))
	for name := range r.loggers {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Remove unpublishes name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	delete(r.loggers, name)
	r.mu.Unlock()
}
