// Package bootstrap provides the process bootstrap: a lazy service container
// with ordered extension chains, and the configuration-driven logging
// pipeline assembled on top of it.
package bootstrap

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Observer defines the interface for objects that want to be notified of
// container events. Events use the CloudEvents specification.
type Observer interface {
	// OnEvent is called synchronously from the goroutine that triggered the
	// event. Observers should return quickly.
	OnEvent(ctx context.Context, event cloudevents.Event) error

	// ObserverID returns a unique identifier for this observer.
	ObserverID() string
}

// EventType constants for events emitted during bootstrap.
// Following CloudEvents specification, these use reverse domain notation.
const (
	EventTypeServiceRegistered = "com.bootstrap.service.registered"
	EventTypeServiceExtended   = "com.bootstrap.service.extended"
	EventTypeServiceResolved   = "com.bootstrap.service.resolved"
	EventTypeServiceFailed     = "com.bootstrap.service.failed"

	EventTypeLoggerPublished = "com.bootstrap.logger.published"
	EventTypeLoggerFlushed   = "com.bootstrap.logger.flushed"
)

// FunctionalObserver provides a simple way to create observers using functions.
type FunctionalObserver struct {
	id      string
	handler func(ctx context.Context, event cloudevents.Event) error
}

// NewFunctionalObserver creates a new observer that uses the provided function
// to handle events.
func NewFunctionalObserver(id string, handler func(ctx context.Context, event cloudevents.Event) error) Observer {
	return &FunctionalObserver{
		id:      id,
		handler: handler,
	}
}

// OnEvent implements the Observer interface by calling the handler function.
func (f *FunctionalObserver) OnEvent(ctx context.Context, event cloudevents.Event) error {
	return f.handler(ctx, event)
}

// ObserverID implements the Observer interface by returning the observer ID.
func (f *FunctionalObserver) ObserverID() string {
	return f.id
}
