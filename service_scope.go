package bootstrap

import (
	"fmt"
)

// ServiceScope defines how often a registered factory is invoked.
type ServiceScope string

const (
	// ServiceScopeSingleton invokes the factory once. The decorated result is
	// cached and returned unchanged for the container lifetime.
	ServiceScopeSingleton ServiceScope = "singleton"

	// ServiceScopeTransient invokes the factory and re-applies every extension
	// on each resolution. Nothing is cached.
	ServiceScopeTransient ServiceScope = "transient"
)

// String returns the string representation of the service scope.
func (s ServiceScope) String() string {
	return string(s)
}

// IsValid returns true if the service scope is one of the defined constants.
func (s ServiceScope) IsValid() bool {
	switch s {
	case ServiceScopeSingleton, ServiceScopeTransient:
		return true
	default:
		return false
	}
}

// IsCacheable returns true if resolved instances of this scope are cached.
func (s ServiceScope) IsCacheable() bool {
	return s == ServiceScopeSingleton
}

// Description returns a brief description of the service scope behavior.
func (s ServiceScope) Description() string {
	switch s {
	case ServiceScopeSingleton:
		return "Single instance shared across the process"
	case ServiceScopeTransient:
		return "New instance created for each resolution"
	default:
		return "Unknown scope behavior"
	}
}

// ParseServiceScope parses a string into a ServiceScope, returning an error
// if the string is not a valid service scope.
func ParseServiceScope(s string) (ServiceScope, error) {
	scope := ServiceScope(s)
	if !scope.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrInvalidServiceScope, s)
	}
	return scope, nil
}

// GetDefaultServiceScope returns the scope used when none is specified.
func GetDefaultServiceScope() ServiceScope {
	return ServiceScopeSingleton
}

// ServiceOption configures a service definition at registration time.
type ServiceOption func(*serviceDefinition) error

// WithScope sets the scope of a registered service.
func WithScope(scope ServiceScope) ServiceOption {
	return func(def *serviceDefinition) error {
		if !scope.IsValid() {
			return fmt.Errorf("%w: %s", ErrInvalidServiceScope, scope)
		}
		def.scope = scope
		return nil
	}
}
