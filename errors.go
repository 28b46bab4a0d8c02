package bootstrap

import (
	"errors"
	"fmt"
	"strings"
)

// Bootstrap errors
var (
	// Container errors
	ErrDuplicateService     = errors.New("service already registered")
	ErrUnknownService       = errors.New("service not registered")
	ErrCyclicDependency     = errors.New("cyclic dependency detected")
	ErrServiceTypeMismatch  = errors.New("service has unexpected type")
	ErrNilFactory           = errors.New("service factory is nil")
	ErrNilExtension         = errors.New("service extension is nil")
	ErrInvalidServiceScope  = errors.New("invalid service scope")
	ErrUnsupportedOperation = errors.New("unsupported container operation")

	// Pipeline errors
	ErrHandlerConfig = errors.New("logging handler configuration error")

	// Application errors
	ErrConfigFileNotFound = errors.New("config file does not exist")
	ErrConfigSourceNil    = errors.New("config source is nil")
	ErrAppNil             = errors.New("application is nil")
)

// UnsupportedOperationError is returned by Container.Invoke for any operation
// outside the container's fixed operation set.
type UnsupportedOperationError struct {
	Op   string
	Args []any
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%v: %q does not exist (args: %v)", ErrUnsupportedOperation, e.Op, e.Args)
}

func (e *UnsupportedOperationError) Unwrap() error {
	return ErrUnsupportedOperation
}

// HandlerConfigError reports the configuration path that stopped the logging
// pipeline from being assembled.
type HandlerConfigError struct {
	Path string
	Err  error
}

func (e *HandlerConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrHandlerConfig, e.Path, e.Err)
}

// Unwrap exposes both the sentinel and the underlying config error so
// errors.Is matches ErrHandlerConfig as well as config.ErrKeyMissing.
func (e *HandlerConfigError) Unwrap() []error {
	return []error{ErrHandlerConfig, e.Err}
}

// NewHandlerConfigError creates a new HandlerConfigError
func NewHandlerConfigError(path string, err error) *HandlerConfigError {
	return &HandlerConfigError{Path: path, Err: err}
}

func cycleError(chain []string, name string) error {
	path := append(append([]string(nil), chain...), name)
	return fmt.Errorf("%w: %s", ErrCyclicDependency, strings.Join(path, " -> "))
}
