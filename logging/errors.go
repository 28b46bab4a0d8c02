package logging

import (
	"errors"
	"fmt"
)

// Static errors for the logging package
var (
	ErrLoggerFrozen       = errors.New("logger is frozen")
	ErrLoggerExists       = errors.New("logger already registered")
	ErrLoggerNotFound     = errors.New("logger not registered")
	ErrNilLogger          = errors.New("logger is nil")
	ErrNilHandler         = errors.New("handler is nil")
	ErrUnknownLevel       = errors.New("unknown log level")
	ErrUnknownFacility    = errors.New("unknown syslog facility")
	ErrSyslogUnsupported  = errors.New("syslog not supported on this platform")
	ErrInvalidUIDLength   = errors.New("uid length must be between 1 and 32")
	ErrInvalidMaxFiles    = errors.New("max files must not be negative")
	ErrEmptyFilename      = errors.New("log filename is empty")
	ErrInvalidStream      = errors.New("invalid stream destination")
	ErrInvalidBufferLimit = errors.New("buffer limit must not be negative")
	ErrHandlerClosed      = errors.New("handler is closed")
	ErrPanic              = errors.New("recovered panic")
)

// SinkError reports a failed write to a handler's destination.
type SinkError struct {
	Handler string
	Err     error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("%s handler: %v", e.Handler, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}
