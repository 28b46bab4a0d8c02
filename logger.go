package bootstrap

// Logger defines the interface the bootstrap uses for its own diagnostics.
// It uses structured logging with key-value pairs:
//
//	logger.Info("Registered service", "name", "config", "scope", "singleton")
//
// The assembled *logging.Logger satisfies this interface, as does the console
// logger used before the pipeline exists.
type Logger interface {
	// Info logs an informational message with optional key-value pairs.
	Info(msg string, args ...any)

	// Error logs an error message with optional key-value pairs.
	Error(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs.
	Warn(msg string, args ...any)

	// Debug logs a debug message with optional key-value pairs.
	// Container registration and resolution are logged at this level.
	Debug(msg string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
