package bootstrap

import (
	"io"
	"strings"

	"github.com/rs/zerolog"
)

const consoleTimeFormat = "15:04:05.000"

// ConsoleLogger is the diagnostic logger used while the logging pipeline is
// still being assembled. It writes human readable lines through zerolog's
// ConsoleWriter.
type ConsoleLogger struct {
	zl zerolog.Logger
}

// NewConsoleLogger creates a console logger writing to w. Unknown levels
// fall back to "warn".
func NewConsoleLogger(w io.Writer, level string) *ConsoleLogger {
	cw := zerolog.ConsoleWriter{Out: w, TimeFormat: consoleTimeFormat}
	zl := zerolog.New(cw).Level(parseConsoleLevel(level)).With().Timestamp().Logger()
	return &ConsoleLogger{zl: zl}
}

func (l *ConsoleLogger) Info(msg string, args ...any)  { l.log(l.zl.Info(), msg, args) }
func (l *ConsoleLogger) Error(msg string, args ...any) { l.log(l.zl.Error(), msg, args) }
func (l *ConsoleLogger) Warn(msg string, args ...any)  { l.log(l.zl.Warn(), msg, args) }
func (l *ConsoleLogger) Debug(msg string, args ...any) { l.log(l.zl.Debug(), msg, args) }

func (l *ConsoleLogger) log(e *zerolog.Event, msg string, args []any) {
	if e == nil {
		return
	}
	if len(args) > 0 {
		e = e.Fields(args)
	}
	e.Msg(msg)
}

func parseConsoleLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.WarnLevel
	}
}
