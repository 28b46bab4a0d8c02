package bootstrap

import (
	"errors"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/GoCodeAlone/bootstrap/config"
	"github.com/GoCodeAlone/bootstrap/display"
	"github.com/GoCodeAlone/bootstrap/logging"
)

// Pipeline constants.
const (
	DefaultConsoleWidth = 60
	ConsoleDateFormat   = "15:04:05"
	FileLineFormat      = "[%datetime%][%channel%][%level_name%][%extra.uid%]: %message%\n"
	FileMaxFiles        = 24
	FileFilenameFormat  = "{filename}-{date}"
	FileDateFormat      = "2006-01-02"
	FileMode            = 0o644
	UIDLength           = 24
)

// Config paths read by the pipeline.
const (
	PathPrimaryChannel        = "logs.primary_channel"
	PathDebugCLI              = "debug.cli"
	PathDebugSystem           = "debug.system"
	PathRootDir               = "directories.root"
	PathLogDir                = "directories.log"
	PathDefaultLog            = "logs.default_log"
	PathStreamHandler         = "logs.stream_handler"
	PathAllowInlineLineBreaks = "logs.allow_inline_linebreaks"
	PathBufferLimit           = "logs.buffer_limit"
	PathFlushSchedule         = "logs.flush_schedule"
)

// LoggerExtension adds a layer to the logger before it is published.
type LoggerExtension func(*logging.Logger, *Container) (*logging.Logger, error)

// LoggingOptions carries the process inputs of the pipeline. Zero values
// select the real process environment.
type LoggingOptions struct {
	// Getenv defaults to os.Getenv. Only COLUMNS is read.
	Getenv func(string) string

	// Clock stamps records and selects the rotating file's date.
	Clock func() time.Time

	// Stdout is the console destination for "stdout".
	Stdout io.Writer

	// ErrorSink receives handler failures. Defaults to os.Stderr.
	ErrorSink io.Writer

	// SyslogDialer defaults to the platform syslog.
	SyslogDialer logging.SyslogDialer

	// Extensions run after the built-in handlers and before publishing.
	Extensions []LoggerExtension
}

// RegisterLogging registers KeyLogger as a factory plus an extension chain
// assembled from configuration: console when debug.cli is set, syslog when
// debug.system is set, and always a buffered rotating file. The last
// extension freezes the logger, adds it to the registry and installs it in
// the error handler.
//
// The debug flags are read now. Every other path is read when the logger
// is resolved; a missing or mistyped path fails the resolution with a
// *HandlerConfigError and nothing is published.
func RegisterLogging(c *Container, opts LoggingOptions) error {
	if opts.Getenv == nil {
		opts.Getenv = os.Getenv
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	if err := registerLoggingDefaults(c, opts.Stdout); err != nil {
		return err
	}

	cfg, err := Resolve(c, KeyConfig)
	if err != nil {
		return err
	}
	if cfg == nil {
		return ErrConfigSourceNil
	}
	cli, err := cfg.GetBool(PathDebugCLI)
	if err != nil {
		return NewHandlerConfigError(PathDebugCLI, err)
	}
	system, err := cfg.GetBool(PathDebugSystem)
	if err != nil {
		return NewHandlerConfigError(PathDebugSystem, err)
	}

	if err := Register(c, KeyLogger, newLoggerFactory(opts)); err != nil {
		return err
	}

	var exts []LoggerExtension
	if cli {
		exts = append(exts, consoleExtension(opts))
	}
	if system {
		exts = append(exts, syslogExtension(opts))
	}
	exts = append(exts, fileExtension(opts))
	exts = append(exts, opts.Extensions...)
	exts = append(exts, publishExtension)

	for _, ext := range exts {
		if err := Extend(c, KeyLogger, ext); err != nil {
			return err
		}
	}
	return nil
}

// BuildLogger resolves the logger registered by RegisterLogging.
func BuildLogger(c *Container) (*logging.Logger, error) {
	return Resolve(c, KeyLogger)
}

func registerLoggingDefaults(c *Container, stdout io.Writer) error {
	var errs []error
	if !c.Has(KeyDisplay.Name()) {
		errs = append(errs, Register(c, KeyDisplay, func(*Container) (*display.Display, error) {
			return display.DetectWriter(stdout), nil
		}))
	}
	if !c.Has(KeyRegistry.Name()) {
		errs = append(errs, RegisterValue(c, KeyRegistry, logging.NewRegistry()))
	}
	if !c.Has(KeyErrorHandler.Name()) {
		errs = append(errs, RegisterValue(c, KeyErrorHandler, logging.NewErrorHandler(nil)))
	}
	return errors.Join(errs...)
}

func newLoggerFactory(opts LoggingOptions) func(*Container) (*logging.Logger, error) {
	return func(c *Container) (*logging.Logger, error) {
		cfg, err := Resolve(c, KeyConfig)
		if err != nil {
			return nil, err
		}
		channel, err := requireString(cfg, PathPrimaryChannel)
		if err != nil {
			return nil, err
		}
		logger := logging.NewLogger(channel,
			logging.WithClock(opts.Clock),
			logging.WithErrorSink(opts.ErrorSink),
		)
		if err := logger.PushProcessor(logging.NewMessageInterpolationProcessor()); err != nil {
			return nil, err
		}
		return logger, nil
	}
}

func consoleExtension(opts LoggingOptions) LoggerExtension {
	return func(logger *logging.Logger, c *Container) (*logging.Logger, error) {
		cfg, err := Resolve(c, KeyConfig)
		if err != nil {
			return nil, err
		}
		disp, err := Resolve(c, KeyDisplay)
		if err != nil {
			return nil, err
		}
		dest, err := optionalString(cfg, PathStreamHandler, "stdout")
		if err != nil {
			return nil, err
		}
		inline, err := optionalBool(cfg, PathAllowInlineLineBreaks, false)
		if err != nil {
			return nil, err
		}

		format := ConsoleFormat(disp, ConsoleWidth(opts.Getenv))
		formatter := logging.NewLineFormatter(format, ConsoleDateFormat, inline)
		handler, err := logging.OpenStreamHandler(dest, logging.LevelDebug, formatter, opts.Stdout)
		if err != nil {
			return nil, NewHandlerConfigError(PathStreamHandler, err)
		}
		uid, err := logging.NewUIDProcessor(UIDLength)
		if err != nil {
			return nil, err
		}
		handler.PushProcessor(uid)
		handler.PushProcessor(logging.NewProcessIDProcessor())

		if err := logger.PushHandler(handler); err != nil {
			return nil, err
		}
		return logger, nil
	}
}

func syslogExtension(opts LoggingOptions) LoggerExtension {
	return func(logger *logging.Logger, _ *Container) (*logging.Logger, error) {
		handler, err := logging.NewSyslogHandler(logging.SyslogConfig{
			Ident:    logger.Name(),
			Facility: logging.FacilityUser,
			Options:  logging.SyslogOptions{PID: true, Cons: true, ODelay: true},
			Level:    logging.LevelDebug,
			Dialer:   opts.SyslogDialer,
		})
		if err != nil {
			return nil, err
		}
		uid, err := logging.NewUIDProcessor(UIDLength)
		if err != nil {
			return nil, err
		}
		handler.PushProcessor(uid)
		handler.PushProcessor(logging.NewMemoryUsageProcessor())
		handler.PushProcessor(logging.NewMemoryPeakUsageProcessor())
		handler.PushProcessor(logging.NewProcessIDProcessor())
		handler.PushProcessor(logging.NewWebProcessor())
		handler.PushProcessor(logging.NewIntrospectionProcessor())

		if err := logger.PushHandler(handler); err != nil {
			return nil, err
		}
		return logger, nil
	}
}

func fileExtension(opts LoggingOptions) LoggerExtension {
	return func(logger *logging.Logger, c *Container) (*logging.Logger, error) {
		cfg, err := Resolve(c, KeyConfig)
		if err != nil {
			return nil, err
		}
		var parts []string
		for _, path := range []string{PathRootDir, PathLogDir, PathDefaultLog} {
			v, err := requireString(cfg, path)
			if err != nil {
				return nil, err
			}
			parts = append(parts, v)
		}
		limit, err := optionalInt(cfg, PathBufferLimit, 0)
		if err != nil {
			return nil, err
		}

		formatter := logging.NewLineFormatter(FileLineFormat, logging.DateFormatUnix, false)
		handler, err := logging.NewRotatingFileHandler(logging.RotatingFileConfig{
			Filename:       strings.Join(parts, ""),
			MaxFiles:       FileMaxFiles,
			FilenameFormat: FileFilenameFormat,
			DateFormat:     FileDateFormat,
			FileMode:       FileMode,
			UseLocking:     true,
			Level:          logging.LevelNotice,
			Clock:          opts.Clock,
		}, formatter)
		if err != nil {
			return nil, NewHandlerConfigError(PathDefaultLog, err)
		}
		uid, err := logging.NewUIDProcessor(UIDLength)
		if err != nil {
			return nil, err
		}
		handler.PushProcessor(uid)

		buffered, err := logging.NewBufferHandler(handler, limit)
		if err != nil {
			return nil, NewHandlerConfigError(PathBufferLimit, err)
		}
		if err := logger.PushHandler(buffered); err != nil {
			return nil, err
		}
		return logger, nil
	}
}

func publishExtension(logger *logging.Logger, c *Container) (*logging.Logger, error) {
	registry, err := Resolve(c, KeyRegistry)
	if err != nil {
		return nil, err
	}
	errorHandler, err := Resolve(c, KeyErrorHandler)
	if err != nil {
		return nil, err
	}
	logger.Freeze()
	if err := registry.Add(logger); err != nil {
		return nil, err
	}
	errorHandler.Install(logger)
	c.emit(EventTypeLoggerPublished, map[string]any{"channel": logger.Name(), "handlers": len(logger.Handlers())})
	return logger, nil
}

// ConsoleWidth returns COLUMNS from getenv, or DefaultConsoleWidth when it
// is unset, non-numeric or not positive.
func ConsoleWidth(getenv func(string) string) int {
	if getenv == nil {
		getenv = os.Getenv
	}
	n, err := strconv.Atoi(strings.TrimSpace(getenv("COLUMNS")))
	if err != nil || n <= 0 {
		return DefaultConsoleWidth
	}
	return n
}

// ConsoleFormat builds the colorized console template ending in a
// separator line width characters wide.
func ConsoleFormat(d *display.Display, width int) string {
	var b strings.Builder
	b.WriteString(d.Color("bold"))
	b.WriteString(d.Color("green") + "[%datetime%]")
	b.WriteString(d.Color("white") + "[%channel%.")
	b.WriteString(d.Color("yellow") + "%level_name%")
	b.WriteString(d.Color("white") + "]")
	b.WriteString(d.Color("blue") + "[UID:%extra.uid%]")
	b.WriteString(d.Color("purple") + "[PID:%extra.process_id%]")
	b.WriteString(d.Color("reset") + ":\n")
	b.WriteString("%message%\n")
	b.WriteString(d.Color("gray") + d.Separator(width) + d.Color("reset") + "\n")
	return b.String()
}

func requireString(cfg config.Source, path string) (string, error) {
	v, err := cfg.GetString(path)
	if err != nil {
		return "", NewHandlerConfigError(path, err)
	}
	return v, nil
}

func optionalString(cfg config.Source, path, def string) (string, error) {
	if !cfg.Has(path) {
		return def, nil
	}
	return requireString(cfg, path)
}

func optionalBool(cfg config.Source, path string, def bool) (bool, error) {
	if !cfg.Has(path) {
		return def, nil
	}
	v, err := cfg.GetBool(path)
	if err != nil {
		return false, NewHandlerConfigError(path, err)
	}
	return v, nil
}

func optionalInt(cfg config.Source, path string, def int) (int, error) {
	if !cfg.Has(path) {
		return def, nil
	}
	v, err := cfg.GetInt(path)
	if err != nil {
		return 0, NewHandlerConfigError(path, err)
	}
	return v, nil
}
