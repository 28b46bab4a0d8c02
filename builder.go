package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/GoCodeAlone/bootstrap/config"
	"github.com/GoCodeAlone/bootstrap/display"
	"github.com/GoCodeAlone/bootstrap/feeders"
	"github.com/GoCodeAlone/bootstrap/logging"
	"github.com/GoCodeAlone/bootstrap/security"
)

// Config paths read by the builder.
const (
	PathDisplayColor = "display.color"
	PathBcryptCost   = "security.bcrypt_cost"
)

// Option represents a functional option for configuring an App.
type Option func(*Builder) error

// ObserverFunc is a functional observer for container events.
type ObserverFunc func(ctx context.Context, event cloudevents.Event) error

// Builder collects the options of an App.
type Builder struct {
	configFile   string
	source       config.Source
	feeders      []config.Feeder
	envPrefix    string
	environ      func() []string
	getenv       func(string) string
	logger       Logger
	observer     Observer
	clock        func() time.Time
	stdout       io.Writer
	errorSink    io.Writer
	syslogDialer logging.SyslogDialer
	registry     *logging.Registry
	display      *display.Display
	extensions   []LoggerExtension
}

// New builds an App from opts: it registers the core services, assembles
// the logging pipeline and publishes the logger. Any failure aborts the
// whole bootstrap.
func New(opts ...Option) (*App, error) {
	b := &Builder{}
	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// WithConfigFile loads configuration from path, choosing the feeder by
// extension. The file must exist.
func WithConfigFile(path string) Option {
	return func(b *Builder) error {
		b.configFile = path
		return nil
	}
}

// WithConfigSource uses src as the configuration and skips all feeders.
func WithConfigSource(src config.Source) Option {
	return func(b *Builder) error {
		if src == nil {
			return ErrConfigSourceNil
		}
		b.source = src
		return nil
	}
}

// WithFeeders adds feeders that run after the config file.
func WithFeeders(list ...config.Feeder) Option {
	return func(b *Builder) error {
		b.feeders = append(b.feeders, list...)
		return nil
	}
}

// WithEnv adds an environment feeder for prefix that runs last, so
// variables such as APP_DEBUG__CLI=true override files. environ may be nil
// to read the process environment.
func WithEnv(prefix string, environ func() []string) Option {
	return func(b *Builder) error {
		b.envPrefix = prefix
		if environ == nil {
			environ = os.Environ
		}
		b.environ = environ
		return nil
	}
}

// WithGetenv replaces os.Getenv for the console width lookup.
func WithGetenv(getenv func(string) string) Option {
	return func(b *Builder) error {
		b.getenv = getenv
		return nil
	}
}

// WithLogger sets the diagnostic logger used while bootstrapping.
func WithLogger(logger Logger) Option {
	return func(b *Builder) error {
		b.logger = logger
		return nil
	}
}

// WithObserver sets the observer notified of container events.
func WithObserver(observer Observer) Option {
	return func(b *Builder) error {
		b.observer = observer
		return nil
	}
}

// WithObserverFunc is WithObserver for a plain function.
func WithObserverFunc(id string, fn ObserverFunc) Option {
	return WithObserver(NewFunctionalObserver(id, fn))
}

// WithClock sets the time source of the logging pipeline.
func WithClock(clock func() time.Time) Option {
	return func(b *Builder) error {
		b.clock = clock
		return nil
	}
}

// WithStdout sets the console destination.
func WithStdout(w io.Writer) Option {
	return func(b *Builder) error {
		b.stdout = w
		return nil
	}
}

// WithErrorSink sets where handler write failures are reported.
func WithErrorSink(w io.Writer) Option {
	return func(b *Builder) error {
		b.errorSink = w
		return nil
	}
}

// WithSyslogDialer replaces the platform syslog connection.
func WithSyslogDialer(dialer logging.SyslogDialer) Option {
	return func(b *Builder) error {
		b.syslogDialer = dialer
		return nil
	}
}

// WithRegistry publishes the logger into an existing registry.
func WithRegistry(registry *logging.Registry) Option {
	return func(b *Builder) error {
		b.registry = registry
		return nil
	}
}

// WithDisplay fixes the display instead of detecting a terminal.
func WithDisplay(d *display.Display) Option {
	return func(b *Builder) error {
		b.display = d
		return nil
	}
}

// WithLoggerExtension adds a layer applied after the built-in handlers.
func WithLoggerExtension(ext LoggerExtension) Option {
	return func(b *Builder) error {
		if ext == nil {
			return ErrNilExtension
		}
		b.extensions = append(b.extensions, ext)
		return nil
	}
}

// Build constructs the App.
func (b *Builder) Build() (*App, error) {
	if b.configFile != "" {
		if _, err := os.Stat(b.configFile); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrConfigFileNotFound, b.configFile)
			}
			return nil, fmt.Errorf("stat config file: %w", err)
		}
	}
	if b.logger == nil {
		b.logger = nopLogger{}
	}

	c := NewContainer(WithContainerLogger(b.logger), WithContainerObserver(b.observer))
	if err := b.registerServices(c); err != nil {
		return nil, err
	}

	cfg, err := Resolve(c, KeyConfig)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, ErrConfigSourceNil
	}
	schedule, err := optionalString(cfg, PathFlushSchedule, "")
	if err != nil {
		return nil, err
	}
	if schedule != "" {
		if err := ParseFlushSchedule(schedule); err != nil {
			return nil, NewHandlerConfigError(PathFlushSchedule, err)
		}
	}

	err = RegisterLogging(c, LoggingOptions{
		Getenv:       b.getenv,
		Clock:        b.clock,
		Stdout:       b.stdout,
		ErrorSink:    b.errorSink,
		SyslogDialer: b.syslogDialer,
		Extensions:   b.extensions,
	})
	if err != nil {
		return nil, err
	}
	logger, err := BuildLogger(c)
	if err != nil {
		return nil, err
	}

	app := &App{
		container: c,
		config:    cfg,
		logger:    logger,
		registry:  MustResolve(c, KeyRegistry),
		errors:    MustResolve(c, KeyErrorHandler),
		diag:      b.logger,
	}
	if schedule != "" {
		app.scheduler, err = newFlushScheduler(schedule, logger.Flush, b.logger)
		if err != nil {
			return nil, NewHandlerConfigError(PathFlushSchedule, err)
		}
		app.scheduler.Start()
	}
	b.logger.Info("Bootstrap complete", "channel", logger.Name(), "handlers", len(logger.Handlers()))
	return app, nil
}

func (b *Builder) registerServices(c *Container) error {
	if err := RegisterValue(c, KeyConfigFile, b.configFile); err != nil {
		return err
	}
	if err := Register(c, KeyConfig, b.loadConfig); err != nil {
		return err
	}
	if err := Register(c, KeyDisplay, b.newDisplay); err != nil {
		return err
	}
	if err := Register(c, KeySecurity, newSecurity); err != nil {
		return err
	}
	registry := b.registry
	if registry == nil {
		registry = logging.NewRegistry()
	}
	if err := RegisterValue(c, KeyRegistry, registry); err != nil {
		return err
	}
	return RegisterValue(c, KeyErrorHandler, logging.NewErrorHandler(nil))
}

func (b *Builder) loadConfig(c *Container) (config.Source, error) {
	if b.source != nil {
		return b.source, nil
	}
	path, err := Resolve(c, KeyConfigFile)
	if err != nil {
		return nil, err
	}
	var list []config.Feeder
	if path != "" {
		f, err := feeders.ForFile(path)
		if err != nil {
			return nil, err
		}
		list = append(list, f)
	}
	list = append(list, b.feeders...)
	if b.environ != nil {
		list = append(list, &feeders.EnvFeeder{Prefix: b.envPrefix, Environ: b.environ})
	}
	src, err := config.Load(list...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return src, nil
}

func (b *Builder) newDisplay(c *Container) (*display.Display, error) {
	if b.display != nil {
		return b.display, nil
	}
	cfg, err := Resolve(c, KeyConfig)
	if err != nil {
		return nil, err
	}
	if cfg.Has(PathDisplayColor) {
		enabled, err := cfg.GetBool(PathDisplayColor)
		if err != nil {
			return nil, err
		}
		return display.New(enabled), nil
	}
	if b.stdout != nil {
		return display.DetectWriter(b.stdout), nil
	}
	return display.Detect(os.Stdout), nil
}

func newSecurity(c *Container) (*security.Security, error) {
	cfg, err := Resolve(c, KeyConfig)
	if err != nil {
		return nil, err
	}
	cost, err := optionalInt(cfg, PathBcryptCost, bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return security.New(cost), nil
}
