package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/GoCodeAlone/bootstrap/config"
	"github.com/GoCodeAlone/bootstrap/logging"
)

// DefaultShutdownTimeout bounds Run's shutdown.
const DefaultShutdownTimeout = 30 * time.Second

// App is the result of a successful bootstrap: the container and the
// published logger, with its registry and error handler.
type App struct {
	container *Container
	config    config.Source
	logger    *logging.Logger
	registry  *logging.Registry
	errors    *logging.ErrorHandler
	scheduler *flushScheduler
	diag      Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

// Container returns the service container.
func (app *App) Container() *Container { return app.container }

// Config returns the resolved configuration.
func (app *App) Config() config.Source { return app.config }

// Logger returns the published logger.
func (app *App) Logger() *logging.Logger { return app.logger }

// Registry returns the registry the logger was published to.
func (app *App) Registry() *logging.Registry { return app.registry }

// ErrorHandler returns the error handler routing panics into the logger.
func (app *App) ErrorHandler() *logging.ErrorHandler { return app.errors }

// Slog returns a log/slog logger writing through the published logger.
func (app *App) Slog() *slog.Logger {
	return slog.New(logging.NewSlogHandler(app.logger))
}

// Flush flushes every handler of the logger.
func (app *App) Flush() error {
	err := app.logger.Flush()
	app.container.emit(EventTypeLoggerFlushed, map[string]any{"channel": app.logger.Name()})
	return err
}

// Shutdown stops the flush schedule, then flushes and closes every handler.
// It waits for in-flight flushes unless ctx ends first. Later calls return
// the first result.
func (app *App) Shutdown(ctx context.Context) error {
	if app == nil {
		return ErrAppNil
	}
	app.shutdownOnce.Do(func() {
		app.shutdownErr = app.shutdown(ctx)
	})
	return app.shutdownErr
}

func (app *App) shutdown(ctx context.Context) error {
	var errs []error
	if app.scheduler != nil {
		if err := app.scheduler.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	done := make(chan error, 1)
	go func() {
		done <- app.logger.Close()
	}()
	select {
	case err := <-done:
		errs = append(errs, err)
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}
	err := errors.Join(errs...)
	if err != nil {
		app.diag.Error("Shutdown incomplete", "error", err)
	} else {
		app.diag.Info("Shutdown complete", "channel", app.logger.Name())
	}
	return err
}

// Run blocks until ctx is done or the process receives SIGINT or SIGTERM,
// then shuts down within DefaultShutdownTimeout.
func (app *App) Run(ctx context.Context) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		app.logger.Info("Received signal, shutting down", "signal", sig.String())
	case <-ctx.Done():
		app.logger.Info("Context done, shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}
