package bootstrap

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
)

// flushParser accepts five-field specs, an optional leading seconds field,
// and descriptors such as "@hourly" or "@every 30s".
var flushParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// flushScheduler periodically flushes buffered handlers.
type flushScheduler struct {
	spec  string
	cron  *cron.Cron
	entry cron.EntryID
}

// ParseFlushSchedule validates a logs.flush_schedule value.
func ParseFlushSchedule(spec string) error {
	if _, err := flushParser.Parse(spec); err != nil {
		return fmt.Errorf("invalid flush schedule %q: %w", spec, err)
	}
	return nil
}

func newFlushScheduler(spec string, flush func() error, logger Logger) (*flushScheduler, error) {
	c := cron.New(cron.WithParser(flushParser), cron.WithLogger(cronLogger{logger}))
	id, err := c.AddFunc(spec, func() {
		if err := flush(); err != nil {
			logger.Warn("Scheduled log flush failed", "error", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid flush schedule %q: %w", spec, err)
	}
	return &flushScheduler{spec: spec, cron: c, entry: id}, nil
}

func (s *flushScheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running flush, or until ctx is
// done.
func (s *flushScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts Logger to cron.Logger.
type cronLogger struct {
	logger Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
