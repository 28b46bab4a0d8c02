package logging

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Defaults for RotatingFileConfig.
const (
	DefaultRotatingFilenameFormat = "{filename}-{date}"
	DefaultRotatingDateFormat     = "2006-01-02"
	DefaultRotatingFileMode       = fs.FileMode(0o644)
)

// RotatingFileConfig configures a RotatingFileHandler.
type RotatingFileConfig struct {
	// Filename is the base path, e.g. /var/app/logs/app.log.
	Filename string

	// MaxFiles is the number of dated files kept; 0 keeps all.
	MaxFiles int

	// FilenameFormat names each period's file; {filename} is the base name
	// without extension and {date} the formatted date.
	FilenameFormat string

	// DateFormat is the time layout for {date}. A daily layout rotates
	// daily, a monthly layout monthly.
	DateFormat string

	FileMode   fs.FileMode
	UseLocking bool

	// MaxSizeMB caps a single file before lumberjack rolls it to a
	// timestamped backup within the same period; 0 uses lumberjack's default.
	MaxSizeMB int

	Level Level

	// Clock defaults to time.Now.
	Clock func() time.Time
}

// RotatingFileHandler writes to one file per period, named from the
// record time, pruning old files beyond MaxFiles.
type RotatingFileHandler struct {
	ProcessingHandler

	cfg RotatingFileConfig

	mu      sync.Mutex
	current string
	writer  *lumberjack.Logger
	lock    *fileLock
	closed  bool
}

// NewRotatingFileHandler validates cfg and creates the handler. No file is
// opened until the first write.
func NewRotatingFileHandler(cfg RotatingFileConfig, formatter Formatter) (*RotatingFileHandler, error) {
	if strings.TrimSpace(cfg.Filename) == "" {
		return nil, ErrEmptyFilename
	}
	if cfg.MaxFiles < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxFiles, cfg.MaxFiles)
	}
	if cfg.FilenameFormat == "" {
		cfg.FilenameFormat = DefaultRotatingFilenameFormat
	}
	if cfg.DateFormat == "" {
		cfg.DateFormat = DefaultRotatingDateFormat
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = DefaultRotatingFileMode
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	return &RotatingFileHandler{
		ProcessingHandler: ProcessingHandler{level: cfg.Level, formatter: formatter},
		cfg:               cfg,
	}, nil
}

// Config returns the handler configuration with defaults applied.
func (h *RotatingFileHandler) Config() RotatingFileConfig { return h.cfg }

// Filename returns the base path.
func (h *RotatingFileHandler) Filename() string { return h.cfg.Filename }

// TimedFilename returns the file written for records at t.
func (h *RotatingFileHandler) TimedFilename(t time.Time) string {
	dir, base := filepath.Split(h.cfg.Filename)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	timed := strings.NewReplacer(
		"{filename}", name,
		"{date}", t.Format(h.cfg.DateFormat),
	).Replace(h.cfg.FilenameFormat)
	return filepath.Join(dir, timed+ext)
}

func (h *RotatingFileHandler) globPattern() string {
	dir, base := filepath.Split(h.cfg.Filename)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	glob := strings.NewReplacer(
		"{filename}", name,
		"{date}", "*",
	).Replace(h.cfg.FilenameFormat)
	return filepath.Join(dir, glob+ext)
}

// Handle implements Handler.
func (h *RotatingFileHandler) Handle(ctx context.Context, r Record) error {
	if !h.IsHandling(r.Level) {
		return nil
	}
	line := h.format(h.process(ctx, r))

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return &SinkError{Handler: "rotating_file", Err: ErrHandlerClosed}
	}
	if err := h.rotate(h.cfg.Clock()); err != nil {
		return &SinkError{Handler: "rotating_file", Err: err}
	}
	if err := h.write([]byte(line)); err != nil {
		return &SinkError{Handler: "rotating_file", Err: err}
	}
	return nil
}

func (h *RotatingFileHandler) write(p []byte) error {
	if h.lock != nil {
		if err := h.lock.Lock(); err != nil {
			return err
		}
		defer func() { _ = h.lock.Unlock() }()
	}
	if _, err := h.writer.Write(p); err != nil {
		return fmt.Errorf("write log file: %w", err)
	}
	return nil
}

// rotate switches to the file for now when the period changed. The same
// lumberjack writer is closed and pointed at the new name, and reopens on
// the next write; each lumberjack.Logger owns a goroutine that never exits.
func (h *RotatingFileHandler) rotate(now time.Time) error {
	name := h.TimedFilename(now)
	if h.writer != nil && name == h.current {
		return nil
	}
	if err := h.prepare(name); err != nil {
		return err
	}
	if h.writer == nil {
		h.writer = &lumberjack.Logger{
			MaxSize:   h.cfg.MaxSizeMB,
			LocalTime: true,
		}
	} else if err := h.writer.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	h.writer.Filename = name

	if h.lock != nil {
		_ = h.lock.Close()
		h.lock = nil
	}
	if h.cfg.UseLocking {
		h.lock = newFileLock(name + ".lock")
	}
	h.current = name
	return h.prune()
}

// prepare creates the directory and the file with the configured mode so
// lumberjack appends to it instead of creating it with its own mode.
func (h *RotatingFileHandler) prepare(name string) error {
	if err := os.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	if _, err := os.Stat(name); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat log file: %w", err)
	}
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, h.cfg.FileMode)
	if err != nil {
		return fmt.Errorf("create log file: %w", err)
	}
	defer f.Close()
	if err := f.Chmod(h.cfg.FileMode); err != nil {
		return fmt.Errorf("chmod log file: %w", err)
	}
	return nil
}

// prune removes the oldest dated files beyond MaxFiles, together with the
// size backups lumberjack rolled within their period. Backups do not count
// toward MaxFiles. Dated names sort chronologically, so the newest are last.
func (h *RotatingFileHandler) prune() error {
	if h.cfg.MaxFiles == 0 {
		return nil
	}
	matches, err := filepath.Glob(h.globPattern())
	if err != nil {
		return fmt.Errorf("list log files: %w", err)
	}
	var files []string
	for _, m := range matches {
		if h.isDatedFile(m) {
			files = append(files, m)
		}
	}
	if len(files) <= h.cfg.MaxFiles {
		return nil
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))
	var errs []error
	for _, old := range files[h.cfg.MaxFiles:] {
		if old == h.current {
			continue
		}
		backups, _ := filepath.Glob(backupPattern(old))
		for _, name := range append(backups, old) {
			if err := os.Remove(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
		}
		_ = os.Remove(old + ".lock")
	}
	return errors.Join(errs...)
}

// isDatedFile reports whether path is a period file written by the handler,
// as opposed to a lock file or a lumberjack size backup.
func (h *RotatingFileHandler) isDatedFile(path string) bool {
	dir, base := filepath.Split(h.cfg.Filename)
	ext := filepath.Ext(base)
	if filepath.Dir(path) != filepath.Clean(dir) || filepath.Ext(path) != ext {
		return false
	}
	prefix, suffix, ok := strings.Cut(h.cfg.FilenameFormat, "{date}")
	if !ok {
		return true
	}
	name := strings.TrimSuffix(base, ext)
	prefix = strings.ReplaceAll(prefix, "{filename}", name)
	suffix = strings.ReplaceAll(suffix, "{filename}", name)

	stem := strings.TrimSuffix(filepath.Base(path), ext)
	if !strings.HasPrefix(stem, prefix) || !strings.HasSuffix(stem, suffix) || len(stem) < len(prefix)+len(suffix) {
		return false
	}
	date := stem[len(prefix) : len(stem)-len(suffix)]
	_, err := time.Parse(h.cfg.DateFormat, date)
	return err == nil
}

// backupPattern matches lumberjack backups of name, which insert a
// timestamp before the extension: app-2026-10-17-2026-10-17T12-00-00.000.log.
func backupPattern(name string) string {
	ext := filepath.Ext(name)
	return strings.TrimSuffix(name, ext) + "-*" + ext
}

func (h *RotatingFileHandler) release() {
	if h.writer != nil {
		_ = h.writer.Close()
		h.writer = nil
	}
	if h.lock != nil {
		_ = h.lock.Close()
		h.lock = nil
	}
}

// Flush is a no-op; every record is written when handled.
func (h *RotatingFileHandler) Flush() error { return nil }

// Close closes the current file.
func (h *RotatingFileHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.release()
	return nil
}
