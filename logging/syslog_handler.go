package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// SyslogLineFormat is the default template for syslog messages; syslog adds
// its own timestamp and ident.
const SyslogLineFormat = "%channel%.%level_name%: %message% %context% %extra%"

// Facility is a syslog facility code, already shifted into the priority
// bits.
type Facility int

const (
	FacilityKern   Facility = 0 << 3
	FacilityUser   Facility = 1 << 3
	FacilityMail   Facility = 2 << 3
	FacilityDaemon Facility = 3 << 3
	FacilityAuth   Facility = 4 << 3
	FacilitySyslog Facility = 5 << 3
	FacilityLPR    Facility = 6 << 3
	FacilityNews   Facility = 7 << 3
	FacilityUUCP   Facility = 8 << 3
	FacilityCron   Facility = 9 << 3
	FacilityLocal0 Facility = 16 << 3
	FacilityLocal1 Facility = 17 << 3
	FacilityLocal2 Facility = 18 << 3
	FacilityLocal3 Facility = 19 << 3
	FacilityLocal4 Facility = 20 << 3
	FacilityLocal5 Facility = 21 << 3
	FacilityLocal6 Facility = 22 << 3
	FacilityLocal7 Facility = 23 << 3
)

// ParseFacility resolves a facility name such as "user" or "local3".
func ParseFacility(name string) (Facility, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "LOG_")) {
	case "kern":
		return FacilityKern, nil
	case "user", "":
		return FacilityUser, nil
	case "mail":
		return FacilityMail, nil
	case "daemon":
		return FacilityDaemon, nil
	case "auth":
		return FacilityAuth, nil
	case "syslog":
		return FacilitySyslog, nil
	case "lpr":
		return FacilityLPR, nil
	case "news":
		return FacilityNews, nil
	case "uucp":
		return FacilityUUCP, nil
	case "cron":
		return FacilityCron, nil
	case "local0":
		return FacilityLocal0, nil
	case "local1":
		return FacilityLocal1, nil
	case "local2":
		return FacilityLocal2, nil
	case "local3":
		return FacilityLocal3, nil
	case "local4":
		return FacilityLocal4, nil
	case "local5":
		return FacilityLocal5, nil
	case "local6":
		return FacilityLocal6, nil
	case "local7":
		return FacilityLocal7, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownFacility, name)
	}
}

// Severity is a syslog severity, 0 (emergency) to 7 (debug).
type Severity int

// SyslogSeverity maps a level onto the syslog severity scale.
func SyslogSeverity(l Level) Severity {
	switch {
	case l >= LevelEmergency:
		return 0
	case l >= LevelAlert:
		return 1
	case l >= LevelCritical:
		return 2
	case l >= LevelError:
		return 3
	case l >= LevelWarning:
		return 4
	case l >= LevelNotice:
		return 5
	case l >= LevelInfo:
		return 6
	default:
		return 7
	}
}

// SyslogWriter is a connection to a syslog daemon.
type SyslogWriter interface {
	Write(severity Severity, msg string) error
	Close() error
}

// SyslogDialer opens a syslog connection for ident under facility.
type SyslogDialer func(facility Facility, ident string) (SyslogWriter, error)

// SyslogOptions mirror the openlog(3) flags.
type SyslogOptions struct {
	// PID includes the process id with every message.
	PID bool
	// Cons writes to Console when the daemon cannot be reached.
	Cons bool
	// ODelay postpones the connection until the first message.
	ODelay bool
}

// SyslogConfig configures a SyslogHandler.
type SyslogConfig struct {
	Ident    string
	Facility Facility
	Options  SyslogOptions
	Level    Level

	// Dialer defaults to the platform syslog.
	Dialer SyslogDialer

	// Console receives messages when Options.Cons is set and writing to
	// syslog fails. Defaults to os.Stderr.
	Console io.Writer
}

// SyslogHandler writes records to the system log.
type SyslogHandler struct {
	ProcessingHandler

	cfg SyslogConfig

	mu     sync.Mutex
	writer SyslogWriter
	closed bool
}

// NewSyslogHandler creates a syslog handler. Unless Options.ODelay is set
// the connection is opened immediately.
func NewSyslogHandler(cfg SyslogConfig) (*SyslogHandler, error) {
	if cfg.Dialer == nil {
		cfg.Dialer = DefaultSyslogDialer
	}
	if cfg.Console == nil {
		cfg.Console = os.Stderr
	}
	h := &SyslogHandler{
		ProcessingHandler: ProcessingHandler{
			level:     cfg.Level,
			formatter: NewLineFormatter(SyslogLineFormat, "", false),
		},
		cfg: cfg,
	}
	if !cfg.Options.ODelay {
		h.mu.Lock()
		err := h.connect()
		h.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}
	return h, nil
}

// Ident returns the syslog identity.
func (h *SyslogHandler) Ident() string { return h.cfg.Ident }

// Facility returns the syslog facility.
func (h *SyslogHandler) Facility() Facility { return h.cfg.Facility }

// Options returns the openlog flags.
func (h *SyslogHandler) Options() SyslogOptions { return h.cfg.Options }

// Connected reports whether the syslog connection is open.
func (h *SyslogHandler) Connected() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.writer != nil
}

func (h *SyslogHandler) connect() error {
	w, err := h.cfg.Dialer(h.cfg.Facility, h.cfg.Ident)
	if err != nil {
		return fmt.Errorf("failed to connect to syslog: %w", err)
	}
	h.writer = w
	return nil
}

// Handle implements Handler.
func (h *SyslogHandler) Handle(ctx context.Context, r Record) error {
	if !h.IsHandling(r.Level) {
		return nil
	}
	r = h.process(ctx, r)
	msg := h.format(r)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return &SinkError{Handler: "syslog", Err: ErrHandlerClosed}
	}
	err := h.send(SyslogSeverity(r.Level), msg)
	if err == nil {
		return nil
	}
	if h.cfg.Options.Cons {
		line := h.cfg.Ident
		if h.cfg.Options.PID {
			line += fmt.Sprintf("[%d]", os.Getpid())
		}
		if _, cerr := fmt.Fprintf(h.cfg.Console, "%s: %s\n", line, strings.TrimRight(msg, "\n")); cerr == nil {
			return nil
		}
	}
	return &SinkError{Handler: "syslog", Err: err}
}

func (h *SyslogHandler) send(sev Severity, msg string) error {
	if h.writer == nil {
		if err := h.connect(); err != nil {
			return err
		}
	}
	if err := h.writer.Write(sev, msg); err != nil {
		_ = h.writer.Close()
		h.writer = nil
		return fmt.Errorf("syslog write: %w", err)
	}
	return nil
}

// Flush is a no-op; syslog writes are unbuffered.
func (h *SyslogHandler) Flush() error { return nil }

// Close closes the syslog connection.
func (h *SyslogHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	if h.writer == nil {
		return nil
	}
	err := h.writer.Close()
	h.writer = nil
	if err != nil {
		return fmt.Errorf("failed to close syslog: %w", err)
	}
	return nil
}
