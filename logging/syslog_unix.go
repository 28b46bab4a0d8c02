//go:build !windows && !wasm && !js && !plan9

package logging

import (
	"log/syslog"
)

// DefaultSyslogDialer connects to the local syslog daemon. log/syslog
// always includes the process id in the tag.
func DefaultSyslogDialer(facility Facility, ident string) (SyslogWriter, error) {
	w, err := syslog.New(syslog.Priority(facility)|syslog.LOG_DEBUG, ident)
	if err != nil {
		return nil, err
	}
	return &unixSyslogWriter{w: w}, nil
}

type unixSyslogWriter struct {
	w *syslog.Writer
}

func (u *unixSyslogWriter) Write(severity Severity, msg string) error {
	switch severity {
	case 0:
		return u.w.Emerg(msg)
	case 1:
		return u.w.Alert(msg)
	case 2:
		return u.w.Crit(msg)
	case 3:
		return u.w.Err(msg)
	case 4:
		return u.w.Warning(msg)
	case 5:
		return u.w.Notice(msg)
	case 6:
		return u.w.Info(msg)
	default:
		return u.w.Debug(msg)
	}
}

func (u *unixSyslogWriter) Close() error {
	return u.w.Close()
}
