//go:build windows || wasm || js || plan9

package logging

// DefaultSyslogDialer reports that syslog is unavailable on this platform.
func DefaultSyslogDialer(Facility, string) (SyslogWriter, error) {
	return nil, ErrSyslogUnsupported
}
