package logging

import (
	"context"
	"runtime"
	"strings"
)

// loggingPrefix is the function name prefix of this package, e.g.
// "github.com/GoCodeAlone/bootstrap/logging.".
var loggingPrefix = func() string {
	pc, _, _, _ := runtime.Caller(0)
	name := runtime.FuncForPC(pc).Name()
	slash := strings.LastIndex(name, "/")
	dot := strings.Index(name[slash+1:], ".")
	return name[:slash+1+dot+1]
}()

var defaultSkipPrefixes = []string{"runtime.", "log/slog.", "log."}

// IntrospectionProcessor adds the file, line, function and class (the
// method receiver, when there is one) of the code that made the log call.
type IntrospectionProcessor struct {
	// Level below which records are left alone.
	Level Level

	// SkipPrefixes lists extra function name prefixes treated as logging
	// plumbing, such as a wrapper package.
	SkipPrefixes []string
}

// NewIntrospectionProcessor creates a call-site processor for all levels.
func NewIntrospectionProcessor(skipPrefixes ...string) *IntrospectionProcessor {
	return &IntrospectionProcessor{Level: LevelDebug, SkipPrefixes: skipPrefixes}
}

// Process implements Processor. When no caller outside the logging stack
// can be found the record is returned unchanged.
func (p *IntrospectionProcessor) Process(_ context.Context, r Record) Record {
	if r.Level < p.Level {
		return r
	}
	pcs := make([]uintptr, 32)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if frame.Function != "" && !p.skip(frame) {
			return r.WithExtras(map[string]any{
				"file":     frame.File,
				"line":     frame.Line,
				"function": funcName(frame.Function),
				"class":    receiverName(frame.Function),
			})
		}
		if !more {
			return r
		}
	}
}

func (p *IntrospectionProcessor) skip(frame runtime.Frame) bool {
	if strings.HasPrefix(frame.Function, loggingPrefix) {
		return !strings.HasSuffix(frame.File, "_test.go")
	}
	for _, prefix := range defaultSkipPrefixes {
		if strings.HasPrefix(frame.Function, prefix) {
			return true
		}
	}
	for _, prefix := range p.SkipPrefixes {
		if strings.HasPrefix(frame.Function, prefix) {
			return true
		}
	}
	return false
}

// funcName strips the import path: "a/b/pkg.(*T).M" becomes "(*T).M".
func funcName(full string) string {
	rest := full[strings.LastIndex(full, "/")+1:]
	if dot := strings.Index(rest, "."); dot >= 0 {
		return rest[dot+1:]
	}
	return rest
}

// receiverName returns "pkg.T" for methods and "" for plain functions.
func receiverName(full string) string {
	slash := strings.LastIndex(full, "/")
	rest := full[slash+1:]
	dot := strings.Index(rest, ".")
	if dot < 0 {
		return ""
	}
	pkg, sym := rest[:dot], rest[dot+1:]
	if strings.HasPrefix(sym, "(") {
		end := strings.Index(sym, ")")
		if end < 0 {
			return ""
		}
		return pkg + "." + strings.TrimPrefix(sym[1:end], "*")
	}
	if i := strings.Index(sym, "."); i > 0 && !strings.HasPrefix(sym[i+1:], "func") {
		return pkg + "." + sym[:i]
	}
	return ""
}
