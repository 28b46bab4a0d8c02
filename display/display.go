// Package display provides terminal color escape sequences for console
// output.
package display

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

var colors = map[string]string{
	"reset":     "\033[0m",
	"bold":      "\033[1m",
	"dim":       "\033[2m",
	"underline": "\033[4m",
	"black":     "\033[30m",
	"red":       "\033[31m",
	"green":     "\033[32m",
	"yellow":    "\033[33m",
	"blue":      "\033[34m",
	"purple":    "\033[35m",
	"cyan":      "\033[36m",
	"white":     "\033[37m",
	"gray":      "\033[90m",
}

// Display hands out escape sequences, or empty strings when color is off.
type Display struct {
	enabled bool
}

// New creates a display with color enabled or disabled.
func New(enabled bool) *Display {
	return &Display{enabled: enabled}
}

// Detect enables color when f is a terminal and NO_COLOR is unset.
func Detect(f *os.File) *Display {
	if f == nil || os.Getenv("NO_COLOR") != "" {
		return New(false)
	}
	fd := f.Fd()
	return New(isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd))
}

// DetectWriter is Detect for an arbitrary destination. Writers that are
// not files never get colors.
func DetectWriter(w io.Writer) *Display {
	f, ok := w.(*os.File)
	if !ok {
		return New(false)
	}
	return Detect(f)
}

// Enabled reports whether colors are emitted.
func (d *Display) Enabled() bool { return d != nil && d.enabled }

// Color returns the escape sequence for name ("green", "bold", "reset",
// ...). Unknown names and disabled displays return "".
func (d *Display) Color(name string) string {
	if !d.Enabled() {
		return ""
	}
	return colors[strings.ToLower(name)]
}

// Colorize wraps s in the color name and a reset.
func (d *Display) Colorize(name, s string) string {
	c := d.Color(name)
	if c == "" {
		return s
	}
	return c + s + d.Color("reset")
}

// Separator returns a horizontal rule of width characters.
func (d *Display) Separator(width int) string {
	if width <= 0 {
		return ""
	}
	return strings.Repeat("━", width)
}
