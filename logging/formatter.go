package logging

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DateFormatUnix formats record times as unix seconds.
const DateFormatUnix = "U"

// DefaultLineFormat is used when a LineFormatter is built with an empty
// format.
const DefaultLineFormat = "[%datetime%] %channel%.%level_name%: %message% %context% %extra%\n"

// DefaultDateFormat is used when a LineFormatter is built with an empty date
// format.
const DefaultDateFormat = "2006-01-02T15:04:05.000000Z07:00"

// Formatter serializes a record into the bytes written by a handler.
type Formatter interface {
	Format(r Record) (string, error)
}

var formatPattern = regexp.MustCompile(`%([A-Za-z0-9_.]+)%`)

// LineFormatter renders records through a template such as
// "[%datetime%][%channel%][%level_name%][%extra.uid%]: %message%\n".
//
// Supported placeholders are %datetime%, %channel%, %level%, %level_name%,
// %message%, %context%, %extra%, %context.KEY% and %extra.KEY%.
// %context.KEY% and %extra.KEY% render empty when the key is absent; other
// unknown placeholders are left as written. The template is expanded in a
// single pass, so placeholder-like text inside values is never expanded.
type LineFormatter struct {
	format     string
	dateFormat string

	allowInlineLineBreaks bool
}

// NewLineFormatter creates a line formatter. dateFormat is a time layout or
// DateFormatUnix.
func NewLineFormatter(format, dateFormat string, allowInlineLineBreaks bool) *LineFormatter {
	if format == "" {
		format = DefaultLineFormat
	}
	if dateFormat == "" {
		dateFormat = DefaultDateFormat
	}
	return &LineFormatter{
		format:                format,
		dateFormat:            dateFormat,
		allowInlineLineBreaks: allowInlineLineBreaks,
	}
}

// FormatString returns the template.
func (f *LineFormatter) FormatString() string { return f.format }

// DateFormat returns the date layout.
func (f *LineFormatter) DateFormat() string { return f.dateFormat }

// Format implements Formatter.
func (f *LineFormatter) Format(r Record) (string, error) {
	var firstErr error
	out := formatPattern.ReplaceAllStringFunc(f.format, func(m string) string {
		name := m[1 : len(m)-1]
		s, ok, err := f.placeholder(r, name)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		if !ok {
			return m
		}
		return s
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func (f *LineFormatter) placeholder(r Record, name string) (string, bool, error) {
	switch name {
	case "datetime":
		return f.formatTime(r), true, nil
	case "channel":
		return r.Channel, true, nil
	case "level":
		return strconv.Itoa(int(r.Level)), true, nil
	case "level_name":
		return r.Level.String(), true, nil
	case "message":
		return f.normalize(r.Message), true, nil
	case "context":
		s, err := f.encode(r.Context)
		return s, true, err
	case "extra":
		s, err := f.encode(r.Extra)
		return s, true, err
	}
	if key, ok := strings.CutPrefix(name, "extra."); ok {
		if v, exists := r.Extra[key]; exists {
			return f.normalize(stringify(v, f.timeLayout())), true, nil
		}
		return "", true, nil
	}
	if key, ok := strings.CutPrefix(name, "context."); ok {
		if v, exists := r.Context[key]; exists {
			return f.normalize(stringify(v, f.timeLayout())), true, nil
		}
		return "", true, nil
	}
	return "", false, nil
}

func (f *LineFormatter) timeLayout() string {
	if f.dateFormat == DateFormatUnix {
		return DefaultDateFormat
	}
	return f.dateFormat
}

func (f *LineFormatter) formatTime(r Record) string {
	if f.dateFormat == DateFormatUnix {
		return strconv.FormatInt(r.Time.Unix(), 10)
	}
	return r.Time.Format(f.dateFormat)
}

func (f *LineFormatter) encode(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode record data: %w", err)
	}
	return f.normalize(string(b)), nil
}

func (f *LineFormatter) normalize(s string) string {
	if f.allowInlineLineBreaks {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
}

// fallbackLine renders a record without a formatter.
func fallbackLine(r Record) string {
	return fmt.Sprintf("[%s] %s.%s: %s\n", r.Time.Format(DefaultDateFormat), r.Channel, r.Level, r.Message)
}
