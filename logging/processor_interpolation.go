package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z0-9_.]+)\}|%([A-Za-z0-9_.]+)%`)

// MessageInterpolationProcessor expands {name} and %name% placeholders in
// the message with values from the record's Context, falling back to
// Extra. Unknown placeholders are left as written.
type MessageInterpolationProcessor struct {
	// DateFormat is used for time.Time values.
	DateFormat string
}

// NewMessageInterpolationProcessor creates an interpolation processor.
func NewMessageInterpolationProcessor() *MessageInterpolationProcessor {
	return &MessageInterpolationProcessor{DateFormat: time.RFC3339}
}

// Process implements Processor.
func (p *MessageInterpolationProcessor) Process(_ context.Context, r Record) Record {
	if len(r.Context) == 0 && len(r.Extra) == 0 {
		return r
	}
	r.Message = placeholderPattern.ReplaceAllStringFunc(r.Message, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := r.Context[name]; ok {
			return stringify(v, p.DateFormat)
		}
		if v, ok := r.Extra[name]; ok {
			return stringify(v, p.DateFormat)
		}
		return m
	})
	return r
}

func stringify(v any, dateFormat string) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case time.Time:
		return val.Format(dateFormat)
	case error:
		return val.Error()
	case fmt.Stringer:
		return val.String()
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprintf("[%T]", val)
		}
		return string(b)
	}
}
