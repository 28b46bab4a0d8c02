// Package logging implements the record, processor, formatter and handler
// primitives the bootstrap assembles into a logging pipeline.
package logging

import (
	"maps"
	"time"
)

// Record is a single log event. Records are values: processors receive a
// copy and return an enriched copy, leaving the caller's record untouched.
type Record struct {
	Time    time.Time
	Channel string
	Level   Level
	Message string

	// Context holds the arguments passed with the log call.
	Context map[string]any

	// Extra holds values added by processors.
	Extra map[string]any
}

// WithExtra returns a copy of r with key set in Extra. The original map is
// never mutated.
func (r Record) WithExtra(key string, value any) Record {
	extra := make(map[string]any, len(r.Extra)+1)
	maps.Copy(extra, r.Extra)
	extra[key] = value
	r.Extra = extra
	return r
}

// WithExtras is like WithExtra for several keys at once.
func (r Record) WithExtras(values map[string]any) Record {
	extra := make(map[string]any, len(r.Extra)+len(values))
	maps.Copy(extra, r.Extra)
	maps.Copy(extra, values)
	r.Extra = extra
	return r
}

// Clone returns a deep copy of the record's maps.
func (r Record) Clone() Record {
	r.Context = maps.Clone(r.Context)
	r.Extra = maps.Clone(r.Extra)
	return r
}
