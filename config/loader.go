package config

import (
	"fmt"
	"time"
)

// Feeder populates a nested configuration map from one source.
type Feeder interface {
	Feed(target map[string]any) error
	Name() string
}

// Locator is implemented by feeders that can say where their data lives,
// such as a file path.
type Locator interface {
	Location() string
}

// Load runs feeders in order and merges their output into a MapSource.
// Later feeders override leaf values set by earlier ones.
func Load(feeders ...Feeder) (*MapSource, error) {
	src := newMapSource()
	now := time.Now()
	for _, f := range feeders {
		if f == nil {
			continue
		}
		data := make(map[string]any)
		if err := f.Feed(data); err != nil {
			return nil, fmt.Errorf("feed %s: %w", f.Name(), err)
		}

		detail := ""
		if l, ok := f.(Locator); ok {
			detail = l.Location()
		}

		var setErr error
		walk(Normalize(data).(map[string]any), "", func(path string, value any) {
			if setErr != nil {
				return
			}
			if err := Set(src.data, path, value); err != nil {
				setErr = err
				return
			}
			src.record(path, &FieldProvenance{
				FieldPath:    path,
				Source:       f.Name(),
				SourceDetail: detail,
				Value:        value,
				Timestamp:    now,
			})
		})
		if setErr != nil {
			return nil, fmt.Errorf("merge %s: %w", f.Name(), setErr)
		}
	}
	return src, nil
}
