// Package config provides the typed key-path reader consumed by the bootstrap.
package config

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/golobby/cast"
)

// Source is a read-only configuration tree addressed by dotted paths such
// as "logs.primary_channel". Getters fail with ErrKeyMissing when the path
// is absent and ErrType when the value cannot be coerced.
type Source interface {
	GetString(path string) (string, error)
	GetBool(path string) (bool, error)
	GetInt(path string) (int, error)
	Has(path string) bool
}

// FieldProvenance records where the effective value of a path came from.
type FieldProvenance struct {
	FieldPath    string    `json:"field_path"`
	Source       string    `json:"source"`        // e.g., "env", "yaml", "default"
	SourceDetail string    `json:"source_detail"` // e.g., "APP_LOGS__PRIMARY_CHANNEL", "config.yaml"
	Value        any       `json:"value"`
	Timestamp    time.Time `json:"timestamp"`
}

// MapSource is a Source over a nested map. It is safe for concurrent reads.
type MapSource struct {
	mu         sync.RWMutex
	data       map[string]any
	provenance map[string]*FieldProvenance
}

// NewMapSource creates a source from data. Keys containing dots are
// expanded into nested maps, so {"debug.cli": true} and
// {"debug": {"cli": true}} are equivalent. A key that holds a scalar where
// another key needs a map, as in {"debug": true, "debug.cli": true}, is an
// ErrPathConflict.
func NewMapSource(data map[string]any) (*MapSource, error) {
	s := newMapSource()
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := Set(s.data, k, data[k]); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// MustMapSource is like NewMapSource but panics on error. It is meant for
// fixed literals in wiring code and tests.
func MustMapSource(data map[string]any) *MapSource {
	s, err := NewMapSource(data)
	if err != nil {
		panic(err)
	}
	return s
}

func newMapSource() *MapSource {
	return &MapSource{
		data:       make(map[string]any),
		provenance: make(map[string]*FieldProvenance),
	}
}

// Lookup returns the raw value stored at path. A nil value counts as absent.
func (s *MapSource) Lookup(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lookup(s.data, path)
}

// Has reports whether path holds a non-nil value.
func (s *MapSource) Has(path string) bool {
	_, ok := s.Lookup(path)
	return ok
}

// GetString returns the value at path as a string. Scalars are formatted;
// maps and slices are a type error.
func (s *MapSource) GetString(path string) (string, error) {
	v, ok := s.Lookup(path)
	if !ok {
		return "", missing(path, "string")
	}
	switch val := v.(type) {
	case string:
		return val, nil
	case bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return fmt.Sprint(val), nil
	default:
		return "", typeError(path, "string", nil)
	}
}

// GetBool returns the value at path as a bool. Strings are parsed with
// strconv rules ("true", "1", "false", "0", ...).
func (s *MapSource) GetBool(path string) (bool, error) {
	v, ok := s.Lookup(path)
	if !ok {
		return false, missing(path, "bool")
	}
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		out, err := cast.FromType(strings.TrimSpace(val), reflect.TypeFor[bool]())
		if err != nil {
			return false, typeError(path, "bool", err)
		}
		b, ok := out.(bool)
		if !ok {
			return false, typeError(path, "bool", nil)
		}
		return b, nil
	default:
		return false, typeError(path, "bool", nil)
	}
}

// GetInt returns the value at path as an int. Floats are accepted only when
// integral, which is how JSON numbers arrive.
func (s *MapSource) GetInt(path string) (int, error) {
	v, ok := s.Lookup(path)
	if !ok {
		return 0, missing(path, "int")
	}
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case int32:
		return int(val), nil
	case uint64:
		if val > math.MaxInt {
			return 0, typeError(path, "int", nil)
		}
		return int(val), nil
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return 0, typeError(path, "int", nil)
		}
		return int(val), nil
	case string:
		out, err := cast.FromType(strings.TrimSpace(val), reflect.TypeFor[int]())
		if err != nil {
			return 0, typeError(path, "int", err)
		}
		n, ok := out.(int)
		if !ok {
			return 0, typeError(path, "int", nil)
		}
		return n, nil
	default:
		return 0, typeError(path, "int", nil)
	}
}

// Keys returns every leaf path in sorted order.
func (s *MapSource) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	walk(s.data, "", func(path string, _ any) {
		keys = append(keys, path)
	})
	sort.Strings(keys)
	return keys
}

// Provenance returns where the value of path came from, if known.
func (s *MapSource) Provenance(path string) (*FieldProvenance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.provenance[path]
	return p, ok
}

func (s *MapSource) record(path string, p *FieldProvenance) {
	s.provenance[path] = p
}

func lookup(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = data
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

// Set stores value at the dotted path inside data, creating intermediate
// maps. Nested maps in value are normalized to map[string]any and merged
// into a map already stored at path. Replacing a non-empty map with a
// scalar, or a scalar with a map, is an ErrPathConflict.
func Set(data map[string]any, path string, value any) error {
	if path == "" {
		return ErrEmptyPath
	}
	parts := strings.Split(path, ".")
	cur := data
	for _, part := range parts[:len(parts)-1] {
		next, exists := cur[part]
		if !exists || next == nil {
			m := make(map[string]any)
			cur[part] = m
			cur = m
			continue
		}
		m, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%w: %s", ErrPathConflict, path)
		}
		cur = m
	}
	return mergeValue(cur, parts[len(parts)-1], Normalize(value), path)
}

func mergeValue(dst map[string]any, key string, value any, path string) error {
	existing, exists := dst[key]
	if !exists || existing == nil {
		dst[key] = value
		return nil
	}
	oldMap, oldIsMap := existing.(map[string]any)
	newMap, newIsMap := value.(map[string]any)
	switch {
	case oldIsMap && newIsMap:
		for k, v := range newMap {
			if err := mergeValue(oldMap, k, v, path+"."+k); err != nil {
				return err
			}
		}
		return nil
	case oldIsMap && len(oldMap) > 0:
		return fmt.Errorf("%w: %s", ErrPathConflict, path)
	case newIsMap && len(newMap) > 0:
		return fmt.Errorf("%w: %s", ErrPathConflict, path)
	}
	dst[key] = value
	return nil
}

// Normalize converts the map and slice shapes produced by decoders
// (map[any]any, map[string]string, []map[string]any) into map[string]any
// and []any.
func Normalize(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = Normalize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = Normalize(val)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out
	case []map[string]any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = Normalize(val)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, val := range v {
			out[i] = Normalize(val)
		}
		return out
	default:
		return value
	}
}

func walk(data map[string]any, prefix string, fn func(path string, value any)) {
	for k, v := range data {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if m, ok := v.(map[string]any); ok && len(m) > 0 {
			walk(m, path, fn)
			continue
		}
		fn(path, v)
	}
}
