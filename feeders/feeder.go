// Package feeders loads configuration trees from files and the environment.
// Every feeder fills a nested map[string]any that config.Load merges.
package feeders

import (
	"fmt"
	"maps"
	"path/filepath"
	"strings"

	"github.com/GoCodeAlone/bootstrap/config"
)

var (
	_ config.Feeder = (*YamlFeeder)(nil)
	_ config.Feeder = (*TomlFeeder)(nil)
	_ config.Feeder = (*JSONFeeder)(nil)
	_ config.Feeder = (*EnvFeeder)(nil)
	_ config.Feeder = (*DotEnvFeeder)(nil)
	_ config.Feeder = MapFeeder(nil)
)

// ForFile returns the feeder matching the extension of path.
func ForFile(path string) (config.Feeder, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return NewYamlFeeder(path), nil
	case ".toml":
		return NewTomlFeeder(path), nil
	case ".json":
		return NewJSONFeeder(path), nil
	case ".env":
		return NewDotEnvFeeder(path, ""), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedExtension, path)
	}
}

// MapFeeder feeds a fixed map. Dotted keys are expanded.
type MapFeeder map[string]any

// Feed implements config.Feeder.
func (m MapFeeder) Feed(target map[string]any) error {
	for k, v := range m {
		if err := config.Set(target, k, v); err != nil {
			return err
		}
	}
	return nil
}

// Name implements config.Feeder.
func (m MapFeeder) Name() string { return "map" }

func mergeInto(target, data map[string]any) {
	maps.Copy(target, data)
}
