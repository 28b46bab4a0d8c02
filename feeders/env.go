package feeders

import (
	"fmt"
	"os"
	"strings"

	"github.com/GoCodeAlone/bootstrap/config"
)

// PathSeparator separates path segments in environment variable names:
// APP_LOGS__PRIMARY_CHANNEL addresses logs.primary_channel.
const PathSeparator = "__"

// EnvFeeder reads variables carrying Prefix from the environment. Values
// stay strings; the config source coerces them on read.
type EnvFeeder struct {
	Prefix string

	// Environ defaults to os.Environ.
	Environ func() []string
}

// NewEnvFeeder creates an environment feeder for prefix.
func NewEnvFeeder(prefix string) *EnvFeeder {
	return &EnvFeeder{Prefix: prefix, Environ: os.Environ}
}

// Feed implements config.Feeder.
func (f *EnvFeeder) Feed(target map[string]any) error {
	environ := f.Environ
	if environ == nil {
		environ = os.Environ
	}
	vars := make(map[string]string)
	for _, kv := range environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		vars[key] = value
	}
	return feedVars(target, f.Prefix, vars)
}

func (f *EnvFeeder) Name() string     { return "env" }
func (f *EnvFeeder) Location() string { return f.Prefix + "*" }

// EnvKeyToPath converts an environment variable name to a dotted config
// path, or reports false when the name does not carry prefix. An empty
// prefix accepts every name.
func EnvKeyToPath(prefix, key string) (string, bool) {
	rest, ok := strings.CutPrefix(key, prefix)
	if !ok || rest == "" {
		return "", false
	}
	parts := strings.Split(strings.ToLower(rest), PathSeparator)
	for _, p := range parts {
		if p == "" {
			return "", false
		}
	}
	return strings.Join(parts, "."), true
}

func feedVars(target map[string]any, prefix string, vars map[string]string) error {
	for key, value := range vars {
		path, ok := EnvKeyToPath(prefix, key)
		if !ok {
			continue
		}
		if err := config.Set(target, path, value); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}
