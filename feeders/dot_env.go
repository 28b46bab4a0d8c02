package feeders

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// DotEnvFeeder reads KEY=value lines from a .env file and maps them to
// config paths the same way EnvFeeder does.
type DotEnvFeeder struct {
	Path   string
	Prefix string
}

// NewDotEnvFeeder creates a feeder for the .env file at path.
func NewDotEnvFeeder(path, prefix string) *DotEnvFeeder {
	return &DotEnvFeeder{Path: path, Prefix: prefix}
}

// Feed implements config.Feeder.
func (f *DotEnvFeeder) Feed(target map[string]any) error {
	vars, err := parseDotEnvFile(f.Path)
	if err != nil {
		return err
	}
	return feedVars(target, f.Prefix, vars)
}

func (f *DotEnvFeeder) Name() string     { return "dotenv" }
func (f *DotEnvFeeder) Location() string { return f.Path }

// parseDotEnvFile parses a .env file and returns the key-value pairs
func parseDotEnvFile(filename string) (map[string]string, error) {
	result := make(map[string]string)

	file, err := os.Open(filename)
	if err != nil {
		return nil, wrapReadError("dotenv", filename, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w at line %d: %s", ErrDotEnvInvalidLineFormat, lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') || (value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		result[key] = value
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanner error: %w", err)
	}

	return result, nil
}
