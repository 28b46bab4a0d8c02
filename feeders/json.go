package feeders

import (
	"encoding/json"
	"os"
)

// JSONFeeder is a feeder that reads JSON files
type JSONFeeder struct {
	Path string
}

// NewJSONFeeder creates a new JSONFeeder that reads from the specified JSON file
func NewJSONFeeder(filePath string) *JSONFeeder {
	return &JSONFeeder{Path: filePath}
}

// Feed decodes the file into target. Numbers arrive as float64.
func (j *JSONFeeder) Feed(target map[string]any) error {
	content, err := os.ReadFile(j.Path)
	if err != nil {
		return wrapReadError("json", j.Path, err)
	}
	var data map[string]any
	if err := json.Unmarshal(content, &data); err != nil {
		return wrapDecodeError("json", j.Path, err)
	}
	mergeInto(target, data)
	return nil
}

func (j *JSONFeeder) Name() string     { return "json" }
func (j *JSONFeeder) Location() string { return j.Path }
