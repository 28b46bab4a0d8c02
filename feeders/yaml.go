package feeders

import (
	"os"

	"gopkg.in/yaml.v3"
)

// YamlFeeder is a feeder that reads YAML files
type YamlFeeder struct {
	Path string
}

// NewYamlFeeder creates a new YamlFeeder that reads from the specified YAML file
func NewYamlFeeder(filePath string) *YamlFeeder {
	return &YamlFeeder{Path: filePath}
}

// Feed decodes the file into target.
func (y *YamlFeeder) Feed(target map[string]any) error {
	content, err := os.ReadFile(y.Path)
	if err != nil {
		return wrapReadError("yaml", y.Path, err)
	}
	var data map[string]any
	if err := yaml.Unmarshal(content, &data); err != nil {
		return wrapDecodeError("yaml", y.Path, err)
	}
	mergeInto(target, data)
	return nil
}

func (y *YamlFeeder) Name() string     { return "yaml" }
func (y *YamlFeeder) Location() string { return y.Path }
