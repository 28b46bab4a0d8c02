package feeders

import (
	"errors"
	"io/fs"

	"github.com/BurntSushi/toml"
)

// TomlFeeder is a feeder that reads TOML files
type TomlFeeder struct {
	Path string
}

func NewTomlFeeder(filePath string) *TomlFeeder {
	return &TomlFeeder{Path: filePath}
}

// Feed decodes the file into target.
func (t *TomlFeeder) Feed(target map[string]any) error {
	var data map[string]any
	if _, err := toml.DecodeFile(t.Path, &data); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return wrapReadError("toml", t.Path, err)
		}
		return wrapDecodeError("toml", t.Path, err)
	}
	mergeInto(target, data)
	return nil
}

func (t *TomlFeeder) Name() string     { return "toml" }
func (t *TomlFeeder) Location() string { return t.Path }
