package feeders

import (
	"errors"
	"fmt"
)

// Static error definitions for feeders
var (
	ErrUnsupportedExtension    = errors.New("unsupported config file extension")
	ErrDotEnvInvalidLineFormat = errors.New("invalid .env line format")
)

func wrapReadError(kind, path string, err error) error {
	return fmt.Errorf("failed to read %s file %s: %w", kind, path, err)
}

func wrapDecodeError(kind, path string, err error) error {
	return fmt.Errorf("failed to decode %s file %s: %w", kind, path, err)
}
