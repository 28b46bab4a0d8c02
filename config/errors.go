package config

import (
	"errors"
	"fmt"
)

// Static errors for configuration package
var (
	ErrKeyMissing   = errors.New("config key missing")
	ErrType         = errors.New("config value has wrong type")
	ErrEmptyPath    = errors.New("config path is empty")
	ErrPathConflict = errors.New("config path conflicts with a scalar value")
)

// KeyError names the dotted path and the type a caller asked for.
type KeyError struct {
	Path string
	Want string
	Err  error
}

func (e *KeyError) Error() string {
	if errors.Is(e.Err, ErrKeyMissing) {
		return fmt.Sprintf("%v: %s", e.Err, e.Path)
	}
	return fmt.Sprintf("%v: %s (want %s)", e.Err, e.Path, e.Want)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

func missing(path, want string) error {
	return &KeyError{Path: path, Want: want, Err: ErrKeyMissing}
}

func typeError(path, want string, cause error) error {
	if cause == nil {
		return &KeyError{Path: path, Want: want, Err: ErrType}
	}
	return &KeyError{Path: path, Want: want, Err: fmt.Errorf("%w: %w", ErrType, cause)}
}
