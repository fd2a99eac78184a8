package plugin

import (
	"errors"
	"fmt"
)

// ErrPluginNotFound is returned by enable, disable and action routing when
// no loaded plugin carries the requested name.
var ErrPluginNotFound = errors.New("plugin not found")

// LoadError is a per-plugin load failure: the library would not open, the
// constructor symbol was missing or had the wrong signature, or the
// plugin's reported name collides with one already registered. It is never
// fatal to the surrounding discovery loop.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load plugin %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

func loadErrorf(path, format string, args ...any) *LoadError {
	return &LoadError{Path: path, Err: fmt.Errorf(format, args...)}
}
