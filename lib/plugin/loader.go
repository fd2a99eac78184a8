// Package plugin is the host side of the lla plugin runtime: a Loader that
// opens dynamic libraries and resolves their capability handles, a Registry
// that owns every handle and the enabled set for the process lifetime, and
// the dispatch pass that decorates and formats directory entries through
// the enabled plugins.
//
// The runtime is single-threaded by design. Entry collection may run in
// parallel, but that phase ends before the first plugin call; the runtime
// never calls into two plugins, or the same plugin twice, concurrently.
package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	goplugin "plugin"
	"runtime"

	"github.com/sirupsen/logrus"

	"github.com/triyanox/lla/lib/api"
)

// Loader locates plugin libraries and loads each canonical path at most
// once. Loaded libraries stay resident until process exit.
type Loader struct {
	loaded map[string]*Handle // canonical path -> handle
	log    *logrus.Logger
}

// NewLoader creates a loader. A nil logger falls back to logrus.New().
func NewLoader(log *logrus.Logger) *Loader {
	if log == nil {
		log = logrus.New()
	}
	return &Loader{
		loaded: make(map[string]*Handle),
		log:    log,
	}
}

// isLibrary reports whether name carries the platform's dynamic-library
// suffix. Go plugins are .so on every unix-like platform, so darwin
// accepts both .so and the conventional .dylib.
func isLibrary(name string) bool {
	ext := filepath.Ext(name)
	switch runtime.GOOS {
	case "windows":
		return ext == ".dll"
	case "darwin":
		return ext == ".so" || ext == ".dylib"
	default:
		return ext == ".so"
	}
}

// Discover lists dir non-recursively and returns the candidate library
// paths in name order. Subdirectories and non-library files are ignored. A
// directory that cannot be read is an error, not an empty result.
func (l *Loader) Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read plugins directory %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !isLibrary(entry.Name()) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

// Load opens the library at path and resolves its capability handle. The
// path is canonicalized first; loading an already loaded canonical path
// returns the existing handle. Failures are *LoadError and leave the
// loader unchanged, except that a library opened before a later failure
// stays resident — identity collisions are rare operator errors and a
// leaked handle is safer than an unload.
func (l *Loader) Load(path string) (*Handle, error) {
	canonical, err := canonicalPath(path)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	if h, ok := l.loaded[canonical]; ok {
		return h, nil
	}

	lib, err := goplugin.Open(canonical)
	if err != nil {
		return nil, &LoadError{Path: canonical, Err: err}
	}
	sym, err := lib.Lookup(api.ConstructorSymbol)
	if err != nil {
		return nil, loadErrorf(canonical, "missing constructor %s: %v", api.ConstructorSymbol, err)
	}
	construct, ok := sym.(func() func([]byte) []byte)
	if !ok {
		return nil, loadErrorf(canonical, "constructor %s has incompatible signature %T", api.ConstructorSymbol, sym)
	}

	h, err := NewHandle(canonical, lib, construct())
	if err != nil {
		return nil, err
	}
	l.loaded[canonical] = h
	l.log.WithFields(logrus.Fields{
		"plugin":   h.Name(),
		"version":  h.Version(),
		"instance": h.ID(),
		"path":     canonical,
	}).Debug("loaded plugin library")
	return h, nil
}

// Forget drops the loader's record of a canonical path so a later Load
// re-resolves it. The library itself stays in memory.
func (l *Loader) Forget(path string) {
	delete(l.loaded, path)
}

func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	return resolved, nil
}
