package plugin

import (
	"fmt"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// decorationCacheSize bounds the per-process decoration cache. One listing
// touches each (path, format) pair once, so the cache only has to survive a
// single run.
const decorationCacheSize = 4096

// ConfigStore is the persisted source of truth for the enabled-plugin
// list. The registry reads it once at construction and writes through it
// on every enable or disable.
type ConfigStore interface {
	Enabled() []string
	EnablePlugin(name string) error
	DisablePlugin(name string) error
}

// PluginInfo is one row of a registry listing.
type PluginInfo struct {
	Name        string
	Version     string
	Description string
	Enabled     bool
}

// Registry owns every loaded plugin handle and the enabled set for the
// process lifetime. It carries no locking: loading, enabling and disabling
// all run on the single control thread that owns the registry.
type Registry struct {
	loader  *Loader
	handles map[string]*Handle
	order   []string // registration order; fixes dispatch order
	enabled map[string]struct{}
	store   ConfigStore
	log     *logrus.Logger

	decorations *lru.Cache[string, map[string]string]
}

// NewRegistry creates a registry seeded with the store's enabled list. A
// nil logger falls back to logrus.New().
func NewRegistry(store ConfigStore, log *logrus.Logger) *Registry {
	if log == nil {
		log = logrus.New()
	}
	enabled := make(map[string]struct{})
	if store != nil {
		for _, name := range store.Enabled() {
			enabled[name] = struct{}{}
		}
	}
	cache, _ := lru.New[string, map[string]string](decorationCacheSize)
	return &Registry{
		loader:      NewLoader(log),
		handles:     make(map[string]*Handle),
		order:       nil,
		enabled:     enabled,
		store:       store,
		log:         log,
		decorations: cache,
	}
}

// Register adds a handle under its reported name. Re-registering the same
// handle is a no-op success; a different handle claiming an occupied name
// is a *LoadError and the newcomer is not registered.
func (r *Registry) Register(h *Handle) error {
	if existing, ok := r.handles[h.Name()]; ok {
		if existing == h {
			return nil
		}
		return loadErrorf(h.Path(), "plugin %q already loaded from %s", h.Name(), existing.Path())
	}
	r.handles[h.Name()] = h
	r.order = append(r.order, h.Name())
	return nil
}

// LoadPlugin loads one library and registers its handle.
func (r *Registry) LoadPlugin(path string) error {
	h, err := r.loader.Load(path)
	if err != nil {
		return err
	}
	return r.Register(h)
}

// DiscoverPlugins loads every candidate library in dir. Per-plugin
// failures are warned about and skipped; a missing or empty directory is a
// configuration error and aborts the run.
func (r *Registry) DiscoverPlugins(dir string) error {
	paths, err := r.loader.Discover(dir)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return fmt.Errorf("no plugin libraries in %s", dir)
	}
	for _, path := range paths {
		if err := r.LoadPlugin(path); err != nil {
			r.log.WithField("path", path).Warnf("failed to load plugin: %v", err)
		}
	}
	return nil
}

// Enable marks a loaded plugin active and persists the full enabled list.
// Enabling an already enabled plugin is a no-op success.
func (r *Registry) Enable(name string) error {
	if _, ok := r.handles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	if _, ok := r.enabled[name]; ok {
		return nil
	}
	r.enabled[name] = struct{}{}
	if r.store != nil {
		if err := r.store.EnablePlugin(name); err != nil {
			return fmt.Errorf("persist enabled plugins: %w", err)
		}
	}
	return nil
}

// Disable removes a loaded plugin from the enabled set and persists the
// change. Disabling an already disabled plugin is a no-op success.
func (r *Registry) Disable(name string) error {
	if _, ok := r.handles[name]; !ok {
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	if _, ok := r.enabled[name]; !ok {
		return nil
	}
	delete(r.enabled, name)
	if r.store != nil {
		if err := r.store.DisablePlugin(name); err != nil {
			return fmt.Errorf("persist enabled plugins: %w", err)
		}
	}
	return nil
}

// IsEnabled reports whether name is in the enabled set. Enablement is
// independent of registration: a name can stay in the persisted enabled
// list while its library is absent.
func (r *Registry) IsEnabled(name string) bool {
	_, ok := r.enabled[name]
	return ok
}

// List returns every loaded plugin in registration order. It has no side
// effects and its result is unaffected by enabled state, which is reported
// alongside.
func (r *Registry) List() []PluginInfo {
	infos := make([]PluginInfo, 0, len(r.order))
	for _, name := range r.order {
		h := r.handles[name]
		infos = append(infos, PluginInfo{
			Name:        h.Name(),
			Version:     h.Version(),
			Description: h.Description(),
			Enabled:     r.IsEnabled(name),
		})
	}
	return infos
}

// Clean drops registry entries whose backing library file no longer
// exists and returns the removed names. Resident library code is not
// unloaded; only the registry forgets it.
func (r *Registry) Clean() []string {
	var removed []string
	kept := r.order[:0]
	for _, name := range r.order {
		h := r.handles[name]
		if h.Path() != "" {
			if _, err := os.Stat(h.Path()); os.IsNotExist(err) {
				delete(r.handles, name)
				r.loader.Forget(h.Path())
				removed = append(removed, name)
				r.log.WithFields(logrus.Fields{
					"plugin":   name,
					"instance": h.ID(),
					"path":     h.Path(),
				}).Info("removed plugin with missing library")
				continue
			}
		}
		kept = append(kept, name)
	}
	r.order = kept
	return removed
}
