package backend

import (
	"sort"
	"sync"

	scigoErrors "github.com/YuminosukeSato/scigo-accel/pkg/errors"
)

var (
	registryMu  sync.RWMutex
	backends    = map[string]Backend{}
	defaultName = "cpu"
)

// Register makes a backend available by name. Registering the same name
// twice replaces the earlier backend.
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()
	backends[b.Name()] = b
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Backend, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	b, ok := backends[name]
	if !ok {
		return nil, scigoErrors.NewConfigurationError("backend", "no backend registered under this name", name)
	}
	return b, nil
}

// Names lists registered backends in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SetDefault selects the process-wide default backend.
func SetDefault(name string) error {
	if _, err := Lookup(name); err != nil {
		return err
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	defaultName = name
	return nil
}

// Default returns the process-wide default backend, or nil when nothing is
// registered under the default name.
func Default() Backend {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return backends[defaultName]
}
