package adapter

import (
	"sort"
	"sync"

	"github.com/ballastio/ballast/pkg/errors"
)

// Factory creates an adapter from destination-independent options
type Factory func(options map[string]string) (Adapter, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes an adapter factory available under a format name.
// Adapter packages call this from init().
func Register(format string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[format] = factory
}

// Create instantiates the adapter registered for the given format
func Create(format string, options map[string]string) (Adapter, error) {
	registryMu.RLock()
	factory, ok := registry[format]
	registryMu.RUnlock()

	if !ok {
		return nil, errors.Newf(errors.ErrorTypeConfig, "unknown format %q", format)
	}
	return factory(options)
}

// Formats returns the registered format names in sorted order
func Formats() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	formats := make([]string, 0, len(registry))
	for name := range registry {
		formats = append(formats, name)
	}
	sort.Strings(formats)
	return formats
}
