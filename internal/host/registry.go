// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package host

import (
	"slices"
	"sync"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/plugin"
)

// Factory builds a fresh plugin value.
type Factory func() *plugin.Plugin

var (
	factories   = map[string]Factory{}
	factoriesMu sync.RWMutex
)

// RegisterPlugin registers the factory for a named plugin. Plugin packages
// call this from init(). This function is goroutine-safe.
func RegisterPlugin(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = factory
}

// LookupPlugin builds the plugin registered under name.
func LookupPlugin(name string) (*plugin.Plugin, error) {
	factoriesMu.RLock()
	factory, ok := factories[name]
	factoriesMu.RUnlock()
	if !ok {
		return nil, sigilerr.Errorf(sigilerr.CodePluginNotFound, "plugin %q not found", name)
	}
	return factory(), nil
}

// PluginNames returns the registered plugin names, sorted.
func PluginNames() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
