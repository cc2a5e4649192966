// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package host

import (
	"sync"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
)

// PluginState represents the lifecycle state of a loaded plugin.
type PluginState int

const (
	StateResolved PluginState = iota
	StateRegistering
	StateRunning
	StateStopping
	StateStopped
	StateError
)

func (s PluginState) String() string {
	switch s {
	case StateResolved:
		return "resolved"
	case StateRegistering:
		return "registering"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// validTransitions defines allowed state transitions as an adjacency list.
var validTransitions = map[PluginState]map[PluginState]bool{
	StateResolved: {
		StateRegistering: true,
	},
	StateRegistering: {
		StateRunning: true,
		StateError:   true,
	},
	StateRunning: {
		StateStopping: true,
		StateError:    true,
	},
	StateStopping: {
		StateStopped: true,
		StateError:   true,
	},
	StateStopped: {},
	StateError:   {},
}

// ValidTransition returns true if transitioning from one state to another is allowed.
func ValidTransition(from, to PluginState) bool {
	return validTransitions[from][to]
}

// Instance tracks one plugin through its lifecycle.
type Instance struct {
	mu           sync.RWMutex
	name         string
	state        PluginState
	err          error
	registration *Registration
}

// NewInstance creates an instance in StateResolved.
func NewInstance(name string) *Instance {
	return &Instance{name: name, state: StateResolved}
}

func (i *Instance) Name() string {
	return i.name
}

func (i *Instance) State() PluginState {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.state
}

// Err returns the error that moved the instance to StateError, if any.
func (i *Instance) Err() error {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.err
}

// Registration returns what the plugin contributed, or nil before it is
// running.
func (i *Instance) Registration() *Registration {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.registration
}

// TransitionTo attempts to transition to a new state. Returns an error if the
// transition is not valid.
func (i *Instance) TransitionTo(newState PluginState) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !ValidTransition(i.state, newState) {
		return sigilerr.Errorf(sigilerr.CodePluginLifecycleTransitionInvalid,
			"invalid state transition: %s -> %s", i.state, newState)
	}

	i.state = newState
	return nil
}

func (i *Instance) fail(err error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.state = StateError
	i.err = err
}

func (i *Instance) run(reg *Registration) error {
	if err := i.TransitionTo(StateRunning); err != nil {
		return err
	}
	i.mu.Lock()
	i.registration = reg
	i.mu.Unlock()
	return nil
}
