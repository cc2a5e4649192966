// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package host_test

import (
	"testing"

	"github.com/sigil-dev/bridge/internal/host"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestLifecycleState_Transitions(t *testing.T) {
	tests := []struct {
		name    string
		from    host.PluginState
		to      host.PluginState
		allowed bool
	}{
		{"resolved to registering", host.StateResolved, host.StateRegistering, true},
		{"registering to running", host.StateRegistering, host.StateRunning, true},
		{"running to stopping", host.StateRunning, host.StateStopping, true},
		{"stopping to stopped", host.StateStopping, host.StateStopped, true},
		{"registering to error", host.StateRegistering, host.StateError, true},
		{"running to error", host.StateRunning, host.StateError, true},
		{"stopping to error", host.StateStopping, host.StateError, true},
		// Invalid transitions
		{"resolved to running", host.StateResolved, host.StateRunning, false},
		{"stopped to running", host.StateStopped, host.StateRunning, false},
		{"error to running", host.StateError, host.StateRunning, false},
		{"running to resolved", host.StateRunning, host.StateResolved, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, host.ValidTransition(tt.from, tt.to))
		})
	}
}

func TestInstance_StateTransition(t *testing.T) {
	inst := host.NewInstance("bootstrap")

	assert.Equal(t, "bootstrap", inst.Name())
	assert.Equal(t, host.StateResolved, inst.State())

	err := inst.TransitionTo(host.StateRegistering)
	assert.NoError(t, err)
	assert.Equal(t, host.StateRegistering, inst.State())

	err = inst.TransitionTo(host.StateStopped) // invalid: skip running
	assert.Error(t, err)
	assert.True(t, sigilerr.HasCode(err, sigilerr.CodePluginLifecycleTransitionInvalid))
	assert.Equal(t, host.StateRegistering, inst.State()) // state unchanged
}

func TestPluginState_String(t *testing.T) {
	assert.Equal(t, "running", host.StateRunning.String())
	assert.Equal(t, "error", host.StateError.String())
	assert.Equal(t, "unknown", host.PluginState(99).String())
}
