// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package types

// State is the per-turn context composed from providers.
type State struct {
	Values map[string]any
	Data   map[string]any
	Text   string
}

// NewState returns an empty state with initialized maps.
func NewState() *State {
	return &State{
		Values: map[string]any{},
		Data:   map[string]any{},
	}
}

// ProviderResult is one provider's contribution to a State.
type ProviderResult struct {
	Text   string
	Values map[string]any
	Data   map[string]any
}

// ActionResult records the outcome of an action handler for a message.
type ActionResult struct {
	Action  string
	Success bool
	Text    string
	Values  map[string]any
	Data    map[string]any
	Error   string
}
