// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package runtime

import (
	"slices"

	"github.com/google/uuid"

	"github.com/sigil-dev/bridge/pkg/types"
)

// StartRun begins a new run and returns its id.
func (s *Shim) StartRun() string {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.runID = uuid.NewString()
	return s.runID
}

func (s *Shim) EndRun() {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.runID = ""
}

func (s *Shim) CurrentRunID() string {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	return s.runID
}

// AddActionResult appends result to the results recorded for messageID.
func (s *Shim) AddActionResult(messageID string, result types.ActionResult) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.results[messageID] = append(s.results[messageID], result)
}

// GetActionResults returns the results recorded for messageID, oldest
// first. Unknown ids yield an empty slice.
func (s *Shim) GetActionResults(messageID string) []types.ActionResult {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	out := slices.Clone(s.results[messageID])
	if out == nil {
		out = []types.ActionResult{}
	}
	return out
}
