// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/sigil-dev/bridge/internal/store"
	"github.com/sigil-dev/bridge/internal/store/memory"
	"github.com/sigil-dev/bridge/pkg/types"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, cfg store.Config) *memory.Store {
	t.Helper()
	s := memory.New(cfg)
	require.NoError(t, s.Init(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func msg(id, room string, offset time.Duration, embedding ...float32) *types.Memory {
	return &types.Memory{
		ID:        id,
		EntityID:  "user-1",
		AgentID:   "agent-1",
		RoomID:    room,
		Content:   types.Content{Text: "text of " + id},
		Embedding: embedding,
		CreatedAt: baseTime.Add(offset),
	}
}

func ids(ms []*types.Memory) []string {
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.ID
	}
	return out
}
