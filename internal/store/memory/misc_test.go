// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/sigil-dev/bridge/internal/store"
	"github.com/sigil-dev/bridge/internal/store/memory"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelationships_NotDeduplicated(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	for _, tags := range [][]string{{"friend"}, {"colleague"}} {
		ok, err := s.CreateRelationship(ctx, types.RelationshipParams{SourceEntityID: "a", TargetEntityID: "b", Tags: tags})
		require.NoError(t, err)
		assert.True(t, ok)
	}
	_, err := s.CreateRelationship(ctx, types.RelationshipParams{SourceEntityID: "c", TargetEntityID: "a", Tags: []string{"rival"}})
	require.NoError(t, err)

	first, err := s.GetRelationship(ctx, "a", "b")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, []string{"friend"}, first.Tags)

	all, err := s.GetRelationships(ctx, "a", nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	tagged, err := s.GetRelationships(ctx, "a", []string{"rival", "enemy"})
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "c", tagged[0].SourceEntityID)

	first.Tags = []string{"best-friend"}
	require.NoError(t, s.UpdateRelationship(ctx, first))
	again, err := s.GetRelationship(ctx, "a", "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"best-friend"}, again.Tags)

	require.NoError(t, s.UpdateRelationship(ctx, &types.Relationship{ID: "new", SourceEntityID: "x", TargetEntityID: "y"}))
	upserted, err := s.GetRelationship(ctx, "x", "y")
	require.NoError(t, err)
	assert.NotNil(t, upserted)
}

func TestCache_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	_, ok, err := s.GetCache(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.SetCache(ctx, "k", "one")
	require.NoError(t, err)
	_, err = s.SetCache(ctx, "k", "two")
	require.NoError(t, err)

	v, ok, err := s.GetCache(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "two", v)

	deleted, err := s.DeleteCache(ctx, "k")
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = s.DeleteCache(ctx, "k")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTasks(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	id, err := s.CreateTask(ctx, &types.Task{Name: "digest", RoomID: "r1", Tags: []string{"queue", "daily"}})
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, &types.Task{Name: "digest", RoomID: "r2", Tags: []string{"queue"}})
	require.NoError(t, err)

	both, err := s.GetTasks(ctx, types.TaskQuery{Tags: []string{"queue"}})
	require.NoError(t, err)
	assert.Len(t, both, 2)

	daily, err := s.GetTasks(ctx, types.TaskQuery{Tags: []string{"queue", "daily"}})
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, id, daily[0].ID)

	byName, err := s.GetTasksByName(ctx, "digest")
	require.NoError(t, err)
	assert.Len(t, byName, 2)

	ok, err := s.UpdateTask(ctx, id, types.TaskUpdate{Description: types.Ptr("every morning")})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.UpdateTask(ctx, "missing", types.TaskUpdate{})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.DeleteTask(ctx, id))
	got, err := s.GetTask(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.CreateTask(ctx, &types.Task{})
	assert.True(t, sigilerr.HasCode(err, sigilerr.CodeStoreInvalidInput))
}

func TestLogs_CapAndOrder(t *testing.T) {
	ctx := context.Background()
	const capacity = 4
	s := newTestStore(t, store.Config{LogCap: capacity})

	for i := 0; i < capacity+2; i++ {
		typ := "action"
		if i%2 == 0 {
			typ = "event"
		}
		require.NoError(t, s.Log(ctx, types.LogParams{Type: typ, RoomID: "r1", Body: map[string]any{"i": i}}))
	}

	logs, err := s.GetLogs(ctx, types.LogQuery{})
	require.NoError(t, err)
	require.Len(t, logs, capacity)
	assert.Equal(t, capacity+1, logs[0].Body["i"], "newest first")
	assert.Equal(t, 2, logs[capacity-1].Body["i"], "two oldest evicted across types")

	events, err := s.GetLogs(ctx, types.LogQuery{Type: "event", Count: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 4, events[0].Body["i"])

	require.NoError(t, s.DeleteLog(ctx, logs[0].ID))
	logs, err = s.GetLogs(ctx, types.LogQuery{})
	require.NoError(t, err)
	assert.Len(t, logs, capacity-1)
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	s := memory.New(store.Config{})
	assert.False(t, s.IsReady(ctx))
	require.NoError(t, s.Init(ctx))
	assert.True(t, s.IsReady(ctx))
	assert.Equal(t, store.DefaultEmbeddingDimension, s.EmbeddingDimension())

	require.NoError(t, s.EnsureEmbeddingDimension(ctx, 1536))
	assert.Equal(t, 1536, s.EmbeddingDimension())
	assert.Error(t, s.EnsureEmbeddingDimension(ctx, 0))

	for i := range 3 {
		_, err := s.CreateMemory(ctx, msg(fmt.Sprintf("m%d", i), "r1", 0), "", false)
		require.NoError(t, err)
	}
	_, err := s.SetCache(ctx, "k", 1)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.False(t, s.IsReady(ctx))
	stats := s.Stats()
	assert.Zero(t, stats.Memories)
	assert.Zero(t, stats.CacheEntries)
}

func TestRegisteredAsDefaultBackend(t *testing.T) {
	st, err := store.New(store.Config{})
	require.NoError(t, err)
	_, ok := st.(*memory.Store)
	assert.True(t, ok)
	assert.Contains(t, store.Backends(), store.DefaultBackend)
}
