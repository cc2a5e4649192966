// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package memory_test

import (
	"context"
	"testing"

	"github.com/sigil-dev/bridge/internal/store"
	"github.com/sigil-dev/bridge/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgents(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	ok, err := s.CreateAgent(ctx, &types.Agent{ID: "a1", Name: "Ada", Settings: map[string]any{"x": 1}})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CreateAgent(ctx, &types.Agent{ID: "a1", Name: "Other"})
	require.NoError(t, err)
	assert.False(t, ok, "duplicate id must not overwrite")

	ok, err = s.UpdateAgent(ctx, "a1", types.AgentUpdate{Name: types.Ptr("Ada L."), Settings: map[string]any{"y": 2}})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetAgent(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "Ada L.", got.Name)
	assert.Equal(t, map[string]any{"x": 1, "y": 2}, got.Settings)

	ok, err = s.UpdateAgent(ctx, "missing", types.AgentUpdate{Name: types.Ptr("x")})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.DeleteAgent(ctx, "a1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err = s.GetAgent(ctx, "a1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCreateEntities_AllOrNothing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	ok, err := s.CreateEntities(ctx, []*types.Entity{{ID: "e1", Names: []string{"one"}}})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.CreateEntities(ctx, []*types.Entity{{ID: "e2"}, {ID: "e1"}})
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := s.GetEntitiesByIDs(ctx, []string{"e1", "e2"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "e1", got[0].ID)

	fresh := &types.Entity{Names: []string{"anon"}}
	ok, err = s.CreateEntities(ctx, []*types.Entity{fresh})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, fresh.ID)
}

func TestComponents_CompositeKey(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	comp := &types.Component{ID: "c1", EntityID: "e1", Type: "profile", WorldID: "w1", Data: map[string]any{"v": 1}}
	ok, err := s.CreateComponent(ctx, comp)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.CreateComponent(ctx, &types.Component{ID: "c2", EntityID: "e1", Type: "profile", WorldID: "w1"})
	require.NoError(t, err)
	assert.False(t, ok, "same composite key must be rejected")

	ok, err = s.CreateComponent(ctx, &types.Component{ID: "c3", EntityID: "e1", Type: "profile", WorldID: "w2"})
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.GetComponent(ctx, "e1", "profile", "w1", "")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "c1", got.ID)

	// Update upserts and keeps both indexes in step.
	require.NoError(t, s.UpdateComponent(ctx, &types.Component{ID: "c1", EntityID: "e1", Type: "profile", WorldID: "w1", Data: map[string]any{"v": 2}}))
	require.NoError(t, s.UpdateComponent(ctx, &types.Component{ID: "c4", EntityID: "e1", Type: "settings"}))

	all, err := s.GetComponents(ctx, "e1", "", "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	got, err = s.GetComponent(ctx, "e1", "profile", "w1", "")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Data["v"])

	inW2, err := s.GetComponents(ctx, "e1", "w2", "")
	require.NoError(t, err)
	require.Len(t, inW2, 1)
	assert.Equal(t, "c3", inW2[0].ID)

	require.NoError(t, s.DeleteComponent(ctx, "c1"))
	got, err = s.GetComponent(ctx, "e1", "profile", "w1", "")
	require.NoError(t, err)
	assert.Nil(t, got)
	all, err = s.GetComponents(ctx, "e1", "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteEntity_DropsComponentsAndMemberships(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, store.Config{})

	_, err := s.CreateEntities(ctx, []*types.Entity{{ID: "e1"}, {ID: "e2"}})
	require.NoError(t, err)
	_, err = s.CreateComponent(ctx, &types.Component{EntityID: "e1", Type: "profile"})
	require.NoError(t, err)
	_, err = s.AddParticipantsRoom(ctx, []string{"e1", "e2"}, "room-1")
	require.NoError(t, err)

	withComps, err := s.GetEntitiesForRoom(ctx, "room-1", true)
	require.NoError(t, err)
	require.Len(t, withComps, 2)
	assert.Len(t, withComps[0].Components, 1)

	ok, err := s.DeleteEntity(ctx, "e1")
	require.NoError(t, err)
	assert.True(t, ok)

	comps, err := s.GetComponents(ctx, "e1", "", "")
	require.NoError(t, err)
	assert.Empty(t, comps)

	members, err := s.GetParticipantsForRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"e2"}, members)
}
