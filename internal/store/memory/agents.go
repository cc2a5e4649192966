// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package memory

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/sigil-dev/bridge/pkg/types"
)

func (s *Store) GetAgent(_ context.Context, id string) (*types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.agents.Get(id)
	if !ok {
		return nil, nil
	}
	return cloneAgent(a), nil
}

func (s *Store) GetAgents(_ context.Context) ([]*types.Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Agent, 0, s.agents.Len())
	for pair := s.agents.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, cloneAgent(pair.Value))
	}
	return out, nil
}

// CreateAgent stores agent and reports false when the id is already taken.
// An empty id is assigned.
func (s *Store) CreateAgent(_ context.Context, agent *types.Agent) (bool, error) {
	if agent == nil {
		return false, invalidInput("agent is nil")
	}
	a := cloneAgent(agent)
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	now := time.Now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.agents.Get(a.ID); exists {
		return false, nil
	}
	s.agents.Set(a.ID, a)
	agent.ID = a.ID
	return true, nil
}

func (s *Store) UpdateAgent(_ context.Context, id string, update types.AgentUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.agents.Get(id)
	if !ok {
		return false, nil
	}
	a := cloneAgent(cur)
	if update.Name != nil {
		a.Name = *update.Name
	}
	if update.Username != nil {
		a.Username = *update.Username
	}
	if update.System != nil {
		a.System = *update.System
	}
	if update.Bio != nil {
		a.Bio = slices.Clone(update.Bio)
	}
	if update.Plugins != nil {
		a.Plugins = slices.Clone(update.Plugins)
	}
	if update.Settings != nil {
		if a.Settings == nil {
			a.Settings = make(map[string]any, len(update.Settings))
		}
		maps.Copy(a.Settings, update.Settings)
	}
	if update.Enabled != nil {
		a.Enabled = *update.Enabled
	}
	a.UpdatedAt = time.Now()
	s.agents.Set(id, a)
	return true, nil
}

func (s *Store) DeleteAgent(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, present := s.agents.Delete(id)
	return present, nil
}
