// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/sigil-dev/bridge/pkg/types"
)

func (s *Store) GetEntitiesByIDs(_ context.Context, ids []string) ([]*types.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Entity, 0, len(ids))
	for _, id := range ids {
		if e, ok := s.entities.Get(id); ok {
			out = append(out, s.entityWithComponents(e))
		}
	}
	return out, nil
}

// GetEntitiesForRoom returns the entities participating in roomID.
// Participants with no entity row are skipped.
func (s *Store) GetEntitiesForRoom(_ context.Context, roomID string, includeComponents bool) ([]*types.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	members := sortedKeys(s.participants[roomID])
	out := make([]*types.Entity, 0, len(members))
	for _, id := range members {
		e, ok := s.entities.Get(id)
		if !ok {
			continue
		}
		if includeComponents {
			out = append(out, s.entityWithComponents(e))
		} else {
			out = append(out, cloneEntity(e))
		}
	}
	return out, nil
}

// CreateEntities stores every entity or none: when any id is already
// taken, nothing is written and false is returned.
func (s *Store) CreateEntities(_ context.Context, entities []*types.Entity) (bool, error) {
	staged := make([]*types.Entity, 0, len(entities))
	seen := make(map[string]struct{}, len(entities))
	for i, e := range entities {
		if e == nil {
			return false, invalidInput("entities[%d] is nil", i)
		}
		c := cloneEntity(e)
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if _, dup := seen[c.ID]; dup {
			return false, nil
		}
		seen[c.ID] = struct{}{}
		staged = append(staged, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range staged {
		if _, exists := s.entities.Get(e.ID); exists {
			return false, nil
		}
	}
	for i, e := range staged {
		s.entities.Set(e.ID, e)
		entities[i].ID = e.ID
	}
	return true, nil
}

// UpdateEntity replaces an existing entity. Unknown ids are ignored.
// Components are managed separately and are not touched.
func (s *Store) UpdateEntity(_ context.Context, entity *types.Entity) error {
	if entity == nil || entity.ID == "" {
		return invalidInput("entity id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities.Get(entity.ID); !ok {
		return nil
	}
	s.entities.Set(entity.ID, cloneEntity(entity))
	return nil
}

// DeleteEntity removes the entity with its components and room
// memberships.
func (s *Store) DeleteEntity(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entities.Delete(id); !ok {
		return false, nil
	}
	for _, c := range s.entityComponents[id] {
		delete(s.components, keyOf(c))
	}
	delete(s.entityComponents, id)
	for roomID, members := range s.participants {
		if _, ok := members[id]; ok {
			delete(members, id)
			delete(s.userStates, participantKey{roomID: roomID, entityID: id})
		}
	}
	return true, nil
}

// entityWithComponents must be called with s.mu held.
func (s *Store) entityWithComponents(e *types.Entity) *types.Entity {
	c := cloneEntity(e)
	comps := s.entityComponents[e.ID]
	if len(comps) == 0 {
		return c
	}
	c.Components = make([]*types.Component, len(comps))
	for i, comp := range comps {
		c.Components[i] = cloneComponent(comp)
	}
	return c
}

// --- Components ---

func (s *Store) GetComponent(_ context.Context, entityID, componentType, worldID, sourceEntityID string) (*types.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.components[componentKey{
		entityID:       entityID,
		componentType:  componentType,
		worldID:        worldID,
		sourceEntityID: sourceEntityID,
	}]
	if !ok {
		return nil, nil
	}
	return cloneComponent(c), nil
}

// GetComponents lists the components of entityID. Empty worldID or
// sourceEntityID match any value.
func (s *Store) GetComponents(_ context.Context, entityID, worldID, sourceEntityID string) ([]*types.Component, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*types.Component
	for _, c := range s.entityComponents[entityID] {
		if worldID != "" && c.WorldID != worldID {
			continue
		}
		if sourceEntityID != "" && c.SourceEntityID != sourceEntityID {
			continue
		}
		out = append(out, cloneComponent(c))
	}
	return out, nil
}

// CreateComponent reports false when a component with the same composite
// key exists.
func (s *Store) CreateComponent(_ context.Context, component *types.Component) (bool, error) {
	c, err := prepareComponent(component)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.components[keyOf(c)]; exists {
		return false, nil
	}
	s.putComponent(c)
	component.ID = c.ID
	return true, nil
}

// UpdateComponent upserts. Any stored component with the same id or the
// same composite key is replaced.
func (s *Store) UpdateComponent(_ context.Context, component *types.Component) error {
	c, err := prepareComponent(component)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeComponentWhere(func(old *types.Component) bool {
		return old.ID == c.ID || keyOf(old) == keyOf(c)
	})
	s.putComponent(c)
	return nil
}

func (s *Store) DeleteComponent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeComponentWhere(func(c *types.Component) bool { return c.ID == id })
	return nil
}

func prepareComponent(component *types.Component) (*types.Component, error) {
	if component == nil {
		return nil, invalidInput("component is nil")
	}
	if component.EntityID == "" || component.Type == "" {
		return nil, invalidInput("component entity id and type are required")
	}
	c := cloneComponent(component)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	return c, nil
}

// putComponent writes both component indexes. Caller holds s.mu.
func (s *Store) putComponent(c *types.Component) {
	s.components[keyOf(c)] = c
	s.entityComponents[c.EntityID] = append(s.entityComponents[c.EntityID], c)
}

// removeComponentWhere deletes matching components from both indexes.
// Caller holds s.mu.
func (s *Store) removeComponentWhere(match func(*types.Component) bool) {
	for entityID, list := range s.entityComponents {
		kept := slices.DeleteFunc(list, func(c *types.Component) bool {
			if !match(c) {
				return false
			}
			if cur, ok := s.components[keyOf(c)]; ok && cur == c {
				delete(s.components, keyOf(c))
			}
			return true
		})
		if len(kept) == 0 {
			delete(s.entityComponents, entityID)
		} else {
			s.entityComponents[entityID] = kept
		}
	}
}
