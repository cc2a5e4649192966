// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package memory

import (
	"context"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/sigil-dev/bridge/pkg/types"
)

// CreateRelationship appends a new edge. Repeated calls for the same pair
// create distinct rows.
func (s *Store) CreateRelationship(_ context.Context, params types.RelationshipParams) (bool, error) {
	if params.SourceEntityID == "" || params.TargetEntityID == "" {
		return false, invalidInput("relationship source and target are required")
	}
	rel := &types.Relationship{
		ID:             uuid.NewString(),
		SourceEntityID: params.SourceEntityID,
		TargetEntityID: params.TargetEntityID,
		Tags:           slices.Clone(params.Tags),
		Metadata:       maps.Clone(params.Metadata),
		CreatedAt:      time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.relationships = append(s.relationships, rel)
	return true, nil
}

// UpdateRelationship replaces the row with rel.ID, or appends rel when no
// row has that id.
func (s *Store) UpdateRelationship(_ context.Context, rel *types.Relationship) error {
	if rel == nil || rel.ID == "" {
		return invalidInput("relationship id is required")
	}
	c := cloneRelationship(rel)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := slices.IndexFunc(s.relationships, func(r *types.Relationship) bool { return r.ID == c.ID }); i >= 0 {
		s.relationships[i] = c
		return nil
	}
	s.relationships = append(s.relationships, c)
	return nil
}

// GetRelationship returns the first edge from sourceEntityID to
// targetEntityID in creation order.
func (s *Store) GetRelationship(_ context.Context, sourceEntityID, targetEntityID string) (*types.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.relationships {
		if r.SourceEntityID == sourceEntityID && r.TargetEntityID == targetEntityID {
			return cloneRelationship(r), nil
		}
	}
	return nil, nil
}

func (s *Store) GetRelationships(_ context.Context, entityID string, tags []string) ([]*types.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*types.Relationship{}
	for _, r := range s.relationships {
		if r.SourceEntityID != entityID && r.TargetEntityID != entityID {
			continue
		}
		if len(tags) > 0 && !lo.Some(r.Tags, tags) {
			continue
		}
		out = append(out, cloneRelationship(r))
	}
	return out, nil
}
