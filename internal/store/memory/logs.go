// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package memory

import (
	"context"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/sigil-dev/bridge/pkg/types"
)

// Log appends an entry. Once the log holds more than the configured cap,
// the oldest entries are evicted regardless of type.
func (s *Store) Log(_ context.Context, params types.LogParams) error {
	if params.Type == "" {
		return invalidInput("log type is required")
	}
	entry := &types.Log{
		ID:        uuid.NewString(),
		EntityID:  params.EntityID,
		RoomID:    params.RoomID,
		Type:      params.Type,
		Body:      maps.Clone(params.Body),
		CreatedAt: time.Now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs.Set(entry.ID, entry)
	for s.logs.Len() > s.cfg.LogCap {
		s.logs.Delete(s.logs.Oldest().Key)
	}
	return nil
}

// GetLogs returns matching entries newest first.
func (s *Store) GetLogs(_ context.Context, query types.LogQuery) ([]*types.Log, error) {
	if query.Offset < 0 || query.Count < 0 {
		return nil, invalidInput("offset and count must not be negative")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*types.Log{}
	skipped := 0
	for pair := s.logs.Newest(); pair != nil; pair = pair.Prev() {
		l := pair.Value
		if query.EntityID != "" && l.EntityID != query.EntityID {
			continue
		}
		if query.RoomID != "" && l.RoomID != query.RoomID {
			continue
		}
		if query.Type != "" && l.Type != query.Type {
			continue
		}
		if skipped < query.Offset {
			skipped++
			continue
		}
		out = append(out, cloneLog(l))
		if query.Count > 0 && len(out) == query.Count {
			break
		}
	}
	return out, nil
}

func (s *Store) DeleteLog(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs.Delete(id)
	return nil
}
