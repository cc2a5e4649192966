// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/sigil-dev/bridge/pkg/types"
)

// CreateMemory appends mem to tableName (default "messages") and returns
// its id. Once the table holds more than the configured cap, the oldest
// entries are evicted one for one. Reusing an existing id replaces that
// memory wherever it was stored.
func (s *Store) CreateMemory(_ context.Context, mem *types.Memory, tableName string, unique bool) (string, error) {
	if mem == nil {
		return "", invalidInput("memory is nil")
	}
	m := mem.Clone()
	m.Similarity = 0
	m.Unique = m.Unique || unique
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	table := types.TableOrDefault(tableName)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeMemory(m.ID)
	t := s.table(table)
	t.Set(m.ID, m)
	s.memories[m.ID] = memoryRef{mem: m, table: table}
	for t.Len() > s.cfg.MemoryCap {
		oldest := t.Oldest()
		t.Delete(oldest.Key)
		delete(s.memories, oldest.Key)
	}
	return m.ID, nil
}

// GetMemories returns memories of query.TableName matching every non-zero
// filter, newest first, with Offset and Count applied after sorting.
func (s *Store) GetMemories(_ context.Context, query types.MemoryQuery) ([]*types.Memory, error) {
	if query.Offset < 0 || query.Count < 0 {
		return nil, invalidInput("offset and count must not be negative")
	}
	s.mu.RLock()
	matches := s.collect(types.TableOrDefault(query.TableName), func(m *types.Memory) bool {
		switch {
		case query.EntityID != "" && m.EntityID != query.EntityID:
			return false
		case query.AgentID != "" && m.AgentID != query.AgentID:
			return false
		case query.RoomID != "" && m.RoomID != query.RoomID:
			return false
		case query.WorldID != "" && m.WorldID != query.WorldID:
			return false
		case query.Unique && !m.Unique:
			return false
		case !query.Start.IsZero() && m.CreatedAt.Before(query.Start):
			return false
		case !query.End.IsZero() && m.CreatedAt.After(query.End):
			return false
		}
		return true
	})
	s.mu.RUnlock()

	if query.Offset >= len(matches) {
		return []*types.Memory{}, nil
	}
	matches = matches[query.Offset:]
	if query.Count > 0 && query.Count < len(matches) {
		matches = matches[:query.Count]
	}
	return matches, nil
}

func (s *Store) GetMemoryByID(_ context.Context, id string) (*types.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ref, ok := s.memories[id]
	if !ok {
		return nil, nil
	}
	return ref.mem.Clone(), nil
}

// GetMemoriesByIDs returns the known memories among ids, in ids order. An
// empty tableName matches every table.
func (s *Store) GetMemoriesByIDs(_ context.Context, ids []string, tableName string) ([]*types.Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Memory, 0, len(ids))
	for _, id := range ids {
		ref, ok := s.memories[id]
		if !ok || (tableName != "" && ref.table != tableName) {
			continue
		}
		out = append(out, ref.mem.Clone())
	}
	return out, nil
}

// GetMemoriesByRoomIDs returns memories of any of roomIDs, newest first.
// A non-positive limit returns every match.
func (s *Store) GetMemoriesByRoomIDs(_ context.Context, tableName string, roomIDs []string, limit int) ([]*types.Memory, error) {
	rooms := make(map[string]struct{}, len(roomIDs))
	for _, id := range roomIDs {
		rooms[id] = struct{}{}
	}

	s.mu.RLock()
	matches := s.collect(types.TableOrDefault(tableName), func(m *types.Memory) bool {
		_, ok := rooms[m.RoomID]
		return ok
	})
	s.mu.RUnlock()
	return truncate(matches, limit), nil
}

// GetMemoriesByWorldID returns memories of worldID, newest first. A
// non-positive count returns every match.
func (s *Store) GetMemoriesByWorldID(_ context.Context, worldID string, count int, tableName string) ([]*types.Memory, error) {
	s.mu.RLock()
	matches := s.collect(types.TableOrDefault(tableName), func(m *types.Memory) bool {
		return m.WorldID == worldID
	})
	s.mu.RUnlock()
	return truncate(matches, count), nil
}

// SearchMemories ranks memories of params.TableName by cosine similarity to
// params.Embedding. Candidates without an embedding are skipped. An empty or
// mismatched query embedding scores 0 against every candidate.
func (s *Store) SearchMemories(_ context.Context, params types.SearchParams) ([]*types.Memory, error) {
	threshold := params.Threshold()

	s.mu.RLock()
	var results []*types.Memory
	if t, ok := s.tables[types.TableOrDefault(params.TableName)]; ok {
		for pair := t.Oldest(); pair != nil; pair = pair.Next() {
			m := pair.Value
			if len(m.Embedding) == 0 {
				continue
			}
			if params.RoomID != "" && m.RoomID != params.RoomID {
				continue
			}
			if params.WorldID != "" && m.WorldID != params.WorldID {
				continue
			}
			if params.EntityID != "" && m.EntityID != params.EntityID {
				continue
			}
			if params.Unique && !m.Unique {
				continue
			}
			score := CosineSimilarity(params.Embedding, m.Embedding)
			if score < threshold {
				continue
			}
			c := m.Clone()
			c.Similarity = score
			results = append(results, c)
		}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(results, func(a, b *types.Memory) int {
		return cmp.Compare(b.Similarity, a.Similarity)
	})
	return truncate(results, params.Limit()), nil
}

// UpdateMemory applies the non-nil fields of update. Metadata is merged
// key by key.
func (s *Store) UpdateMemory(_ context.Context, update types.MemoryUpdate) (bool, error) {
	if update.ID == "" {
		return false, invalidInput("memory id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.memories[update.ID]
	if !ok {
		return false, nil
	}
	m := ref.mem.Clone()
	if update.Content != nil {
		m.Content = update.Content.Clone()
	}
	if update.Embedding != nil {
		m.Embedding = slices.Clone(update.Embedding)
	}
	if update.Metadata != nil {
		if m.Metadata == nil {
			m.Metadata = make(map[string]any, len(update.Metadata))
		}
		maps.Copy(m.Metadata, update.Metadata)
	}
	if update.Unique != nil {
		m.Unique = *update.Unique
	}

	// Set on an existing key keeps its insertion position.
	s.tables[ref.table].Set(m.ID, m)
	s.memories[m.ID] = memoryRef{mem: m, table: ref.table}
	return true, nil
}

func (s *Store) DeleteMemory(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.removeMemory(id)
	return nil
}

func (s *Store) DeleteManyMemories(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		s.removeMemory(id)
	}
	return nil
}

// DeleteAllMemories removes every memory of roomID from tableName.
func (s *Store) DeleteAllMemories(_ context.Context, roomID, tableName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tables[types.TableOrDefault(tableName)]
	if !ok {
		return nil
	}
	var doomed []string
	for pair := t.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.RoomID == roomID {
			doomed = append(doomed, pair.Key)
		}
	}
	for _, id := range doomed {
		t.Delete(id)
		delete(s.memories, id)
	}
	return nil
}

// CountMemories counts memories of roomID in tableName. An empty roomID
// counts the whole table; unique restricts the count to unique memories.
func (s *Store) CountMemories(_ context.Context, roomID string, unique bool, tableName string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tables[types.TableOrDefault(tableName)]
	if !ok {
		return 0, nil
	}
	n := 0
	for pair := t.Oldest(); pair != nil; pair = pair.Next() {
		m := pair.Value
		if roomID != "" && m.RoomID != roomID {
			continue
		}
		if unique && !m.Unique {
			continue
		}
		n++
	}
	return n, nil
}

// table returns the named table, creating it. Caller holds s.mu.
func (s *Store) table(name string) *orderedmap.OrderedMap[string, *types.Memory] {
	t, ok := s.tables[name]
	if !ok {
		t = orderedmap.New[string, *types.Memory]()
		s.tables[name] = t
	}
	return t
}

// removeMemory deletes id from its table and the id index. Caller holds
// s.mu.
func (s *Store) removeMemory(id string) {
	ref, ok := s.memories[id]
	if !ok {
		return
	}
	if t, ok := s.tables[ref.table]; ok {
		t.Delete(id)
	}
	delete(s.memories, id)
}

// collect returns clones of the memories in table accepted by keep, newest
// first by CreatedAt. Ties keep the newer insertion first. Caller holds
// s.mu for reading.
func (s *Store) collect(table string, keep func(*types.Memory) bool) []*types.Memory {
	t, ok := s.tables[table]
	if !ok {
		return []*types.Memory{}
	}
	out := make([]*types.Memory, 0)
	for pair := t.Newest(); pair != nil; pair = pair.Prev() {
		if keep(pair.Value) {
			out = append(out, pair.Value.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b *types.Memory) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

func truncate(ms []*types.Memory, n int) []*types.Memory {
	if ms == nil {
		ms = []*types.Memory{}
	}
	if n > 0 && n < len(ms) {
		return ms[:n]
	}
	return ms
}
