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

// CreateTask stores task and returns its id. An existing task with the
// same id is kept as is.
func (s *Store) CreateTask(_ context.Context, task *types.Task) (string, error) {
	if task == nil {
		return "", invalidInput("task is nil")
	}
	if task.Name == "" {
		return "", invalidInput("task name is required")
	}
	t := cloneTask(task)
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.UpdatedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tasks.Get(t.ID); !exists {
		s.tasks.Set(t.ID, t)
	}
	return t.ID, nil
}

func (s *Store) GetTask(_ context.Context, id string) (*types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks.Get(id)
	if !ok {
		return nil, nil
	}
	return cloneTask(t), nil
}

// GetTasks returns tasks in creation order matching every non-empty filter.
// Every tag in query.Tags must be present on a match.
func (s *Store) GetTasks(_ context.Context, query types.TaskQuery) ([]*types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*types.Task{}
	for pair := s.tasks.Oldest(); pair != nil; pair = pair.Next() {
		t := pair.Value
		if query.RoomID != "" && t.RoomID != query.RoomID {
			continue
		}
		if query.EntityID != "" && t.EntityID != query.EntityID {
			continue
		}
		if !lo.Every(t.Tags, query.Tags) {
			continue
		}
		out = append(out, cloneTask(t))
	}
	return out, nil
}

func (s *Store) GetTasksByName(_ context.Context, name string) ([]*types.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*types.Task{}
	for pair := s.tasks.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Name == name {
			out = append(out, cloneTask(pair.Value))
		}
	}
	return out, nil
}

// UpdateTask applies the non-nil fields of update. Metadata is merged key
// by key.
func (s *Store) UpdateTask(_ context.Context, id string, update types.TaskUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.tasks.Get(id)
	if !ok {
		return false, nil
	}
	t := cloneTask(cur)
	if update.Name != nil {
		t.Name = *update.Name
	}
	if update.Description != nil {
		t.Description = *update.Description
	}
	if update.Tags != nil {
		t.Tags = slices.Clone(update.Tags)
	}
	if update.Metadata != nil {
		if t.Metadata == nil {
			t.Metadata = make(map[string]any, len(update.Metadata))
		}
		maps.Copy(t.Metadata, update.Metadata)
	}
	t.UpdatedAt = time.Now()
	s.tasks.Set(id, t)
	return true, nil
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tasks.Delete(id)
	return nil
}
