// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package memory

import "context"

// GetCache returns the value stored under key. Values are returned as
// stored, not copied.
func (s *Store) GetCache(_ context.Context, key string) (any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.cache[key]
	return v, ok, nil
}

func (s *Store) SetCache(_ context.Context, key string, value any) (bool, error) {
	if key == "" {
		return false, invalidInput("cache key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache[key] = value
	return true, nil
}

func (s *Store) DeleteCache(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.cache[key]
	delete(s.cache, key)
	return ok, nil
}
