// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package memory implements the in-process data store: table-oriented
// collections with size-bounded eviction and cosine-similarity search.
// Nothing survives the process.
package memory

import (
	"context"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/sigil-dev/bridge/internal/store"
	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/types"
)

func init() {
	store.RegisterBackend(store.DefaultBackend, func(cfg store.Config) (store.Store, error) {
		return New(cfg), nil
	})
}

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

type componentKey struct {
	entityID       string
	componentType  string
	worldID        string
	sourceEntityID string
}

func keyOf(c *types.Component) componentKey {
	return componentKey{
		entityID:       c.EntityID,
		componentType:  c.Type,
		worldID:        c.WorldID,
		sourceEntityID: c.SourceEntityID,
	}
}

type participantKey struct {
	roomID   string
	entityID string
}

type memoryRef struct {
	mem   *types.Memory
	table string
}

// Store implements store.Store in memory. A single lock guards every
// collection; no method calls out while holding it.
type Store struct {
	mu        sync.RWMutex
	cfg       store.Config
	dimension int
	ready     bool

	agents   *orderedmap.OrderedMap[string, *types.Agent]
	entities *orderedmap.OrderedMap[string, *types.Entity]
	rooms    *orderedmap.OrderedMap[string, *types.Room]
	worlds   *orderedmap.OrderedMap[string, *types.World]
	tasks    *orderedmap.OrderedMap[string, *types.Task]

	// Components are indexed twice: by composite key for point lookups and
	// per entity for scans. Every write updates both.
	components       map[componentKey]*types.Component
	entityComponents map[string][]*types.Component

	// Memories live in per-table insertion-ordered maps plus a global id
	// index. Every write updates both.
	tables   map[string]*orderedmap.OrderedMap[string, *types.Memory]
	memories map[string]memoryRef

	participants map[string]map[string]struct{}
	userStates   map[participantKey]types.ParticipantState

	relationships []*types.Relationship
	logs          *orderedmap.OrderedMap[string, *types.Log]
	cache         map[string]any
}

// New returns an empty store configured by cfg.
func New(cfg store.Config) *Store {
	cfg = cfg.WithDefaults()
	s := &Store{cfg: cfg, dimension: cfg.EmbeddingDimension}
	s.reset()
	return s
}

func (s *Store) reset() {
	s.agents = orderedmap.New[string, *types.Agent]()
	s.entities = orderedmap.New[string, *types.Entity]()
	s.rooms = orderedmap.New[string, *types.Room]()
	s.worlds = orderedmap.New[string, *types.World]()
	s.tasks = orderedmap.New[string, *types.Task]()
	s.components = make(map[componentKey]*types.Component)
	s.entityComponents = make(map[string][]*types.Component)
	s.tables = make(map[string]*orderedmap.OrderedMap[string, *types.Memory])
	s.memories = make(map[string]memoryRef)
	s.participants = make(map[string]map[string]struct{})
	s.userStates = make(map[participantKey]types.ParticipantState)
	s.relationships = nil
	s.logs = orderedmap.New[string, *types.Log]()
	s.cache = make(map[string]any)
}

// Init marks the store ready.
func (s *Store) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = true
	return nil
}

// IsReady reports whether Init has run since the last Close.
func (s *Store) IsReady(_ context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Close clears every collection under one lock acquisition.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reset()
	s.ready = false
	return nil
}

// EnsureEmbeddingDimension sets the embedding dimension. Stored vectors are
// not checked against it.
func (s *Store) EnsureEmbeddingDimension(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return sigilerr.Errorf(sigilerr.CodeStoreInvalidInput, "embedding dimension must be positive, got %d", dimension)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dimension = dimension
	return nil
}

// EmbeddingDimension returns the configured embedding dimension.
func (s *Store) EmbeddingDimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dimension
}

// Stats reports collection sizes.
type Stats struct {
	Agents        int
	Entities      int
	Rooms         int
	Worlds        int
	Tasks         int
	Memories      int
	Tables        map[string]int
	Relationships int
	Logs          int
	CacheEntries  int
}

// Stats returns a snapshot of collection sizes.
func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tables := make(map[string]int, len(s.tables))
	for name, t := range s.tables {
		tables[name] = t.Len()
	}
	return Stats{
		Agents:        s.agents.Len(),
		Entities:      s.entities.Len(),
		Rooms:         s.rooms.Len(),
		Worlds:        s.worlds.Len(),
		Tasks:         s.tasks.Len(),
		Memories:      len(s.memories),
		Tables:        tables,
		Relationships: len(s.relationships),
		Logs:          s.logs.Len(),
		CacheEntries:  len(s.cache),
	}
}

func invalidInput(format string, args ...any) error {
	return sigilerr.Errorf(sigilerr.CodeStoreInvalidInput, format, args...)
}
