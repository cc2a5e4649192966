// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package plugin

import (
	"context"

	"github.com/sigil-dev/bridge/pkg/types"
)

// Database is the data-access surface of the runtime. Lookups of unknown
// ids return nil (or an empty slice) with a nil error; updates of unknown
// records report false. Errors are reserved for invalid input and backend
// failures.
type Database interface {
	Init(ctx context.Context) error
	IsReady(ctx context.Context) bool
	// Close drops every collection at once.
	Close() error
	EnsureEmbeddingDimension(ctx context.Context, dimension int) error
	EmbeddingDimension() int

	AgentStore
	EntityStore
	ComponentStore
	MemoryStore
	LogStore
	WorldStore
	RoomStore
	ParticipantStore
	RelationshipStore
	CacheStore
	TaskStore
}

// AgentStore manages agent rows.
type AgentStore interface {
	GetAgent(ctx context.Context, id string) (*types.Agent, error)
	GetAgents(ctx context.Context) ([]*types.Agent, error)
	CreateAgent(ctx context.Context, agent *types.Agent) (bool, error)
	UpdateAgent(ctx context.Context, id string, update types.AgentUpdate) (bool, error)
	DeleteAgent(ctx context.Context, id string) (bool, error)
}

// EntityStore manages entities.
type EntityStore interface {
	GetEntitiesByIDs(ctx context.Context, ids []string) ([]*types.Entity, error)
	GetEntitiesForRoom(ctx context.Context, roomID string, includeComponents bool) ([]*types.Entity, error)
	CreateEntities(ctx context.Context, entities []*types.Entity) (bool, error)
	UpdateEntity(ctx context.Context, entity *types.Entity) error
	DeleteEntity(ctx context.Context, id string) (bool, error)
}

// ComponentStore manages entity components.
type ComponentStore interface {
	GetComponent(ctx context.Context, entityID, componentType, worldID, sourceEntityID string) (*types.Component, error)
	GetComponents(ctx context.Context, entityID, worldID, sourceEntityID string) ([]*types.Component, error)
	CreateComponent(ctx context.Context, component *types.Component) (bool, error)
	// UpdateComponent inserts the component when it does not exist.
	UpdateComponent(ctx context.Context, component *types.Component) error
	DeleteComponent(ctx context.Context, id string) error
}

// MemoryStore manages memories partitioned into named tables.
type MemoryStore interface {
	CreateMemory(ctx context.Context, mem *types.Memory, tableName string, unique bool) (string, error)
	GetMemories(ctx context.Context, query types.MemoryQuery) ([]*types.Memory, error)
	GetMemoryByID(ctx context.Context, id string) (*types.Memory, error)
	GetMemoriesByIDs(ctx context.Context, ids []string, tableName string) ([]*types.Memory, error)
	GetMemoriesByRoomIDs(ctx context.Context, tableName string, roomIDs []string, limit int) ([]*types.Memory, error)
	GetMemoriesByWorldID(ctx context.Context, worldID string, count int, tableName string) ([]*types.Memory, error)
	SearchMemories(ctx context.Context, params types.SearchParams) ([]*types.Memory, error)
	UpdateMemory(ctx context.Context, update types.MemoryUpdate) (bool, error)
	DeleteMemory(ctx context.Context, id string) error
	DeleteManyMemories(ctx context.Context, ids []string) error
	DeleteAllMemories(ctx context.Context, roomID, tableName string) error
	CountMemories(ctx context.Context, roomID string, unique bool, tableName string) (int, error)
}

// LogStore manages the append-only log.
type LogStore interface {
	Log(ctx context.Context, params types.LogParams) error
	GetLogs(ctx context.Context, query types.LogQuery) ([]*types.Log, error)
	DeleteLog(ctx context.Context, id string) error
}

// WorldStore manages worlds.
type WorldStore interface {
	CreateWorld(ctx context.Context, world *types.World) (string, error)
	GetWorld(ctx context.Context, id string) (*types.World, error)
	GetAllWorlds(ctx context.Context) ([]*types.World, error)
	UpdateWorld(ctx context.Context, world *types.World) error
	RemoveWorld(ctx context.Context, id string) error
}

// RoomStore manages rooms.
type RoomStore interface {
	CreateRooms(ctx context.Context, rooms []*types.Room) ([]string, error)
	GetRoomsByIDs(ctx context.Context, ids []string) ([]*types.Room, error)
	GetRoomsByWorld(ctx context.Context, worldID string) ([]*types.Room, error)
	UpdateRoom(ctx context.Context, room *types.Room) error
	// DeleteRoom also drops the room's participant set.
	DeleteRoom(ctx context.Context, id string) error
	DeleteRoomsByWorldID(ctx context.Context, worldID string) error
}

// ParticipantStore manages room membership.
type ParticipantStore interface {
	AddParticipantsRoom(ctx context.Context, entityIDs []string, roomID string) (bool, error)
	RemoveParticipant(ctx context.Context, entityID, roomID string) (bool, error)
	GetParticipantsForEntity(ctx context.Context, entityID string) ([]types.Participant, error)
	GetParticipantsForRoom(ctx context.Context, roomID string) ([]string, error)
	GetRoomsForParticipant(ctx context.Context, entityID string) ([]string, error)
	GetRoomsForParticipants(ctx context.Context, entityIDs []string) ([]string, error)
	IsRoomParticipant(ctx context.Context, roomID, entityID string) (bool, error)
	GetParticipantUserState(ctx context.Context, roomID, entityID string) (types.ParticipantState, error)
	SetParticipantUserState(ctx context.Context, roomID, entityID string, state types.ParticipantState) error
}

// RelationshipStore manages directed entity relationships.
type RelationshipStore interface {
	CreateRelationship(ctx context.Context, params types.RelationshipParams) (bool, error)
	// UpdateRelationship inserts the relationship when its id is unknown.
	UpdateRelationship(ctx context.Context, rel *types.Relationship) error
	GetRelationship(ctx context.Context, sourceEntityID, targetEntityID string) (*types.Relationship, error)
	// GetRelationships matches entityID as source or target; a non-empty
	// tags filter requires at least one shared tag.
	GetRelationships(ctx context.Context, entityID string, tags []string) ([]*types.Relationship, error)
}

// CacheStore is a last-write-wins key/value cache.
type CacheStore interface {
	GetCache(ctx context.Context, key string) (any, bool, error)
	SetCache(ctx context.Context, key string, value any) (bool, error)
	DeleteCache(ctx context.Context, key string) (bool, error)
}

// TaskStore manages tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task *types.Task) (string, error)
	GetTask(ctx context.Context, id string) (*types.Task, error)
	GetTasks(ctx context.Context, query types.TaskQuery) ([]*types.Task, error)
	GetTasksByName(ctx context.Context, name string) ([]*types.Task, error)
	UpdateTask(ctx context.Context, id string, update types.TaskUpdate) (bool, error)
	DeleteTask(ctx context.Context, id string) error
}
