// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package types holds the data model shared by the runtime, the data store
// and plugin code: agents, entities, rooms, worlds, memories and the
// per-turn composed state.
package types

import "time"

// --- Agent types ---

// Character is the configured persona the runtime acts as.
type Character struct {
	ID       string         `yaml:"id,omitempty" json:"id,omitempty"`
	Name     string         `yaml:"name" json:"name"`
	Username string         `yaml:"username,omitempty" json:"username,omitempty"`
	System   string         `yaml:"system,omitempty" json:"system,omitempty"`
	Bio      []string       `yaml:"bio,omitempty" json:"bio,omitempty"`
	Topics   []string       `yaml:"topics,omitempty" json:"topics,omitempty"`
	Plugins  []string       `yaml:"plugins,omitempty" json:"plugins,omitempty"`
	Settings map[string]any `yaml:"settings,omitempty" json:"settings,omitempty"`
	Secrets  map[string]any `yaml:"secrets,omitempty" json:"-"`
}

// Agent is the persisted row describing an agent.
type Agent struct {
	ID        string
	Name      string
	Username  string
	System    string
	Bio       []string
	Plugins   []string
	Settings  map[string]any
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AgentUpdate carries the fields to change on an agent. Nil fields are left
// untouched; Settings is merged key by key.
type AgentUpdate struct {
	Name     *string
	Username *string
	System   *string
	Bio      []string
	Plugins  []string
	Settings map[string]any
	Enabled  *bool
}

// --- Entity graph types ---

// Entity is any participant the agent knows about: users, other agents,
// or the agent itself.
type Entity struct {
	ID         string
	AgentID    string
	Names      []string
	Metadata   map[string]any
	Components []*Component
}

// ChannelType classifies a room.
type ChannelType string

const (
	ChannelTypeSelf    ChannelType = "SELF"
	ChannelTypeDM      ChannelType = "DM"
	ChannelTypeGroup   ChannelType = "GROUP"
	ChannelTypeAPI     ChannelType = "API"
	ChannelTypeFeed    ChannelType = "FEED"
	ChannelTypeThread  ChannelType = "THREAD"
	ChannelTypeWorld   ChannelType = "WORLD"
	ChannelTypeUnknown ChannelType = "UNKNOWN"
)

// Room is a conversation space. WorldID is optional.
type Room struct {
	ID        string
	Name      string
	AgentID   string
	Source    string
	Type      ChannelType
	ChannelID string
	ServerID  string
	WorldID   string
	Metadata  map[string]any
}

// World groups rooms, typically one per server or workspace.
type World struct {
	ID       string
	Name     string
	AgentID  string
	ServerID string
	Metadata map[string]any
}

// Component is typed data attached to an entity. It is unique per
// (EntityID, Type, WorldID, SourceEntityID).
type Component struct {
	ID             string
	EntityID       string
	AgentID        string
	RoomID         string
	WorldID        string
	SourceEntityID string
	Type           string
	Data           map[string]any
	CreatedAt      time.Time
}

// ParticipantState is the per-room follow/mute preference of a participant.
type ParticipantState string

const (
	ParticipantStateNone     ParticipantState = ""
	ParticipantStateFollowed ParticipantState = "FOLLOWED"
	ParticipantStateMuted    ParticipantState = "MUTED"
)

// Participant is an entity's membership in a room.
type Participant struct {
	EntityID  string
	RoomID    string
	UserState ParticipantState
}

// Relationship is a directed edge between two entities.
type Relationship struct {
	ID             string
	SourceEntityID string
	TargetEntityID string
	AgentID        string
	Tags           []string
	Metadata       map[string]any
	CreatedAt      time.Time
}

// RelationshipParams describes a relationship to create.
type RelationshipParams struct {
	SourceEntityID string
	TargetEntityID string
	Tags           []string
	Metadata       map[string]any
}

// --- Task and log types ---

// Task is a free-standing unit of scheduled or pending work.
type Task struct {
	ID          string
	Name        string
	Description string
	RoomID      string
	WorldID     string
	EntityID    string
	Tags        []string
	Metadata    map[string]any
	UpdatedAt   time.Time
}

// TaskUpdate carries the fields to change on a task. Nil fields are left
// untouched.
type TaskUpdate struct {
	Name        *string
	Description *string
	Tags        []string
	Metadata    map[string]any
}

// TaskQuery filters tasks. Every tag in Tags must be present on a match.
type TaskQuery struct {
	RoomID   string
	EntityID string
	Tags     []string
}

// Log is an append-only audit record.
type Log struct {
	ID        string
	EntityID  string
	RoomID    string
	Type      string
	Body      map[string]any
	CreatedAt time.Time
}

// LogParams describes a log entry to append.
type LogParams struct {
	EntityID string
	RoomID   string
	Type     string
	Body     map[string]any
}

// LogQuery filters logs. Results are newest first.
type LogQuery struct {
	EntityID string
	RoomID   string
	Type     string
	Count    int
	Offset   int
}

// ConnectionParams describes an entity seen in a room, used to lazily
// create the world, room, entity and membership rows.
type ConnectionParams struct {
	EntityID  string
	RoomID    string
	WorldID   string
	WorldName string
	UserName  string
	Name      string
	Source    string
	Type      ChannelType
	ChannelID string
	ServerID  string
	UserID    string
	Metadata  map[string]any
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
