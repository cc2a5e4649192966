// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package types

import (
	"maps"
	"slices"
	"time"
)

// Well-known memory tables. Any string names a valid table; tables are
// independent namespaces.
const (
	TableMessages  = "messages"
	TableFacts     = "facts"
	TableDocuments = "documents"
	TableKnowledge = "knowledge"
)

// Content is the payload of a memory.
type Content struct {
	Text      string         `json:"text,omitempty"`
	Thought   string         `json:"thought,omitempty"`
	Actions   []string       `json:"actions,omitempty"`
	Providers []string       `json:"providers,omitempty"`
	Source    string         `json:"source,omitempty"`
	InReplyTo string         `json:"inReplyTo,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
}

// Memory is a stored message, fact or document fragment.
type Memory struct {
	ID        string
	EntityID  string
	AgentID   string
	RoomID    string
	WorldID   string
	Content   Content
	Embedding []float32
	CreatedAt time.Time
	Unique    bool
	// Similarity is set on memories returned by a similarity search.
	Similarity float64
	Metadata   map[string]any
}

// Clone returns a copy of m that shares no slices or maps with it.
func (m *Memory) Clone() *Memory {
	if m == nil {
		return nil
	}
	c := *m
	c.Embedding = slices.Clone(m.Embedding)
	c.Metadata = maps.Clone(m.Metadata)
	c.Content = m.Content.Clone()
	return &c
}

// Clone returns a copy of c with its own slices and data map.
func (c Content) Clone() Content {
	c.Actions = slices.Clone(c.Actions)
	c.Providers = slices.Clone(c.Providers)
	c.Data = maps.Clone(c.Data)
	return c
}

// MemoryUpdate carries the fields to change on a memory. Nil fields are
// left untouched.
type MemoryUpdate struct {
	ID        string
	Content   *Content
	Embedding []float32
	Metadata  map[string]any
	Unique    *bool
}

// MemoryQuery filters memories of one table. Results are sorted newest
// first; Offset then Count are applied after sorting. Zero Start/End leave
// that side of the range open; both bounds are inclusive.
type MemoryQuery struct {
	TableName string
	EntityID  string
	AgentID   string
	RoomID    string
	WorldID   string
	Unique    bool
	Start     time.Time
	End       time.Time
	Count     int
	Offset    int
}

// DefaultMatchThreshold and DefaultMatchCount apply to SearchParams when the
// caller leaves them unset.
const (
	DefaultMatchThreshold = 0.5
	DefaultMatchCount     = 10
)

// SearchParams configures a similarity search over one table.
type SearchParams struct {
	TableName string
	Embedding []float32
	// MatchThreshold is the minimum similarity; nil means
	// DefaultMatchThreshold.
	MatchThreshold *float64
	Count          int
	RoomID         string
	WorldID        string
	EntityID       string
	Unique         bool
}

// Threshold returns the effective match threshold.
func (p SearchParams) Threshold() float64 {
	if p.MatchThreshold == nil {
		return DefaultMatchThreshold
	}
	return *p.MatchThreshold
}

// Limit returns the effective result count.
func (p SearchParams) Limit() int {
	if p.Count <= 0 {
		return DefaultMatchCount
	}
	return p.Count
}

// TableOrDefault returns table, or TableMessages when table is empty.
func TableOrDefault(table string) string {
	if table == "" {
		return TableMessages
	}
	return table
}
