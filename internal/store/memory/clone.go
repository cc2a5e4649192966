// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package memory

import (
	"maps"
	"slices"

	"github.com/sigil-dev/bridge/pkg/types"
)

// Records are copied on the way in and on the way out so callers never
// hold a pointer into a live collection. Map values are copied shallowly.

func cloneAgent(a *types.Agent) *types.Agent {
	c := *a
	c.Bio = slices.Clone(a.Bio)
	c.Plugins = slices.Clone(a.Plugins)
	c.Settings = maps.Clone(a.Settings)
	return &c
}

func cloneEntity(e *types.Entity) *types.Entity {
	c := *e
	c.Names = slices.Clone(e.Names)
	c.Metadata = maps.Clone(e.Metadata)
	c.Components = nil
	return &c
}

func cloneComponent(comp *types.Component) *types.Component {
	c := *comp
	c.Data = maps.Clone(comp.Data)
	return &c
}

func cloneRoom(r *types.Room) *types.Room {
	c := *r
	c.Metadata = maps.Clone(r.Metadata)
	return &c
}

func cloneWorld(w *types.World) *types.World {
	c := *w
	c.Metadata = maps.Clone(w.Metadata)
	return &c
}

func cloneTask(t *types.Task) *types.Task {
	c := *t
	c.Tags = slices.Clone(t.Tags)
	c.Metadata = maps.Clone(t.Metadata)
	return &c
}

func cloneRelationship(r *types.Relationship) *types.Relationship {
	c := *r
	c.Tags = slices.Clone(r.Tags)
	c.Metadata = maps.Clone(r.Metadata)
	return &c
}

func cloneLog(l *types.Log) *types.Log {
	c := *l
	c.Body = maps.Clone(l.Body)
	return &c
}
