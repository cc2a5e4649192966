// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package runtime

import (
	"context"

	"github.com/google/uuid"

	sigilerr "github.com/sigil-dev/bridge/pkg/errors"
	"github.com/sigil-dev/bridge/pkg/types"
)

// The Ensure helpers create a row only when none exists under its id. An
// existing row is never overwritten, even when the caller passes different
// field values.

// EnsureAgentExists returns the stored agent with agent.ID, creating it
// from agent when missing.
func (s *Shim) EnsureAgentExists(ctx context.Context, agent *types.Agent) (*types.Agent, error) {
	if agent == nil || agent.ID == "" {
		return nil, sigilerr.New(sigilerr.CodeRuntimeAgentEnsureFailure, "agent id is required")
	}
	existing, err := s.GetAgent(ctx, agent.ID)
	if err != nil {
		return nil, sigilerr.Wrap(err, sigilerr.CodeRuntimeAgentEnsureFailure, "looking up agent")
	}
	if existing != nil {
		return existing, nil
	}
	if _, err := s.CreateAgent(ctx, agent); err != nil {
		return nil, sigilerr.Wrap(err, sigilerr.CodeRuntimeAgentEnsureFailure, "creating agent")
	}
	return s.GetAgent(ctx, agent.ID)
}

func (s *Shim) EnsureWorldExists(ctx context.Context, world *types.World) error {
	if world == nil || world.ID == "" {
		return sigilerr.New(sigilerr.CodeRuntimeConnectionInvalid, "world id is required")
	}
	existing, err := s.GetWorld(ctx, world.ID)
	if err != nil || existing != nil {
		return err
	}
	if world.AgentID == "" {
		w := *world
		w.AgentID = s.agentID
		world = &w
	}
	_, err = s.CreateWorld(ctx, world)
	return err
}

func (s *Shim) EnsureRoomExists(ctx context.Context, room *types.Room) error {
	if room == nil || room.ID == "" {
		return sigilerr.New(sigilerr.CodeRuntimeConnectionInvalid, "room id is required")
	}
	existing, err := s.GetRoomsByIDs(ctx, []string{room.ID})
	if err != nil || len(existing) > 0 {
		return err
	}
	if room.AgentID == "" {
		r := *room
		r.AgentID = s.agentID
		room = &r
	}
	_, err = s.CreateRooms(ctx, []*types.Room{room})
	return err
}

func (s *Shim) EnsureParticipantInRoom(ctx context.Context, entityID, roomID string) error {
	if entityID == "" || roomID == "" {
		return sigilerr.New(sigilerr.CodeRuntimeConnectionInvalid, "entity and room ids are required")
	}
	member, err := s.IsRoomParticipant(ctx, roomID, entityID)
	if err != nil || member {
		return err
	}
	_, err = s.AddParticipantsRoom(ctx, []string{entityID}, roomID)
	return err
}

// EnsureConnection makes sure the world, room and entity described by
// params exist and that both the entity and the agent are members of the
// room.
func (s *Shim) EnsureConnection(ctx context.Context, params types.ConnectionParams) error {
	if params.EntityID == "" || params.RoomID == "" {
		return sigilerr.New(sigilerr.CodeRuntimeConnectionInvalid, "connection entity and room ids are required")
	}

	worldID := params.WorldID
	if worldID == "" && params.ServerID != "" {
		worldID = uuid.NewSHA1(uuid.NameSpaceURL, []byte("bridge:world:"+s.agentID+":"+params.ServerID)).String()
	}
	if worldID != "" {
		name := params.WorldName
		if name == "" {
			name = params.ServerID
		}
		if err := s.EnsureWorldExists(ctx, &types.World{
			ID:       worldID,
			Name:     name,
			AgentID:  s.agentID,
			ServerID: params.ServerID,
		}); err != nil {
			return err
		}
	}

	roomType := params.Type
	if roomType == "" {
		roomType = types.ChannelTypeUnknown
	}
	if err := s.EnsureRoomExists(ctx, &types.Room{
		ID:        params.RoomID,
		Name:      params.Name,
		AgentID:   s.agentID,
		Source:    params.Source,
		Type:      roomType,
		ChannelID: params.ChannelID,
		ServerID:  params.ServerID,
		WorldID:   worldID,
	}); err != nil {
		return err
	}

	if err := s.ensureEntity(ctx, params); err != nil {
		return err
	}
	if err := s.EnsureParticipantInRoom(ctx, params.EntityID, params.RoomID); err != nil {
		return err
	}
	return s.EnsureParticipantInRoom(ctx, s.agentID, params.RoomID)
}

func (s *Shim) ensureEntity(ctx context.Context, params types.ConnectionParams) error {
	existing, err := s.GetEntitiesByIDs(ctx, []string{params.EntityID})
	if err != nil || len(existing) > 0 {
		return err
	}

	var names []string
	for _, n := range []string{params.Name, params.UserName} {
		if n != "" {
			names = append(names, n)
		}
	}
	metadata := map[string]any{}
	if params.Source != "" {
		source := map[string]any{}
		if params.UserID != "" {
			source["id"] = params.UserID
		}
		if params.UserName != "" {
			source["username"] = params.UserName
		}
		if params.Name != "" {
			source["name"] = params.Name
		}
		metadata[params.Source] = source
	}
	for k, v := range params.Metadata {
		metadata[k] = v
	}
	_, err = s.CreateEntities(ctx, []*types.Entity{{
		ID:       params.EntityID,
		AgentID:  s.agentID,
		Names:    names,
		Metadata: metadata,
	}})
	return err
}

// EnsureConnections ensures world, every room and every entity, then adds
// each entity to every room.
func (s *Shim) EnsureConnections(ctx context.Context, entities []*types.Entity, rooms []*types.Room, source string, world *types.World) error {
	if world != nil {
		if err := s.EnsureWorldExists(ctx, world); err != nil {
			return err
		}
	}
	for _, room := range rooms {
		if room == nil {
			continue
		}
		r := *room
		if r.Source == "" {
			r.Source = source
		}
		if r.WorldID == "" && world != nil {
			r.WorldID = world.ID
		}
		if err := s.EnsureRoomExists(ctx, &r); err != nil {
			return err
		}
	}

	var missing []*types.Entity
	for _, e := range entities {
		if e == nil || e.ID == "" {
			continue
		}
		found, err := s.GetEntitiesByIDs(ctx, []string{e.ID})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			missing = append(missing, e)
		}
	}
	if len(missing) > 0 {
		if _, err := s.CreateEntities(ctx, missing); err != nil {
			return err
		}
	}

	for _, room := range rooms {
		if room == nil {
			continue
		}
		for _, e := range entities {
			if e == nil || e.ID == "" {
				continue
			}
			if err := s.EnsureParticipantInRoom(ctx, e.ID, room.ID); err != nil {
				return err
			}
		}
	}
	return nil
}
