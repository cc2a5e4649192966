// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package memory

import (
	"context"
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/sigil-dev/bridge/pkg/types"
)

// --- Worlds ---

// CreateWorld stores world and returns its id. An existing world with the
// same id is kept as is.
func (s *Store) CreateWorld(_ context.Context, world *types.World) (string, error) {
	if world == nil {
		return "", invalidInput("world is nil")
	}
	w := cloneWorld(world)
	if w.ID == "" {
		w.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.worlds.Get(w.ID); !exists {
		s.worlds.Set(w.ID, w)
	}
	return w.ID, nil
}

func (s *Store) GetWorld(_ context.Context, id string) (*types.World, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.worlds.Get(id)
	if !ok {
		return nil, nil
	}
	return cloneWorld(w), nil
}

func (s *Store) GetAllWorlds(_ context.Context) ([]*types.World, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.World, 0, s.worlds.Len())
	for pair := s.worlds.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, cloneWorld(pair.Value))
	}
	return out, nil
}

func (s *Store) UpdateWorld(_ context.Context, world *types.World) error {
	if world == nil || world.ID == "" {
		return invalidInput("world id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.worlds.Get(world.ID); ok {
		s.worlds.Set(world.ID, cloneWorld(world))
	}
	return nil
}

// RemoveWorld deletes the world row only; its rooms are left in place.
func (s *Store) RemoveWorld(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.worlds.Delete(id)
	return nil
}

// --- Rooms ---

// CreateRooms stores rooms and returns their ids in input order. Rooms
// whose id already exists are left unchanged.
func (s *Store) CreateRooms(_ context.Context, rooms []*types.Room) ([]string, error) {
	staged := make([]*types.Room, 0, len(rooms))
	for i, r := range rooms {
		if r == nil {
			return nil, invalidInput("rooms[%d] is nil", i)
		}
		c := cloneRoom(r)
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		staged = append(staged, c)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, len(staged))
	for i, r := range staged {
		if _, exists := s.rooms.Get(r.ID); !exists {
			s.rooms.Set(r.ID, r)
		}
		ids[i] = r.ID
	}
	return ids, nil
}

func (s *Store) GetRoomsByIDs(_ context.Context, ids []string) ([]*types.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*types.Room, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.rooms.Get(id); ok {
			out = append(out, cloneRoom(r))
		}
	}
	return out, nil
}

func (s *Store) GetRoomsByWorld(_ context.Context, worldID string) ([]*types.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []*types.Room{}
	for pair := s.rooms.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.WorldID == worldID {
			out = append(out, cloneRoom(pair.Value))
		}
	}
	return out, nil
}

func (s *Store) UpdateRoom(_ context.Context, room *types.Room) error {
	if room == nil || room.ID == "" {
		return invalidInput("room id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rooms.Get(room.ID); ok {
		s.rooms.Set(room.ID, cloneRoom(room))
	}
	return nil
}

func (s *Store) DeleteRoom(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dropRoom(id)
	return nil
}

func (s *Store) DeleteRoomsByWorldID(_ context.Context, worldID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doomed []string
	for pair := s.rooms.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.WorldID == worldID {
			doomed = append(doomed, pair.Key)
		}
	}
	for _, id := range doomed {
		s.dropRoom(id)
	}
	return nil
}

// dropRoom deletes the room row with its participant set. Caller holds
// s.mu.
func (s *Store) dropRoom(id string) {
	s.rooms.Delete(id)
	for entityID := range s.participants[id] {
		delete(s.userStates, participantKey{roomID: id, entityID: entityID})
	}
	delete(s.participants, id)
}

// --- Participants ---

// AddParticipantsRoom adds entityIDs to roomID. Adding an existing member
// is a no-op.
func (s *Store) AddParticipantsRoom(_ context.Context, entityIDs []string, roomID string) (bool, error) {
	if roomID == "" {
		return false, invalidInput("room id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.participants[roomID]
	if !ok {
		members = make(map[string]struct{}, len(entityIDs))
		s.participants[roomID] = members
	}
	for _, id := range entityIDs {
		members[id] = struct{}{}
	}
	return true, nil
}

func (s *Store) RemoveParticipant(_ context.Context, entityID, roomID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.participants[roomID]
	if !ok {
		return false, nil
	}
	if _, ok := members[entityID]; !ok {
		return false, nil
	}
	delete(members, entityID)
	delete(s.userStates, participantKey{roomID: roomID, entityID: entityID})
	return true, nil
}

// GetParticipantsForEntity lists the rooms entityID belongs to, sorted by
// room id.
func (s *Store) GetParticipantsForEntity(_ context.Context, entityID string) ([]types.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []types.Participant{}
	for _, roomID := range s.roomsOf(entityID) {
		out = append(out, types.Participant{
			EntityID:  entityID,
			RoomID:    roomID,
			UserState: s.userStates[participantKey{roomID: roomID, entityID: entityID}],
		})
	}
	return out, nil
}

func (s *Store) GetParticipantsForRoom(_ context.Context, roomID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return sortedKeys(s.participants[roomID]), nil
}

func (s *Store) GetRoomsForParticipant(_ context.Context, entityID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.roomsOf(entityID), nil
}

// GetRoomsForParticipants returns the sorted union of rooms any of
// entityIDs belongs to.
func (s *Store) GetRoomsForParticipants(_ context.Context, entityIDs []string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rooms []string
	for _, id := range entityIDs {
		rooms = append(rooms, s.roomsOf(id)...)
	}
	rooms = lo.Uniq(rooms)
	slices.Sort(rooms)
	return rooms, nil
}

func (s *Store) IsRoomParticipant(_ context.Context, roomID, entityID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.participants[roomID][entityID]
	return ok, nil
}

func (s *Store) GetParticipantUserState(_ context.Context, roomID, entityID string) (types.ParticipantState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.userStates[participantKey{roomID: roomID, entityID: entityID}], nil
}

// SetParticipantUserState records state for a member of roomID. It is a
// no-op for non-members; ParticipantStateNone clears the state.
func (s *Store) SetParticipantUserState(_ context.Context, roomID, entityID string, state types.ParticipantState) error {
	switch state {
	case types.ParticipantStateNone, types.ParticipantStateFollowed, types.ParticipantStateMuted:
	default:
		return invalidInput("unknown participant state %q", state)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.participants[roomID][entityID]; !ok {
		return nil
	}
	key := participantKey{roomID: roomID, entityID: entityID}
	if state == types.ParticipantStateNone {
		delete(s.userStates, key)
	} else {
		s.userStates[key] = state
	}
	return nil
}

// roomsOf returns the sorted rooms entityID belongs to. Caller holds s.mu.
func (s *Store) roomsOf(entityID string) []string {
	rooms := []string{}
	for roomID, members := range s.participants {
		if _, ok := members[entityID]; ok {
			rooms = append(rooms, roomID)
		}
	}
	slices.Sort(rooms)
	return rooms
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
