// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

// Package world contains the world model: rooms, occupancy, and the movement
// protocol that keeps them consistent with persisted player state.
package world

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/lo"

	"github.com/vespermud/vesper/internal/events"
)

// Container is a static storage fixture in a room (a chest, an altar).
// Containers are part of the room definition and never mutate at runtime.
type Container struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// Room is the in-memory aggregate of a room's static definition plus its live
// occupant sets. Occupant sets must be mutated only through Room methods; the
// single sanctioned exception is MovementService's presence repair, which uses
// the silent mutators. A Room never guarantees global uniqueness of an
// occupant across rooms; that is MovementService's job.
type Room struct {
	ID          string
	Name        string
	Description string
	Plane       string
	Zone        string
	SubZone     string
	Environment string
	Containers  []Container

	exits map[string]string
	bus   *events.Bus

	mu      sync.RWMutex
	players map[string]struct{}
	objects map[string]struct{}
	npcs    map[string]struct{}
}

// NewRoom constructs a Room from its definition. Exit directions with a null
// target are unlinked and omitted from the exit graph.
func NewRoom(def RoomDefinition, bus *events.Bus) *Room {
	exits := make(map[string]string, len(def.Exits))
	for direction, target := range def.Exits {
		if target == nil || *target == "" {
			continue
		}
		exits[direction] = *target
	}
	return &Room{
		ID:          def.ID,
		Name:        def.Name,
		Description: def.Description,
		Plane:       def.Plane,
		Zone:        def.Zone,
		SubZone:     def.SubZone,
		Environment: def.Environment,
		Containers:  def.Containers,
		exits:       exits,
		bus:         bus,
		players:     make(map[string]struct{}),
		objects:     make(map[string]struct{}),
		npcs:        make(map[string]struct{}),
	}
}

// PlayerEntered adds a player to the room and publishes TypePlayerEntered.
// Re-adding a present player is a warned no-op. The set mutation is visible
// before the event is published.
func (r *Room) PlayerEntered(ctx context.Context, playerID string) error {
	if err := ValidateID("player_id", playerID); err != nil {
		return err
	}
	if !r.add(r.players, playerID) {
		slog.Warn("player already in room", "room_id", r.ID, "player_id", playerID)
		return nil
	}
	r.bus.Publish(ctx, events.NewPlayerEntered(r.ID, playerID))
	return nil
}

// PlayerLeft removes a player from the room and publishes TypePlayerLeft.
// Removing an absent player is a warned no-op.
func (r *Room) PlayerLeft(ctx context.Context, playerID string) error {
	if err := ValidateID("player_id", playerID); err != nil {
		return err
	}
	if !r.remove(r.players, playerID) {
		slog.Warn("player not in room", "room_id", r.ID, "player_id", playerID)
		return nil
	}
	r.bus.Publish(ctx, events.NewPlayerLeft(r.ID, playerID))
	return nil
}

// ObjectAdded adds an object to the room and publishes TypeObjectAdded.
// actorID optionally attributes the addition to a player.
func (r *Room) ObjectAdded(ctx context.Context, objectID, actorID string) error {
	if err := ValidateID("object_id", objectID); err != nil {
		return err
	}
	if !r.add(r.objects, objectID) {
		slog.Warn("object already in room", "room_id", r.ID, "object_id", objectID)
		return nil
	}
	r.bus.Publish(ctx, events.NewObjectAdded(r.ID, objectID, actorID))
	return nil
}

// ObjectRemoved removes an object from the room and publishes
// TypeObjectRemoved. actorID optionally attributes the removal to a player.
func (r *Room) ObjectRemoved(ctx context.Context, objectID, actorID string) error {
	if err := ValidateID("object_id", objectID); err != nil {
		return err
	}
	if !r.remove(r.objects, objectID) {
		slog.Warn("object not in room", "room_id", r.ID, "object_id", objectID)
		return nil
	}
	r.bus.Publish(ctx, events.NewObjectRemoved(r.ID, objectID, actorID))
	return nil
}

// NPCEntered adds an NPC to the room and publishes TypeNPCEntered. fromRoomID
// carries the origin room of a cross-room transition and may be empty.
func (r *Room) NPCEntered(ctx context.Context, npcID, fromRoomID string) error {
	if err := ValidateID("npc_id", npcID); err != nil {
		return err
	}
	if !r.add(r.npcs, npcID) {
		slog.Warn("npc already in room", "room_id", r.ID, "npc_id", npcID)
		return nil
	}
	r.bus.Publish(ctx, events.NewNPCEntered(r.ID, npcID, fromRoomID))
	return nil
}

// NPCLeft removes an NPC from the room and publishes TypeNPCLeft. toRoomID
// carries the destination room of a cross-room transition and may be empty.
func (r *Room) NPCLeft(ctx context.Context, npcID, toRoomID string) error {
	if err := ValidateID("npc_id", npcID); err != nil {
		return err
	}
	if !r.remove(r.npcs, npcID) {
		slog.Warn("npc not in room", "room_id", r.ID, "npc_id", npcID)
		return nil
	}
	r.bus.Publish(ctx, events.NewNPCLeft(r.ID, npcID, toRoomID))
	return nil
}

// AddPlayerSilently inserts a player without publishing an event. Reserved
// for initial placement and presence repair.
func (r *Room) AddPlayerSilently(playerID string) error {
	if err := ValidateID("player_id", playerID); err != nil {
		return err
	}
	r.add(r.players, playerID)
	return nil
}

// RemovePlayerSilently removes a player without publishing an event. Reserved
// for initial placement and presence repair.
func (r *Room) RemovePlayerSilently(playerID string) error {
	if err := ValidateID("player_id", playerID); err != nil {
		return err
	}
	r.remove(r.players, playerID)
	return nil
}

// Players returns a sorted point-in-time snapshot of player ids in the room.
func (r *Room) Players() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.players)
}

// Objects returns a sorted point-in-time snapshot of object ids in the room.
func (r *Room) Objects() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.objects)
}

// NPCs returns a sorted point-in-time snapshot of NPC ids in the room.
func (r *Room) NPCs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return sortedKeys(r.npcs)
}

// HasPlayer reports whether the player is currently in the room.
func (r *Room) HasPlayer(playerID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.players[playerID]
	return ok
}

// HasObject reports whether the object is currently in the room.
func (r *Room) HasObject(objectID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.objects[objectID]
	return ok
}

// HasNPC reports whether the NPC is currently in the room.
func (r *Room) HasNPC(npcID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.npcs[npcID]
	return ok
}

// OccupantCount returns the total number of players, objects, and NPCs.
func (r *Room) OccupantCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players) + len(r.objects) + len(r.npcs)
}

// IsEmpty reports whether the room has no occupants of any kind.
func (r *Room) IsEmpty() bool {
	return r.OccupantCount() == 0
}

// HasExitTo reports whether any direction in the exit graph leads to the
// given room. The direction name is irrelevant; only the edge matters.
func (r *Room) HasExitTo(roomID string) bool {
	for _, target := range r.exits {
		if target == roomID {
			return true
		}
	}
	return false
}

// Exits returns a copy of the exit graph (direction to room id).
func (r *Room) Exits() map[string]string {
	out := make(map[string]string, len(r.exits))
	for direction, target := range r.exits {
		out[direction] = target
	}
	return out
}

// Snapshot serializes the room's static fields plus its current occupants for
// API and snapshot use.
func (r *Room) Snapshot() map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]any{
		"id":          r.ID,
		"name":        r.Name,
		"description": r.Description,
		"plane":       r.Plane,
		"zone":        r.Zone,
		"sub_zone":    r.SubZone,
		"environment": r.Environment,
		"exits":       r.Exits(),
		"containers":  r.Containers,
		"players":     sortedKeys(r.players),
		"objects":     sortedKeys(r.objects),
		"npcs":        sortedKeys(r.npcs),
	}
}

// add inserts id into set, reporting whether it was newly added.
func (r *Room) add(set map[string]struct{}, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := set[id]; ok {
		return false
	}
	set[id] = struct{}{}
	return true
}

// remove deletes id from set, reporting whether it was present.
func (r *Room) remove(set map[string]struct{}, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := set[id]; !ok {
		return false
	}
	delete(set, id)
	return true
}

func sortedKeys(set map[string]struct{}) []string {
	keys := lo.Keys(set)
	sort.Strings(keys)
	return keys
}
