// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package world

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/samber/oops"

	"github.com/vespermud/vesper/internal/events"
)

// World is the process-wide world context: the room registry and the event
// bus rooms publish on. It guarantees exactly one Room instance per room id;
// divergent instances of the same room are outside what the movement protocol
// can repair. Construct it once and inject it wherever room access is needed;
// there is no package-level world state.
type World struct {
	bus *events.Bus

	mu    sync.RWMutex
	rooms map[string]*Room
}

// NewWorld creates an empty world bound to the given event bus.
func NewWorld(bus *events.Bus) *World {
	return &World{
		bus:   bus,
		rooms: make(map[string]*Room),
	}
}

// AddRoom constructs and registers a room from its definition.
// Returns ErrDuplicateRoom if the id is already registered.
func (w *World) AddRoom(def RoomDefinition) (*Room, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.rooms[def.ID]; ok {
		return nil, oops.Code("ROOM_DUPLICATE").With("room_id", def.ID).Wrap(ErrDuplicateRoom)
	}
	room := NewRoom(def, w.bus)
	w.rooms[def.ID] = room
	return room, nil
}

// Room returns the registered room for an id.
func (w *World) Room(id string) (*Room, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	room, ok := w.rooms[id]
	return room, ok
}

// Rooms returns all registered rooms, sorted by id.
func (w *World) Rooms() []*Room {
	w.mu.RLock()
	defer w.mu.RUnlock()
	rooms := make([]*Room, 0, len(w.rooms))
	for _, room := range w.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

// Load registers every definition in defs. Definitions are added in order;
// the first failure aborts the load.
func (w *World) Load(defs []RoomDefinition) error {
	for _, def := range defs {
		if _, err := w.AddRoom(def); err != nil {
			return oops.With("room_id", def.ID).Wrap(err)
		}
	}
	return nil
}

// PlacePlayer puts a player into a room using the silent mutator, so no
// entry is announced. It backs occupancy bootstrap and any host-driven
// placement that must not ripple into the realtime layer. Returns
// ErrNotFound (wrapped) when the room is not registered.
func (w *World) PlacePlayer(playerID, roomID string) error {
	room, ok := w.Room(roomID)
	if !ok {
		return oops.Code("ROOM_NOT_FOUND").
			With("room_id", roomID).
			Wrap(ErrNotFound)
	}
	return room.AddPlayerSilently(playerID)
}

// Bootstrap rebuilds room occupancy from persisted player rows via
// PlacePlayer: initial placement must not announce entries. Players whose
// persisted room is unknown are logged and skipped, not fatal; the world
// data may have changed underneath them.
func (w *World) Bootstrap(ctx context.Context, players PlayerRepository) error {
	located, err := players.ListLocated(ctx)
	if err != nil {
		return oops.Code("BOOTSTRAP_FAILED").With("operation", "list located players").Wrap(err)
	}
	for _, p := range located {
		if err := w.PlacePlayer(p.ID, p.CurrentRoomID); err != nil {
			if errors.Is(err, ErrNotFound) {
				slog.Warn("player persisted in unknown room, skipping placement",
					"player_id", p.ID, "room_id", p.CurrentRoomID)
				continue
			}
			return oops.Code("BOOTSTRAP_FAILED").
				With("player_id", p.ID).
				With("room_id", p.CurrentRoomID).
				Wrap(err)
		}
	}
	return nil
}
