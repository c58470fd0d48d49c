// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

// Package events provides the in-process event bus connecting world mutations
// to notification consumers.
package events

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// Type identifies the kind of domain event. The set is closed: every
// subscriber switch over Type can be checked for exhaustiveness.
type Type string

const (
	TypePlayerEntered Type = "player_entered_room"
	TypePlayerLeft    Type = "player_left_room"
	TypeObjectAdded   Type = "object_added"
	TypeObjectRemoved Type = "object_removed"
	TypeNPCEntered    Type = "npc_entered"
	TypeNPCLeft       Type = "npc_left"
)

// String returns the string representation of the event type.
func (t Type) String() string {
	return string(t)
}

// Event describes a completed occupancy mutation. Events are immutable value
// records: created by a Room at the moment of mutation, consumed by zero or
// more subscribers, and discarded after dispatch.
type Event struct {
	ID     ulid.ULID
	Type   Type
	RoomID string

	// EntityID is the player, object, or NPC the event is about.
	EntityID string

	// ActorID attributes an object mutation to the player who performed it.
	// Empty for events without attribution.
	ActorID string

	// CounterpartRoomID carries the other room of a cross-room NPC
	// transition: the origin for TypeNPCEntered, the destination for
	// TypeNPCLeft. Empty for single-room events.
	CounterpartRoomID string

	Timestamp time.Time
}

// NewPlayerEntered creates a player entry event for a room.
func NewPlayerEntered(roomID, playerID string) Event {
	return newEvent(TypePlayerEntered, roomID, playerID)
}

// NewPlayerLeft creates a player departure event for a room.
func NewPlayerLeft(roomID, playerID string) Event {
	return newEvent(TypePlayerLeft, roomID, playerID)
}

// NewObjectAdded creates an object addition event. actorID may be empty when
// the addition has no player attribution.
func NewObjectAdded(roomID, objectID, actorID string) Event {
	e := newEvent(TypeObjectAdded, roomID, objectID)
	e.ActorID = actorID
	return e
}

// NewObjectRemoved creates an object removal event. actorID may be empty.
func NewObjectRemoved(roomID, objectID, actorID string) Event {
	e := newEvent(TypeObjectRemoved, roomID, objectID)
	e.ActorID = actorID
	return e
}

// NewNPCEntered creates an NPC entry event. fromRoomID may be empty for
// spawns that have no origin room.
func NewNPCEntered(roomID, npcID, fromRoomID string) Event {
	e := newEvent(TypeNPCEntered, roomID, npcID)
	e.CounterpartRoomID = fromRoomID
	return e
}

// NewNPCLeft creates an NPC departure event. toRoomID may be empty for
// despawns that have no destination room.
func NewNPCLeft(roomID, npcID, toRoomID string) Event {
	e := newEvent(TypeNPCLeft, roomID, npcID)
	e.CounterpartRoomID = toRoomID
	return e
}

func newEvent(t Type, roomID, entityID string) Event {
	return Event{
		ID:        NewULID(),
		Type:      t,
		RoomID:    roomID,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}
