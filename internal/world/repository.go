// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package world

import "context"

// PlayerRepository manages the authoritative player records.
type PlayerRepository interface {
	// Get retrieves a player by id. Returns ErrNotFound if none exists.
	Get(ctx context.Context, id string) (*Player, error)

	// GetByName retrieves a player by exact display name.
	// Returns ErrNotFound if none exists.
	GetByName(ctx context.Context, name string) (*Player, error)

	// Create persists a new player. Returns ErrAlreadyExists on id or name
	// conflicts.
	Create(ctx context.Context, player *Player) error

	// UpdateRoom sets a player's authoritative current room.
	// Returns ErrNotFound if the player does not exist.
	UpdateRoom(ctx context.Context, playerID, roomID string) error

	// ListLocated returns all players with a non-empty current room, used to
	// rebuild occupancy at startup.
	ListLocated(ctx context.Context) ([]*Player, error)
}

// RoomRepository provides room definitions for world construction.
type RoomRepository interface {
	// List returns every room definition.
	List(ctx context.Context) ([]RoomDefinition, error)
}
