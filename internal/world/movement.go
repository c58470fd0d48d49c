// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package world

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName identifies movement spans. No exporter is wired here; the
// hosting process installs one if it wants traces.
const tracerName = "github.com/vespermud/vesper/internal/world"

// MovementService orchestrates atomic player transitions between rooms. It
// owns no occupancy data itself: rooms hold the in-memory sets, the player
// repository holds the authoritative current-room field, and the service
// keeps the two consistent under a single process-wide lock.
//
// The lock is deliberately coarse: it serializes every mutation in the
// process, not just operations touching the same rooms. That trades
// throughput for the no-dual-presence guarantee, and the lock is held until
// persistence of the new location completes. Read-only queries never take it.
//
// Failure taxonomy:
//   - *ValidationError: the caller violated the contract (blank id,
//     unresolvable player).
//   - (false, nil): a well-formed call the business rules reject (missing
//     room, missing exit, already present).
//   - error with code MOVE_STORAGE_FAILURE: an unexpected internal failure,
//     always logged with full context and returned, never converted to false.
type MovementService struct {
	world   *World
	players PlayerRepository
	tracer  trace.Tracer

	mu sync.Mutex
}

// NewMovementService creates a movement service over the given world context
// and player repository.
func NewMovementService(w *World, players PlayerRepository) *MovementService {
	return &MovementService{
		world:   w,
		players: players,
		tracer:  otel.Tracer(tracerName),
	}
}

// MovePlayer transitions a player from one room to an adjacent one.
//
// The protocol: validate arguments, resolve the player, take the movement
// lock, check both rooms and the exit graph, repair a diverged source set if
// the persisted record vouches for the player, then remove-add-persist.
// The Left event is always published strictly before the Entered event.
// Validation exists precisely so the mutation phase cannot fail for
// foreseeable reasons; there is no rollback once it starts.
func (s *MovementService) MovePlayer(ctx context.Context, playerID, fromRoomID, toRoomID string) (moved bool, err error) {
	start := time.Now()
	defer func() {
		RecordMovementAttempt(moved, time.Since(start))
	}()

	ctx, span := s.tracer.Start(ctx, "MovementService.MovePlayer",
		trace.WithAttributes(
			attribute.String("player_id", playerID),
			attribute.String("from_room_id", fromRoomID),
			attribute.String("to_room_id", toRoomID),
		))
	defer span.End()

	if err := ValidateID("player_id", playerID); err != nil {
		return false, err
	}
	if err := ValidateID("from_room_id", fromRoomID); err != nil {
		return false, err
	}
	if err := ValidateID("to_room_id", toRoomID); err != nil {
		return false, err
	}
	if fromRoomID == toRoomID {
		return false, nil
	}

	player, err := s.resolvePlayer(ctx, playerID)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	from, ok := s.world.Room(fromRoomID)
	if !ok {
		slog.Debug("move rejected: source room not found",
			"player_id", player.ID, "from_room_id", fromRoomID)
		return false, nil
	}
	to, ok := s.world.Room(toRoomID)
	if !ok {
		slog.Debug("move rejected: destination room not found",
			"player_id", player.ID, "to_room_id", toRoomID)
		return false, nil
	}
	if to.HasPlayer(player.ID) {
		slog.Warn("move rejected: player already at destination",
			"player_id", player.ID, "to_room_id", toRoomID)
		return false, nil
	}
	if !from.HasExitTo(toRoomID) {
		slog.Debug("move rejected: no exit to destination",
			"player_id", player.ID, "from_room_id", fromRoomID, "to_room_id", toRoomID)
		return false, nil
	}

	if !from.HasPlayer(player.ID) {
		// The in-memory set and the persisted record disagree. The record was
		// resolved before the lock, so re-read it here: the repair decision
		// must rest on a value no concurrent move can have outdated. If
		// persistence vouches for the player being here, repair the cache and
		// continue; otherwise the caller's premise is simply wrong.
		current, err := s.players.Get(ctx, player.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				slog.Warn("move rejected: player record gone during move",
					"player_id", player.ID, "from_room_id", fromRoomID)
				return false, nil
			}
			return false, s.storageFailure(err, "reread player record", player.ID, fromRoomID, toRoomID)
		}
		if current.CurrentRoomID != fromRoomID {
			slog.Warn("move rejected: player not in source room",
				"player_id", player.ID,
				"from_room_id", fromRoomID,
				"persisted_room_id", current.CurrentRoomID)
			return false, nil
		}
		if err := s.repairPresence(from, player.ID); err != nil {
			return false, s.storageFailure(err, "repair presence", player.ID, fromRoomID, toRoomID)
		}
	}

	// Mutation phase. Left is published before Entered because the calls are
	// sequential; the bus dispatches each publish to completion in turn.
	if err := from.PlayerLeft(ctx, player.ID); err != nil {
		return false, s.storageFailure(err, "remove from source", player.ID, fromRoomID, toRoomID)
	}
	if err := to.PlayerEntered(ctx, player.ID); err != nil {
		return false, s.storageFailure(err, "add to destination", player.ID, fromRoomID, toRoomID)
	}
	if err := s.players.UpdateRoom(ctx, player.ID, toRoomID); err != nil {
		return false, s.storageFailure(err, "persist new location", player.ID, fromRoomID, toRoomID)
	}

	return true, nil
}

// AddPlayerToRoom places a player directly in a room, bypassing exit
// validation. Used for login, teleports, and bootstrap. Idempotent: returns
// true and no-ops if the player is already present. The persisted
// current-room field is updated.
func (s *MovementService) AddPlayerToRoom(ctx context.Context, playerID, roomID string) (bool, error) {
	if err := ValidateID("player_id", playerID); err != nil {
		return false, err
	}
	if err := ValidateID("room_id", roomID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.world.Room(roomID)
	if !ok {
		slog.Debug("placement rejected: room not found", "player_id", playerID, "room_id", roomID)
		return false, nil
	}
	if room.HasPlayer(playerID) {
		return true, nil
	}
	if err := room.PlayerEntered(ctx, playerID); err != nil {
		return false, s.storageFailure(err, "place player", playerID, "", roomID)
	}
	if err := s.players.UpdateRoom(ctx, playerID, roomID); err != nil {
		return false, s.storageFailure(err, "persist placement", playerID, "", roomID)
	}
	return true, nil
}

// RemovePlayerFromRoom removes a player from a room. Idempotent: returns true
// if the player is already absent. The persisted current-room field is not
// touched; that is the caller's responsibility.
func (s *MovementService) RemovePlayerFromRoom(ctx context.Context, playerID, roomID string) (bool, error) {
	if err := ValidateID("player_id", playerID); err != nil {
		return false, err
	}
	if err := ValidateID("room_id", roomID); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.world.Room(roomID)
	if !ok {
		slog.Debug("removal rejected: room not found", "player_id", playerID, "room_id", roomID)
		return false, nil
	}
	if !room.HasPlayer(playerID) {
		return true, nil
	}
	if err := room.PlayerLeft(ctx, playerID); err != nil {
		return false, s.storageFailure(err, "remove player", playerID, roomID, "")
	}
	return true, nil
}

// PlayerRoom returns the room currently containing the player, scanning
// in-memory occupancy. Read-only; no lock taken.
func (s *MovementService) PlayerRoom(playerID string) (*Room, bool) {
	for _, room := range s.world.Rooms() {
		if room.HasPlayer(playerID) {
			return room, true
		}
	}
	return nil, false
}

// RoomPlayers returns the players in a room, or false if the room is unknown.
// Read-only; no lock taken.
func (s *MovementService) RoomPlayers(roomID string) ([]string, bool) {
	room, ok := s.world.Room(roomID)
	if !ok {
		return nil, false
	}
	return room.Players(), true
}

// ValidatePlayerLocation reports whether a player's in-memory presence agrees
// with the persisted current-room field. Read-only; no lock taken.
func (s *MovementService) ValidatePlayerLocation(ctx context.Context, playerID string) (bool, error) {
	if err := ValidateID("player_id", playerID); err != nil {
		return false, err
	}
	player, err := s.players.Get(ctx, playerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, &ValidationError{Field: "player_id", Message: "player not found"}
		}
		return false, s.storageFailure(err, "validate location", playerID, "", "")
	}
	if player.CurrentRoomID == "" {
		_, present := s.PlayerRoom(playerID)
		return !present, nil
	}
	room, ok := s.world.Room(player.CurrentRoomID)
	if !ok {
		return false, nil
	}
	return room.HasPlayer(playerID), nil
}

// resolvePlayer looks a player up by id, falling back to exact display name
// when the identifier doesn't look opaque. The shape check is a heuristic;
// see LooksLikeOpaqueID.
func (s *MovementService) resolvePlayer(ctx context.Context, id string) (*Player, error) {
	player, err := s.players.Get(ctx, id)
	if err == nil {
		return player, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, s.storageFailure(err, "resolve player", id, "", "")
	}
	if LooksLikeOpaqueID(id) {
		return nil, &ValidationError{Field: "player_id", Message: "player not found"}
	}
	player, err = s.players.GetByName(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &ValidationError{Field: "player_id", Message: "player not found"}
		}
		return nil, s.storageFailure(err, "resolve player by name", id, "", "")
	}
	return player, nil
}

// repairPresence reconciles a room's occupant set with persisted truth by
// silently inserting the player. This is the single sanctioned bypass of the
// event-publishing mutators; each firing is counted so divergence frequency
// stays observable and can be driven toward zero.
func (s *MovementService) repairPresence(room *Room, playerID string) error {
	if err := room.AddPlayerSilently(playerID); err != nil {
		return err
	}
	slog.Warn("repaired diverged room presence from persisted record",
		"player_id", playerID, "room_id", room.ID)
	RecordMovementRepair()
	return nil
}

// storageFailure wraps an unexpected internal error with full movement
// context, logs it, and returns it for the caller to re-raise. These failures
// are never silently converted into a false return.
func (s *MovementService) storageFailure(err error, operation, playerID, fromRoomID, toRoomID string) error {
	wrapped := oops.Code("MOVE_STORAGE_FAILURE").
		With("operation", operation).
		With("player_id", playerID).
		With("from_room_id", fromRoomID).
		With("to_room_id", toRoomID).
		Wrap(err)
	slog.Error("movement storage failure",
		"operation", operation,
		"player_id", playerID,
		"from_room_id", fromRoomID,
		"to_room_id", toRoomID,
		"error", wrapped)
	return wrapped
}
