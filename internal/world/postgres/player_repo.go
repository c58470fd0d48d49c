// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

// Package postgres provides PostgreSQL implementations of the world
// repositories.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/vespermud/vesper/internal/world"
)

// pool is the subset of pgxpool.Pool the repositories use. pgxmock satisfies
// it for unit tests.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PlayerRepository implements world.PlayerRepository using PostgreSQL.
type PlayerRepository struct {
	pool pool
}

// NewPlayerRepository creates a new PostgreSQL player repository.
func NewPlayerRepository(p pool) *PlayerRepository {
	return &PlayerRepository{pool: p}
}

// Get retrieves a player by id.
func (r *PlayerRepository) Get(ctx context.Context, id string) (*world.Player, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, current_room_id, created_at
		FROM players WHERE id = $1
	`, id)
	player, err := scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PLAYER_NOT_FOUND").With("id", id).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PLAYER_GET_FAILED").With("id", id).Wrap(err)
	}
	return player, nil
}

// GetByName retrieves a player by exact display name.
func (r *PlayerRepository) GetByName(ctx context.Context, name string) (*world.Player, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, current_room_id, created_at
		FROM players WHERE name = $1
	`, name)
	player, err := scanPlayer(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("PLAYER_NOT_FOUND").With("name", name).Wrap(world.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("PLAYER_GET_FAILED").With("name", name).Wrap(err)
	}
	return player, nil
}

// Create persists a new player.
// Callers must validate the player before calling this method.
func (r *PlayerRepository) Create(ctx context.Context, player *world.Player) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO players (id, name, current_room_id, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4)
	`, player.ID, player.Name, player.CurrentRoomID, player.CreatedAt)
	if isUniqueViolation(err) {
		return oops.Code("PLAYER_EXISTS").With("id", player.ID).Wrap(world.ErrAlreadyExists)
	}
	if err != nil {
		return oops.Code("PLAYER_CREATE_FAILED").With("id", player.ID).Wrap(err)
	}
	return nil
}

// UpdateRoom sets a player's authoritative current room.
func (r *PlayerRepository) UpdateRoom(ctx context.Context, playerID, roomID string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE players SET current_room_id = NULLIF($2, '') WHERE id = $1
	`, playerID, roomID)
	if err != nil {
		return oops.Code("PLAYER_MOVE_FAILED").With("player_id", playerID).With("room_id", roomID).Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("PLAYER_NOT_FOUND").With("player_id", playerID).Wrap(world.ErrNotFound)
	}
	return nil
}

// ListLocated returns all players with a non-empty current room.
func (r *PlayerRepository) ListLocated(ctx context.Context) ([]*world.Player, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, current_room_id, created_at
		FROM players WHERE current_room_id IS NOT NULL
		ORDER BY id
	`)
	if err != nil {
		return nil, oops.Code("PLAYER_QUERY_FAILED").With("operation", "list located").Wrap(err)
	}
	defer rows.Close()

	var players []*world.Player
	for rows.Next() {
		player, err := scanPlayer(rows)
		if err != nil {
			return nil, oops.Code("PLAYER_SCAN_FAILED").Wrap(err)
		}
		players = append(players, player)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("PLAYER_QUERY_FAILED").With("operation", "list located").Wrap(err)
	}
	return players, nil
}

// scanPlayer hydrates a player from a row, mapping a NULL room to "".
func scanPlayer(row pgx.Row) (*world.Player, error) {
	var p world.Player
	var roomID *string
	if err := row.Scan(&p.ID, &p.Name, &roomID, &p.CreatedAt); err != nil {
		return nil, err
	}
	if roomID != nil {
		p.CurrentRoomID = *roomID
	}
	return &p, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
