// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package postgres

import (
	"context"
	"encoding/json"

	"github.com/samber/oops"

	"github.com/vespermud/vesper/internal/world"
)

// RoomRepository implements world.RoomRepository using PostgreSQL. Room rows
// store the exit graph and containers as JSONB.
type RoomRepository struct {
	pool pool
}

// NewRoomRepository creates a new PostgreSQL room repository.
func NewRoomRepository(p pool) *RoomRepository {
	return &RoomRepository{pool: p}
}

// List returns every room definition, ordered by id.
func (r *RoomRepository) List(ctx context.Context) ([]world.RoomDefinition, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, plane, zone, subzone, environment, exits, containers
		FROM rooms ORDER BY id
	`)
	if err != nil {
		return nil, oops.Code("ROOM_QUERY_FAILED").With("operation", "list rooms").Wrap(err)
	}
	defer rows.Close()

	var defs []world.RoomDefinition
	for rows.Next() {
		var def world.RoomDefinition
		var exitsJSON, containersJSON []byte
		if err := rows.Scan(&def.ID, &def.Name, &def.Description, &def.Plane,
			&def.Zone, &def.SubZone, &def.Environment, &exitsJSON, &containersJSON); err != nil {
			return nil, oops.Code("ROOM_SCAN_FAILED").Wrap(err)
		}
		if len(exitsJSON) > 0 {
			if err := json.Unmarshal(exitsJSON, &def.Exits); err != nil {
				return nil, oops.Code("ROOM_SCAN_FAILED").With("room_id", def.ID).With("field", "exits").Wrap(err)
			}
		}
		if len(containersJSON) > 0 {
			if err := json.Unmarshal(containersJSON, &def.Containers); err != nil {
				return nil, oops.Code("ROOM_SCAN_FAILED").With("room_id", def.ID).With("field", "containers").Wrap(err)
			}
		}
		defs = append(defs, def)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("ROOM_QUERY_FAILED").With("operation", "list rooms").Wrap(err)
	}
	return defs, nil
}
