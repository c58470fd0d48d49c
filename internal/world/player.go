// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package world

import "time"

// Player is the authoritative persisted player record. The persistence layer
// owns CurrentRoomID; a Room's occupant set is a cache that MovementService
// keeps consistent with it.
type Player struct {
	ID            string
	Name          string
	CurrentRoomID string
	CreatedAt     time.Time
}

// Validate checks that the player has required fields.
func (p *Player) Validate() error {
	if err := ValidateID("id", p.ID); err != nil {
		return err
	}
	if p.Name == "" {
		return &ValidationError{Field: "name", Message: "cannot be empty"}
	}
	return nil
}
