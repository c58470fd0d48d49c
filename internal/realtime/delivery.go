// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

// Package realtime translates domain events into ordered, exclusion-aware
// wire messages for the delivery layer.
package realtime

import "context"

// Delivery is the external connection-registry boundary the translator calls
// into. Implementations fan messages out to live sessions; a single recipient
// failure must not block delivery to the rest. Mute and visibility rules are
// the implementation's concern; the translator always emits the same message
// regardless of who is muted.
type Delivery interface {
	// BroadcastToRoom delivers a message to every live subscriber of the
	// room except excludePlayerID (no exclusion when empty).
	BroadcastToRoom(ctx context.Context, roomID string, msg Message, excludePlayerID string) error

	// SubscribeToRoom registers a player's live connection as a recipient of
	// the room's broadcasts. Distinct from the room's logical occupancy.
	SubscribeToRoom(ctx context.Context, playerID, roomID string) error

	// UnsubscribeFromRoom removes a player's live connection from the room's
	// broadcast list.
	UnsubscribeFromRoom(ctx context.Context, playerID, roomID string) error

	// SendPersonalMessage unicasts a message to one player.
	SendPersonalMessage(ctx context.Context, playerID string, msg Message) error

	// ResolvePlayerDisplayName returns the display name for a player id.
	ResolvePlayerDisplayName(ctx context.Context, playerID string) (string, error)
}
