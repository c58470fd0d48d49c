// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/vespermud/vesper/internal/realtime"
	"github.com/vespermud/vesper/internal/world"
)

// logDelivery is a development stand-in for the external connection
// registry: it logs every broadcast instruction instead of delivering to
// live sessions. Display names resolve through the player repository.
type logDelivery struct {
	players world.PlayerRepository
}

func newLogDelivery(players world.PlayerRepository) *logDelivery {
	return &logDelivery{players: players}
}

func (d *logDelivery) BroadcastToRoom(_ context.Context, roomID string, msg realtime.Message, excludePlayerID string) error {
	slog.Info("broadcast",
		"room_id", roomID,
		"event_type", msg.EventType,
		"sequence", msg.SequenceNumber,
		"exclude_player_id", excludePlayerID)
	return nil
}

func (d *logDelivery) SubscribeToRoom(_ context.Context, playerID, roomID string) error {
	slog.Debug("subscribe", "player_id", playerID, "room_id", roomID)
	return nil
}

func (d *logDelivery) UnsubscribeFromRoom(_ context.Context, playerID, roomID string) error {
	slog.Debug("unsubscribe", "player_id", playerID, "room_id", roomID)
	return nil
}

func (d *logDelivery) SendPersonalMessage(_ context.Context, playerID string, msg realtime.Message) error {
	slog.Info("personal message", "player_id", playerID, "event_type", msg.EventType)
	return nil
}

func (d *logDelivery) ResolvePlayerDisplayName(ctx context.Context, playerID string) (string, error) {
	player, err := d.players.Get(ctx, playerID)
	if err != nil {
		return "", err
	}
	return player.Name, nil
}
