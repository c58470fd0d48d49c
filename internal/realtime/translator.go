// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package realtime

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/samber/oops"

	"github.com/vespermud/vesper/internal/events"
	"github.com/vespermud/vesper/internal/world"
)

// Translator subscribes to room presence events and turns them into ordered
// broadcast instructions for the delivery layer. Handlers run asynchronously,
// off the movement lock; every failure is logged here and never propagates
// back into the event bus dispatch loop.
type Translator struct {
	delivery Delivery
	world    *world.World
	logger   *slog.Logger
	seq      atomic.Int64
}

// NewTranslator creates a translator and subscribes it to the bus's player
// presence events.
func NewTranslator(bus *events.Bus, w *world.World, delivery Delivery) *Translator {
	t := &Translator{
		delivery: delivery,
		world:    w,
		logger:   slog.Default(),
	}
	bus.SubscribeAsync(events.TypePlayerEntered, t.handlePlayerEntered)
	bus.SubscribeAsync(events.TypePlayerLeft, t.handlePlayerLeft)
	return t
}

// handlePlayerEntered announces an entry to everyone already in the room,
// registers the entering connection as a room subscriber, then refreshes the
// room's occupant view. The handler returns nil unconditionally: errors are
// a dead end here, logged only.
func (t *Translator) handlePlayerEntered(ctx context.Context, e events.Event) error {
	name, ok := t.resolveName(ctx, e)
	if !ok {
		return nil
	}

	msg := t.nextMessage(MessagePlayerEntered, e, PresencePayload{
		PlayerID:   e.EntityID,
		PlayerName: name,
		Message:    fmt.Sprintf("%s enters the room.", name),
	})
	if err := t.delivery.BroadcastToRoom(ctx, e.RoomID, msg, e.EntityID); err != nil {
		t.logFailure("broadcast entry", e, err)
	} else {
		RecordBroadcast(MessagePlayerEntered)
	}

	if err := t.delivery.SubscribeToRoom(ctx, e.EntityID, e.RoomID); err != nil {
		t.logFailure("subscribe connection", e, err)
	}

	t.broadcastOccupants(ctx, e)
	return nil
}

// handlePlayerLeft unsubscribes the leaving connection, announces the exit to
// everyone still in the room, then refreshes the room's occupant view.
func (t *Translator) handlePlayerLeft(ctx context.Context, e events.Event) error {
	if err := t.delivery.UnsubscribeFromRoom(ctx, e.EntityID, e.RoomID); err != nil {
		t.logFailure("unsubscribe connection", e, err)
	}

	name, ok := t.resolveName(ctx, e)
	if !ok {
		return nil
	}

	msg := t.nextMessage(MessagePlayerLeft, e, PresencePayload{
		PlayerID:   e.EntityID,
		PlayerName: name,
		Message:    fmt.Sprintf("%s leaves the room.", name),
	})
	if err := t.delivery.BroadcastToRoom(ctx, e.RoomID, msg, e.EntityID); err != nil {
		t.logFailure("broadcast exit", e, err)
	} else {
		RecordBroadcast(MessagePlayerLeft)
	}

	t.broadcastOccupants(ctx, e)
	return nil
}

// SendPersonalMessage wraps a host system notice in a sequenced wire envelope
// and unicasts it to a single player. Unlike the event handlers, this is a
// direct call from the host, so delivery failures are returned to the caller
// as well as logged.
func (t *Translator) SendPersonalMessage(ctx context.Context, playerID, notice string) error {
	msg := Message{
		EventType:      MessageSystemNotice,
		Timestamp:      wireTimestamp(time.Now()),
		SequenceNumber: t.seq.Add(1),
		Data:           NoticePayload{Message: notice},
	}
	if err := t.delivery.SendPersonalMessage(ctx, playerID, msg); err != nil {
		t.logger.Error("translator delivery failure",
			"operation", "send personal message",
			"player_id", playerID,
			"error", err)
		return oops.Code("NOTICE_DELIVERY_FAILED").
			With("player_id", playerID).
			Wrap(err)
	}
	RecordBroadcast(MessageSystemNotice)
	return nil
}

// broadcastOccupants sends a freshly computed occupant list for the event's
// room, so every client's view is rebuilt from authoritative state. Always
// the second broadcast of a transition, after the presence announcement.
func (t *Translator) broadcastOccupants(ctx context.Context, e events.Event) {
	room, ok := t.world.Room(e.RoomID)
	if !ok {
		t.logFailure("occupants refresh", e, world.ErrNotFound)
		return
	}
	players := room.Players()
	msg := Message{
		EventType:      MessageRoomOccupants,
		Timestamp:      wireTimestamp(time.Now()),
		SequenceNumber: t.seq.Add(1),
		RoomID:         e.RoomID,
		Data: OccupantsPayload{
			Players: players,
			Count:   len(players),
		},
	}
	if err := t.delivery.BroadcastToRoom(ctx, e.RoomID, msg, ""); err != nil {
		t.logFailure("broadcast occupants", e, err)
		return
	}
	RecordBroadcast(MessageRoomOccupants)
}

// resolveName resolves the event subject's display name. A resolution failure
// aborts this message (logged, handler moves on); it must never abort
// delivery of later events of the same type.
func (t *Translator) resolveName(ctx context.Context, e events.Event) (string, bool) {
	name, err := t.delivery.ResolvePlayerDisplayName(ctx, e.EntityID)
	if err != nil {
		t.logFailure("resolve display name", e, err)
		return "", false
	}
	return name, true
}

func (t *Translator) nextMessage(mt MessageType, e events.Event, data any) Message {
	return Message{
		EventType:      mt,
		Timestamp:      wireTimestamp(e.Timestamp),
		SequenceNumber: t.seq.Add(1),
		RoomID:         e.RoomID,
		Data:           data,
	}
}

func (t *Translator) logFailure(operation string, e events.Event, err error) {
	t.logger.Error("translator delivery failure",
		"operation", operation,
		"event_type", e.Type,
		"event_id", e.ID.String(),
		"room_id", e.RoomID,
		"player_id", e.EntityID,
		"error", err)
	RecordTranslatorFailure(e.Type)
}
