// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package realtime

import "time"

// MessageType identifies the kind of wire message.
type MessageType string

const (
	MessagePlayerEntered MessageType = "player_entered"
	MessagePlayerLeft    MessageType = "player_left"
	MessageRoomOccupants MessageType = "room_occupants"
	MessageSystemNotice  MessageType = "system_notice"
)

// Message is the wire envelope delivered to clients. SequenceNumber increases
// monotonically per translator instance so clients can detect gaps or
// reordering; Timestamp is RFC 3339 UTC.
type Message struct {
	EventType      MessageType `json:"eventType"`
	Timestamp      string      `json:"timestamp"`
	SequenceNumber int64       `json:"sequenceNumber"`
	RoomID         string      `json:"roomId"`
	Data           any         `json:"data"`
}

// PresencePayload is the data body of player_entered and player_left
// messages.
type PresencePayload struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Message    string `json:"message"`
}

// OccupantsPayload is the data body of room_occupants messages: the full
// occupant view recomputed from authoritative state, so clients never drift
// on incremental deltas.
type OccupantsPayload struct {
	Players []string `json:"players"`
	Count   int      `json:"count"`
}

// NoticePayload is the data body of system_notice messages.
type NoticePayload struct {
	Message string `json:"message"`
}

// wireTimestamp formats an event time for the wire.
func wireTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
