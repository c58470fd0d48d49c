// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package world_test

import (
	"context"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vespermud/vesper/internal/events"
	"github.com/vespermud/vesper/internal/world"
	"github.com/vespermud/vesper/pkg/errutil"
)

func TestWorld_AddRoom(t *testing.T) {
	w := world.NewWorld(events.NewBus())

	room, err := w.AddRoom(world.RoomDefinition{ID: "crypt", Name: "Crypt"})
	require.NoError(t, err)
	assert.Equal(t, "crypt", room.ID)

	got, ok := w.Room("crypt")
	require.True(t, ok)
	assert.Same(t, room, got)

	_, ok = w.Room("ossuary")
	assert.False(t, ok)
}

func TestWorld_AddRoomRejectsDuplicates(t *testing.T) {
	w := world.NewWorld(events.NewBus())
	_, err := w.AddRoom(world.RoomDefinition{ID: "crypt", Name: "Crypt"})
	require.NoError(t, err)

	_, err = w.AddRoom(world.RoomDefinition{ID: "crypt", Name: "Another Crypt"})
	require.ErrorIs(t, err, world.ErrDuplicateRoom)
	errutil.AssertErrorCode(t, err, "ROOM_DUPLICATE")
}

func TestWorld_AddRoomValidatesDefinition(t *testing.T) {
	w := world.NewWorld(events.NewBus())
	_, err := w.AddRoom(world.RoomDefinition{Name: "No ID"})
	var verr *world.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestWorld_RoomsSortedByID(t *testing.T) {
	w := world.NewWorld(events.NewBus())
	require.NoError(t, w.Load([]world.RoomDefinition{
		{ID: "ossuary", Name: "Ossuary"},
		{ID: "crypt", Name: "Crypt", Exits: map[string]*string{"east": lo.ToPtr("ossuary")}},
	}))

	rooms := w.Rooms()
	require.Len(t, rooms, 2)
	assert.Equal(t, "crypt", rooms[0].ID)
	assert.Equal(t, "ossuary", rooms[1].ID)
}

func TestWorld_LoadAbortsOnFirstFailure(t *testing.T) {
	w := world.NewWorld(events.NewBus())
	err := w.Load([]world.RoomDefinition{
		{ID: "crypt", Name: "Crypt"},
		{ID: "crypt", Name: "Duplicate"},
		{ID: "ossuary", Name: "Ossuary"},
	})
	require.ErrorIs(t, err, world.ErrDuplicateRoom)

	_, ok := w.Room("ossuary")
	assert.False(t, ok)
}

func TestWorld_PlacePlayer(t *testing.T) {
	bus := events.NewBus()
	w := world.NewWorld(bus)
	require.NoError(t, w.Load([]world.RoomDefinition{{ID: "crypt", Name: "Crypt"}}))

	var published int
	bus.Subscribe(events.TypePlayerEntered, func(_ context.Context, _ events.Event) error {
		published++
		return nil
	})

	require.NoError(t, w.PlacePlayer("p1", "crypt"))
	crypt, _ := w.Room("crypt")
	assert.True(t, crypt.HasPlayer("p1"))
	assert.Zero(t, published, "placement must not announce an entry")

	err := w.PlacePlayer("p1", "catacombs")
	require.ErrorIs(t, err, world.ErrNotFound)
	errutil.AssertErrorCode(t, err, "ROOM_NOT_FOUND")

	var verr *world.ValidationError
	assert.ErrorAs(t, w.PlacePlayer("", "crypt"), &verr)
}

func TestWorld_BootstrapPlacesSilently(t *testing.T) {
	bus := events.NewBus()
	w := world.NewWorld(bus)
	require.NoError(t, w.Load([]world.RoomDefinition{
		{ID: "crypt", Name: "Crypt"},
		{ID: "ossuary", Name: "Ossuary"},
	}))

	var published int
	bus.Subscribe(events.TypePlayerEntered, func(_ context.Context, _ events.Event) error {
		published++
		return nil
	})

	repo := newFakePlayerRepo(
		&world.Player{ID: "p1", Name: "Gandalf", CurrentRoomID: "crypt"},
		&world.Player{ID: "p2", Name: "Mera", CurrentRoomID: "ossuary"},
		&world.Player{ID: "p3", Name: "Drifter", CurrentRoomID: "catacombs"},
		&world.Player{ID: "p4", Name: "Lobbyist"},
	)

	require.NoError(t, w.Bootstrap(context.Background(), repo))

	crypt, _ := w.Room("crypt")
	ossuary, _ := w.Room("ossuary")
	assert.True(t, crypt.HasPlayer("p1"))
	assert.True(t, ossuary.HasPlayer("p2"))
	assert.Zero(t, published, "bootstrap placement must not announce entries")

	// The player persisted in an unknown room is skipped, not fatal.
	assert.False(t, crypt.HasPlayer("p3"))
	assert.False(t, ossuary.HasPlayer("p3"))
}
