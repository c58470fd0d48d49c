// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

//go:build integration

package world_test

import (
	"context"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/samber/lo"

	"github.com/vespermud/vesper/internal/events"
	"github.com/vespermud/vesper/internal/realtime"
	"github.com/vespermud/vesper/internal/world"
)

func TestWorld(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "World Sync Integration Suite")
}

// testEnv wires the full in-process pipeline: world + movement service
// publishing to a started bus, with the translator pushing into a recording
// delivery layer.
type testEnv struct {
	bus      *events.Bus
	world    *world.World
	players  *memoryPlayerRepo
	movement *world.MovementService
	delivery *recordingDelivery
	cancel   context.CancelFunc
}

func newTestEnv(defs []world.RoomDefinition, players ...*world.Player) (*testEnv, error) {
	bus := events.NewBus()
	w := world.NewWorld(bus)
	if err := w.Load(defs); err != nil {
		return nil, err
	}

	repo := newMemoryPlayerRepo(players...)
	if err := w.Bootstrap(context.Background(), repo); err != nil {
		return nil, err
	}

	delivery := newRecordingDelivery(repo)
	realtime.NewTranslator(bus, w, delivery)

	ctx, cancel := context.WithCancel(context.Background())
	if err := bus.Start(ctx); err != nil {
		cancel()
		return nil, err
	}

	return &testEnv{
		bus:      bus,
		world:    w,
		players:  repo,
		movement: world.NewMovementService(w, repo),
		delivery: delivery,
		cancel:   cancel,
	}, nil
}

func (e *testEnv) cleanup() {
	e.cancel()
	<-e.bus.Done()
}

func twoRoomDefs() []world.RoomDefinition {
	return []world.RoomDefinition{
		{ID: "crypt", Name: "Crypt", Exits: map[string]*string{"east": lo.ToPtr("ossuary")}},
		{ID: "ossuary", Name: "Ossuary", Exits: map[string]*string{"west": lo.ToPtr("crypt")}},
	}
}

// memoryPlayerRepo is an in-memory world.PlayerRepository.
type memoryPlayerRepo struct {
	mu   sync.Mutex
	byID map[string]*world.Player
}

func newMemoryPlayerRepo(players ...*world.Player) *memoryPlayerRepo {
	repo := &memoryPlayerRepo{byID: make(map[string]*world.Player)}
	for _, p := range players {
		clone := *p
		repo.byID[p.ID] = &clone
	}
	return repo
}

func (m *memoryPlayerRepo) Get(_ context.Context, id string) (*world.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, world.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *memoryPlayerRepo) GetByName(_ context.Context, name string) (*world.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.Name == name {
			clone := *p
			return &clone, nil
		}
	}
	return nil, world.ErrNotFound
}

func (m *memoryPlayerRepo) Create(_ context.Context, player *world.Player) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[player.ID]; ok {
		return world.ErrAlreadyExists
	}
	clone := *player
	m.byID[player.ID] = &clone
	return nil
}

func (m *memoryPlayerRepo) UpdateRoom(_ context.Context, playerID, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[playerID]
	if !ok {
		return world.ErrNotFound
	}
	p.CurrentRoomID = roomID
	return nil
}

func (m *memoryPlayerRepo) ListLocated(_ context.Context) ([]*world.Player, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var located []*world.Player
	for _, p := range m.byID {
		if p.CurrentRoomID != "" {
			clone := *p
			located = append(located, &clone)
		}
	}
	return located, nil
}

func (m *memoryPlayerRepo) currentRoom(playerID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.byID[playerID]; ok {
		return p.CurrentRoomID
	}
	return ""
}

// recordingDelivery captures broadcast instructions for assertions. Display
// names resolve through the player repository, as in the real delivery layer.
type recordingDelivery struct {
	players *memoryPlayerRepo

	mu         sync.Mutex
	broadcasts []broadcast
	subs       map[string]string
}

type broadcast struct {
	roomID  string
	exclude string
	msg     realtime.Message
}

func newRecordingDelivery(players *memoryPlayerRepo) *recordingDelivery {
	return &recordingDelivery{players: players, subs: make(map[string]string)}
}

func (d *recordingDelivery) BroadcastToRoom(_ context.Context, roomID string, msg realtime.Message, excludePlayerID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.broadcasts = append(d.broadcasts, broadcast{roomID: roomID, exclude: excludePlayerID, msg: msg})
	return nil
}

func (d *recordingDelivery) SubscribeToRoom(_ context.Context, playerID, roomID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subs[playerID] = roomID
	return nil
}

func (d *recordingDelivery) UnsubscribeFromRoom(_ context.Context, playerID, roomID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.subs[playerID] == roomID {
		delete(d.subs, playerID)
	}
	return nil
}

func (d *recordingDelivery) SendPersonalMessage(_ context.Context, playerID string, msg realtime.Message) error {
	return nil
}

func (d *recordingDelivery) ResolvePlayerDisplayName(ctx context.Context, playerID string) (string, error) {
	player, err := d.players.Get(ctx, playerID)
	if err != nil {
		return "", err
	}
	return player.Name, nil
}

func (d *recordingDelivery) recorded() []broadcast {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]broadcast, len(d.broadcasts))
	copy(out, d.broadcasts)
	return out
}

func (d *recordingDelivery) subscription(playerID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	roomID, ok := d.subs[playerID]
	return roomID, ok
}
