// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

//go:build integration

package world_test

import (
	"context"
	"sync"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/vespermud/vesper/internal/realtime"
	"github.com/vespermud/vesper/internal/world"
)

var _ = Describe("Movement Flow", func() {
	var ctx context.Context
	var env *testEnv

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		env, err = newTestEnv(twoRoomDefs(),
			&world.Player{ID: "p1", Name: "Gandalf", CurrentRoomID: "crypt"},
			&world.Player{ID: "p2", Name: "Mera", CurrentRoomID: "crypt"},
		)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		env.cleanup()
	})

	Describe("MovePlayer", func() {
		It("moves the player and persists the new location", func() {
			moved, err := env.movement.MovePlayer(ctx, "p1", "crypt", "ossuary")
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(BeTrue())

			crypt, _ := env.world.Room("crypt")
			ossuary, _ := env.world.Room("ossuary")
			Expect(crypt.HasPlayer("p1")).To(BeFalse())
			Expect(ossuary.HasPlayer("p1")).To(BeTrue())
			Expect(env.players.currentRoom("p1")).To(Equal("ossuary"))
		})

		It("delivers departure and arrival broadcasts excluding the mover", func() {
			moved, err := env.movement.MovePlayer(ctx, "p1", "crypt", "ossuary")
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(BeTrue())

			// Left in the crypt, entered in the ossuary, each followed by an
			// occupant refresh: four broadcasts for one transition.
			Eventually(func() int {
				return len(env.delivery.recorded())
			}).Should(Equal(4))

			broadcasts := env.delivery.recorded()
			Expect(broadcasts[0].msg.EventType).To(Equal(realtime.MessagePlayerLeft))
			Expect(broadcasts[0].roomID).To(Equal("crypt"))
			Expect(broadcasts[0].exclude).To(Equal("p1"))

			Expect(broadcasts[1].msg.EventType).To(Equal(realtime.MessageRoomOccupants))
			Expect(broadcasts[1].roomID).To(Equal("crypt"))
			Expect(broadcasts[1].msg.Data).To(Equal(realtime.OccupantsPayload{
				Players: []string{"p2"},
				Count:   1,
			}))

			Expect(broadcasts[2].msg.EventType).To(Equal(realtime.MessagePlayerEntered))
			Expect(broadcasts[2].roomID).To(Equal("ossuary"))
			Expect(broadcasts[2].exclude).To(Equal("p1"))
			Expect(broadcasts[2].msg.Data).To(Equal(realtime.PresencePayload{
				PlayerID:   "p1",
				PlayerName: "Gandalf",
				Message:    "Gandalf enters the room.",
			}))

			Expect(broadcasts[3].msg.EventType).To(Equal(realtime.MessageRoomOccupants))
			Expect(broadcasts[3].roomID).To(Equal("ossuary"))
		})

		It("retargets the mover's room subscription", func() {
			moved, err := env.movement.MovePlayer(ctx, "p1", "crypt", "ossuary")
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(BeTrue())

			Eventually(func() string {
				roomID, _ := env.delivery.subscription("p1")
				return roomID
			}).Should(Equal("ossuary"))
		})

		It("assigns strictly increasing sequence numbers across a round trip", func() {
			moved, err := env.movement.MovePlayer(ctx, "p1", "crypt", "ossuary")
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(BeTrue())

			moved, err = env.movement.MovePlayer(ctx, "p1", "ossuary", "crypt")
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(BeTrue())

			Eventually(func() int {
				return len(env.delivery.recorded())
			}).Should(Equal(8))

			var prev int64
			for _, b := range env.delivery.recorded() {
				Expect(b.msg.SequenceNumber).To(BeNumerically(">", prev))
				prev = b.msg.SequenceNumber
			}
		})

		It("rejects a move with no connecting exit without broadcasting", func() {
			// No second hop out of the ossuary exists besides west.
			noExit := []world.RoomDefinition{
				{ID: "crypt", Name: "Crypt"},
				{ID: "ossuary", Name: "Ossuary"},
			}
			isolated, err := newTestEnv(noExit,
				&world.Player{ID: "p1", Name: "Gandalf", CurrentRoomID: "crypt"})
			Expect(err).NotTo(HaveOccurred())
			defer isolated.cleanup()

			moved, err := isolated.movement.MovePlayer(ctx, "p1", "crypt", "ossuary")
			Expect(err).NotTo(HaveOccurred())
			Expect(moved).To(BeFalse())

			crypt, _ := isolated.world.Room("crypt")
			Expect(crypt.HasPlayer("p1")).To(BeTrue())
			Consistently(func() int {
				return len(isolated.delivery.recorded())
			}).Should(BeZero())
		})

		It("keeps exactly one presence under concurrent movers", func() {
			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					if i%2 == 0 {
						_, _ = env.movement.MovePlayer(ctx, "p1", "crypt", "ossuary")
					} else {
						_, _ = env.movement.MovePlayer(ctx, "p1", "ossuary", "crypt")
					}
				}(i)
			}
			wg.Wait()

			crypt, _ := env.world.Room("crypt")
			ossuary, _ := env.world.Room("ossuary")
			Expect(crypt.HasPlayer("p1")).NotTo(Equal(ossuary.HasPlayer("p1")))
		})
	})

	Describe("AddPlayerToRoom", func() {
		It("announces the placement to players already present", func() {
			Expect(env.players.Create(ctx, &world.Player{ID: "p4", Name: "Brand"})).To(Succeed())
			placed, err := env.movement.AddPlayerToRoom(ctx, "p4", "ossuary")
			Expect(err).NotTo(HaveOccurred())
			Expect(placed).To(BeTrue())

			Eventually(func() bool {
				for _, b := range env.delivery.recorded() {
					if b.roomID == "ossuary" && b.msg.EventType == realtime.MessagePlayerEntered {
						payload, ok := b.msg.Data.(realtime.PresencePayload)
						return ok && payload.PlayerName == "Brand"
					}
				}
				return false
			}).Should(BeTrue())
		})
	})
})
