// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package world_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vespermud/vesper/internal/world"
	"github.com/vespermud/vesper/pkg/errutil"
)

const validSeed = `
rooms:
  - id: crypt
    name: Crypt
    description: Cold stone and old bones.
    plane: material
    zone: undercity
    subzone: necropolis
    environment: underground
    exits:
      east: ossuary
      down: null
    containers:
      - name: sarcophagus
        description: Heavy granite lid.
  - id: ossuary
    name: Ossuary
    exits:
      west: crypt
`

func TestParseSeed_Valid(t *testing.T) {
	rooms, err := world.ParseSeed([]byte(validSeed))
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	crypt := rooms[0]
	assert.Equal(t, "crypt", crypt.ID)
	assert.Equal(t, "Crypt", crypt.Name)
	assert.Equal(t, "necropolis", crypt.SubZone)
	require.Contains(t, crypt.Exits, "east")
	require.NotNil(t, crypt.Exits["east"])
	assert.Equal(t, "ossuary", *crypt.Exits["east"])
	require.Contains(t, crypt.Exits, "down")
	assert.Nil(t, crypt.Exits["down"])
	require.Len(t, crypt.Containers, 1)
	assert.Equal(t, "sarcophagus", crypt.Containers[0].Name)
}

func TestParseSeed_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		seed     string
		wantCode string
	}{
		{"empty data", "", "SEED_INVALID"},
		{"not yaml", "rooms: [}", "SEED_PARSE_FAILED"},
		{"missing rooms key", "worlds: []", "SEED_INVALID"},
		{"room missing name", "rooms:\n  - id: crypt", "SEED_INVALID"},
		{"room missing id", "rooms:\n  - name: Crypt", "SEED_INVALID"},
		{"unknown room field", "rooms:\n  - id: crypt\n    name: Crypt\n    biome: cave", "SEED_INVALID"},
		{"non-string exit target", "rooms:\n  - id: crypt\n    name: Crypt\n    exits:\n      east: 7", "SEED_INVALID"},
		{"container missing name", "rooms:\n  - id: crypt\n    name: Crypt\n    containers:\n      - description: lidless", "SEED_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := world.ParseSeed([]byte(tt.seed))
			errutil.AssertErrorCode(t, err, tt.wantCode)
		})
	}
}

func TestLoadSeedFile(t *testing.T) {
	t.Run("reads and parses", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.yaml")
		require.NoError(t, os.WriteFile(path, []byte(validSeed), 0o600))

		rooms, err := world.LoadSeedFile(path)
		require.NoError(t, err)
		assert.Len(t, rooms, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := world.LoadSeedFile(filepath.Join(t.TempDir(), "absent.yaml"))
		errutil.AssertErrorCode(t, err, "SEED_READ_FAILED")
	})
}

func TestRoomDefinition_Validate(t *testing.T) {
	def := world.RoomDefinition{ID: "crypt", Name: "Crypt"}
	assert.NoError(t, def.Validate())

	def = world.RoomDefinition{Name: "Crypt"}
	var verr *world.ValidationError
	assert.ErrorAs(t, def.Validate(), &verr)

	def = world.RoomDefinition{ID: "crypt"}
	assert.ErrorAs(t, def.Validate(), &verr)

	def = world.RoomDefinition{ID: "crypt", Name: "Crypt", Exits: map[string]*string{"": nil}}
	assert.ErrorAs(t, def.Validate(), &verr)
}
