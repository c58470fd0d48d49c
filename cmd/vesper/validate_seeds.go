// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package main

import (
	"log/slog"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/vespermud/vesper/internal/world"
)

// NewValidateSeedsCmd creates the validate-seeds subcommand.
func NewValidateSeedsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-seeds <seed-file>",
		Short: "Validate a world seed file without starting the server",
		Long: `Validates a world seed YAML file against the seed schema and room
invariants. Does NOT require a database connection.
Exits with code 0 on success, non-zero on failure.

Useful in CI pipelines to catch seed errors early:
  vesper validate-seeds worlds/vesper.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidateSeeds(args[0])
		},
	}
}

func runValidateSeeds(path string) error {
	defs, err := world.LoadSeedFile(path)
	if err != nil {
		return err
	}

	// Exit targets must reference rooms in the same seed.
	ids := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		ids[def.ID] = struct{}{}
	}
	for _, def := range defs {
		for direction, target := range def.Exits {
			if target == nil || *target == "" {
				continue
			}
			if _, ok := ids[*target]; !ok {
				return oops.Code("SEED_INVALID").
					With("room_id", def.ID).
					With("direction", direction).
					With("target", *target).
					Errorf("exit targets unknown room")
			}
		}
	}

	slog.Info("seed file valid", "path", path, "rooms", len(defs))
	return nil
}
