// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Vesper CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vesper",
		Short: "Vesper - world-state synchronization core for a multiplayer text world",
		Long: `Vesper tracks which actors occupy which rooms, moves players between
rooms under strict consistency guarantees, and emits ordered domain
events that a delivery layer turns into client-visible messages.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewValidateSeedsCmd())

	return cmd
}
