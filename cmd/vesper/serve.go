// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Vesper Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vespermud/vesper/internal/config"
	"github.com/vespermud/vesper/internal/events"
	"github.com/vespermud/vesper/internal/logging"
	"github.com/vespermud/vesper/internal/observability"
	"github.com/vespermud/vesper/internal/realtime"
	"github.com/vespermud/vesper/internal/store"
	"github.com/vespermud/vesper/internal/world"
	"github.com/vespermud/vesper/internal/world/postgres"
	"github.com/vespermud/vesper/pkg/errutil"
)

const shutdownTimeout = 10 * time.Second

// consistencySweepInterval paces the background check that compares in-memory
// occupancy against persisted player records.
const consistencySweepInterval = time.Minute

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the world-sync core host process",
		Long: `Start the host process: loads the world, rebuilds occupancy from
persisted player records, and runs the event bus, movement service,
and real-time translator with metrics and health endpoints.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Flags())
		},
	}

	// Flag defaults mirror config.Default so unchanged flags never override
	// file values.
	cmd.Flags().String("db-url", "", "PostgreSQL connection URL")
	cmd.Flags().String("metrics-addr", "127.0.0.1:9100", "metrics/health HTTP address (empty = disabled)")
	cmd.Flags().String("log-format", "json", "log format (json or text)")
	cmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	cmd.Flags().String("seed-file", "", "world seed YAML (empty = load rooms from database)")

	return cmd
}

func runServe(flags *pflag.FlagSet) error {
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return err
	}
	logging.SetDefault("vesper", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level))

	if cfg.Database.URL == "" {
		return oops.Code("CONFIG_INVALID").Errorf("database url is required (--db-url or config file)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := connectDatabase(ctx, cfg)
	if err != nil {
		errutil.LogError(slog.Default(), "database connection failed", err)
		return err
	}
	defer pool.Close()

	if err := checkSchema(cfg.Database.URL); err != nil {
		return err
	}

	var ready atomic.Bool
	var obsErrCh <-chan error
	var obs *observability.Server
	if cfg.Metrics.Addr != "" {
		obs = observability.NewServer(cfg.Metrics.Addr, ready.Load)
		events.RegisterMetrics(obs.Registry())
		world.RegisterMetrics(obs.Registry())
		realtime.RegisterMetrics(obs.Registry())
		obsErrCh, err = obs.Start()
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if stopErr := obs.Stop(shutdownCtx); stopErr != nil {
				errutil.LogError(slog.Default(), "observability server shutdown failed", stopErr)
			}
		}()
	}

	bus := events.NewBus()
	if err := bus.Start(ctx); err != nil {
		return err
	}

	w := world.NewWorld(bus)
	players := postgres.NewPlayerRepository(pool)

	defs, err := loadRooms(ctx, cfg, pool)
	if err != nil {
		errutil.LogError(slog.Default(), "world load failed", err)
		return err
	}
	if err := w.Load(defs); err != nil {
		return err
	}
	if err := w.Bootstrap(ctx, players); err != nil {
		errutil.LogError(slog.Default(), "occupancy bootstrap failed", err)
		return err
	}

	movement := world.NewMovementService(w, players)
	delivery := newLogDelivery(players)
	realtime.NewTranslator(bus, w, delivery)

	go consistencySweep(ctx, movement, players)

	ready.Store(true)
	slog.Info("world-sync core ready", "rooms", len(defs))

	select {
	case <-ctx.Done():
	case serveErr := <-obsErrCh:
		if serveErr != nil {
			return oops.Code("OBSERVABILITY_FAILED").Wrap(serveErr)
		}
	}

	ready.Store(false)
	stop()
	<-bus.Done()
	slog.Info("world-sync core stopped")
	return nil
}

// connectDatabase opens the pgx pool, retrying transient connect failures
// with fibonacci backoff.
func connectDatabase(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	backoff := retry.WithMaxRetries(cfg.Database.ConnectAttempts-1, retry.NewFibonacci(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		p, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			// Config parse failure; retrying cannot help.
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			slog.Warn("database not reachable, retrying", "error", err)
			return retry.RetryableError(err)
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	return pool, nil
}

// checkSchema logs the current migration version and refuses to start on a
// dirty schema.
func checkSchema(databaseURL string) error {
	m, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		_ = m.Close() //nolint:errcheck // version check handle, nothing to recover
	}()

	ver, dirty, err := m.Version()
	if err != nil {
		return err
	}
	if dirty {
		return oops.Code("SCHEMA_DIRTY").With("version", ver).
			Errorf("database schema is dirty; run 'vesper migrate force' after repair")
	}
	slog.Info("database schema", "version", ver)
	return nil
}

// loadRooms reads room definitions from the seed file when configured,
// otherwise from the rooms table.
func loadRooms(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) ([]world.RoomDefinition, error) {
	if cfg.Seed.File != "" {
		return world.LoadSeedFile(cfg.Seed.File)
	}
	return postgres.NewRoomRepository(pool).List(ctx)
}

// consistencySweep periodically validates each located player's in-memory
// presence against the persisted record. Divergence is surfaced in logs; the
// movement protocol repairs it on the player's next move.
func consistencySweep(ctx context.Context, movement *world.MovementService, players world.PlayerRepository) {
	ticker := time.NewTicker(consistencySweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		located, err := players.ListLocated(ctx)
		if err != nil {
			errutil.LogError(slog.Default(), "consistency sweep: list players failed", err)
			continue
		}
		for _, p := range located {
			ok, err := movement.ValidatePlayerLocation(ctx, p.ID)
			if err != nil {
				errutil.LogError(slog.Default(), "consistency sweep: validation failed", err)
				continue
			}
			if !ok {
				slog.Warn("player location diverged from persisted record",
					"player_id", p.ID, "persisted_room_id", p.CurrentRoomID)
			}
		}
	}
}
