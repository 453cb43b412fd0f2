// sweeper periodically reports reserved slots that no active appointment
// holds. Such orphans only appear when a booking compensation failed; the
// sweeper never mutates them, it surfaces them for operator remediation.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/consultaja/clinic-scheduling/internal/config"
	"github.com/consultaja/clinic-scheduling/internal/db"
	"github.com/consultaja/clinic-scheduling/internal/schedule"
)

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "sweeper").Logger()
	logger.Info().Msg("starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	logger.Info().Str("env", cfg.Env).Dur("interval", cfg.SweeperInterval).Msg("configured")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	cancelPg()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connection error")
	}
	defer pgPool.Close()
	logger.Info().Msg("connected to Postgres")

	repo := schedule.NewPgRepository(pgPool)

	// Run once at startup
	runOnce(rootCtx, repo, logger)

	ticker := time.NewTicker(cfg.SweeperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info().Msg("shutdown signal received, stopping sweeper")
			return
		case <-ticker.C:
			runOnce(rootCtx, repo, logger)
		}
	}
}

func runOnce(ctx context.Context, repo *schedule.PgRepository, logger zerolog.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	orphans, err := repo.FindOrphanedReserved(runCtx)
	if err != nil {
		logger.Error().Err(err).Msg("sweep run error")
		return
	}

	for _, slot := range orphans {
		logger.Warn().
			Str("event", "orphaned_slot").
			Str("slot_id", slot.ID.String()).
			Str("doctor_id", slot.DoctorID.String()).
			Time("start_at", slot.StartAt).
			Time("updated_at", slot.UpdatedAt).
			Msg("reserved slot has no active appointment")
	}

	logger.Info().
		Int("orphans", len(orphans)).
		Dur("took", time.Since(start)).
		Msg("sweep run complete")
}
