package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/consultaja/clinic-scheduling/internal/api"
	"github.com/consultaja/clinic-scheduling/internal/booking"
	"github.com/consultaja/clinic-scheduling/internal/catalog"
	"github.com/consultaja/clinic-scheduling/internal/config"
	"github.com/consultaja/clinic-scheduling/internal/dateparse"
	"github.com/consultaja/clinic-scheduling/internal/db"
	"github.com/consultaja/clinic-scheduling/internal/observability"
	redisclient "github.com/consultaja/clinic-scheduling/internal/redis"
	"github.com/consultaja/clinic-scheduling/internal/schedule"
	"github.com/consultaja/clinic-scheduling/internal/tools"
)

var version = "dev"

func main() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Str("service", "api-server").Logger()
	logger.Info().Str("version", version).Msg("starting up")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("config load error")
	}
	logger.Info().Str("env", cfg.Env).Str("http_port", cfg.HTTPPort).Msg("configured")

	clinicTZ, err := time.LoadLocation(cfg.ClinicTZ)
	if err != nil {
		logger.Fatal().Err(err).Str("clinic_tz", cfg.ClinicTZ).Msg("invalid clinic time zone")
	}

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

	rdb, err := redisclient.NewRedisClient(redisclient.Options{
		Addr:      cfg.RedisAddr,
		Username:  cfg.RedisUsername,
		Password:  cfg.RedisPassword,
		PoolSize:  cfg.RedisPoolSize,
		OpTimeout: cfg.RedisTimeout,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connection error")
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn().Err(err).Msg("error closing redis")
		}
	}()
	logger.Info().Msg("connected to Redis")

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	catalogRepo := catalog.NewCachedRepository(catalog.NewPgRepository(pgPool), rdb, cfg.CacheTTL, logger)
	specialtyResolver := catalog.NewSpecialtyResolver(catalogRepo)
	doctorResolver := catalog.NewDoctorResolver(catalogRepo)

	slotRepo := schedule.NewPgRepository(pgPool)
	availability := schedule.NewAvailability(slotRepo, catalogRepo, specialtyResolver, clinicTZ)
	reservation := schedule.NewReservation(slotRepo, logger)

	var normalizer dateparse.Normalizer
	if cfg.DateParserURL != "" {
		normalizer = dateparse.NewClient(cfg.DateParserURL)
	} else {
		logger.Warn().Msg("DATE_PARSER_URL not set, free-text dates will not resolve")
		normalizer = dateparse.Unavailable{}
	}

	coordinator := booking.NewCoordinator(
		booking.NewPgRepository(pgPool),
		reservation,
		normalizer,
		booking.NewRedisIdempotencyStore(rdb, cfg.IdempotencyTTL),
		metrics,
		booking.Config{
			ClinicTZ:        clinicTZ,
			DefaultDialCode: cfg.DefaultDialCode,
			Source:          cfg.BookingSource,
		},
		logger,
	)

	handlers := tools.NewHandlers(
		availability,
		coordinator,
		doctorResolver,
		specialtyResolver,
		catalogRepo,
		normalizer,
		clinicTZ,
		logger,
	)
	registry, err := tools.NewRegistry(handlers, metrics)
	if err != nil {
		logger.Fatal().Err(err).Msg("tool registry validation failed")
	}

	router := api.NewRouter(api.RouterConfig{
		Registry: registry,
		PgPool:   pgPool,
		Redis:    rdb,
		Metrics:  promRegistry,
		Logger:   logger,
		Env:      cfg.Env,
		Version:  version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server error")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("api-server stopped")
}
