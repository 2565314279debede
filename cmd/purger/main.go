package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/layer-3/remitwise/adapters/events"
	"github.com/layer-3/remitwise/adapters/repository"
	"github.com/layer-3/remitwise/config"
	"github.com/layer-3/remitwise/logging"
	"github.com/layer-3/remitwise/ports"
	"github.com/layer-3/remitwise/service"
)

// purgeTimeout bounds a single purge run
const purgeTimeout = 10 * time.Minute

func main() {
	once := flag.Bool("once", false, "run a single purge and exit")
	retentionDays := flag.Int("retention-days", 0, "override RETENTION_DAYS")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *retentionDays > 0 {
		cfg.Retention.Days = *retentionDays
	}

	logger, err := logging.New("remitwise-purger", cfg.LogLevel, !cfg.IsProduction())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg, *once, logger); err != nil {
		logger.Fatal().Err(err).Msg("purger stopped")
	}
}

func run(cfg *config.Config, once bool, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer db.Close()

	eventPub, closeEvents, err := newEventPublisher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeEvents()

	users := service.NewUserService(repository.NewUserRepository(db), eventPub, logger)

	purge := func() error {
		runCtx, cancel := context.WithTimeout(ctx, purgeTimeout)
		defer cancel()

		purged, err := users.PurgeEligible(runCtx, cfg.Retention.Days)
		if err != nil {
			return err
		}
		for _, address := range purged {
			logger.Info().Str("address", address).Msg("purged user")
		}
		return nil
	}

	if once {
		return purge()
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Retention.Schedule, func() {
		if err := purge(); err != nil {
			logger.Error().Err(err).Msg("purge failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid PURGE_SCHEDULE %q: %w", cfg.Retention.Schedule, err)
	}

	logger.Info().
		Str("schedule", cfg.Retention.Schedule).
		Int("retentionDays", cfg.Retention.Days).
		Msg("purger started")

	scheduler.Start()
	<-ctx.Done()

	logger.Info().Msg("waiting for running purge to finish")
	<-scheduler.Stop().Done()

	return nil
}

func newEventPublisher(cfg *config.Config, logger zerolog.Logger) (ports.EventPublisher, func() error, error) {
	if !cfg.EventsEnabled || cfg.RedisURL == "" {
		return events.NopPublisher{}, func() error { return nil }, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	publisher, err := events.NewRedisStreamPublisher(client, logger)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	return events.NewWatermillPublisher(publisher), func() error {
		publisher.Close()
		return client.Close()
	}, nil
}
