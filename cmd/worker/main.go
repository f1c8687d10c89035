package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/Slydexx/esthetica-app/internal/cache"
	"github.com/Slydexx/esthetica-app/internal/config"
	"github.com/Slydexx/esthetica-app/internal/database"
	"github.com/Slydexx/esthetica-app/internal/log"
	"github.com/Slydexx/esthetica-app/internal/queue"
	"github.com/Slydexx/esthetica-app/internal/repository"
	"github.com/Slydexx/esthetica-app/internal/storage"
	"github.com/Slydexx/esthetica-app/internal/tasks"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}
	defer dbPool.Close()

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer redisClient.Close()

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBuckets(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure buckets failed")
	}

	processor := tasks.NewProcessor(
		redisClient,
		cfg.Redis.Stream,
		repository.NewSessionRepository(dbPool),
		repository.NewAnalysisRepository(dbPool),
		objectStore,
		logger,
	)
	consumer := queue.NewConsumer(
		redisClient,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		cfg.Redis.ClaimInterval,
		logger,
		processor,
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return consumer.Start(groupCtx)
	})

	logger.Info().
		Str("stream", cfg.Redis.Stream).
		Str("group", cfg.Redis.Group).
		Msg("worker started")

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("consumer stopped unexpectedly")
	}

	logger.Info().Msg("worker stopped")
}
