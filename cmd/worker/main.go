package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/infra"
	"server/internal/jobs"
	"server/internal/ledger"
	"server/internal/providers/image"
	"server/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	runner := infra.NewSQLRunner(pool, logger)

	store, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	generator, err := image.NewOpenAIGenerator(image.OpenAIOptions{
		APIKey:       cfg.OpenAIAPIKey,
		Organization: cfg.OpenAIOrg,
		BaseURL:      cfg.OpenAIBaseURL,
		Model:        cfg.OpenAIImageModel,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure image provider")
	}

	jobRunner := &jobs.Runner{
		DB:           runner,
		Ledger:       ledger.New(runner),
		Generator:    generator,
		Store:        store,
		Logger:       logger,
		Concurrency:  cfg.WorkerConcurrency,
		PollInterval: cfg.WorkerPollInterval,
	}

	if err := jobRunner.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

func buildStore(ctx context.Context, cfg *infra.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case infra.StorageBackendGCS:
		return storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	default:
		uploadURL := "http://localhost:" + cfg.Port + "/v1/upload/direct"
		return storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL, uploadURL, cfg.JWTSecret)
	}
}
