package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"server/internal/http/handlers"
	"server/internal/http/httpapi"
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
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := infra.RunMigrations(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply migrations")
	}

	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	runner := infra.NewSQLRunner(dbpool, logger)
	lg := ledger.New(runner)

	store, files, err := buildStore(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}

	app := handlers.NewApp(cfg, logger, runner, lg, store, files)
	router := httpapi.NewRouter(app, cfg, logger)
	server := infra.NewHTTPServer(cfg, router)

	if cfg.WorkerEmbedded {
		generator, err := image.NewOpenAIGenerator(image.OpenAIOptions{
			APIKey:       cfg.OpenAIAPIKey,
			Organization: cfg.OpenAIOrg,
			BaseURL:      cfg.OpenAIBaseURL,
			Model:        cfg.OpenAIImageModel,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure image provider")
		}
		jobRunner := &jobs.Runner{
			DB:           runner,
			Ledger:       lg,
			Generator:    generator,
			Store:        store,
			Logger:       logger,
			Concurrency:  cfg.WorkerConcurrency,
			PollInterval: cfg.WorkerPollInterval,
		}
		go func() {
			_ = jobRunner.Run(ctx)
		}()
	}

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func buildStore(ctx context.Context, cfg *infra.Config) (storage.Store, *storage.FileStore, error) {
	switch cfg.StorageBackend {
	case infra.StorageBackendGCS:
		store, err := storage.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		return store, nil, err
	default:
		uploadURL := "http://localhost:" + cfg.Port + "/v1/upload/direct"
		files, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL, uploadURL, cfg.JWTSecret)
		return files, files, err
	}
}
