package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/railway-info/internal/config"
	"github.com/railway-info/internal/infrastructure/discord"
	"github.com/railway-info/internal/pkg/logger"
	"github.com/railway-info/internal/repository/cache"
	"github.com/railway-info/internal/repository/mysql"
	redisRepo "github.com/railway-info/internal/repository/redis"
	"github.com/railway-info/internal/usecase"
	"github.com/railway-info/internal/worker"
	"github.com/railway-info/internal/worker/profile"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting profile refresh worker",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries))

	if cfg.Discord.BotToken == "" {
		log.Warn("Discord bot token is not set, refresh events will be skipped")
	}

	// 3. Connect to MySQL
	db, err := mysql.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to MySQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close MySQL connection", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Repositories and use cases
	store := mysql.NewStore(db, log.Named("store"))
	userRepo := mysql.NewUserRepository(store, log.Named("user_repository"))
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log.Named("stream"))

	profileUC := usecase.NewProfileUseCase(
		userRepo,
		discord.NewClient(&cfg.Discord, log.Named("discord")),
		cache.NewCacheRepository(redisClient),
		streamRepo,
		cfg.Cache.UserProfileTTL,
		log.Named("profiles"),
	)

	// 6. Workers
	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(profile.NewRefreshWorker(
		streamRepo,
		profileUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.MaxRetries,
		log,
	))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
