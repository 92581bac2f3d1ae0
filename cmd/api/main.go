package main

// @title Railway Info API
// @version 1.0.0
// @description Backend of the Railway Info dashboard: status of railway lines,
// @description operators and their members, stations and the operator request workflow.
// @description Feeds under /lines.json and /operators.json are polled by in-game displays.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:30789
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/railway-info/docs"
	"github.com/railway-info/internal/config"
	httpDelivery "github.com/railway-info/internal/delivery/http"
	"github.com/railway-info/internal/delivery/http/handler"
	"github.com/railway-info/internal/delivery/http/middleware"
	"github.com/railway-info/internal/infrastructure/discord"
	"github.com/railway-info/internal/pkg/logger"
	"github.com/railway-info/internal/repository/cache"
	"github.com/railway-info/internal/repository/mysql"
	redisRepo "github.com/railway-info/internal/repository/redis"
	"github.com/railway-info/internal/usecase"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfgManager, err := config.NewManager(config.ConfigPath())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	cfg := cfgManager.Current()

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Railway Info")
	log.Info("Configuration loaded",
		zap.String("config", cfgManager.Path()),
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.Bool("readonly", cfg.Admin.Readonly),
	)
	if cfg.Discord.BotToken == "" {
		log.Warn("Discord bot token is not set, member profiles will not be refreshed")
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

	// 5. Health checks and schema
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Health(ctx); err != nil {
		log.Fatal("MySQL health check failed", zap.Error(err))
	}
	if err := redisClient.Health(ctx); err != nil {
		log.Fatal("Redis health check failed", zap.Error(err))
	}
	if err := mysql.Migrate(ctx, db, log.Named("migrate")); err != nil {
		log.Fatal("Failed to apply migrations", zap.Error(err))
	}
	cancel()

	log.Info("All connections healthy")

	// 6. Repositories
	store := mysql.NewStore(db, log.Named("store"))
	lineRepo := mysql.NewLineRepository(store, log.Named("line_repository"))
	operatorRepo := mysql.NewOperatorRepository(store, log.Named("operator_repository"))
	stationRepo := mysql.NewStationRepository(store, log.Named("station_repository"))
	requestRepo := mysql.NewOperatorRequestRepository(store, log.Named("request_repository"))
	userRepo := mysql.NewUserRepository(store, log.Named("user_repository"))

	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log.Named("stream"))

	discordClient := discord.NewClient(&cfg.Discord, log.Named("discord"))
	discordOAuth := discord.NewOAuth(&cfg.Discord, log.Named("oauth"))

	// 7. Use cases
	access := usecase.NewAccess(operatorRepo, cfgManager, log.Named("access"))
	profileUC := usecase.NewProfileUseCase(userRepo, discordClient, cacheRepo, streamRepo, cfg.Cache.UserProfileTTL, log.Named("profiles"))
	lineUC := usecase.NewLineUseCase(lineRepo, stationRepo, cacheRepo, access, cfg.Cache.LinesTTL, log.Named("lines"))
	operatorUC := usecase.NewOperatorUseCase(operatorRepo, lineRepo, cacheRepo, profileUC, access, cfg.Cache.LinesTTL, log.Named("operators"))
	stationUC := usecase.NewStationUseCase(stationRepo, lineRepo, cacheRepo, access, log.Named("stations"))
	requestUC := usecase.NewOperatorRequestUseCase(requestRepo, operatorRepo, store, cacheRepo, profileUC, access, log.Named("requests"))
	overviewUC := usecase.NewOverviewUseCase(lineRepo, cfgManager, log.Named("overview"))
	adminUC := usecase.NewAdminUseCase(cfgManager, access, lineRepo, operatorRepo, stationRepo, requestRepo, log.Named("admin"))
	authUC := usecase.NewAuthUseCase(discordOAuth, profileUC, operatorRepo, access, log.Named("auth"))

	// 8. HTTP
	sessions := middleware.NewSessions(cache.NewSessionStorage(redisClient), cfg.Server.CookieSecure, log.Named("session"))

	server := httpDelivery.NewServer(cfg, log, sessions, httpDelivery.Handlers{
		Line:     handler.NewLineHandler(lineUC, log),
		Operator: handler.NewOperatorHandler(operatorUC, log),
		Station:  handler.NewStationHandler(stationUC, log),
		Request:  handler.NewRequestHandler(requestUC, log),
		Overview: handler.NewOverviewHandler(overviewUC, log),
		Admin:    handler.NewAdminHandler(adminUC, log),
		Auth:     handler.NewAuthHandler(authUC, sessions, log),
		System: handler.NewSystemHandler(map[string]handler.HealthChecker{
			"mysql": db,
			"redis": redisClient,
		}, log),
	})

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully", zap.String("address", cfg.GetServerAddr()))

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
