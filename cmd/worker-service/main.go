package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"kointos-backend/internal/ai"
	"kointos-backend/internal/worker/config"
	"kointos-backend/internal/worker/delivery/consumer"
	"kointos-backend/internal/worker/repository"
	"kointos-backend/internal/worker/service"
	"kointos-backend/internal/worker/strategy"
	"kointos-backend/pkg/common"
	"kointos-backend/pkg/logger"
	"kointos-backend/pkg/postgres"
	"kointos-backend/pkg/redis"
	"kointos-backend/pkg/telegram"

	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the worker service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Worker Service", logger.StringField("name", cfg.App.Name))

	db, err := postgres.NewDB(postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		TimeZone:        cfg.Database.TimeZone,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	redisClient, err := redis.NewClient(redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	if err := redisClient.EnsureGroup(ctx, common.RedisStreamPriceUpdate, common.RedisStreamGroup); err != nil {
		appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
	}

	notifier, err := telegram.NewNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
	if err != nil {
		appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
	}

	invoker, err := ai.NewInvoker(ctx, cfg.AI, cfg.Gemini, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize AI provider", logger.ErrorField(err), logger.StringField("provider", cfg.AI.Provider))
	}
	aiService, err := ai.NewService(invoker, cfg.AI, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize AI service", logger.ErrorField(err))
	}

	alertRepo := repository.NewPriceAlertRepository(db.DB)
	holdingRepo := repository.NewPortfolioHoldingRepository(db.DB)
	articleRepo := repository.NewNewsArticleRepository(db.DB)
	cryptoRepo := repository.NewCryptocurrencyRepository(db.DB)

	priceSvc := service.NewPriceEventService(cfg.Worker, redisClient.Client, alertRepo, holdingRepo, notifier, appLogger)
	newsStrategy := strategy.NewNewsIngestionStrategy(cfg.News, appLogger, articleRepo, cryptoRepo, aiService, notifier)
	newsScheduler := service.NewNewsSchedulerService(cfg.News.Schedule, cfg.Worker.NewsTimeout, newsStrategy, appLogger)

	redisConsumer := consumer.NewRedisConsumer(cfg.Worker, priceSvc, appLogger)
	redisConsumer.Start(ctx)

	if err := newsScheduler.Start(ctx); err != nil {
		appLogger.Fatal("Failed to start news scheduler", logger.ErrorField(err))
	}

	appLogger.Info("Worker service started. Waiting for events...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down worker service...")
	cancel()
	newsScheduler.Stop()
	redisConsumer.Stop()
	appLogger.Info("Worker service stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "worker-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-worker.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing worker-service CLI: %s\n", err)
		os.Exit(1)
	}
}
