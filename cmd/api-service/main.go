package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kointos-backend/internal/ai"
	"kointos-backend/internal/api/config"
	delivery "kointos-backend/internal/api/delivery/http"
	_ "kointos-backend/internal/api/docs"
	"kointos-backend/internal/api/repository"
	"kointos-backend/internal/api/service"
	"kointos-backend/internal/auth"
	"kointos-backend/internal/event"
	"kointos-backend/internal/schema"
	"kointos-backend/internal/storage"
	"kointos-backend/pkg/logger"
	"kointos-backend/pkg/postgres"
	"kointos-backend/pkg/redis"

	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the API service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting API Service", logger.StringField("name", cfg.App.Name))

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

	// price events are optional; without redis the worker simply sees no updates
	var prices event.Publisher
	if cfg.Redis.Host != "" {
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
		prices = event.NewRedisPublisher(redisClient, cfg.Redis.StreamMaxLen)
	} else {
		appLogger.Warn("Redis not configured, price events disabled")
	}

	tokenTTL := time.Hour
	if cfg.Auth.TokenTTL != "" {
		if tokenTTL, err = time.ParseDuration(cfg.Auth.TokenTTL); err != nil {
			appLogger.Fatal("Invalid auth token TTL", logger.ErrorField(err))
		}
	}
	tokens, err := auth.NewTokenIssuer(cfg.Auth.Name, cfg.Auth.JWTSecret, tokenTTL)
	if err != nil {
		appLogger.Fatal("Failed to initialize token issuer", logger.ErrorField(err))
	}

	store, err := storage.NewOSStore(cfg.Storage.Name, cfg.Storage.RootDir, cfg.Storage.MaxUpload)
	if err != nil {
		appLogger.Fatal("Failed to initialize object storage", logger.ErrorField(err))
	}

	invoker, err := ai.NewInvoker(ctx, cfg.AI, cfg.Gemini, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize AI provider", logger.ErrorField(err), logger.StringField("provider", cfg.AI.Provider))
	}
	aiService, err := ai.NewService(invoker, cfg.AI, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize AI service", logger.ErrorField(err))
	}

	identityRepo := repository.NewIdentityRepository(db.DB)
	authService := service.NewAuthService(cfg.Auth, identityRepo, tokens, appLogger)

	e := delivery.NewRouter(delivery.RouterDeps{
		Models: delivery.ModelDeps{
			DB:              db.DB,
			Registry:        schema.Default(),
			Validator:       schema.NewValidator(),
			Prices:          prices,
			PricePublishers: cfg.API.PricePublishers,
			Logger:          appLogger,
		},
		Tokens:      tokens,
		AuthConfig:  cfg.Auth,
		AuthService: authService,
		AIService:   aiService,
		Store:       store,
		Policy:      storage.DefaultPolicy(store.Bucket()),
	})

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.StringField("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}
	appLogger.Info("Server exiting")
}

// @title Kointos API
// @version 1.0
// @description Crypto portfolio and social backend: owner-scoped data API, identity, object storage and AI invocation.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	rootCmd := &cobra.Command{Use: "api-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-api.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing api-service CLI: %s\n", err)
		os.Exit(1)
	}
}
