package main

import (
	"context"
	"errors"
	"fmt"
	"ms-rsvp/internal/auth"
	"ms-rsvp/internal/config"
	"ms-rsvp/internal/database"
	"ms-rsvp/internal/database/migrations"
	"ms-rsvp/internal/imaging"
	"ms-rsvp/internal/invite"
	"ms-rsvp/internal/kafka"
	"ms-rsvp/internal/logger"
	"ms-rsvp/internal/rsvp"
	storedb "ms-rsvp/internal/rsvp/db"
	rsvpredis "ms-rsvp/internal/rsvp/redis"
	"ms-rsvp/internal/rsvp/rsvp_api"
	"ms-rsvp/internal/sse"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

func prepareSchema(ctx context.Context, cfg *config.Config, bunDB *bun.DB, store *storedb.DB, logger *logger.Logger) {
	if cfg.Database.Driver == database.DriverSQLite {
		if err := store.CreateSchema(ctx); err != nil {
			logger.Fatal("DATABASE", fmt.Sprintf("Failed to create sqlite schema: %v", err))
		}
		logger.LogDatabase("SCHEMA", storedb.TableName, "ensured")
		return
	}

	if !cfg.Database.AutoMigrate {
		logger.Info("MIGRATE", "Auto-migration disabled, run rsvp-migrate to manage the schema")
		return
	}

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{
		MigrationsDir: cfg.Database.MigrationsDir,
		AutoMigrate:   true,
	}, logger)
	defer runner.Close()

	if err := runner.RunMigrations(); err != nil {
		logger.Fatal("MIGRATE", fmt.Sprintf("Failed to run migrations: %v", err))
	}
}

// connectRedis returns nil when redis is disabled or unreachable. The service
// runs without the idempotency guard and stats cache in that case.
func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *logger.Logger) *redis.Client {
	if !cfg.Enabled {
		logger.Info("REDIS", "Redis disabled, idempotency guard and stats cache are off")
		return nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("REDIS", fmt.Sprintf("Redis unreachable at %s, continuing without it: %v", cfg.Addr, err))
		redisClient.Close()
		return nil
	}

	logger.Info("REDIS", fmt.Sprintf("✅ Redis connection successful to %s (DB: %d)", cfg.Addr, cfg.DB))
	return redisClient
}

func main() {
	logger := logger.NewLogger("rsvp-service")
	defer logger.Close()

	logger.Info("APP", "Starting RSVP Service initialization")

	if err := godotenv.Load(); err != nil {
		logger.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		logger.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("CONFIG", fmt.Sprintf("Failed to load configuration: %v", err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bunDB, err := database.Open(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	store := storedb.New(bunDB)
	prepareSchema(ctx, cfg, bunDB, store, logger)

	emitter := sse.NewRSVPEventEmitter()
	rsvpService := rsvp.NewRSVPService(store, logger)
	rsvpService.SubmitTimeout = cfg.RSVP.SubmitTimeout
	rsvpService.Notifier = emitter

	if redisClient := connectRedis(ctx, cfg.Redis, logger); redisClient != nil {
		defer redisClient.Close()
		rsvpService.Guard = rsvpredis.NewSubmissionGuard(redisClient, cfg.RSVP.IdempotencyTTL)
		rsvpService.Cache = rsvpredis.NewStatsCache(redisClient, cfg.RSVP.StatsTTL)
	}

	if cfg.Kafka.Enabled {
		topic := cfg.Kafka.Topics.RSVPSubmitted
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{topic}, logger); err != nil {
			logger.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer := kafka.NewProducer(cfg.Kafka.Brokers, topic, logger)
		defer producer.Close()
		rsvpService.Publisher = producer
		logger.Info("KAFKA", fmt.Sprintf("Kafka producer initialized for %s", topic))
	}

	verifier, err := auth.NewVerifier(ctx, cfg.Auth)
	if err != nil {
		logger.Fatal("AUTH", fmt.Sprintf("Failed to set up admin token verification: %v", err))
	}
	if verifier == nil {
		logger.LogSecurity("ADMIN", "No OIDC_ISSUER or ADMIN_JWT_SECRET set, admin routes are open")
	}

	handler := rsvp_api.NewHandler(rsvpService, logger)
	handler.Store = store
	handler.Events = emitter
	handler.Verifier = verifier
	handler.ConfigPresence = rsvp_api.PresenceFromConfig(cfg)
	handler.MaxBodyBytes = cfg.Server.MaxBodyBytes
	handler.AllowedOrigins = cfg.Server.AllowedOrigins
	handler.Cropper = imaging.NewProcessor(nil, logger)
	handler.GalleryDir = cfg.Assets.GalleryDir

	if qr, err := invite.NewQRGenerator(cfg.Assets.InviteURL, invite.DefaultSize); err != nil {
		logger.Warn("CONFIG", fmt.Sprintf("Invitation QR disabled: %v", err))
	} else {
		handler.QR = qr
	}

	logger.Info("HTTP", "Setting up router and middleware")
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info("HTTP", fmt.Sprintf("🚀 RSVP Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	logger.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-ctx.Done()

	logger.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		logger.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		logger.Info("HTTP", "✅ RSVP Service shutdown complete")
	}
}
