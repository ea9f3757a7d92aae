package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/runemikla/hallaien-2/internal/access"
	"github.com/runemikla/hallaien-2/internal/config"
	"github.com/runemikla/hallaien-2/internal/db"
	internalhttp "github.com/runemikla/hallaien-2/internal/http"
	"github.com/runemikla/hallaien-2/internal/jobs"
	"github.com/runemikla/hallaien-2/internal/logging"
	"github.com/runemikla/hallaien-2/internal/repository"
	"github.com/runemikla/hallaien-2/internal/voice"
)

func main() {
	cfg := config.Load()

	logger, err := logging.NewLogger(cfg.Environment)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	store := repository.NewStore(pool)
	accessService := access.NewService(store, logger, cfg.ShareCodeTTL, cfg.AccessGrantTTL)
	gateway := voice.NewGateway(cfg.ElevenLabsBaseURL, cfg.ElevenLabsAPIKey, cfg.UpstreamTimeout)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Fatal("redis ping failed", zap.Error(err))
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}()
	}

	server := internalhttp.NewServer(cfg, logger, store, accessService, gateway, redisClient)
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	jobs.StartRetentionJob(ctx, cfg, store, logger)

	go func() {
		logger.Info("hallaien server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
}
