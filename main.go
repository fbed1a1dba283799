package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Aquilass/tcnr01/config"
	"github.com/Aquilass/tcnr01/controllers"
	"github.com/Aquilass/tcnr01/logger"
	"github.com/Aquilass/tcnr01/middleware"
	"github.com/Aquilass/tcnr01/routes"
	"github.com/Aquilass/tcnr01/services"
	"github.com/Aquilass/tcnr01/storage"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	store, err := buildStore(cfg)
	if err != nil {
		zapLogger.Fatal("failed to initialize state store", zap.Error(err))
	}

	registry := services.NewRegistry(store, cfg.APIBaseURL, cfg.RequestTimeout, cfg.SessionTTL, zapLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go registry.Sweep(ctx, cfg.SweepInterval)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Session())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.RateLimit(cfg.RateLimitPerMinute, cfg.RateLimitBurst))

	sc := controllers.NewStorefrontController(registry, zapLogger)
	routes.Register(r, sc)

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: r,
	}

	go func() {
		zapLogger.Info("storefront listening",
			zap.String("addr", cfg.Addr),
			zap.String("api_base_url", cfg.APIBaseURL),
			zap.String("storage_backend", cfg.StorageBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("shutdown error", zap.Error(err))
	}
}

// buildStore picks the client-state backend from config.
func buildStore(cfg config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil

	case config.BackendFile:
		return storage.NewFileStore(cfg.StateFile)

	case config.BackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		client := redis.NewClient(opts)
		if err := client.Ping(context.Background()).Err(); err != nil {
			return nil, err
		}
		return storage.NewRedisStore(client, cfg.SessionTTL), nil

	case config.BackendPostgres:
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		gs := storage.NewGormStore(db)
		if err := gs.Migrate(); err != nil {
			return nil, err
		}
		return gs, nil

	default:
		return nil, errors.New("unknown STORAGE_BACKEND: " + cfg.StorageBackend)
	}
}
