package main

import (
	"context"
	stderrors "errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mroshb/friendgraph/internal/config"
	"github.com/mroshb/friendgraph/internal/database"
	"github.com/mroshb/friendgraph/internal/handlers"
	"github.com/mroshb/friendgraph/internal/middleware"
	"github.com/mroshb/friendgraph/internal/repositories"
	"github.com/mroshb/friendgraph/internal/services"
	"github.com/mroshb/friendgraph/pkg/logger"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	logger.Init("friendgraph-api")
	defer logger.Sync()

	logger.Info("Starting friendgraph API...")

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", err)
	}

	if cfg.AppEnv == "production" {
		if err := cfg.ValidateProductionSecurity(); err != nil {
			logger.Fatal("Production security validation failed", err)
		}
		logger.Info("Production security validation passed")
		gin.SetMode(gin.ReleaseMode)
	}

	userStore, friendStore, err := buildStores(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize stores", err)
	}

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitPerUser, cfg.RateLimitPerIP, cfg.GetRateLimitWindow())
	defer rateLimiter.Stop()

	manager := handlers.NewHandlerManager(
		services.NewAuthService(userStore, cfg.JWTSecret, cfg.GetTokenTTL()),
		services.NewFriendService(friendStore, userStore),
		rateLimiter,
	)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           manager.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr, "env", cfg.AppEnv, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	logger.Info("Server stopped")
}

// buildStores selects the persistence backend and layers the Redis friends
// cache on top when REDIS_ADDR is set.
func buildStores(cfg *config.Config) (services.UserStore, services.FriendStore, error) {
	var (
		userStore   services.UserStore
		friendStore services.FriendStore
	)

	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		userStore = repositories.NewMemoryUserStore()
		friendStore = repositories.NewMemoryFriendStore()
	default:
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, err
		}
		userStore = repositories.NewUserRepository(db, cfg.GetStoreTimeout())
		friendStore = repositories.NewFriendRepository(db, cfg.GetStoreTimeout())
	}

	rdb, err := database.ConnectRedis(cfg)
	if err != nil {
		logger.Warn("Friends cache disabled", "error", err)
		return userStore, friendStore, nil
	}
	if rdb != nil {
		friendStore = repositories.NewCachedFriendStore(friendStore, rdb, cfg.GetFriendsCacheTTL())
	}

	return userStore, friendStore, nil
}
