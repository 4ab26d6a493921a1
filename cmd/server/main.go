package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/keygate/backend-go/internal/api"
	"github.com/keygate/backend-go/internal/config"
	"github.com/keygate/backend-go/internal/database"
	"github.com/keygate/backend-go/internal/database/repository"
	"github.com/keygate/backend-go/internal/database/service"
	"github.com/keygate/backend-go/internal/handler"
	"github.com/keygate/backend-go/internal/logger"
	"github.com/keygate/backend-go/internal/mail"
	"github.com/keygate/backend-go/internal/middleware"
	"github.com/keygate/backend-go/internal/token"
	"github.com/keygate/backend-go/internal/worker"
)

func main() {
	// 1. Config
	cfg := config.LoadConfig()

	// 2. Logger
	appLogger := logger.New(cfg)

	appLogger.Info("🚀 [Go] Starting keygate...",
		"environment", cfg.AppEnv,
	)

	// 3. Connect to Database
	if err := database.ConnectDatabase(cfg, appLogger); err != nil {
		appLogger.Error("❌ Failed to connect to database", "error", err)
		os.Exit(1)
	}

	db := database.GetDatabase()

	// 4. Initialize Repositories
	userRepo := repository.NewUserRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)

	// 5. Initialize Rate Limiter
	rateLimiter, err := middleware.NewRateLimiter(cfg, appLogger)
	if err != nil {
		appLogger.Warn("⚠️ Failed to connect to Redis, using no-op rate limiter", "error", err)
		rateLimiter = middleware.NewNoOpRateLimiter(appLogger)
	}
	defer rateLimiter.Close()

	// 6. Initialize Token Codec & Mail Sender
	codec := token.NewCodec(cfg)
	mailSender := mail.NewSMTPSender(cfg, appLogger)

	// 7. Initialize Services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, codec, mailSender, cfg, appLogger)
	userService := service.NewUserService(userRepo, appLogger)

	// 8. Initialize Handlers & Middleware
	authHandler := handler.NewAuthHandler(authService, appLogger)
	userHandler := handler.NewUserHandler(userService, appLogger)
	authMiddleware := middleware.NewAuthMiddleware(authService, appLogger)

	// 9. Background cleanup of expired refresh records
	pool := worker.NewPool(appLogger)
	pool.SubmitPeriodic(cfg.TokenCleanupInterval, func(ctx context.Context) {
		deleted, err := refreshTokenRepo.DeleteExpired()
		if err != nil {
			appLogger.Error("❌ [Cleanup] Failed to delete expired refresh tokens", "error", err)
			return
		}
		if deleted > 0 {
			appLogger.Info("🧹 [Cleanup] Deleted expired refresh tokens", "count", deleted)
		}
	})
	defer pool.Shutdown(10 * time.Second)

	// 10. Setup Router & Start HTTP Server
	r := api.SetupRouter(authHandler, userHandler, authMiddleware, rateLimiter)

	addr := fmt.Sprintf(":%s", cfg.ApiServicePort)
	appLogger.Info("🌍 [Go] HTTP Server running on port...", "port", addr)
	if err := r.Run(addr); err != nil {
		appLogger.Error("❌ HTTP Server failed to start", "error", err)
		os.Exit(1)
	}
}
