package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/keygate/backend-go/internal/handler"
	"github.com/keygate/backend-go/internal/middleware"
)

func SetupRouter(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	authMiddleware *middleware.AuthMiddleware,
	rateLimiter middleware.RateLimiter,
) *gin.Engine {
	r := gin.Default()
	r.SetTrustedProxies(nil)

	// Public routes
	r.GET("/api/v1/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Auth routes (Public)
	authGroup := r.Group("/api/v1/auth")
	{
		authGroup.POST("/sign-up", rateLimiter.Limit("sign-up", 5, time.Minute), authHandler.SignUp)
		authGroup.POST("/sign-in", rateLimiter.Limit("sign-in", 10, time.Minute), authHandler.SignIn)
		authGroup.POST("/verify-email", authHandler.VerifyEmail)
		authGroup.GET("/verify-email", authHandler.VerifyEmailLink)
		authGroup.POST("/resend-verification", rateLimiter.Limit("resend-verification", 5, time.Minute), authHandler.ResendVerification)
		authGroup.POST("/refresh", authHandler.Refresh)
	}

	// Protected API routes
	api := r.Group("/api/v1")
	api.Use(authMiddleware.RequireAuth())
	{
		api.POST("/auth/sign-out", authHandler.SignOut)

		api.GET("/users/me", userHandler.Me)
		api.GET("/users/:id", userHandler.Get)
		api.PATCH("/users/:id", userHandler.Update)
		api.DELETE("/users/:id", userHandler.Delete)
		api.GET("/users", authMiddleware.RequireAdmin(), userHandler.List)
	}

	return r
}
