package router

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shams-academy/assessment/internal/config"
	"github.com/shams-academy/assessment/internal/handler"
	"github.com/shams-academy/assessment/internal/middleware"
	"github.com/shams-academy/assessment/internal/response"
	"github.com/shams-academy/assessment/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Test    *handler.TestHandler
	Attempt *handler.AttemptHandler
	Result  *handler.ResultHandler
	Admin   *handler.AdminHandler
	WS      *handler.WSHandler
	System  *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// The login rate limiter is cleaned up until ctx is done.
func SetupRouter(
	ctx context.Context,
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
	log zerolog.Logger,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(gin.Recovery())

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Request ID first so the access log and every envelope carry it.
	router.Use(response.RequestIDMiddleware())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Brotli())

	router.GET("/health", handlers.System.Health)

	// 10 login attempts per minute per IP.
	loginLimiter := middleware.NewRateLimiter(10, time.Minute)
	go loginLimiter.RunCleanup(ctx)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", loginLimiter.Middleware(), handlers.Auth.Login)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Learner Group (JWT) ────────────────────────────────────────
	api := router.Group("/api/v1")
	api.Use(middleware.RequireJWT(authService))
	{
		api.GET("/tests", middleware.CacheControl("private, max-age=30"), handlers.Test.List)
		api.GET("/tests/:test_id", middleware.CacheControl("private, max-age=30"), handlers.Test.Get)
		api.GET("/tests/:test_id/result", middleware.NoStore(), handlers.Result.Get)
		api.GET("/results/my", middleware.NoStore(), handlers.Result.ListMine)
		api.GET("/activities/my", middleware.NoStore(), handlers.Result.Activities)

		// Attempt state changes every second; never cache it.
		attempt := api.Group("/tests/:test_id/attempt")
		attempt.Use(middleware.NoStore())
		{
			attempt.POST("", handlers.Attempt.Start)
			attempt.GET("", handlers.Attempt.State)
			attempt.DELETE("", handlers.Attempt.Abandon)
			attempt.PUT("/answer", handlers.Attempt.SelectAnswer)
			attempt.POST("/next", handlers.Attempt.Next)
			attempt.POST("/previous", handlers.Attempt.Previous)
			attempt.POST("/goto", handlers.Attempt.GoTo)
			attempt.GET("/preview", handlers.Attempt.Preview)
			attempt.POST("/finish", handlers.Attempt.Finish)
		}
	}

	// ─── 3. WebSocket Group (query token) ──────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/tests/:test_id/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Admin Group (JWT + admin) ──────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireJWT(authService), middleware.RequireAdmin())
	{
		adminAPI.POST("/tests", handlers.Admin.CreateTest)
		adminAPI.POST("/tests/:test_id/questions", handlers.Admin.AddQuestion)
		adminAPI.POST("/tests/:test_id/refresh-cache", handlers.Admin.RefreshCache)
		adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)
	}

	return router
}
