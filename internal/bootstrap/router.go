package bootstrap

import (
	"log"
	"net/http"

	"github.com/HackRU/CTFd/internal/config"
	"github.com/HackRU/CTFd/internal/metrics"
	"github.com/HackRU/CTFd/internal/middleware"
	"github.com/HackRU/CTFd/internal/store"
	"github.com/HackRU/CTFd/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter configures the Gin router with all routes and middleware
func setupRouter(app *Application) (*gin.Engine, error) {
	cfg := app.Config

	setupGinMode(cfg)
	r := gin.New()

	r.Use(metrics.HTTPMetricsMiddleware(app.MetricsRecorder))
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(util.IPMiddleware())

	setupSessionMiddleware(r, cfg)
	r.Use(middleware.NonceMiddleware())

	r.GET("/health", createHealthCheckHandler(app.DB))
	setupMetricsEndpoint(r, cfg)

	limiters, err := setupRateLimiting(cfg, app.RedisClient)
	if err != nil {
		return nil, err
	}

	setupAllRoutes(r, app.HandlerSet, limiters)
	logServerStartup(cfg)

	return r, nil
}

// setupSessionMiddleware configures session handling middleware
func setupSessionMiddleware(r *gin.Engine, cfg *config.Config) {
	sessionStore := cookie.NewStore([]byte(cfg.SessionSecret))
	sessionStore.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   cfg.IsProduction,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions("session", sessionStore))
}

// setupMetricsEndpoint configures the Prometheus metrics endpoint
func setupMetricsEndpoint(r *gin.Engine, cfg *config.Config) {
	switch {
	case !cfg.MetricsEnabled:
		log.Printf("Prometheus metrics disabled")
	case cfg.MetricsToken != "":
		log.Printf("Prometheus metrics enabled at /metrics with Bearer token authentication")
		r.GET(
			"/metrics",
			middleware.MetricsAuthMiddleware(cfg.MetricsToken),
			gin.WrapH(promhttp.Handler()),
		)
	default:
		log.Printf("Prometheus metrics enabled at /metrics (no authentication)")
		r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
}

// setupAllRoutes configures all application routes
func setupAllRoutes(r *gin.Engine, h handlerSet, limiters rateLimitMiddlewares) {
	r.GET("/", h.pages.Landing)

	// Credential login and the delegated registration surface
	r.GET("/login", h.auth.Login)
	r.POST("/login", limiters.login, h.auth.Login)
	r.GET("/register", h.auth.Register)
	r.POST("/register", limiters.login, h.auth.Register)
	r.GET("/logout", h.auth.Logout)

	// Email confirmation
	r.GET("/confirm", h.auth.Confirm)
	r.POST("/confirm", limiters.token, h.auth.Confirm)
	r.GET("/confirm/:token", h.auth.Confirm)
	r.POST("/confirm/:token", limiters.token, h.auth.Confirm)

	// Password reset
	r.GET("/reset_password", h.auth.ResetPassword)
	r.POST("/reset_password", limiters.token, h.auth.ResetPassword)
	r.GET("/reset_password/:token", h.auth.ResetPassword)
	r.POST("/reset_password/:token", limiters.token, h.auth.ResetPassword)

	// OAuth delegation
	r.GET("/oauth", h.oauth.Login)
	r.GET("/redirect", limiters.callback, h.oauth.Redirect)

	// Authenticated pages
	protected := r.Group("")
	protected.Use(middleware.RequireAuth())
	{
		protected.GET("/challenges", h.pages.Challenges)
		protected.GET("/settings", h.pages.Settings)
	}
}

// createHealthCheckHandler creates health check endpoint handler
func createHealthCheckHandler(db *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch err := db.Health(); err {
		case nil:
			c.JSON(http.StatusOK, gin.H{
				"status":   "healthy",
				"database": "connected",
			})
		default:
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "disconnected",
			})
		}
	}
}

// setupGinMode sets Gin mode based on environment configuration
func setupGinMode(cfg *config.Config) {
	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
		log.Printf("Gin mode: Release (production)")
		return
	}
	gin.SetMode(gin.DebugMode)
	log.Printf("Gin mode: Debug (development)")
}

// logServerStartup logs server startup information
func logServerStartup(cfg *config.Config) {
	log.Printf("Auth server starting on %s", cfg.ServerAddr)
	log.Printf("Login URL: %s/login", cfg.BaseURL)
	log.Printf("Registration API: %s", cfg.RegistrationAPIURL)
}
