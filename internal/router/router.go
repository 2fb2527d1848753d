// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/secure-task-manager/internal/auth"
	"github.com/iliyamo/secure-task-manager/internal/config"
	"github.com/iliyamo/secure-task-manager/internal/handler"
	"github.com/iliyamo/secure-task-manager/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication.
// Currently it exposes only a health check for load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints. Register, login and
// logout live outside the protected group: logout only clears the cookie and
// deliberately accepts requests without a valid token. /api/auth/me requires
// the session cookie.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, issuer *auth.TokenIssuer) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/logout", a.Logout)

	g.GET("/me", a.Me, middleware.CookieAuth(issuer))
}

// RegisterTasks registers the task CRUD endpoints behind cookie auth, the
// Redis token bucket rate limiter and (for GETs) the per-user response
// cache. When rdb is nil both Redis middlewares are pass-throughs.
func RegisterTasks(e *echo.Echo, t *handler.TaskHandler, issuer *auth.TokenIssuer, rdb *redis.Client) {
	g := e.Group("/api/tasks")
	g.Use(middleware.CookieAuth(issuer))
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	g.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	g.POST("", t.Create)
	g.GET("", t.List)
	g.GET("/:id", t.Get)
	g.PATCH("/:id", t.Update)
	g.DELETE("/:id", t.Delete)
}
