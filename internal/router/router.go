// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/shibbu04/EventBook/internal/config"
	"github.com/shibbu04/EventBook/internal/handler"
	"github.com/shibbu04/EventBook/internal/middleware"
	"github.com/shibbu04/EventBook/internal/realtime"
)

// RegisterRoutes registers routes that require no authentication.
// Currently that is only the health check used by load balancers.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth wires the /v1/auth endpoints plus the authenticated
// /v1/me profile route.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic wires the unauthenticated event catalogue. These are
// the hottest read endpoints, so they sit behind the Redis response
// cache and the per-IP rate limiter; both degrade to passthrough when
// Redis is unavailable.
func RegisterPublic(e *echo.Echo, h *handler.EventHandler, cacheCfg config.CacheConfig, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group("/v1/events",
		middleware.RateLimit(rlCfg, rdb),
		middleware.ResponseCache(cacheCfg, rdb),
	)
	g.GET("", h.List)
	g.GET("/:id", h.Get)
}

// RegisterBookings wires the authenticated booking endpoints under
// /v1. Both roles may book; per-row ownership is enforced inside the
// repository.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("user", "admin"),
	)
	g.POST("/bookings", h.Create)
	g.GET("/bookings", h.List)
	g.GET("/bookings/:id", h.Get)
	g.DELETE("/bookings/:id", h.Cancel)
}

// RegisterAdmin wires the admin-only surface: event CRUD, user
// management and the analytics dashboard.
func RegisterAdmin(e *echo.Echo, ev *handler.EventHandler, us *handler.AdminUserHandler, bk *handler.BookingHandler, jwtSecret string) {
	g := e.Group("/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("admin"),
	)
	g.POST("/events", ev.Create)
	g.PUT("/events/:id", ev.Update)
	g.DELETE("/events/:id", ev.Delete)

	g.GET("/users", us.List)
	g.PUT("/users/:id/role", us.UpdateRole)
	g.DELETE("/users/:id", us.Delete)

	g.GET("/analytics", bk.Analytics)
}

// RegisterRealtime wires the SSE stream and the advisory seat-lock
// endpoints. The stream itself is public so browsing users see live
// availability; acquiring a lock requires a session.
func RegisterRealtime(e *echo.Echo, h *realtime.Handler, jwtSecret string) {
	e.GET("/v1/realtime/stream", h.Stream)

	g := e.Group("/v1/realtime",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("user", "admin"),
	)
	g.POST("/lock", h.Lock)
	g.POST("/release", h.Release)
}
