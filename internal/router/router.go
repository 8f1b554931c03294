// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/f-lab-edu/retry-lee/internal/config"
	"github.com/f-lab-edu/retry-lee/internal/handler"
	"github.com/f-lab-edu/retry-lee/internal/middleware"
	"github.com/f-lab-edu/retry-lee/internal/model"
	"github.com/f-lab-edu/retry-lee/internal/service"
	"github.com/f-lab-edu/retry-lee/internal/utils"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Codec          *utils.TokenCodec
	Resolver       *service.Resolver
	Auth           *handler.AuthHandler
	Accommodations *handler.AccommodationHandler
	Redis          *redis.Client // nil disables cache and rate limiting
	Cache          config.CacheConfig
	RateLimit      config.RateLimitConfig
}

// Register wires every route. The authenticator runs globally and never
// rejects; the authority gates on protected groups decide.
func Register(e *echo.Echo, d Deps) {
	e.GET("/healthz", handler.Health)

	e.Use(middleware.Authenticate(d.Codec, d.Resolver))

	// Credential endpoints carry the rate limiter: they are the
	// brute-force surface.
	auth := e.Group("/v1/auth", middleware.RateLimit(d.RateLimit, d.Redis))
	auth.POST("/signup", d.Auth.SignUp)
	auth.POST("/signin", d.Auth.SignIn)
	auth.POST("/reissue", d.Auth.Reissue)

	// Any authenticated principal; admins pass via the ROLE_USER
	// superset.
	me := e.Group("/v1/me", middleware.RequireAuthority(model.AuthorityUser))
	me.GET("", d.Auth.Me)

	// Public browse behind the response cache.
	e.GET("/v1/accommodations", d.Accommodations.List,
		middleware.ResponseCache(d.Cache, d.Redis))

	// Admin-only registration.
	admin := e.Group("/v1/accommodations", middleware.RequireAuthority(model.AuthorityAdmin))
	admin.POST("", d.Accommodations.Register)
}
