// Package router wires handlers and middleware onto an Echo instance.
package router

import (
	"database/sql"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating-api/internal/config"
	"github.com/iliyamo/store-rating-api/internal/handler"
	"github.com/iliyamo/store-rating-api/internal/middleware"
	"github.com/iliyamo/store-rating-api/internal/model"
	"github.com/iliyamo/store-rating-api/internal/repository"
	"github.com/iliyamo/store-rating-api/internal/service"
	"github.com/iliyamo/store-rating-api/internal/utils"
)

// Deps is everything the HTTP layer needs.  Redis may be nil, which
// disables revocation, rate limiting and caching.
type Deps struct {
	Log       *zap.Logger
	DB        *sql.DB
	Redis     *redis.Client
	Issuer    *utils.TokenIssuer
	Hasher    *utils.Hasher
	Events    service.Publisher
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
}

// New builds the Echo instance with the central error handler, validator,
// global middleware and every route registered.
func New(d Deps) *echo.Echo {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(d.Log)
	e.Validator = handler.NewValidator()
	e.Use(
		middleware.RequestID(),
		middleware.Logger(d.Log.Named("http")),
		middleware.Recover(d.Log),
	)

	revoked := repository.NewTokenRepo(d.Redis)
	jwtAuth := middleware.JWTAuth(d.Issuer, revoked)

	RegisterRoutes(e, d.DB)
	RegisterAuth(e,
		handler.NewAuthHandler(repository.NewUserRepo(d.DB), d.Issuer, d.Hasher, revoked, d.Events, d.Log),
		jwtAuth,
		middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log),
	)
	RegisterStoreOwner(e,
		handler.NewStoreOwnerHandler(repository.NewStoreRepo(d.DB), repository.NewRatingRepo(d.DB), d.Log),
		jwtAuth,
		middleware.NewRedisCache(d.Cache, d.Redis, d.Log),
	)
	return e
}

// RegisterRoutes registers routes that do not require authentication.
// /readyz is only mounted when a database is configured.
func RegisterRoutes(e *echo.Echo, db *sql.DB) {
	e.GET("/healthz", handler.Health)
	if db != nil {
		e.GET("/readyz", handler.Ready(db))
	}
}

// RegisterAuth registers the /auth group.  The whole group is rate
// limited; verify, refresh and logout also require a bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtAuth, limiter echo.MiddlewareFunc) {
	g := e.Group("/auth", limiter)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	g.GET("/verify", a.Verify, jwtAuth)
	g.POST("/refresh", a.Refresh, jwtAuth)
	g.POST("/logout", a.Logout, jwtAuth)
}

// RegisterStoreOwner registers the read-only /store-owner group.  Role
// checks run before the cache so a rejected caller never reads a cached
// response.
func RegisterStoreOwner(e *echo.Echo, o *handler.StoreOwnerHandler, jwtAuth, cache echo.MiddlewareFunc) {
	g := e.Group("/store-owner",
		jwtAuth,
		middleware.RequireRole(model.RoleStoreOwner),
		cache,
	)
	g.GET("/stores", o.ListStores)
	g.GET("/dashboard/stats", o.DashboardStats)
	g.GET("/ratings", o.ListRatings)
}
