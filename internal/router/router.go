package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/gameforge-studio/internal/config"
	"github.com/iliyamo/gameforge-studio/internal/handler"
	"github.com/iliyamo/gameforge-studio/internal/metrics"
	"github.com/iliyamo/gameforge-studio/internal/middleware"
	"github.com/iliyamo/gameforge-studio/internal/repository"
	"github.com/iliyamo/gameforge-studio/internal/service"
)

// Deps is everything the HTTP layer needs. Redis may be nil.
type Deps struct {
	Config    config.Config
	Store     repository.Storage
	Sessions  *middleware.Sessions
	Publisher service.Publisher
	Redis     *redis.Client
	Log       logrus.FieldLogger
}

// New builds the Echo instance with global middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(middleware.Metrics())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.Recover())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(d.Sessions.Load())

	RegisterRoutes(e, d.Store, d.Log)
	RegisterAuth(e, handler.NewAuthHandler(d.Store, d.Sessions, d.Config.BcryptCost, d.Log), d.Config, d.Redis, d.Log)
	RegisterUsers(e, handler.NewUserHandler(d.Store, d.Sessions))
	RegisterProjects(e, handler.NewProjectHandler(d.Store, d.Store))
	RegisterCatalog(e, handler.NewCatalogHandler(d.Store, d.Store), d.Config.Cache, d.Redis)
	RegisterCommerce(e, handler.NewCommerceHandler(d.Store, d.Publisher, d.Log), handler.NewLibraryHandler(d.Store))
	RegisterChats(e, handler.NewChatHandler(d.Store, d.Store, d.Store))
	RegisterMetrics(e, handler.NewMetricsHandler(d.Store))
	return e
}

// RegisterRoutes registers the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, store handler.Pinger, log logrus.FieldLogger) {
	e.GET("/healthz", handler.Health(store, log))
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))
}

// RegisterAuth registers login and session routes under /api/auth. Signup
// and login sit behind the Redis token bucket; dev-login only exists
// outside production.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, cfg config.Config, rdb *redis.Client, log logrus.FieldLogger) {
	g := e.Group("/api/auth")
	limit := middleware.NewTokenBucket(cfg.RateLimit, rdb, log)
	g.POST("/signup", a.Signup, limit)
	g.POST("/login", a.Login, limit)
	g.POST("/logout", a.Logout, middleware.RequireSession)
	g.PATCH("/change-password", a.ChangePassword, middleware.RequireSession)
	g.POST("/dev-login", a.DevLogin, middleware.DevOnly(cfg.IsProduction()))
}

// RegisterUsers registers profile routes.
func RegisterUsers(e *echo.Echo, h *handler.UserHandler) {
	e.GET("/api/user/current", h.Current, middleware.RequireSession)
	e.GET("/api/users", h.List)
	e.GET("/api/users/:id", h.Get)
	e.PATCH("/api/users/:id", h.Update, middleware.RequireSession)
}

// RegisterProjects registers project CRUD. Only deletion requires a session;
// creation uses one when present.
func RegisterProjects(e *echo.Echo, h *handler.ProjectHandler) {
	g := e.Group("/api/projects")
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", h.Create)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete, middleware.RequireSession)
}

// RegisterCatalog registers public marketplace reads behind the response
// cache.
func RegisterCatalog(e *echo.Echo, h *handler.CatalogHandler, cfg config.CacheConfig, rdb *redis.Client) {
	cache := middleware.NewRedisCache(cfg, rdb)
	e.GET("/api/assets", h.ListAssets, cache)
	e.GET("/api/assets/:id", h.GetAsset, cache)
	e.GET("/api/bundles", h.ListBundles, cache)
	e.GET("/api/bundles/:id", h.GetBundle, cache)
}

// RegisterCommerce registers cart, purchase and library routes. Cart and
// purchase routes are open; the library requires a session.
func RegisterCommerce(e *echo.Echo, h *handler.CommerceHandler, lib *handler.LibraryHandler) {
	cart := e.Group("/api/cart/:userId")
	cart.GET("", h.ListCart)
	cart.POST("", h.AddToCart)
	cart.DELETE("", h.ClearCart)
	cart.DELETE("/items/:itemId", h.RemoveFromCart)
	cart.POST("/checkout", h.Checkout)

	e.POST("/api/purchases", h.CreatePurchase)
	e.GET("/api/purchases/:userId", h.ListPurchases)

	g := e.Group("/api/library", middleware.RequireSession)
	g.GET("", lib.List)
	g.POST("", lib.Add)
	g.PATCH("/:id", lib.Update)
	g.DELETE("/:id", lib.Remove)
}

// RegisterChats registers chat, membership and message routes. All require
// a session.
func RegisterChats(e *echo.Echo, h *handler.ChatHandler) {
	g := e.Group("/api/chats", middleware.RequireSession)
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/members", h.ListMembers)
	g.POST("/:id/members", h.AddMember)
	g.DELETE("/:id/members/:userId", h.RemoveMember)
	g.GET("/:id/messages", h.ListMessages)
	g.POST("/:id/messages", h.PostMessage)

	m := e.Group("/api/messages", middleware.RequireSession)
	m.PATCH("/:id", h.EditMessage)
	m.DELETE("/:id", h.DeleteMessage)
}

// RegisterMetrics registers the dashboard counters of the session user.
func RegisterMetrics(e *echo.Echo, h *handler.MetricsHandler) {
	g := e.Group("/api/metrics", middleware.RequireSession)
	g.GET("", h.Get)
	g.PUT("", h.Put)
}
