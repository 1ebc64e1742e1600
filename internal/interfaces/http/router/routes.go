package router

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/servicebook/backend/internal/domain/identity"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/servicebook/backend/internal/infrastructure/config"
	"github.com/servicebook/backend/internal/infrastructure/logger"
	"github.com/servicebook/backend/internal/interfaces/http/handler"
	"github.com/servicebook/backend/internal/interfaces/http/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// bookingIdempotencyPrefix namespaces booking creation keys in the store
const bookingIdempotencyPrefix = "booking:create:"

// Handlers are the HTTP handlers mounted by NewEngine
type Handlers struct {
	Auth       *handler.AuthHandler
	Bookings   *handler.BookingHandler
	Catalog    *handler.CatalogHandler
	Inventory  *handler.InventoryHandler
	Warehouses *handler.WarehouseHandler
	Outbox     *handler.OutboxHandler
	Health     *handler.HealthHandler
}

// EngineConfig carries everything NewEngine wires besides the handlers
type EngineConfig struct {
	HTTP    config.HTTPConfig
	JWT     middleware.JWTMiddlewareConfig
	Tracing middleware.TracingConfig
	// Meter enables HTTP metrics when non-nil
	Meter metric.Meter

	IdempotencyStore shared.IdempotencyStore
	Idempotency      shared.IdempotencyConfig

	// AuthLimiter throttles the unauthenticated auth endpoints when set
	AuthLimiter *middleware.RateLimiter
	// Swagger serves the API docs at /swagger/*any when set
	Swagger gin.HandlerFunc

	Logger *zap.Logger
}

// NewEngine builds the gin engine with global middleware and every route
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(middleware.RequestID(), logger.Recovery(log))
	engine.Use(middleware.Tracing(cfg.Tracing)...)
	engine.Use(logger.GinMiddleware(log))

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(cors), middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	metrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}
	engine.Use(metrics)

	// Outside API versioning
	engine.GET("/health", h.Health.Check)
	if cfg.Swagger != nil {
		engine.GET("/swagger/*any", cfg.Swagger)
	}

	jwt := middleware.JWTAuth(cfg.JWT)
	r := NewRouter(engine, WithAPIVersion("v1"))
	r.Register(
		authRoutes(h.Auth, jwt, cfg.AuthLimiter),
		customerRoutes(h, jwt, middleware.IdempotencyKey(cfg.IdempotencyStore, cfg.Idempotency, bookingIdempotencyPrefix, log)),
		adminRoutes(h, jwt),
	)
	r.Setup()

	return engine, nil
}

func authRoutes(h *handler.AuthHandler, jwt gin.HandlerFunc, limiter *middleware.RateLimiter) *DomainGroup {
	g := NewDomainGroup("auth", "/auth")

	public := g.Group("auth-public", "")
	if limiter != nil {
		public.Use(middleware.RateLimit(limiter))
	}
	public.
		POST("/login", h.Login).
		POST("/register", h.Register).
		POST("/refresh", h.Refresh)

	g.Group("auth-session", "").
		Use(jwt).
		POST("/logout", h.Logout).
		GET("/me", h.Me)
	return g
}

func customerRoutes(h Handlers, jwt, idempotency gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("bookings", "").Use(jwt)

	g.Group("bookings", "/bookings").
		POST("", idempotency, h.Bookings.Create).
		GET("/mine", h.Bookings.ListMine).
		GET("/stats", h.Bookings.Stats).
		GET("/:id", h.Bookings.Get).
		POST("/:id/cancel", h.Bookings.Cancel)

	g.GET("/technicians", h.Bookings.ListTechnicians)

	g.Group("variants", "/variants").
		GET("/:id", h.Catalog.GetVariant).
		GET("/:id/stock", h.Inventory.GetStock)

	g.GET("/products/:id/variants", h.Catalog.ListProductVariants)
	return g
}

func adminRoutes(h Handlers, jwt gin.HandlerFunc) *DomainGroup {
	g := NewDomainGroup("admin", "/admin").Use(jwt, middleware.RequireRole(identity.RoleAdmin))

	g.Group("admin-bookings", "/bookings").
		GET("", h.Bookings.ListAll).
		PATCH("/:id", h.Bookings.Update).
		DELETE("/:id", h.Bookings.Delete)

	g.Group("admin-catalog", "").
		POST("/products", h.Catalog.RegisterProduct).
		PATCH("/variants/:id", h.Catalog.UpdateVariant)

	g.Group("admin-inventory", "/inventory").
		POST("/add", h.Inventory.AddStock).
		POST("/reduce", h.Inventory.ReduceStock)

	g.Group("admin-warehouses", "/warehouses").
		POST("", h.Warehouses.Create).
		GET("", h.Warehouses.List)

	g.Group("admin-outbox", "/outbox").
		GET("/stats", h.Outbox.Stats).
		GET("/dead", h.Outbox.ListDead).
		POST("/dead/retry", h.Outbox.RetryAll).
		GET("/:id", h.Outbox.Get).
		POST("/:id/retry", h.Outbox.Retry)
	return g
}
