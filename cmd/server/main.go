package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	bookingapp "github.com/servicebook/backend/internal/application/booking"
	catalogapp "github.com/servicebook/backend/internal/application/catalog"
	eventapp "github.com/servicebook/backend/internal/application/event"
	identityapp "github.com/servicebook/backend/internal/application/identity"
	inventoryapp "github.com/servicebook/backend/internal/application/inventory"
	partnerapp "github.com/servicebook/backend/internal/application/partner"
	"github.com/servicebook/backend/internal/domain/shared"
	"github.com/servicebook/backend/internal/infrastructure/auth"
	"github.com/servicebook/backend/internal/infrastructure/cache"
	"github.com/servicebook/backend/internal/infrastructure/config"
	"github.com/servicebook/backend/internal/infrastructure/event"
	"github.com/servicebook/backend/internal/infrastructure/logger"
	"github.com/servicebook/backend/internal/infrastructure/persistence"
	"github.com/servicebook/backend/internal/infrastructure/telemetry"
	"github.com/servicebook/backend/internal/interfaces/http/handler"
	"github.com/servicebook/backend/internal/interfaces/http/middleware"
	"github.com/servicebook/backend/internal/interfaces/http/router"
	"go.uber.org/zap"

	_ "github.com/servicebook/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

// Auth endpoints accept this many requests per client IP per minute
const authRequestsPerMinute = 20

//	@title			Servicebook API
//	@version		1.0
//	@description	Inventory-aware booking of installation services

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Type "Bearer" followed by a space and the access token.

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	providers, err := telemetry.Setup(ctx, cfg.Telemetry, version, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	// Tee logs into the OTLP pipeline once it exists
	if cfg.Telemetry.LogsEnabled {
		if log, err = logger.New(cfg.Log, providers.LogCore(logger.ParseLevel(cfg.Log.Level))); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting servicebook",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.GormLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.InstrumentDB(db.DB, telemetry.DBTracingConfig{
			DBName:     cfg.Database.DBName,
			LogFullSQL: cfg.Telemetry.DBLogFullSQL,
		}, log); err != nil {
			log.Fatal("Failed to instrument database", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	stores, err := cache.NewStores(ctx, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	if err != nil {
		log.Fatal("Failed to initialize cache stores", zap.Error(err))
	}

	// Events are written to the outbox in the same transaction as the change
	serializer := event.NewDefaultSerializer()
	log.Debug("Outbox event types registered", zap.Strings("types", serializer.RegisteredTypes()))
	outboxPublisher := event.NewOutboxPublisher(serializer).WithMaxRetries(cfg.Event.MaxRetries)
	scope := persistence.NewGormTransactionScope(db.DB, outboxPublisher)

	bookingRepo := persistence.NewGormBookingRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	variantRepo := persistence.NewGormVariantRepository(db.DB)
	stockRepo := persistence.NewGormStockRecordRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	warehouseRepo := persistence.NewGormWarehouseRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)

	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(scope, userRepo, jwtService, stores.Revocations, log)
	bookingCfg := bookingapp.DefaultConfig()
	bookingCfg.StrictRestore = cfg.Booking.StrictRestore
	bookingCfg.LowStockThreshold = cfg.Booking.LowStockThreshold
	bookingService := bookingapp.NewService(scope, bookingRepo, variantRepo, userRepo, bookingCfg, log)
	registryService := catalogapp.NewRegistryService(scope, productRepo, variantRepo, stockRepo, log)
	ledgerService := inventoryapp.NewLedgerService(scope, stockRepo, warehouseRepo, cfg.Booking.LowStockThreshold, log)
	warehouseService := partnerapp.NewWarehouseService(scope, warehouseRepo)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	businessMetrics, err := telemetry.NewBusinessMetrics(providers.Meter())
	if err != nil {
		log.Fatal("Failed to create business metrics", zap.Error(err))
	}
	bookingService.SetMetrics(businessMetrics)

	eventIdempotency := shared.IdempotencyConfig{Enabled: cfg.Idempotency.Enabled, TTL: cfg.Idempotency.TTL}

	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(inventoryapp.NewAlertHandler(businessMetrics, log))

	var broker *event.AMQPBroker
	if cfg.AMQP.Enabled {
		broker, err = event.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Exchange, log)
		if err != nil {
			log.Fatal("Failed to connect to AMQP broker", zap.Error(err))
		}
		relay := event.NewAMQPRelay(broker, cfg.AMQP.Exchange, serializer, log)
		relayStats := &event.IdempotencyMetrics{}
		eventBus.Subscribe(event.NewIdempotentHandler(relay, stores.Idempotency, log,
			event.WithIdempotencyConfig(eventIdempotency),
			event.WithIdempotencyMetrics(relayStats)))
		if err := telemetry.ObserveRelay(providers.Meter(), func() (int64, int64, int64) {
			s := relayStats.Stats()
			return s.EventsProcessed, s.EventsDuplicate, s.EventsFailed
		}); err != nil {
			log.Fatal("Failed to register relay metrics", zap.Error(err))
		}
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	var processor *event.OutboxProcessor
	if cfg.Event.ProcessorEnabled {
		processorCfg := event.DefaultOutboxProcessorConfig()
		processorCfg.BatchSize = cfg.Event.BatchSize
		processorCfg.PollInterval = cfg.Event.PollInterval
		processorCfg.CleanupEnabled = cfg.Event.CleanupEnabled
		processorCfg.CleanupRetention = cfg.Event.CleanupRetention

		processor = event.NewOutboxProcessor(outboxRepo, eventBus, serializer, processorCfg, log)
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
	}

	middleware.SetupValidator()
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	authLimiter := middleware.NewRateLimiter(authRequestsPerMinute, time.Minute)

	engineCfg := router.EngineConfig{
		HTTP: cfg.HTTP,
		JWT: middleware.JWTMiddlewareConfig{
			JWTService:  jwtService,
			Revocations: stores.Revocations,
			Logger:      log,
		},
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Meter:            providers.Meter(),
		IdempotencyStore: stores.Idempotency,
		Idempotency:      eventIdempotency,
		AuthLimiter:      authLimiter,
		Logger:           log,
	}
	if cfg.Swagger.Enabled {
		engineCfg.Swagger = ginSwagger.WrapHandler(swaggerFiles.Handler)
	}

	engine, err := router.NewEngine(engineCfg, router.Handlers{
		Auth:       handler.NewAuthHandler(authService),
		Bookings:   handler.NewBookingHandler(bookingService),
		Catalog:    handler.NewCatalogHandler(registryService),
		Inventory:  handler.NewInventoryHandler(ledgerService, registryService, warehouseService),
		Warehouses: handler.NewWarehouseHandler(warehouseService),
		Outbox:     handler.NewOutboxHandler(outboxService),
		Health:     handler.NewHealthHandler(db, stores.Distributed),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	// Stop accepting work before tearing down what serves it
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if processor != nil {
		if err := processor.Stop(shutdownCtx); err != nil {
			log.Error("Outbox processor did not stop cleanly", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not stop cleanly", zap.Error(err))
	}
	if broker != nil {
		if err := broker.Close(); err != nil {
			log.Error("Error closing AMQP connection", zap.Error(err))
		}
	}
	authLimiter.Stop()
	if err := stores.Close(); err != nil {
		log.Error("Error closing cache stores", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
