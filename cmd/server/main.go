package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ledgerapp "github.com/resto/backoffice/internal/application/ledger"
	"github.com/resto/backoffice/internal/infrastructure/cache"
	"github.com/resto/backoffice/internal/infrastructure/config"
	"github.com/resto/backoffice/internal/infrastructure/logger"
	"github.com/resto/backoffice/internal/infrastructure/persistence"
	"github.com/resto/backoffice/internal/interfaces/http/handler"
	"github.com/resto/backoffice/internal/interfaces/http/middleware"
	"github.com/resto/backoffice/internal/interfaces/http/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting ledger service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	invoiceStore := persistence.NewGormInvoiceStore(db.DB)

	// Idempotency store (memory or redis per config)
	idempotencyStore, err := cache.NewIdempotencyStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Application services
	engineConfig := ledgerapp.EngineConfig{
		MaxRetries:     cfg.Ledger.MaxRetries,
		IdempotencyTTL: cfg.Ledger.IdempotencyTTL,
	}
	ledgerEngine := ledgerapp.NewEngine(accountRepo, transactionRepo, invoiceStore, idempotencyStore, engineConfig, log)
	accountService := ledgerapp.NewAccountService(accountRepo, transactionRepo, cfg.Ledger.DefaultAllowOverdraft, log)
	queryService := ledgerapp.NewQueryService(accountRepo, transactionRepo, cfg.Ledger.MaxPageSize, log)

	// Handlers
	accountHandler := handler.NewAccountHandler(accountService, queryService)
	ledgerHandler := handler.NewLedgerHandler(ledgerEngine)
	queryHandler := handler.NewQueryHandler(queryService)

	// HTTP engine and middleware chain
	middleware.SetupValidator()
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", healthHandler(db))

	// Routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.NewLedgerRoutes(accountHandler, ledgerHandler, queryHandler))
	r.Setup()

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
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports liveness plus database reachability
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
