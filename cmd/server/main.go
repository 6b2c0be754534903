package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	appintegration "github.com/erp/bridge/internal/application/integration"
	"github.com/erp/bridge/internal/domain/integration"
	"github.com/erp/bridge/internal/domain/shared"
	"github.com/erp/bridge/internal/infrastructure/cache"
	"github.com/erp/bridge/internal/infrastructure/config"
	"github.com/erp/bridge/internal/infrastructure/ecommerce"
	"github.com/erp/bridge/internal/infrastructure/erp"
	"github.com/erp/bridge/internal/infrastructure/logger"
	"github.com/erp/bridge/internal/infrastructure/persistence"
	"github.com/erp/bridge/internal/infrastructure/scheduler"
	"github.com/erp/bridge/internal/infrastructure/telemetry"
	"github.com/erp/bridge/internal/interfaces/http/middleware"
	"github.com/erp/bridge/internal/interfaces/http/router"
)

func main() {
	// A missing .env is normal in containers
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	telemetryCfg := telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}
	tp, err := telemetry.NewTracerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	mp, err := telemetry.NewMeterProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	lp, err := telemetry.NewLoggerProvider(ctx, telemetryCfg, log)
	if err != nil {
		log.Fatal("Failed to initialize logger provider", zap.Error(err))
	}
	if lp.IsEnabled() {
		otelCore := telemetry.NewZapCore(cfg.Telemetry.ServiceName, lp, logger.ParseLevel(cfg.Log.Level))
		if log, err = logger.New(logCfg, otelCore); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting ERP bridge",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Bool("telemetry", tp.IsEnabled()),
	)

	var records integration.OrderSyncRecordRepository
	var db *persistence.Database
	if cfg.Sync.JournalEnabled {
		db, err = persistence.NewDatabase(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := db.Migrate(); err != nil {
			log.Fatal("Failed to migrate sync journal", zap.Error(err))
		}
		if cfg.Telemetry.DBTraceEnabled {
			if err := telemetry.RegisterDBTracing(db.DB, cfg.Database.Driver, log); err != nil {
				log.Fatal("Failed to register database tracing", zap.Error(err))
			}
		}
		records = persistence.NewOrderSyncRecordRepository(db.DB)
		log.Info("Sync journal enabled", zap.String("driver", cfg.Database.Driver))
	}

	var reservations shared.IdempotencyStore
	if cfg.Sync.ReservationEnabled {
		store, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(!cfg.App.IsProduction()),
		).CreateStore(ctx)
		if err != nil {
			log.Fatal("Failed to create reservation store", zap.Error(err))
		}
		reservations = store
	}

	odoo, err := erp.NewOdooClient(&erp.OdooConfig{
		URL:            cfg.ERP.URL,
		Database:       cfg.ERP.Database,
		Login:          cfg.ERP.Login,
		APIKey:         cfg.ERP.APIKey,
		TimeoutSeconds: cfg.ERP.TimeoutSeconds,
	}, erp.WithLogger(log))
	if err != nil {
		log.Fatal("Failed to create ERP client", zap.Error(err))
	}

	woo, err := ecommerce.NewWooCommerceAdapter(&ecommerce.WooCommerceConfig{
		BaseURL:        cfg.Storefront.URL,
		ConsumerKey:    cfg.Storefront.ConsumerKey,
		ConsumerSecret: cfg.Storefront.ConsumerSecret,
		WebhookSecret:  cfg.Storefront.WebhookSecret,
		TimeoutSeconds: cfg.Storefront.TimeoutSeconds,
	})
	if err != nil {
		log.Fatal("Failed to create storefront client", zap.Error(err))
	}

	metrics, err := telemetry.NewSyncMetrics(mp.Meter(telemetry.TracerName))
	if err != nil {
		log.Fatal("Failed to create sync metrics", zap.Error(err))
	}

	orders := appintegration.NewOrderSyncService(appintegration.OrderSyncServiceConfig{
		ERP:             odoo,
		Reservations:    reservations,
		Records:         records,
		Metrics:         metrics,
		Logger:          log,
		AutoConfirmSale: cfg.Sync.AutoConfirmSale,
		ReservationTTL:  cfg.Sync.ReservationTTL,
	})
	stock := appintegration.NewStockSyncService(appintegration.StockSyncServiceConfig{
		ERP:        odoo,
		Storefront: woo,
		Metrics:    metrics,
		Logger:     log,
		PageLimit:  cfg.Sync.StockPageLimit,
	})

	trigger := scheduler.NewStockSyncTrigger(scheduler.StockSyncTriggerConfig{
		Interval: cfg.Sync.StockInterval,
	}, stock, log)
	if trigger.Enabled() {
		if err := trigger.Start(ctx); err != nil {
			log.Fatal("Failed to start stock sync scheduler", zap.Error(err))
		}
		log.Info("Stock sync scheduler started", zap.Duration("interval", cfg.Sync.StockInterval))
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
	}

	engine, err := router.NewEngine(router.Config{
		Logger:      log,
		Orders:      orders,
		Records:     orders,
		Stock:       stock,
		Verifier:    ecommerce.NewWebhookVerifier(cfg.Storefront.WebhookSecret),
		MaxBodySize: cfg.HTTP.MaxBodySize,
		RateLimiter: limiter,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     tp.IsEnabled(),
		},
		TrustedProxies: cfg.HTTP.TrustedProxies,
	})
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("Shutting down server...", zap.String("signal", sig.String()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := trigger.Stop(shutdownCtx); err != nil {
		log.Warn("Stock sync scheduler did not stop cleanly", zap.Error(err))
	}
	if limiter != nil {
		limiter.Stop()
	}
	if reservations != nil {
		if err := reservations.Close(); err != nil {
			log.Warn("Error closing reservation store", zap.Error(err))
		}
	}
	if db != nil {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tp.Shutdown,
		"meter":  mp.Shutdown,
		"logger": lp.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry provider shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}
