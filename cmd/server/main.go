package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appfinance "github.com/erp/fincore/internal/application/finance"
	appidentity "github.com/erp/fincore/internal/application/identity"
	appintegration "github.com/erp/fincore/internal/application/integration"
	appreport "github.com/erp/fincore/internal/application/report"
	"github.com/erp/fincore/internal/domain/shared/valueobject"
	"github.com/erp/fincore/internal/infrastructure/accounting"
	"github.com/erp/fincore/internal/infrastructure/auth"
	"github.com/erp/fincore/internal/infrastructure/cache"
	"github.com/erp/fincore/internal/infrastructure/config"
	"github.com/erp/fincore/internal/infrastructure/export"
	"github.com/erp/fincore/internal/infrastructure/logger"
	"github.com/erp/fincore/internal/infrastructure/persistence"
	"github.com/erp/fincore/internal/infrastructure/storage"
	"github.com/erp/fincore/internal/infrastructure/telemetry"
	"github.com/erp/fincore/internal/interfaces/http/middleware"
	"github.com/erp/fincore/internal/interfaces/http/router"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"

	_ "github.com/erp/fincore/docs"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Fincore API
//	@version		1.0
//	@description	Invoices, expenses, customers, financial reports and accounting sync

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
		Fields: []zap.Field{zap.String("service", cfg.Telemetry.ServiceName), zap.String("version", version)},
	}

	// Bootstrap logger for telemetry setup; replaced once the OTEL bridge exists
	bootLog, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	otelProviders, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Environment:       cfg.App.Env,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	log, err := logger.New(logCfg, otelProviders.ZapCore(logger.ParseLevel(cfg.Log.Level)))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting fincore",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         cfg.Profiling.Enabled,
		ServerAddress:   cfg.Profiling.ServerAddress,
		ApplicationName: cfg.Profiling.ApplicationName,
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if profiler.Enabled() {
		otelProviders.EnableSpanProfiles()
	}

	meter := otelProviders.Meter(cfg.Telemetry.ServiceName)
	metrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:  meter,
		Logger: log,
	})
	if err != nil {
		log.Warn("Business metrics unavailable, continuing without them", zap.Error(err))
		metrics = telemetry.NewNoopBusinessMetrics()
	}

	// Database
	gormLog := logger.NewSQLLogger(log, gormlogger.Config{
		LogLevel:                  logger.SQLLogLevel(cfg.Log.Level),
		SlowThreshold:             cfg.Telemetry.DBSlowQueryThresh,
		IgnoreRecordNotFoundError: true,
		ParameterizedQueries:      !cfg.Telemetry.DBLogFullSQL,
	})
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected", zap.String("driver", db.Driver))

	if cfg.Database.AutoMigrate {
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to migrate schema", zap.Error(err))
		}
		log.Info("Schema migrated")
	}

	var dbMeter metric.Meter
	if otelProviders.Enabled() {
		dbMeter = otelProviders.Meter("db.client")
	}
	dbTelemetry, err := telemetry.NewGormPlugin(telemetry.GormConfig{
		Tracing:            cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		FullSQL:            cfg.Telemetry.DBLogFullSQL,
		DBSystem:           db.Driver,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, dbMeter, log)
	if err == nil {
		err = db.DB.Use(dbTelemetry)
	}
	if err != nil {
		log.Warn("Database instrumentation unavailable", zap.Error(err))
	}

	// Repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	expenseRepo := persistence.NewGormExpenseRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	saleFactRepo := persistence.NewGormSaleFactRepository(db.DB)
	tenantProfileRepo := persistence.NewGormTenantProfileRepository(db.DB)
	syncRecordRepo := persistence.NewGormSyncRecordRepository(db.DB)

	// Aggregation
	aggCfg := appreport.DefaultAggregatorConfig()
	aggCfg.Currency = valueobject.ParseCurrency(cfg.Finance.DefaultCurrency)
	aggCfg.VATRate = cfg.Finance.VATRate
	aggCfg.TopN = cfg.Finance.TopN
	aggCfg.SeriesDays = cfg.Finance.SeriesDays
	aggregator := appreport.NewAggregatorService(
		appreport.NewFactLoader(saleFactRepo, invoiceRepo, expenseRepo),
		aggCfg, metrics, log,
	)

	facadeOpts := []appfinance.FacadeOption{
		appfinance.WithMetrics(metrics),
		appfinance.WithLogger(log),
	}

	// Accounting sync
	var syncLock cache.SyncLock
	if cfg.Sync.Enabled {
		registry, err := accounting.NewRegistry(cfg.Sync, log)
		if err != nil {
			log.Fatal("Failed to build accounting platform registry", zap.Error(err))
		}
		syncLock, err = cache.NewSyncLockFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(!cfg.IsProduction()),
		).CreateLock()
		if err != nil {
			log.Fatal("Failed to create sync lock", zap.Error(err))
		}
		bridge := appintegration.NewSyncBridge(
			registry, syncRecordRepo, customerRepo, invoiceRepo, expenseRepo, syncLock,
			appintegration.SyncBridgeConfig{
				PushTimeout: cfg.Sync.PushTimeout,
				LockTTL:     cfg.Sync.LockTTL,
			},
			metrics, log,
		)
		facadeOpts = append(facadeOpts, appfinance.WithSyncBridge(bridge))
		log.Info("Accounting sync enabled", zap.Int("platforms", len(cfg.Sync.Platforms)))
	}

	// Exports
	exporter, err := export.NewExporter(cfg.Export, log)
	if err != nil {
		log.Fatal("Failed to initialize exporter", zap.Error(err))
	}
	facadeOpts = append(facadeOpts, appfinance.WithExporter(exporter))

	if cfg.Storage.Enabled {
		objects, err := storage.NewS3Archive(ctx, cfg.Storage, log)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		bucketCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := objects.EnsureBucket(bucketCtx); err != nil {
			log.Warn("Export archive bucket check failed", zap.Error(err))
		}
		cancel()
		facadeOpts = append(facadeOpts, appfinance.WithArchiveStorage(objects, cfg.Storage.PresignExpires))
	}

	facade := appfinance.NewFacade(invoiceRepo, expenseRepo, customerRepo, aggregator, facadeOpts...)

	resolver := appidentity.NewResolver(tenantProfileRepo, saleFactRepo, appidentity.ResolverConfig{
		FixedFallbackEnabled:  cfg.Identity.FixedFallbackEnabled,
		FixedFallbackTenantID: cfg.Identity.FixedFallbackTenantID,
	}, metrics, log)

	engine := router.NewEngine(router.EngineConfig{
		HTTP:     cfg.HTTP,
		Swagger:  cfg.Swagger,
		Identity: cfg.Identity,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Profiling: cfg.Profiling.Enabled,
		Meter:     meter,
		Logger:    log,
		Version:   version,
		Finance:   facade,
		Tokens:    auth.NewJWTService(cfg.JWT),
		Resolver:  resolver,
		DB:        db,
	})

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

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Background pushes started by committed writes get a bounded grace period
	drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.Sync.DrainTimeout)
	defer drainCancel()
	if err := facade.Drain(drainCtx); err != nil {
		log.Warn("Pending sync pushes abandoned", zap.Error(err))
	}

	closeAll(log, exporter, syncLock, dbTelemetry, db, profiler)

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer flushCancel()
	log.Info("Server exited gracefully")
	_ = log.Sync()
	if err := otelProviders.Shutdown(flushCtx); err != nil {
		bootLog.Error("Error shutting down telemetry", zap.Error(err))
	}
}

// closeAll releases process resources in order; failures are logged and the
// rest still run
func closeAll(
	log *zap.Logger,
	exporter *export.Exporter,
	syncLock cache.SyncLock,
	dbTelemetry *telemetry.GormPlugin,
	db *persistence.Database,
	profiler *telemetry.Profiler,
) {
	if err := exporter.Close(); err != nil {
		log.Error("Error closing exporter", zap.Error(err))
	}
	if closer, ok := syncLock.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Error("Error closing sync lock", zap.Error(err))
		}
	}
	if dbTelemetry != nil {
		if err := dbTelemetry.Close(); err != nil {
			log.Error("Error stopping database metrics", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
}
