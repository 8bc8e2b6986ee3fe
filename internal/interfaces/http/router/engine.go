package router

import (
	"github.com/erp/fincore/internal/infrastructure/config"
	"github.com/erp/fincore/internal/infrastructure/logger"
	"github.com/erp/fincore/internal/interfaces/http/handler"
	"github.com/erp/fincore/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// EngineConfig carries everything the HTTP engine is assembled from
type EngineConfig struct {
	HTTP      config.HTTPConfig
	Swagger   config.SwaggerConfig
	Identity  config.IdentityConfig
	Tracing   middleware.TracingConfig
	Profiling bool
	Meter     metric.Meter
	Logger    *zap.Logger
	Version   string

	Finance  handler.FinanceService
	Tokens   middleware.TokenValidator
	Resolver middleware.PrincipalResolver
	DB       handler.Pinger
}

// NewEngine builds the gin engine with the global middleware chain, the
// health and swagger endpoints and the authenticated /api/v1 routes.
func NewEngine(cfg EngineConfig) *gin.Engine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// RequestID runs first so the request logger and recovery see the id
	engine.Use(middleware.RequestID())
	engine.Use(logger.AccessLog(log, "/health"))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfigFromHTTP(cfg.HTTP)))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Tracing(cfg.Tracing))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(cfg.Meter))

	engine.GET("/health", handler.NewHealthHandler(cfg.DB, cfg.Version).Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(cfg.Swagger),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	mountAPI(engine, "v1", []gin.HandlerFunc{
		middleware.SessionAuth(cfg.Tokens, log),
		middleware.Identity(middleware.IdentityConfig{
			Resolver:              cfg.Resolver,
			DemoModeHeaderEnabled: cfg.Identity.DemoModeHeaderEnabled,
			Logger:                log,
		}),
		middleware.Profiling(cfg.Profiling),
	}, NewHandlers(cfg.Finance).resources()...)

	return engine
}
