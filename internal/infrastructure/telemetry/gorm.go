package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultSlowQueryThreshold = 200 * time.Millisecond

// GormConfig controls the gorm instrumentation.
type GormConfig struct {
	// Tracing installs otelgorm spans; metrics are recorded whenever a
	// meter is given.
	Tracing bool
	// FullSQL keeps bound values in span statements. Off outside
	// development since values carry tax ids and amounts.
	FullSQL            bool
	DBSystem           string
	SlowQueryThreshold time.Duration
}

// GormPlugin is a gorm.Plugin that times every statement once and feeds
// both the active span and the db_* instruments.
type GormPlugin struct {
	cfg    GormConfig
	meter  metric.Meter
	logger *zap.Logger

	queries     *Counter
	slowQueries *Counter
	duration    *Histogram
	poolStats   metric.Registration
}

// NewGormPlugin builds the plugin. A nil meter disables the query and pool
// instruments.
func NewGormPlugin(cfg GormConfig, meter metric.Meter, logger *zap.Logger) (*GormPlugin, error) {
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = defaultSlowQueryThreshold
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &GormPlugin{cfg: cfg, meter: meter, logger: logger}
	if meter == nil {
		return p, nil
	}

	var err error
	if p.queries, err = NewCounter(meter, "db_query_total", "Database statements by operation", "{query}"); err != nil {
		return nil, err
	}
	if p.slowQueries, err = NewCounter(meter, "db_slow_query_total", "Statements slower than the slow query threshold", "{query}"); err != nil {
		return nil, err
	}
	if p.duration, err = NewHistogram(meter, HistogramOpts{
		Name:        "db_query_duration_seconds",
		Description: "Database statement latency",
		Unit:        "s",
		Boundaries:  DBDurationBuckets,
	}); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *GormPlugin) Name() string {
	return "fincore:telemetry"
}

// Initialize installs otelgorm when tracing is on, then the timing
// callbacks around every gorm chain and the pool gauges.
func (p *GormPlugin) Initialize(db *gorm.DB) error {
	if p.cfg.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(p.cfg.DBSystem)}
		if !p.cfg.FullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return err
		}
	}

	// after callbacks must run before otelgorm ends the span
	cb := db.Callback()
	chains := []struct {
		name   string
		before callbackRegisterer
		after  callbackRegisterer
	}{
		{"create", cb.Create().Before("gorm:create"), cb.Create().After("gorm:create").Before("otel:after:create")},
		{"query", cb.Query().Before("gorm:query"), cb.Query().After("gorm:query").Before("otel:after:query")},
		{"update", cb.Update().Before("gorm:update"), cb.Update().After("gorm:update").Before("otel:after:update")},
		{"delete", cb.Delete().Before("gorm:delete"), cb.Delete().After("gorm:delete").Before("otel:after:delete")},
		{"row", cb.Row().Before("gorm:row"), cb.Row().After("gorm:row").Before("otel:after:row")},
		{"raw", cb.Raw().Before("gorm:raw"), cb.Raw().After("gorm:raw").Before("otel:after:raw")},
	}
	for _, c := range chains {
		if err := c.before.Register("fincore:telemetry:before_"+c.name, startTimer); err != nil {
			return err
		}
		if err := c.after.Register("fincore:telemetry:after_"+c.name, p.finish); err != nil {
			return err
		}
	}

	if p.meter != nil {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		if err := p.observePool(sqlDB); err != nil {
			return err
		}
	}

	p.logger.Info("Database instrumentation installed",
		zap.Bool("tracing", p.cfg.Tracing),
		zap.Bool("metrics", p.meter != nil),
		zap.Duration("slow_query_threshold", p.cfg.SlowQueryThreshold),
	)
	return nil
}

type callbackRegisterer interface {
	Register(name string, fn func(*gorm.DB)) error
}

type queryStartKey struct{}

func startTimer(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		ctx = context.Background()
	}
	db.Statement.Context = context.WithValue(ctx, queryStartKey{}, time.Now())
}

func (p *GormPlugin) finish(db *gorm.DB) {
	ctx := db.Statement.Context
	if ctx == nil {
		return
	}
	var elapsed time.Duration
	started, timed := ctx.Value(queryStartKey{}).(time.Time)
	if timed {
		elapsed = time.Since(started)
	}
	slow := timed && elapsed > p.cfg.SlowQueryThreshold

	p.markSpan(ctx, db, elapsed, slow)

	if p.queries == nil || !timed {
		return
	}
	op := AttrDBOperation.String(statementOperation(db.Statement.SQL.String()))
	p.queries.Inc(ctx, op)
	p.duration.RecordDuration(ctx, elapsed, op)
	if slow {
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		p.slowQueries.Inc(ctx, AttrDBTable.String(table))
	}
}

func (p *GormPlugin) markSpan(ctx context.Context, db *gorm.DB, elapsed time.Duration, slow bool) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	if db.Statement.RowsAffected >= 0 {
		span.SetAttributes(attribute.Int64("db.rows_affected", db.Statement.RowsAffected))
	}
	if db.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", db.Statement.Table))
	}
	if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
		span.RecordError(db.Error)
		span.SetStatus(codes.Error, db.Error.Error())
	}
	if slow {
		span.SetAttributes(
			attribute.Bool("db.slow_query", true),
			attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
		)
		span.AddEvent("slow_query_warning", trace.WithAttributes(
			attribute.Int64("duration_ms", elapsed.Milliseconds()),
			attribute.Int64("threshold_ms", p.cfg.SlowQueryThreshold.Milliseconds()),
		))
	}
}

// observePool reports sql.DB pool stats on every metric collection.
func (p *GormPlugin) observePool(sqlDB *sql.DB) error {
	conns, err := p.meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	maxConns, err := p.meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return err
	}
	p.poolStats, err = p.meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(maxConns, int64(stats.MaxOpenConnections))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		return nil
	}, conns, maxConns)
	return err
}

// Close stops pool observation. It is safe on a plugin without metrics.
func (p *GormPlugin) Close() error {
	if p.poolStats == nil {
		return nil
	}
	err := p.poolStats.Unregister()
	p.poolStats = nil
	return err
}

// statementOperation classifies SQL by its leading keyword.
func statementOperation(query string) string {
	query = strings.ToUpper(strings.TrimSpace(query))
	for _, op := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(query, op) {
			return op
		}
	}
	if query == "" {
		return "UNKNOWN"
	}
	return "OTHER"
}
