package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SQLLogger routes gorm's statement log into zap. Entries carry the request,
// tenant and trace fields of the statement context.
type SQLLogger struct {
	base *zap.Logger
	cfg  gormlogger.Config
}

var (
	_ gormlogger.Interface = (*SQLLogger)(nil)
	_ gorm.ParamsFilter    = (*SQLLogger)(nil)
)

// NewSQLLogger builds a gorm logger on zl. Colorful is ignored. With
// ParameterizedQueries set, logged SQL keeps its placeholders so tax ids
// and amounts stay out of the log.
func NewSQLLogger(zl *zap.Logger, cfg gormlogger.Config) *SQLLogger {
	return &SQLLogger{base: zl.Named("sql"), cfg: cfg}
}

// SQLLogLevel maps an application log level to the gorm level. Statements
// are only traced at debug.
func SQLLogLevel(level string) gormlogger.LogLevel {
	switch ParseLevel(level).String() {
	case "debug":
		return gormlogger.Info
	case "error", "fatal":
		return gormlogger.Error
	default:
		return gormlogger.Warn
	}
}

func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.cfg.LogLevel = level
	return &clone
}

func (l *SQLLogger) Info(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, gormlogger.Info, msg, args)
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, gormlogger.Warn, msg, args)
}

func (l *SQLLogger) Error(ctx context.Context, msg string, args ...any) {
	l.printf(ctx, gormlogger.Error, msg, args)
}

func (l *SQLLogger) printf(ctx context.Context, level gormlogger.LogLevel, msg string, args []any) {
	if l.cfg.LogLevel < level {
		return
	}
	text := fmt.Sprintf(msg, args...)
	log := Enrich(ctx, l.base)
	switch level {
	case gormlogger.Error:
		log.Error(text)
	case gormlogger.Warn:
		log.Warn(text)
	default:
		log.Info(text)
	}
}

// ParamsFilter drops bound values from logged statements when the logger
// is parameterized.
func (l *SQLLogger) ParamsFilter(_ context.Context, sql string, params ...any) (string, []any) {
	if l.cfg.ParameterizedQueries {
		return sql, nil
	}
	return sql, params
}

// Trace logs one finished statement: failures at error, slow statements at
// warn and everything else at debug when the level is Info.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.cfg.LogLevel <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	failed := err != nil && !(l.cfg.IgnoreRecordNotFoundError && errors.Is(err, gormlogger.ErrRecordNotFound))
	slow := l.cfg.SlowThreshold > 0 && elapsed > l.cfg.SlowThreshold

	var emit func(string, ...zap.Field)
	log := Enrich(ctx, l.base)
	switch {
	case failed && l.cfg.LogLevel >= gormlogger.Error:
		emit = log.With(zap.Error(err)).Error
	case slow && l.cfg.LogLevel >= gormlogger.Warn:
		emit = log.With(zap.Duration("slow_threshold", l.cfg.SlowThreshold)).Warn
	case l.cfg.LogLevel >= gormlogger.Info:
		emit = log.Debug
	default:
		return
	}

	sql, rows := fc()
	fields := []zap.Field{zap.Duration("elapsed", elapsed), zap.String("sql", sql)}
	if rows >= 0 {
		fields = append(fields, zap.Int64("rows", rows))
	}
	emit("sql statement", fields...)
}
