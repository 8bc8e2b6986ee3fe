package logger

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ginLoggerKey = "logger"

// AccessLog writes one entry per request after the handler chain returns,
// enriched with whatever the chain put on the request context. Successful
// requests to quietPaths are not logged.
func AccessLog(base *zap.Logger, quietPaths ...string) gin.HandlerFunc {
	httpLog := base.Named("http")
	quiet := make(map[string]bool, len(quietPaths))
	for _, p := range quietPaths {
		quiet[p] = true
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Set(ginLoggerKey, httpLog)

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest && quiet[c.Request.URL.Path] {
			return
		}
		ce := Enrich(c.Request.Context(), httpLog).Check(accessLevel(status), "request served")
		if ce == nil {
			return
		}
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.Int("body_size", c.Writer.Size()),
		}
		if route := c.FullPath(); route != "" {
			fields = append(fields, zap.String("route", route))
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, zap.String("query", q))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
		}
		ce.Write(fields...)
	}
}

func accessLevel(status int) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case status >= http.StatusBadRequest:
		return zapcore.WarnLevel
	default:
		return zapcore.InfoLevel
	}
}

// Recovery turns a handler panic into a bare 500 and logs it with the stack.
func Recovery(base *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, recovered any) {
		Enrich(c.Request.Context(), base).Error("panic recovered",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Any("panic", recovered),
			zap.Stack("stacktrace"),
		)
		c.AbortWithStatus(http.StatusInternalServerError)
	})
}

// FromGin returns the access logger enriched with the request context. It
// is a no-op logger outside AccessLog.
func FromGin(c *gin.Context) *zap.Logger {
	var l *zap.Logger
	if v, ok := c.Get(ginLoggerKey); ok {
		l, _ = v.(*zap.Logger)
	}
	if c.Request == nil {
		return Enrich(context.Background(), l)
	}
	return Enrich(c.Request.Context(), l)
}
