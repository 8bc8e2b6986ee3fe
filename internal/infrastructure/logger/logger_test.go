package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero config", Config{}},
		{"console to stderr", Config{Level: "warn", Format: "console", Output: "stderr", TimeLayout: time.Kitchen}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}

	t.Run("json file with fields", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "fincore.log")
		l, err := New(Config{Level: "debug", Output: path, Fields: []zap.Field{zap.String("service", "fincore")}})
		require.NoError(t, err)
		l.Debug("window aggregated", zap.Duration("elapsed", 1500*time.Millisecond))
		require.NoError(t, l.Sync())

		raw, err := os.ReadFile(path)
		require.NoError(t, err)
		var entry map[string]any
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(raw), &entry))
		assert.Equal(t, "debug", entry["level"])
		assert.Equal(t, "fincore", entry["service"])
		assert.Equal(t, float64(1500), entry["elapsed"])
		assert.Contains(t, entry, "time")
		assert.Contains(t, entry, "caller")
	})

	t.Run("unwritable file fails", func(t *testing.T) {
		_, err := New(Config{Output: filepath.Join(t.TempDir(), "missing", "app.log")})
		assert.Error(t, err)
	})

	t.Run("tees extra cores", func(t *testing.T) {
		core, recorded := observer.New(zapcore.InfoLevel)
		l, err := New(Config{Level: "error", Output: "stderr"}, core)
		require.NoError(t, err)
		l.Info("mirrored")
		assert.Equal(t, 1, recorded.Len())
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"DEBUG":    zapcore.DebugLevel,
		" Warning": zapcore.WarnLevel,
		"warn":     zapcore.WarnLevel,
		"error":    zapcore.ErrorLevel,
		"fatal":    zapcore.FatalLevel,
		"":         zapcore.InfoLevel,
		"nonsense": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestEnrich(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), zapcore.AddSync(&buf), zapcore.DebugLevel)
	base := zap.New(core)

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithPrincipal(ctx, "tenant-456", "demo_profile")

	Enrich(ctx, base).Info("resolved", zap.String("extra", "x"))

	out := buf.String()
	assert.Contains(t, out, `"request_id":"req-123"`)
	assert.Contains(t, out, `"tenant_id":"tenant-456"`)
	assert.Contains(t, out, `"identity_source":"demo_profile"`)
	assert.Contains(t, out, `"extra":"x"`)
	assert.NotContains(t, out, "trace_id")
}

func TestEnrich_TraceContext(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	Enrich(ctx, zap.New(core)).Info("traced")

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, traceID.String(), fields["trace_id"])
	assert.Equal(t, spanID.String(), fields["span_id"])
}

func TestAccessLog(t *testing.T) {
	gin.SetMode(gin.TestMode)

	run := func(path string, status int) []observer.LoggedEntry {
		core, recorded := observer.New(zapcore.DebugLevel)
		router := gin.New()
		router.Use(func(c *gin.Context) {
			c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), "req-1"))
			c.Next()
		})
		router.Use(AccessLog(zap.New(core), "/health"))
		handle := func(c *gin.Context) {
			FromGin(c).Debug("inside handler")
			c.Request = c.Request.WithContext(WithPrincipal(c.Request.Context(), "t-1", "session"))
			c.Status(status)
		}
		router.GET("/invoices/:id", handle)
		router.GET("/health", handle)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

		require.Equal(t, 1, recorded.FilterMessage("inside handler").FilterField(zap.String("request_id", "req-1")).Len())
		return recorded.FilterMessage("request served").All()
	}

	t.Run("ok is info with request context", func(t *testing.T) {
		logs := run("/invoices/42?q=1", http.StatusOK)
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.InfoLevel, logs[0].Level)
		assert.Equal(t, "http", logs[0].LoggerName)
		fields := logs[0].ContextMap()
		assert.Equal(t, "req-1", fields["request_id"])
		assert.Equal(t, "t-1", fields["tenant_id"])
		assert.Equal(t, "session", fields["identity_source"])
		assert.Equal(t, "/invoices/:id", fields["route"])
		assert.Equal(t, "q=1", fields["query"])
	})

	t.Run("client error is warn", func(t *testing.T) {
		logs := run("/invoices/42", http.StatusNotFound)
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.WarnLevel, logs[0].Level)
	})

	t.Run("server error is error", func(t *testing.T) {
		logs := run("/invoices/42", http.StatusServiceUnavailable)
		require.Len(t, logs, 1)
		assert.Equal(t, zapcore.ErrorLevel, logs[0].Level)
	})

	t.Run("quiet path only logs failures", func(t *testing.T) {
		assert.Empty(t, run("/health", http.StatusOK))
		assert.Len(t, run("/health", http.StatusServiceUnavailable), 1)
	})
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), "req-p"))
		panic("boom")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	logs := recorded.FilterMessage("panic recovered").All()
	require.Len(t, logs, 1)
	assert.Equal(t, "boom", logs[0].ContextMap()["panic"])
	assert.Equal(t, "req-p", logs[0].ContextMap()["request_id"])
}

func TestFromGin_OutsideAccessLog(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, FromGin(c))
}

func TestSQLLogger_Trace(t *testing.T) {
	statement := func() (string, int64) { return "SELECT * FROM invoices WHERE tenant_id = $1", 3 }
	ctx := WithPrincipal(WithRequestID(context.Background(), "req-9"), "t-9", "session")
	cfg := gormlogger.Config{LogLevel: gormlogger.Warn, IgnoreRecordNotFoundError: true}

	tests := []struct {
		name    string
		cfg     gormlogger.Config
		begin   time.Time
		err     error
		level   zapcore.Level
		entries int
	}{
		{name: "failure at error", cfg: cfg, begin: time.Now(), err: errors.New("db down"), level: zapcore.ErrorLevel, entries: 1},
		{name: "record not found is ignored", cfg: cfg, begin: time.Now(), err: gormlogger.ErrRecordNotFound},
		{name: "slow statement at warn", cfg: gormlogger.Config{LogLevel: gormlogger.Warn, SlowThreshold: time.Millisecond}, begin: time.Now().Add(-time.Second), level: zapcore.WarnLevel, entries: 1},
		{name: "fast statement below info is dropped", cfg: cfg, begin: time.Now()},
		{name: "every statement at info", cfg: gormlogger.Config{LogLevel: gormlogger.Info}, begin: time.Now(), level: zapcore.DebugLevel, entries: 1},
		{name: "silent drops failures", cfg: gormlogger.Config{LogLevel: gormlogger.Silent}, begin: time.Now(), err: errors.New("db down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, recorded := observer.New(zapcore.DebugLevel)
			NewSQLLogger(zap.New(core), tt.cfg).Trace(ctx, tt.begin, statement, tt.err)

			require.Equal(t, tt.entries, recorded.Len())
			if tt.entries == 0 {
				return
			}
			entry := recorded.All()[0]
			assert.Equal(t, tt.level, entry.Level)
			assert.Equal(t, "sql", entry.LoggerName)
			fields := entry.ContextMap()
			assert.Equal(t, "req-9", fields["request_id"])
			assert.Equal(t, "t-9", fields["tenant_id"])
			assert.Equal(t, int64(3), fields["rows"])
		})
	}
}

func TestSQLLogger_LogModeCopies(t *testing.T) {
	core, recorded := observer.New(zapcore.DebugLevel)
	base := NewSQLLogger(zap.New(core), gormlogger.Config{LogLevel: gormlogger.Info})

	silent := base.LogMode(gormlogger.Silent)
	silent.Error(context.Background(), "lost %d", 1)
	assert.Zero(t, recorded.Len())

	base.Info(context.Background(), "migrated %d tables", 4)
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "migrated 4 tables", recorded.All()[0].Message)
}

func TestSQLLogger_ParamsFilter(t *testing.T) {
	query := "INSERT INTO customers (tax_id) VALUES ($1)"

	sql, params := NewSQLLogger(zap.NewNop(), gormlogger.Config{ParameterizedQueries: true}).
		ParamsFilter(context.Background(), query, "B12345678")
	assert.Equal(t, query, sql)
	assert.Nil(t, params)

	_, params = NewSQLLogger(zap.NewNop(), gormlogger.Config{}).
		ParamsFilter(context.Background(), query, "B12345678")
	assert.Equal(t, []any{"B12345678"}, params)
}

func TestSQLLogger_GormHonoursParamsFilter(t *testing.T) {
	for _, parameterized := range []bool{true, false} {
		core, recorded := observer.New(zapcore.DebugLevel)
		sqlLog := NewSQLLogger(zap.New(core), gormlogger.Config{
			LogLevel:             gormlogger.Info,
			ParameterizedQueries: parameterized,
		})
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: sqlLog})
		require.NoError(t, err)

		var n int
		require.NoError(t, db.Raw("SELECT length(?)", "B12345678").Scan(&n).Error)
		assert.Equal(t, 9, n)

		logged := recorded.FilterMessage("sql statement").All()
		require.NotEmpty(t, logged)
		sql, _ := logged[len(logged)-1].ContextMap()["sql"].(string)
		if parameterized {
			assert.NotContains(t, sql, "B12345678")
		} else {
			assert.Contains(t, sql, "B12345678")
		}

		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())
	}
}

func TestSQLLogLevel(t *testing.T) {
	assert.Equal(t, gormlogger.Info, SQLLogLevel("debug"))
	assert.Equal(t, gormlogger.Warn, SQLLogLevel("info"))
	assert.Equal(t, gormlogger.Warn, SQLLogLevel(""))
	assert.Equal(t, gormlogger.Error, SQLLogLevel("error"))
}
