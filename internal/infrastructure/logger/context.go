package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type contextKey string

const (
	requestIDKey      contextKey = "request_id"
	tenantIDKey       contextKey = "tenant_id"
	identitySourceKey contextKey = "identity_source"
)

// WithRequestID stores the request id on the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// WithPrincipal stores the resolved tenant and how it was resolved
func WithPrincipal(ctx context.Context, tenantID, source string) context.Context {
	ctx = context.WithValue(ctx, tenantIDKey, tenantID)
	return context.WithValue(ctx, identitySourceKey, source)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}

// GetTenantID retrieves tenant ID from context
func GetTenantID(ctx context.Context) string {
	v, _ := ctx.Value(tenantIDKey).(string)
	return v
}

// GetIdentitySource retrieves the principal source from context
func GetIdentitySource(ctx context.Context) string {
	v, _ := ctx.Value(identitySourceKey).(string)
	return v
}

// Enrich adds trace_id, span_id, request_id, tenant_id and identity_source
// from ctx to l when present.
func Enrich(ctx context.Context, l *zap.Logger) *zap.Logger {
	if l == nil {
		l = zap.NewNop()
	}
	fields := make([]zap.Field, 0, 5)
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		fields = append(fields,
			zap.String("trace_id", spanCtx.TraceID().String()),
			zap.String("span_id", spanCtx.SpanID().String()),
		)
	}
	if v := GetRequestID(ctx); v != "" {
		fields = append(fields, zap.String("request_id", v))
	}
	if v := GetTenantID(ctx); v != "" {
		fields = append(fields, zap.String("tenant_id", v))
	}
	if v := GetIdentitySource(ctx); v != "" {
		fields = append(fields, zap.String("identity_source", v))
	}
	if len(fields) == 0 {
		return l
	}
	return l.With(fields...)
}
