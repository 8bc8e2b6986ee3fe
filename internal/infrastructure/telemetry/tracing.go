package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer used for application spans.
const TracerName = "fincore"

// Span attribute keys. Keys also used by instruments live in instruments.go.
var (
	AttrTenantID       = attribute.Key("tenant_id")
	AttrIdentitySource = attribute.Key("identity_source")
	AttrDemo           = attribute.Key("is_demo")
	AttrWindowFrom     = attribute.Key("window_from")
	AttrWindowTo       = attribute.Key("window_to")
	AttrGranularity    = attribute.Key("granularity")
	AttrExternalID     = attribute.Key("external_id")
)

// Tenant is the tenant_id attribute for a tenant id.
func Tenant(id fmt.Stringer) attribute.KeyValue {
	return AttrTenantID.String(id.String())
}

// Window returns the bounds of a date window as attributes; a zero bound
// is left out.
func Window(from, to time.Time) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if !from.IsZero() {
		attrs = append(attrs, AttrWindowFrom.String(from.Format(time.DateOnly)))
	}
	if !to.IsZero() {
		attrs = append(attrs, AttrWindowTo.String(to.Format(time.DateOnly)))
	}
	return attrs
}

// StartServiceSpan starts the internal span "<service>.<method>". The caller
// ends it.
func StartServiceSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, service, method, trace.SpanKindInternal, attrs)
}

// StartClientSpan is StartServiceSpan for a call leaving the process, such
// as a push to an accounting platform.
func StartClientSpan(ctx context.Context, service, method string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return start(ctx, service, method, trace.SpanKindClient, attrs)
}

func start(ctx context.Context, service, method string, kind trace.SpanKind, attrs []attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, service+"."+method,
		trace.WithSpanKind(kind),
		trace.WithAttributes(attrs...),
	)
}

// Fail records err on span and marks it failed. A nil err is ignored.
func Fail(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Settle sets the final status of span: failed with err, or Ok.
func Settle(span trace.Span, err error) {
	if err != nil {
		Fail(span, err)
		return
	}
	span.SetStatus(codes.Ok, "")
}
