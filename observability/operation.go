package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks one service call: a span plus operation metrics.
type Operation struct {
	service string
	name    string
	start   time.Time
	span    trace.Span
	metrics *Metrics
}

// StartOperation opens a span named "<service>.<name>". metrics may be nil.
func StartOperation(ctx context.Context, metrics *Metrics, service, name string, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, service+"."+name, trace.WithAttributes(
		append([]attribute.KeyValue{
			attribute.String(AttrServiceName, service),
			attribute.String(AttrOperationName, name),
		}, attrs...)...,
	))
	return ctx, &Operation{service: service, name: name, start: time.Now(), span: span, metrics: metrics}
}

// End closes the span and records the outcome. Pass the operation's error,
// or nil on success.
func (op *Operation) End(ctx context.Context, err error) {
	duration := time.Since(op.start)
	status := "ok"
	if err != nil {
		status = "error"
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
		op.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	op.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	op.span.End()

	if op.metrics != nil {
		op.metrics.RecordOperation(ctx, op.service, op.name, status, duration)
		if err != nil {
			op.metrics.RecordError(ctx, op.name, op.service)
		}
	}
}

// Duration returns the time elapsed since the operation started.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.start)
}
