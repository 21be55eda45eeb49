package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/convoview/logger"
	"github.com/kbukum/convoview/observability"
)

// Telemetry starts a server span per request and records request metrics
// against the matched route template. metrics may be nil.
func Telemetry(service string, metrics *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		name := c.Request.Method + " " + route

		ctx, span := observability.StartSpan(c.Request.Context(), name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", route),
			),
		)
		if id := logger.RequestIDFromContext(ctx); id != "" {
			span.SetAttributes(attribute.String(observability.AttrRequestID, id))
		}
		c.Request = c.Request.WithContext(ctx)

		if metrics != nil {
			metrics.RecordRequestStart(ctx)
		}
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= 500 {
			span.SetStatus(codes.Error, strconv.Itoa(status))
			if len(c.Errors) > 0 {
				span.RecordError(c.Errors.Last().Err)
			}
		}
		span.End()

		if metrics != nil {
			metrics.RecordRequestEnd(ctx, service, name, strconv.Itoa(status), time.Since(start))
			if status >= 500 {
				metrics.RecordError(ctx, "http_"+strconv.Itoa(status), service)
			}
		}
	}
}
