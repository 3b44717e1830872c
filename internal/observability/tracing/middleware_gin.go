package tracing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/washcrm/internal/observability/context"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// GinMiddleware opens a server span per request. Route, status and the
// request scope the handlers filled in are attached once they return.
func GinMiddleware() gin.HandlerFunc {
	tracer := otel.Tracer("washcrm/http")
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))
		method := strings.ToUpper(c.Request.Method)
		ctx, span := tracer.Start(ctx, "HTTP "+method, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		span.SetName("HTTP " + method + " " + route)
		span.SetAttributes(SafeAttributes(append(scopeAttributes(obscontext.ScopeFrom(c.Request.Context())),
			attribute.String("http.method", method),
			attribute.String("http.route", route),
			attribute.Int("http.status_code", status),
		)...)...)

		if status >= http.StatusInternalServerError {
			if last := c.Errors.Last(); last != nil {
				span.RecordError(SafeError(last.Err))
			}
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func scopeAttributes(scope obscontext.Scope) []attribute.KeyValue {
	var attrs []attribute.KeyValue
	if scope.RequestID != "" {
		attrs = append(attrs, attribute.String("request_id", scope.RequestID))
	}
	if scope.CustomerID > 0 {
		attrs = append(attrs, attribute.Int64("customer_id", scope.CustomerID))
	}
	if scope.InvoiceID > 0 {
		attrs = append(attrs, attribute.Int64("invoice_id", scope.InvoiceID))
	}
	if scope.Format != "" {
		attrs = append(attrs, attribute.String("response_format", scope.Format))
	}
	return attrs
}
