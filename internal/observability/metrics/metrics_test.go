package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/washcrm/internal/observability/context"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("operation", "create"),
		attribute.String("customer_id", "456"),
		attribute.String("outcome", "set"),
	)
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "operation" && attrs[1].Key != "operation" {
		t.Fatalf("expected operation to be retained")
	}
	if attrs[0].Key != "outcome" && attrs[1].Key != "outcome" {
		t.Fatalf("expected outcome to be retained")
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordCustomerMutation(ctx, "create")
	m.RecordInvoiceMutation(ctx, "delete")
	m.RecordSummaryRecompute(ctx, "invoice.delete", "cleared")
	m.RecordInvoicePDF(ctx)
}

func TestNewWithNoopProvider(t *testing.T) {
	m, err := New(Config{}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordInvoiceMutation(context.Background(), "create")
	m.RecordSummaryRecompute(context.Background(), "invoice.create", "set")
}

func TestHTTPMiddlewarePassesThrough(t *testing.T) {
	httpMetrics, err := NewHTTPMetrics(Config{}, noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(httpMetrics))
	r.GET("/customers", func(c *gin.Context) {
		c.Request = c.Request.WithContext(obscontext.WithFormat(c.Request.Context(), "json"))
		if got := responseFormat(c); got != "json" {
			t.Errorf("expected json format, got %q", got)
		}
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/customers", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestResponseFormatDefaultsToHTML(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/customers", nil)
	if got := responseFormat(c); got != "html" {
		t.Fatalf("expected html, got %q", got)
	}
}
