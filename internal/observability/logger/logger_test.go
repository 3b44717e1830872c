package logger

import (
	"context"
	"testing"

	obscontext "github.com/smallbiznis/washcrm/internal/observability/context"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func TestFromContextIncludesTrace(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	orig := zap.L()
	zap.ReplaceGlobals(zap.New(core))
	defer zap.ReplaceGlobals(orig)

	traceID, _ := trace.TraceIDFromHex("0123456789abcdef0123456789abcdef")
	spanID, _ := trace.SpanIDFromHex("0123456789abcdef")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)
	ctx = obscontext.WithRequestID(ctx, "req-123")

	FromContext(ctx).Info("hello")
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["trace_id"] != traceID.String() {
		t.Fatalf("expected trace_id %q, got %q", traceID.String(), fields["trace_id"])
	}
	if fields["span_id"] != spanID.String() {
		t.Fatalf("expected span_id %q, got %q", spanID.String(), fields["span_id"])
	}
	if fields["request_id"] != "req-123" {
		t.Fatalf("expected request_id req-123, got %q", fields["request_id"])
	}
	if _, ok := fields["customer_id"]; ok {
		t.Fatalf("expected no customer_id field without a customer in context")
	}
}

func TestWithContextCarriesCustomerAndInvoice(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx := obscontext.WithRequestID(context.Background(), "req-9")
	ctx = obscontext.WithCustomerID(ctx, 12)
	ctx = obscontext.WithInvoiceID(ctx, 34)

	WithContext(ctx, zap.New(core)).Info("invoice updated")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["customer_id"] != int64(12) {
		t.Fatalf("expected customer_id 12, got %v", fields["customer_id"])
	}
	if fields["invoice_id"] != int64(34) {
		t.Fatalf("expected invoice_id 34, got %v", fields["invoice_id"])
	}
	if _, ok := fields["trace_id"]; ok {
		t.Fatalf("expected no trace_id without a span")
	}
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	if _, err := New(nil, Config{Level: "chatty"}); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}

func TestParseGormLevel(t *testing.T) {
	cases := map[string]gormlogger.LogLevel{
		"silent": gormlogger.Silent,
		"ERROR":  gormlogger.Error,
		" warn ": gormlogger.Warn,
		"debug":  gormlogger.Info,
		"bogus":  gormlogger.Warn,
	}
	for input, want := range cases {
		if got := ParseGormLevel(input, gormlogger.Warn); got != want {
			t.Fatalf("ParseGormLevel(%q) = %d, want %d", input, got, want)
		}
	}
}

func TestOperationFromSQL(t *testing.T) {
	cases := map[string]string{
		`SELECT * FROM "customers"`:         "SELECT",
		`  insert into invoices values (1)`: "INSERT",
		`DELETE FROM "invoices" WHERE id=1`: "DELETE",
		``:                                  "UNKNOWN",
	}
	for sql, want := range cases {
		if got := operationFromSQL(sql); got != want {
			t.Fatalf("operationFromSQL(%q) = %s, want %s", sql, got, want)
		}
	}
}
