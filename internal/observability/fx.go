package observability

import (
	"github.com/smallbiznis/washcrm/internal/observability/logger"
	"github.com/smallbiznis/washcrm/internal/observability/metrics"
	"github.com/smallbiznis/washcrm/internal/observability/tracing"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
)

var Module = fx.Module("observability",
	fx.Provide(
		LoadConfig,
		Config.Logger,
		Config.Tracing,
		Config.Metrics,
	),
	fx.Provide(
		logger.New,
		tracing.NewProvider,
		metrics.NewProvider,
		metrics.New,
		metrics.NewHTTPMetrics,
	),
	// nothing else asks for the tracer provider, so force it to install
	fx.Invoke(func(trace.TracerProvider) {}),
)
