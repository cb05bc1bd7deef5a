package database

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/neoscienzatechnology-lgtm/ecommerce/pkg/database"

var storageOpDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "storage_operation_duration_seconds",
		Help:    "Duration of key-value storage operations in seconds",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	},
	[]string{"system", "operation", "status"},
)

var slowOpCfg struct {
	mu        sync.RWMutex
	threshold time.Duration
	logger    *slog.Logger
}

// SetSlowOpLogging logs storage operations slower than threshold as warnings.
// A zero threshold disables it.
func SetSlowOpLogging(threshold time.Duration, logger *slog.Logger) {
	slowOpCfg.mu.Lock()
	defer slowOpCfg.mu.Unlock()
	slowOpCfg.threshold = threshold
	slowOpCfg.logger = logger
}

func slowOpConfig() (time.Duration, *slog.Logger) {
	slowOpCfg.mu.RLock()
	defer slowOpCfg.mu.RUnlock()
	return slowOpCfg.threshold, slowOpCfg.logger
}

// TraceOp starts a client span for a storage operation and returns the
// function that ends it:
//
//	ctx, end := database.TraceOp(ctx, "redis", "GET", key)
//	defer func() { end(err) }()
func TraceOp(ctx context.Context, system, operation, key string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, system+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", system),
			attribute.String("db.operation", operation),
			attribute.String("db.key", key),
		),
	)

	return ctx, func(err error) {
		status := "ok"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		elapsed := time.Since(start)
		storageOpDuration.WithLabelValues(system, operation, status).Observe(elapsed.Seconds())

		if threshold, logger := slowOpConfig(); threshold > 0 && logger != nil && elapsed >= threshold {
			attrs := []any{
				slog.String("system", system),
				slog.String("operation", operation),
				slog.String("key", key),
				slog.Duration("duration", elapsed),
			}
			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
			}
			logger.WarnContext(ctx, "slow storage operation", attrs...)
		}
	}
}
