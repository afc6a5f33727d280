package resources

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// HookFn runs once the providers are installed, typically to attach the log bridge.
type HookFn func(ctx context.Context) (context.Context, error)

// Observe installs OTLP trace, metric and log providers. When telemetry is
// disabled only the propagator is set and hookFn is skipped.
func Observe(ctx context.Context, name string, version string, cfg *Config, hookFn HookFn) (context.Context, StopFn, error) {
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.OtelEnabled {
		log.Ctx(ctx).Info().Str("stage", "startup").Str("component", "telemetry").Msg("telemetry disabled")
		return ctx, NoopStopFn, nil
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", name),
		attribute.String("service.version", version),
		attribute.String("deployment.environment", cfg.Env),
	)

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return ctx, NoopStopFn, fmt.Errorf("failed to create the OTLP trace exporter: %w", err)
	}

	metricExporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(cfg.OtelEndpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return ctx, NoopStopFn, fmt.Errorf("failed to create the OTLP metric exporter: %w", err)
	}

	logExporter, err := otlploggrpc.New(ctx,
		otlploggrpc.WithEndpoint(cfg.OtelEndpoint),
		otlploggrpc.WithInsecure(),
	)
	if err != nil {
		return ctx, NoopStopFn, fmt.Errorf("failed to create the OTLP log exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExporter), sdktrace.WithResource(res))
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)), sdkmetric.WithResource(res))
	lp := sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)), sdklog.WithResource(res))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	global.SetLoggerProvider(lp)

	stopFn := func(ctx context.Context, timeout time.Duration) {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx), lp.Shutdown(ctx))
		if err != nil {
			log.Ctx(ctx).Error().Str("stage", "shut down").Str("component", "telemetry").Err(err).Msg("failed to stop")
		}
	}

	if hookFn != nil {
		ctx, err = hookFn(ctx)
		if err != nil {
			stopFn(ctx, 5*time.Second)
			return ctx, NoopStopFn, fmt.Errorf("failed to run telemetry hook: %w", err)
		}
	}

	return ctx, stopFn, nil
}
