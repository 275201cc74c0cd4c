// Package telemetry sets up the OpenTelemetry tracer provider. Import stages
// are traced under the resource built here.
package telemetry

import (
	"context"
	"time"

	"productmap/internal/config"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// InitTelemetry exports spans over OTLP/HTTP when ENABLE_TELEMETRY is set and
// an endpoint is configured. It returns the shutdown func and whether
// tracing is on.
func InitTelemetry(cfg *config.Config) (func(), bool, error) {
	if !cfg.TelemetryEnabled || cfg.OTLPEndpoint == "" {
		return func() {}, false, nil
	}
	ctx := context.Background()

	exporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithEndpoint(cfg.OTLPEndpoint),
		otlptracehttp.WithInsecure(),
	)
	if err != nil {
		return func() {}, false, err
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return func() {}, false, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return func() {
		// Flush pending import spans
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Failed to shut down tracer provider")
		}
	}, true, nil
}

// newResource describes this deployment: which import paths it serves and
// the default batch size its spans were produced with.
func newResource(ctx context.Context, cfg *config.Config) (*resource.Resource, error) {
	mode := "local"
	if cfg.RemoteEnabled() {
		mode = "remote"
	}
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
			attribute.String("productmap.default_import_mode", mode),
			attribute.Bool("productmap.archive_enabled", cfg.StorageEnabled()),
			attribute.Int("productmap.import_batch_size", cfg.ImportBatchSize),
			attribute.Int("productmap.local_fallback_max_rows", cfg.LocalFallbackMaxRows),
		),
	)
}
