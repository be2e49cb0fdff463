// Package telemetry wires OpenTelemetry traces and logs to Google Cloud
// Observability over OTLP.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Config identifies the emitting service. Project doubles as the quota
// project on export calls.
type Config struct {
	Project           string
	ServiceName       string
	ServiceNamespace  string
	ServiceInstanceID string
}

// ShutdownFunc flushes and stops the installed providers.
type ShutdownFunc func(context.Context) error

// Setup installs global trace and log providers exporting over OTLP/HTTP
// with Application Default Credentials, and bridges slog records into the
// log provider. The export endpoint follows the standard
// OTEL_EXPORTER_OTLP_ENDPOINT environment variable.
func Setup(ctx context.Context, cfg Config) (ShutdownFunc, error) {
	if cfg.Project == "" {
		return nil, fmt.Errorf("project is required")
	}
	creds, err := google.FindDefaultCredentials(ctx,
		"https://www.googleapis.com/auth/cloud-platform")
	if err != nil {
		return nil, fmt.Errorf("finding default credentials for telemetry export: %w", err)
	}
	httpClient := oauth2.NewClient(ctx, creds.TokenSource)
	headers := map[string]string{"x-goog-user-project": cfg.Project}

	res, err := resource.Merge(resource.Default(), resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceNamespace(cfg.ServiceNamespace),
		semconv.ServiceInstanceID(cfg.ServiceInstanceID),
		attribute.String("gcp.project_id", cfg.Project),
	))
	if err != nil {
		return nil, fmt.Errorf("building telemetry resource: %w", err)
	}

	traceExporter, err := otlptracehttp.New(ctx,
		otlptracehttp.WithHTTPClient(httpClient),
		otlptracehttp.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(traceExporter),
	)

	logExporter, err := otlploghttp.New(ctx,
		otlploghttp.WithHTTPClient(httpClient),
		otlploghttp.WithHeaders(headers),
	)
	if err != nil {
		return nil, fmt.Errorf("creating log exporter: %w", err)
	}
	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
	)

	otel.SetTracerProvider(tp)
	global.SetLoggerProvider(lp)
	bridgeSlog(cfg.ServiceName, lp)

	slog.Info("telemetry export enabled",
		"project", cfg.Project, "service", cfg.ServiceName)

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), lp.Shutdown(ctx))
	}, nil
}

// bridgeSlog keeps the existing default handler and additionally forwards
// records to the log provider.
func bridgeSlog(name string, lp *sdklog.LoggerProvider) {
	otelHandler := otelslog.NewHandler(name, otelslog.WithLoggerProvider(lp))
	current := slog.Default().Handler()
	slog.SetDefault(slog.New(teeHandler{current, otelHandler}))
}

type teeHandler [2]slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return t[0].Enabled(ctx, level) || t[1].Enabled(ctx, level)
}

func (t teeHandler) Handle(ctx context.Context, rec slog.Record) error {
	var err error
	for _, h := range t {
		if h.Enabled(ctx, rec.Level) {
			err = errors.Join(err, h.Handle(ctx, rec.Clone()))
		}
	}
	return err
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return teeHandler{t[0].WithAttrs(attrs), t[1].WithAttrs(attrs)}
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	return teeHandler{t[0].WithGroup(name), t[1].WithGroup(name)}
}
