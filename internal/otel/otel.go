// Package otel wires page-patrol captures to OpenTelemetry.
//
// With an OTLP endpoint (config file or OTEL_EXPORTER_OTLP_ENDPOINT) spans
// and counters are exported over HTTP. Without one, Init hands out no-op
// providers so callers can use the tracer and instruments unconditionally.
package otel

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	serviceName    = "page-patrol"
	exportInterval = 15 * time.Second
)

// Version is stamped on the resource and the tracer. cmd sets it from the
// linker-injected build version.
var Version = "dev"

// OTELConfig selects where telemetry for one run goes.
type OTELConfig struct {
	Endpoint string // OTLP base URL, e.g. "http://localhost:4318"
	Headers  string // key=value pairs separated by commas
	RunID    string // becomes service.instance.id
}

// Telemetry is the tracer and instruments of one run. Pass Tracer and
// Metrics to monitor.New; call Shutdown once the session is closed.
type Telemetry struct {
	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider

	Tracer  trace.Tracer
	Metrics *Metrics
}

// exportTarget is an OTLP base URL split into what the HTTP exporters
// accept: host:port, a path prefix for the per-signal paths and whether
// to skip TLS.
type exportTarget struct {
	host     string
	basePath string
	insecure bool
	headers  map[string]string
}

func parseTarget(endpoint, headers string) (exportTarget, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return exportTarget{}, fmt.Errorf("invalid endpoint URL %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return exportTarget{}, fmt.Errorf("endpoint %q has no host", endpoint)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return exportTarget{}, fmt.Errorf("endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	return exportTarget{
		host:     u.Host,
		basePath: strings.TrimRight(u.Path, "/"),
		insecure: u.Scheme == "http",
		headers:  parseHeaders(headers),
	}, nil
}

func (t exportTarget) traceOptions() []otlptracehttp.Option {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(t.host),
		otlptracehttp.WithURLPath(t.basePath + "/v1/traces"),
	}
	if t.insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(t.headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(t.headers))
	}
	return opts
}

func (t exportTarget) metricOptions() []otlpmetrichttp.Option {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(t.host),
		otlpmetrichttp.WithURLPath(t.basePath + "/v1/metrics"),
	}
	if t.insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(t.headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(t.headers))
	}
	return opts
}

// parseHeaders parses the OTEL_EXPORTER_OTLP_HEADERS format
// ("key=value,key2=value2"). Pairs without a key are skipped.
func parseHeaders(raw string) map[string]string {
	headers := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		key, val, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(val)
	}
	return headers
}

// Init builds the telemetry for one run. An empty endpoint yields no-op
// providers and never fails.
func Init(ctx context.Context, cfg OTELConfig) (*Telemetry, error) {
	if cfg.Endpoint == "" {
		return newTelemetry(tracenoop.NewTracerProvider(), metricnoop.NewMeterProvider())
	}

	target, err := parseTarget(cfg.Endpoint, cfg.Headers)
	if err != nil {
		return nil, fmt.Errorf("otel: %w", err)
	}
	res, err := newResource(ctx, cfg.RunID)
	if err != nil {
		return nil, fmt.Errorf("otel resource: %w", err)
	}

	traceExp, err := otlptracehttp.New(ctx, target.traceOptions()...)
	if err != nil {
		return nil, fmt.Errorf("otel trace exporter: %w", err)
	}
	metricExp, err := otlpmetrichttp.New(ctx, target.metricOptions()...)
	if err != nil {
		_ = traceExp.Shutdown(ctx)
		return nil, fmt.Errorf("otel metric exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExp),
		sdktrace.WithResource(res),
	)
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp,
			sdkmetric.WithInterval(exportInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)

	t, err := newTelemetry(tp, mp)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, err
	}
	t.tp, t.mp = tp, mp
	return t, nil
}

func newTelemetry(tp trace.TracerProvider, mp metric.MeterProvider) (*Telemetry, error) {
	metrics, err := NewMetrics(mp)
	if err != nil {
		return nil, fmt.Errorf("otel metrics: %w", err)
	}
	return &Telemetry{
		Tracer:  tp.Tracer(serviceName, trace.WithInstrumentationVersion(Version)),
		Metrics: metrics,
	}, nil
}

func newResource(ctx context.Context, runID string) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(Version),
	}
	if runID != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(runID))
	}
	return resource.New(ctx, resource.WithAttributes(attrs...), resource.WithHost())
}

// Shutdown flushes pending spans and counters. Safe on a nil or no-op
// Telemetry.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil {
		return nil
	}
	var errs []error
	if t.tp != nil {
		errs = append(errs, t.tp.Shutdown(ctx))
	}
	if t.mp != nil {
		errs = append(errs, t.mp.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
