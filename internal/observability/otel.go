package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"cvtailor/internal/config"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.34.0"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Manager owns the tracer and meter providers and the custom metrics.
// A nil *Manager is valid and records nothing.
type Manager struct {
	config         config.ObservabilityConfig
	serviceVersion string
	resource       *resource.Resource
	tracerProvider *trace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	metrics        *Metrics
	prometheus     *prometheusExporter
	shutdownFuncs  []func(context.Context) error
}

// NewManager builds the providers described by cfg. version is used when
// cfg.ServiceVersion is empty.
func NewManager(cfg config.ObservabilityConfig, version string) (*Manager, error) {
	return newManager(cfg, version, nil)
}

// newManager accepts extra metric readers so tests can collect in-process.
func newManager(cfg config.ObservabilityConfig, version string, extraReaders []sdkmetric.Reader) (*Manager, error) {
	if cfg.ServiceVersion != "" {
		version = cfg.ServiceVersion
	}
	om := &Manager{config: cfg, serviceVersion: version}
	if !cfg.Enabled {
		return om, nil
	}

	if err := om.initResource(); err != nil {
		return nil, fmt.Errorf("failed to initialize resource: %w", err)
	}

	if cfg.Tracing.Enabled {
		if err := om.initTracing(); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.Metrics.Enabled {
		if err := om.initMetrics(extraReaders); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	return om, nil
}

func (om *Manager) initResource() error {
	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(om.config.ServiceName),
			semconv.ServiceVersion(om.serviceVersion),
			attribute.String("service.instance.id", om.config.ServiceInstance),
		),
	)
	if err != nil {
		return fmt.Errorf("failed to create resource: %w", err)
	}
	om.resource = res
	return nil
}

func (om *Manager) initTracing() error {
	opts := []trace.TracerProviderOption{
		trace.WithResource(om.resource),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(om.config.Tracing.SampleRate))),
	}

	switch {
	case om.config.Console.Enabled:
		var stdoutOpts []stdouttrace.Option
		if om.config.Console.PrettyPrint {
			stdoutOpts = append(stdoutOpts, stdouttrace.WithPrettyPrint())
		}
		exporter, err := stdouttrace.New(stdoutOpts...)
		if err != nil {
			return fmt.Errorf("failed to create console trace exporter: %w", err)
		}
		opts = append(opts, trace.WithBatcher(exporter))
	case om.config.OTLP.Enabled:
		exporter, err := om.createOTLPTraceExporter()
		if err != nil {
			return err
		}
		opts = append(opts, trace.WithBatcher(exporter))
	}

	tp := trace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	om.tracerProvider = tp
	om.shutdownFuncs = append(om.shutdownFuncs, tp.Shutdown)
	return nil
}

func (om *Manager) initMetrics(extraReaders []sdkmetric.Reader) error {
	readers, err := om.setupMetricReaders()
	if err != nil {
		return err
	}
	readers = append(readers, extraReaders...)

	opts := []sdkmetric.Option{sdkmetric.WithResource(om.resource)}
	for _, reader := range readers {
		opts = append(opts, sdkmetric.WithReader(reader))
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	otel.SetMeterProvider(mp)
	om.meterProvider = mp
	om.shutdownFuncs = append(om.shutdownFuncs, mp.Shutdown)

	metrics, err := newMetrics(mp.Meter(om.config.ServiceName))
	if err != nil {
		return err
	}
	om.metrics = metrics
	return nil
}

func (om *Manager) setupMetricReaders() ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader
	interval := om.collectionInterval()

	if om.config.Console.Enabled {
		exporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create console metric exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.config.OTLP.Enabled {
		exporter, err := om.createOTLPMetricExporter()
		if err != nil {
			return nil, err
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval)))
	}

	if om.config.Prometheus.Enabled {
		exporter, err := newPrometheusExporter(om.config.Prometheus)
		if err != nil {
			return nil, err
		}
		om.prometheus = exporter
		readers = append(readers, exporter.reader)
	}

	return readers, nil
}

func (om *Manager) createOTLPTraceExporter() (trace.SpanExporter, error) {
	otlpConfig := om.config.OTLP
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(otlpConfig.Endpoint)}
	if otlpConfig.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlptracehttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}
	return exporter, nil
}

func (om *Manager) createOTLPMetricExporter() (sdkmetric.Exporter, error) {
	otlpConfig := om.config.OTLP
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpointURL(otlpConfig.Endpoint)}
	if otlpConfig.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	if len(otlpConfig.Headers) > 0 {
		opts = append(opts, otlpmetrichttp.WithHeaders(otlpConfig.Headers))
	}

	exporter, err := otlpmetrichttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
	}
	return exporter, nil
}

func (om *Manager) collectionInterval() time.Duration {
	if om.config.Metrics.CollectionInterval > 0 {
		return om.config.Metrics.CollectionInterval
	}
	return 15 * time.Second
}

// Enabled reports whether telemetry is being collected.
func (om *Manager) Enabled() bool {
	return om != nil && om.config.Enabled
}

// Tracer returns a tracer for the service, or a no-op tracer when tracing is off.
func (om *Manager) Tracer(name string) oteltrace.Tracer {
	if om == nil || om.tracerProvider == nil {
		return noop.NewTracerProvider().Tracer(name)
	}
	return om.tracerProvider.Tracer(name)
}

// HTTPMiddleware returns HTTP middleware with OpenTelemetry instrumentation
func (om *Manager) HTTPMiddleware() func(http.Handler) http.Handler {
	if !om.Enabled() {
		return func(h http.Handler) http.Handler { return h }
	}

	opts := []otelhttp.Option{}
	if om.tracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(om.tracerProvider))
	}
	if om.meterProvider != nil {
		opts = append(opts, otelhttp.WithMeterProvider(om.meterProvider))
	}
	return otelhttp.NewMiddleware(om.config.ServiceName, opts...)
}

// MetricsHandler serves the Prometheus scrape endpoint, or nil when the
// Prometheus reader is disabled.
func (om *Manager) MetricsHandler() http.Handler {
	if om == nil || om.prometheus == nil {
		return nil
	}
	return om.prometheus.handler
}

// MetricsEndpoint is the path the scrape handler is mounted on.
func (om *Manager) MetricsEndpoint() string {
	return om.config.Prometheus.Endpoint
}

// StartMetricsServer serves the Prometheus endpoint on its own port when one
// is configured. It returns without error when there is nothing to serve.
func (om *Manager) StartMetricsServer() error {
	if om == nil || om.prometheus == nil || om.config.Prometheus.Port == "" {
		return nil
	}
	shutdown, err := om.prometheus.start(om.config.Prometheus.Port)
	if err != nil {
		return err
	}
	om.shutdownFuncs = append(om.shutdownFuncs, shutdown)
	return nil
}

// Shutdown flushes and stops every exporter, returning the first error.
func (om *Manager) Shutdown(ctx context.Context) error {
	if om == nil {
		return nil
	}
	var firstErr error
	for _, shutdown := range om.shutdownFuncs {
		if err := shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
