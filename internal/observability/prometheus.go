package observability

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"cvtailor/internal/config"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// prometheusExporter pairs the OTel reader with a private registry so that
// several managers can coexist in one process.
type prometheusExporter struct {
	reader   sdkmetric.Reader
	handler  http.Handler
	endpoint string
}

func newPrometheusExporter(cfg config.PrometheusConfig) (*prometheusExporter, error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = "/metrics"
	}

	return &prometheusExporter{
		reader:   exporter,
		handler:  promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		endpoint: endpoint,
	}, nil
}

// start serves the scrape endpoint on port in the background.
func (p *prometheusExporter) start(port string) (func(context.Context) error, error) {
	mux := http.NewServeMux()
	mux.Handle(p.endpoint, p.handler)

	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return nil, fmt.Errorf("failed to start Prometheus server: %w", err)
	}

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		_ = server.Serve(listener)
	}()

	return server.Shutdown, nil
}
