// Package obsx exports codestart server metrics in Prometheus format through OpenTelemetry.
//
// Overview:
//   - Responsibility: Meter provider bootstrap, Go runtime gauges, generation and cache instruments
//   - Key Types: Options, Provider, GenerationMetrics
//   - Concurrency Model: Provider and instruments are safe for concurrent use
//   - Error Semantics: Constructors return instrument or exporter failures wrapped with context
//   - Performance Notes: Pull-based; observable gauges are read only when /metrics is scraped
//
// Usage:
//
//	provider, err := obsx.NewProvider(ctx, obsx.Options{ServiceVersion: version.Version})
//	if err != nil {
//	    return err
//	}
//	defer provider.Shutdown(context.Background())
//	mux.Handle("GET /metrics", provider.Handler())
package obsx

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	api "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// DefaultServiceName is reported when Options.ServiceName is empty.
const DefaultServiceName = "codestart"

const shutdownBound = 5 * time.Second

// Options describes the process exporting metrics.
type Options struct {
	ServiceName    string // default DefaultServiceName
	ServiceVersion string
	Instance       string // optional service.instance.id, e.g. the pod name
}

// Provider owns a meter provider and the private registry it exports to.
type Provider struct {
	mp       *sdkmetric.MeterProvider
	registry *promclient.Registry
}

// NewProvider creates a provider and installs it as the global meter provider.
//
// Parameters:
//   - ctx: Used for resource construction
//   - opts: Service identity attached to every series as resource attributes
//
// Returns:
//   - *Provider: Provider serving its own registry through Handler
//   - error: Resource or exporter construction failure
//
// Concurrency:
//   - Call once per process; the global meter provider is replaced
//
// Performance:
//   - No background export; collection happens per scrape
func NewProvider(ctx context.Context, opts Options) (*Provider, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = DefaultServiceName
	}

	attrs := []attribute.KeyValue{
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(opts.ServiceVersion),
	}
	if opts.Instance != "" {
		attrs = append(attrs, semconv.ServiceInstanceID(opts.Instance))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("build metrics resource: %w", err)
	}

	registry := promclient.NewRegistry()
	exporter, err := prometheus.New(
		prometheus.WithRegisterer(registry),
		prometheus.WithoutUnits(),
		prometheus.WithoutScopeInfo(),
		prometheus.WithoutCounterSuffixes(),
	)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithResource(res), sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(mp)
	return &Provider{mp: mp, registry: registry}, nil
}

// Meter returns a named meter from the provider.
func (p *Provider) Meter(name string) api.Meter {
	return p.mp.Meter(name)
}

// Handler serves the registry; OpenMetrics is negotiated when the scraper asks for it.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Shutdown stops the meter provider within a five second bound.
func (p *Provider) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownBound)
	defer cancel()
	if err := p.mp.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown meter provider: %w", err)
	}
	return nil
}
