package obsx

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	api "go.opentelemetry.io/otel/metric"
)

// Generation outcomes recorded in the result label.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// GenerationMetrics records project generations served over HTTP.
type GenerationMetrics struct {
	generations api.Int64Counter
	duration    api.Float64Histogram
	cacheHits   api.Int64Counter
}

// NewGenerationMetrics creates the generation instruments on p.
//
// Metrics collected:
//   - codestart_generations_total{result,build_tool,language}
//   - codestart_generation_duration_seconds
//   - codestart_archive_cache_hits_total
func NewGenerationMetrics(p *Provider) (*GenerationMetrics, error) {
	meter := p.Meter("go.eggybyte.com/codestart/server")

	generations, err := meter.Int64Counter(
		"codestart_generations_total",
		api.WithDescription("Project generations by outcome, build tool and language"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"codestart_generation_duration_seconds",
		api.WithDescription("Time spent generating a project archive"),
		api.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter(
		"codestart_archive_cache_hits_total",
		api.WithDescription("Downloads served from the archive cache"),
	)
	if err != nil {
		return nil, err
	}

	return &GenerationMetrics{generations: generations, duration: duration, cacheHits: cacheHits}, nil
}

// RecordGeneration counts one generation and observes its latency.
func (m *GenerationMetrics) RecordGeneration(ctx context.Context, result, buildTool, language string, elapsed time.Duration) {
	attrs := api.WithAttributes(
		attribute.String("result", result),
		attribute.String("build_tool", buildTool),
		attribute.String("language", language),
	)
	m.generations.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds())
}

// RecordCacheHit counts one download served from cache.
func (m *GenerationMetrics) RecordCacheHit(ctx context.Context) {
	m.cacheHits.Add(ctx, 1)
}

// ObserveCache registers codestart_archive_cache_entries, read from size on each scrape.
func ObserveCache(p *Provider, size func() int) error {
	meter := p.Meter("go.eggybyte.com/codestart/server")
	_, err := meter.Int64ObservableGauge(
		"codestart_archive_cache_entries",
		api.WithDescription("Archives currently held in the download cache"),
		api.WithInt64Callback(func(_ context.Context, o api.Int64Observer) error {
			o.Observe(int64(size()))
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("create cache gauge: %w", err)
	}
	return nil
}
