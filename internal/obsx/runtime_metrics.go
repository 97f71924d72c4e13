package obsx

import (
	"context"
	"fmt"
	"runtime"

	api "go.opentelemetry.io/otel/metric"
)

type runtimeGauge struct {
	name string
	desc string
	read func(*runtime.MemStats) int64
}

var runtimeGauges = []runtimeGauge{
	{"process_runtime_go_goroutines", "Goroutines that currently exist",
		func(*runtime.MemStats) int64 { return int64(runtime.NumGoroutine()) }},
	{"process_runtime_go_memory_heap_bytes", "Bytes of allocated heap objects",
		func(m *runtime.MemStats) int64 { return int64(m.HeapAlloc) }},
	{"process_runtime_go_gc_count", "Completed GC cycles",
		func(m *runtime.MemStats) int64 { return int64(m.NumGC) }},
}

// EnableRuntimeMetrics registers goroutine, heap and GC gauges read on each scrape.
// Memory stats are read once per scrape for all gauges.
func (p *Provider) EnableRuntimeMetrics(ctx context.Context) error {
	meter := p.Meter("go.eggybyte.com/codestart/obsx/runtime")

	instruments := make([]api.Int64ObservableGauge, len(runtimeGauges))
	observables := make([]api.Observable, len(runtimeGauges))
	for i, g := range runtimeGauges {
		inst, err := meter.Int64ObservableGauge(g.name, api.WithDescription(g.desc))
		if err != nil {
			return fmt.Errorf("create %s: %w", g.name, err)
		}
		instruments[i] = inst
		observables[i] = inst
	}

	_, err := meter.RegisterCallback(func(_ context.Context, o api.Observer) error {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		for i, g := range runtimeGauges {
			o.ObserveInt64(instruments[i], g.read(&m))
		}
		return nil
	}, observables...)
	return err
}
