// Package metrics counts service operations with OpenTelemetry instruments.
// A manual reader keeps the values in process so /health can report them
// without an exporter.
package metrics

import (
	"context"
	"sync"
	"time"

	"warehouse-be/internal/logger"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
)

const instrumentationName = "warehouse-be/internal/metrics"

// Counter is a monotonic Int64Counter.
type Counter struct {
	inst metric.Int64Counter
}

func (c *Counter) Inc() {
	c.Add(1)
}

func (c *Counter) Add(n int64) {
	c.inst.Add(context.Background(), n)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry hands out named counters. The zero value is not usable; use NewRegistry.
type Registry struct {
	provider *sdkmetric.MeterProvider
	reader   *sdkmetric.ManualReader
	meter    metric.Meter

	mu       sync.Mutex
	counters map[string]*Counter
}

func NewRegistry() *Registry {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return &Registry{
		provider: provider,
		reader:   reader,
		meter:    provider.Meter(instrumentationName),
		counters: make(map[string]*Counter),
	}
}

func (r *Registry) Counter(name string) *Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.counters[name]; ok {
		return c
	}

	inst, err := r.meter.Int64Counter(name, metric.WithUnit("{operation}"))
	if err != nil {
		logger.L().Warn("invalid counter, recording disabled", zap.String("name", name), zap.Error(err))
		inst = noop.Int64Counter{}
	}
	c := &Counter{inst: inst}
	r.counters[name] = c
	return c
}

// Snapshot collects the cumulative value of every counter that has been
// incremented at least once.
func (r *Registry) Snapshot() map[string]uint64 {
	out := make(map[string]uint64)

	var rm metricdata.ResourceMetrics
	if err := r.reader.Collect(context.Background(), &rm); err != nil {
		logger.L().Warn("failed to collect metrics", zap.Error(err))
		return out
	}

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			out[m.Name] = uint64(total)
		}
	}
	return out
}

func (r *Registry) Shutdown(ctx context.Context) error {
	return r.provider.Shutdown(ctx)
}
