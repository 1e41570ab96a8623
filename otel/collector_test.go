package otel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/agilira/chronos"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestCollector_Interface(t *testing.T) {
	var _ chronos.MetricsCollector = (*Collector)(nil)
}

func TestNew(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := New(provider)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if collector == nil {
		t.Fatal("New() returned nil")
	}
}

func TestNew_NilProvider(t *testing.T) {
	collector, err := New(nil)
	if err == nil {
		t.Fatal("New(nil) should return an error")
	}
	if collector != nil {
		t.Fatal("New(nil) should return a nil collector")
	}
}

func TestCollector_RecordGet(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := New(provider)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	collector.RecordGet(1000, true)
	collector.RecordGet(2000, false)
	collector.RecordGet(1500, true)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var foundLatency, foundHits, foundMisses bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch m.Name {
			case "chronos_get_latency_ns":
				foundLatency = true
				hist, ok := m.Data.(metricdata.Histogram[int64])
				if !ok {
					t.Errorf("expected Histogram[int64], got %T", m.Data)
					continue
				}
				var total uint64
				for _, dp := range hist.DataPoints {
					total += dp.Count
				}
				if total != 3 {
					t.Errorf("expected 3 operations, got %d", total)
				}
			case "chronos_get_hits_total":
				foundHits = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 2 {
					t.Errorf("expected 2 hits, got %+v", m.Data)
				}
			case "chronos_get_misses_total":
				foundMisses = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
					t.Errorf("expected 1 miss, got %+v", m.Data)
				}
			}
		}
	}
	if !foundLatency || !foundHits || !foundMisses {
		t.Errorf("missing expected metrics: latency=%v hits=%v misses=%v", foundLatency, foundHits, foundMisses)
	}
}

func TestCollector_RecordAdd(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := New(provider)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	collector.RecordAdd(500, nil)
	collector.RecordAdd(750, errors.New("write failed"))

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var foundErrors bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "chronos_add_errors_total" {
				foundErrors = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
					t.Errorf("expected 1 add error, got %+v", m.Data)
				}
			}
		}
	}
	if !foundErrors {
		t.Error("chronos_add_errors_total metric not found")
	}
}

func TestCollector_RecordRemove_Cascade(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := New(provider)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	collector.RecordRemove(300, 4)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var foundCascaded bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "chronos_cascaded_total" {
				foundCascaded = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 4 {
					t.Errorf("expected 4 cascaded removals, got %+v", m.Data)
				}
			}
		}
	}
	if !foundCascaded {
		t.Error("chronos_cascaded_total metric not found")
	}
}

func TestCollector_RecordPurge(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := New(provider)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	collector.RecordPurge(12, 5_000_000)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	var foundPurged bool
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == "chronos_purged_total" {
				foundPurged = true
				sum, ok := m.Data.(metricdata.Sum[int64])
				if !ok || len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 12 {
					t.Errorf("expected 12 purged rows, got %+v", m.Data)
				}
			}
		}
	}
	if !foundPurged {
		t.Error("chronos_purged_total metric not found")
	}
}

func TestCollector_Concurrent(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := New(provider)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const numGoroutines = 10
	const opsPerGoroutine = 100
	done := make(chan bool, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			for j := 0; j < opsPerGoroutine; j++ {
				collector.RecordGet(int64(100+id), j%2 == 0)
				collector.RecordAdd(int64(200+id), nil)
				collector.RecordRemove(int64(50+id), int64(j%3))
			}
			done <- true
		}(i)
	}

	for i := 0; i < numGoroutines; i++ {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("test timeout - deadlock?")
		}
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("no metrics collected after concurrent operations")
	}
}

func TestCollector_WithMeterName(t *testing.T) {
	reader := metric.NewManualReader()
	provider := metric.NewMeterProvider(metric.WithReader(reader))
	defer provider.Shutdown(context.Background())

	collector, err := New(provider, WithMeterName("custom_chronos"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	collector.RecordGet(1000, true)

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("no scope metrics")
	}
	if rm.ScopeMetrics[0].Scope.Name != "custom_chronos" {
		t.Errorf("expected scope name 'custom_chronos', got %q", rm.ScopeMetrics[0].Scope.Name)
	}
}
