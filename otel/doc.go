// Package otel provides OpenTelemetry integration for chronos cache metrics.
//
// # Overview
//
// This package implements the chronos.MetricsCollector interface using
// OpenTelemetry, giving persistent cache deployments percentile latencies
// and hit-ratio tracking without coupling the engine core to an OTEL
// dependency.
//
// The package is a separate module to keep the chronos core lightweight.
// Applications that don't need metrics collection don't pay for the OTEL
// dependencies.
//
// # Quick Start
//
//	provider := metric.NewMeterProvider(metric.WithReader(exporter))
//	defer provider.Shutdown(context.Background())
//
//	collector, err := otel.New(provider)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	engine, err := chronos.NewEngine(ctx, cf, chronos.DefaultSettings(),
//		chronos.WithSerializer(gobcodec.New()),
//		chronos.WithMetricsCollector(collector))
//
// # Metrics Exposed
//
// Histograms (nanoseconds, with automatic percentiles):
//   - chronos_add_latency_ns
//   - chronos_get_latency_ns
//   - chronos_peek_latency_ns
//   - chronos_remove_latency_ns
//   - chronos_purge_duration_ns
//
// Counters:
//   - chronos_get_hits_total / chronos_get_misses_total
//   - chronos_add_errors_total
//   - chronos_purged_total
//   - chronos_cascaded_total
//
// # Configuration
//
// Custom meter name, useful for distinguishing metrics across multiple
// engine instances sharing a process:
//
//	collector, err := otel.New(provider, otel.WithMeterName("sessions_cache"))
//
// # Prometheus Queries
//
//	histogram_quantile(0.99, rate(chronos_get_latency_ns_bucket[5m]))
//	rate(chronos_get_hits_total[5m]) /
//		(rate(chronos_get_hits_total[5m]) + rate(chronos_get_misses_total[5m]))
package otel
