// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0
package otel

import (
	"context"
	"errors"

	"github.com/agilira/chronos"
	"go.opentelemetry.io/otel/metric"
)

// Collector implements chronos.MetricsCollector using OpenTelemetry
// histograms (latencies) and counters (hits, misses, purges, cascades).
type Collector struct {
	addLatency    metric.Int64Histogram
	getLatency    metric.Int64Histogram
	peekLatency   metric.Int64Histogram
	removeLatency metric.Int64Histogram

	hits       metric.Int64Counter
	misses     metric.Int64Counter
	writeErrs  metric.Int64Counter
	purged     metric.Int64Counter
	purgeTime  metric.Int64Histogram
	cascaded   metric.Int64Counter
}

// Options configures Collector.
type Options struct {
	// MeterName is the OpenTelemetry meter name. Default: "github.com/agilira/chronos".
	MeterName string
}

// Option is a functional option for New.
type Option func(*Options)

// WithMeterName sets a custom meter name, useful for distinguishing metrics
// from multiple engine instances.
func WithMeterName(name string) Option {
	return func(o *Options) { o.MeterName = name }
}

// New creates a Collector backed by provider.
func New(provider metric.MeterProvider, opts ...Option) (*Collector, error) {
	if provider == nil {
		return nil, errors.New("meter provider cannot be nil")
	}

	options := Options{MeterName: "github.com/agilira/chronos"}
	for _, opt := range opts {
		opt(&options)
	}
	meter := provider.Meter(options.MeterName)

	c := &Collector{}
	var err error

	if c.addLatency, err = meter.Int64Histogram("chronos_add_latency_ns",
		metric.WithDescription("Latency of Add operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.getLatency, err = meter.Int64Histogram("chronos_get_latency_ns",
		metric.WithDescription("Latency of Get operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.peekLatency, err = meter.Int64Histogram("chronos_peek_latency_ns",
		metric.WithDescription("Latency of Peek operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.removeLatency, err = meter.Int64Histogram("chronos_remove_latency_ns",
		metric.WithDescription("Latency of Remove operations in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.hits, err = meter.Int64Counter("chronos_get_hits_total",
		metric.WithDescription("Total number of Get/Peek hits")); err != nil {
		return nil, err
	}
	if c.misses, err = meter.Int64Counter("chronos_get_misses_total",
		metric.WithDescription("Total number of Get/Peek misses")); err != nil {
		return nil, err
	}
	if c.writeErrs, err = meter.Int64Counter("chronos_add_errors_total",
		metric.WithDescription("Total number of failed Add operations")); err != nil {
		return nil, err
	}
	if c.purged, err = meter.Int64Counter("chronos_purged_total",
		metric.WithDescription("Total number of rows removed by the purge cycle")); err != nil {
		return nil, err
	}
	if c.purgeTime, err = meter.Int64Histogram("chronos_purge_duration_ns",
		metric.WithDescription("Duration of purge cycles in nanoseconds"), metric.WithUnit("ns")); err != nil {
		return nil, err
	}
	if c.cascaded, err = meter.Int64Counter("chronos_cascaded_total",
		metric.WithDescription("Total number of rows removed by parent-key cascade")); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Collector) RecordAdd(latencyNs int64, err error) {
	ctx := context.Background()
	c.addLatency.Record(ctx, latencyNs)
	if err != nil {
		c.writeErrs.Add(ctx, 1)
	}
}

func (c *Collector) RecordGet(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.getLatency.Record(ctx, latencyNs)
	if hit {
		c.hits.Add(ctx, 1)
	} else {
		c.misses.Add(ctx, 1)
	}
}

func (c *Collector) RecordPeek(latencyNs int64, hit bool) {
	ctx := context.Background()
	c.peekLatency.Record(ctx, latencyNs)
	if hit {
		c.hits.Add(ctx, 1)
	} else {
		c.misses.Add(ctx, 1)
	}
}

func (c *Collector) RecordRemove(latencyNs int64, cascaded int64) {
	ctx := context.Background()
	c.removeLatency.Record(ctx, latencyNs)
	if cascaded > 0 {
		c.cascaded.Add(ctx, cascaded)
	}
}

func (c *Collector) RecordPurge(deleted int64, durationNs int64) {
	ctx := context.Background()
	c.purged.Add(ctx, deleted)
	c.purgeTime.Record(ctx, durationNs)
}

func (c *Collector) RecordCascade(deleted int64) {
	c.cascaded.Add(context.Background(), deleted)
}

var _ chronos.MetricsCollector = (*Collector)(nil)
