// SPDX-License-Identifier: EPL-2.0

// Package observe holds the OpenTelemetry metric instruments of the sound
// pool and the provider wiring that exports them to Prometheus.
//
// Components take a *Metrics through their options and fall back to
// DefaultMetrics, which records against the global meter provider. Tests
// should build their own with NewMetrics and an sdkmetric.ManualReader.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ik5/soundpool"

// Play request results.
const (
	PlayAvailable = "available"
	PlayRestart   = "restart"
	PlaySteal     = "steal"
	PlayEvict     = "evict"
	PlayRejected  = "rejected"
)

// Worker pool names.
const (
	PoolDecoder = "decoder"
	PoolStream  = "stream"
)

// Metrics holds the instruments. All fields are safe for concurrent use.
type Metrics struct {
	// PlayRequests counts admission outcomes. Attribute: result.
	PlayRequests metric.Int64Counter

	// SoundLoads counts finished decodes. Attribute: status (ready|error).
	SoundLoads metric.Int64Counter

	// StreamRestarts counts streams processed by restart workers.
	StreamRestarts metric.Int64Counter

	// DecodeDuration tracks how long a single sound takes to decode.
	DecodeDuration metric.Float64Histogram

	// WorkersActive tracks live worker goroutines. Attribute: pool.
	WorkersActive metric.Int64UpDownCounter
}

var decodeBuckets = []float64{
	0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5,
}

// NewMetrics creates the instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.PlayRequests, err = m.Int64Counter("soundpool.play.requests",
		metric.WithDescription("Play requests by admission result."),
	); err != nil {
		return nil, err
	}
	if met.SoundLoads, err = m.Int64Counter("soundpool.sound.loads",
		metric.WithDescription("Completed sound decodes by status."),
	); err != nil {
		return nil, err
	}
	if met.StreamRestarts, err = m.Int64Counter("soundpool.stream.restarts",
		metric.WithDescription("Streams stopped and handed to their pair by a restart worker."),
	); err != nil {
		return nil, err
	}
	if met.DecodeDuration, err = m.Float64Histogram("soundpool.decode.duration",
		metric.WithDescription("Time to decode one sound."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(decodeBuckets...),
	); err != nil {
		return nil, err
	}
	if met.WorkersActive, err = m.Int64UpDownCounter("soundpool.workers.active",
		metric.WithDescription("Live worker goroutines by pool."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns metrics bound to otel.GetMeterProvider(). Panics if
// the instruments cannot be created.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

func (m *Metrics) RecordPlay(ctx context.Context, result string) {
	m.PlayRequests.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}

// RecordLoad counts a finished decode and records its duration.
func (m *Metrics) RecordLoad(ctx context.Context, ok bool, d time.Duration) {
	status := "ready"
	if !ok {
		status = "error"
	}
	m.SoundLoads.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	m.DecodeDuration.Record(ctx, d.Seconds())
}

func (m *Metrics) RecordRestart(ctx context.Context) {
	m.StreamRestarts.Add(ctx, 1)
}

// RecordWorkers adjusts the live worker count of pool by delta.
func (m *Metrics) RecordWorkers(ctx context.Context, pool string, delta int64) {
	m.WorkersActive.Add(ctx, delta, metric.WithAttributes(attribute.String("pool", pool)))
}
