// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/ik5/soundpool/audio"
	"github.com/ik5/soundpool/internal/audiotest"
	"github.com/ik5/soundpool/internal/observe"
	"github.com/ik5/soundpool/sound"
)

type fakeClock struct{ ns atomic.Int64 }

func newFakeClock() *fakeClock {
	c := &fakeClock{}
	c.ns.Store(int64(time.Second))
	return c
}

func (c *fakeClock) now() int64              { return c.ns.Load() }
func (c *fakeClock) advance(d time.Duration) { c.ns.Add(int64(d)) }

type harness struct {
	m      *Manager
	out    *audiotest.Output
	clock  *fakeClock
	reader *sdkmetric.ManualReader
}

func newHarness(t *testing.T, pairs int, opts ...Option) *harness {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	met, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	h := &harness{out: audiotest.NewOutput(), clock: newFakeClock(), reader: reader}
	base := []Option{
		WithLogger(slog.New(slog.DiscardHandler)),
		WithMetrics(met),
		WithClock(h.clock.now),
		WithIdleTimeout(50 * time.Millisecond),
	}
	h.m = NewManager(pairs, h.out, append(base, opts...)...)
	t.Cleanup(h.m.Quit)
	return h
}

func (h *harness) play(snd *sound.Sound, priority int32) int32 {
	return h.m.QueueForPlay(snd, snd.ID(), 1, 1, priority, 0, 1)
}

// stop mirrors the pool's Stop.
func (h *harness) stop(streamID int32) {
	if s := h.m.FindStream(streamID); s != nil && s.RequestStop(streamID) {
		h.m.MoveToRestartQueue(s, 0)
	}
}

// settle waits until no pair is restarting or being processed.
func (h *harness) settle(t *testing.T) QueueSizes {
	t.Helper()

	var q QueueSizes
	waitFor(t, "restart queue to drain", func() bool {
		q = h.m.Snapshot()
		return q.Restarting == 0 && q.Processing == 0
	})
	return q
}

// counter sums the data points of the int64 counter name accepted by keep.
func (h *harness) counter(t *testing.T, name string, keep func(attribute.Set) bool) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := h.reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			if md.Name != name {
				continue
			}
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: data is %T", md.Name, md.Data)
			}
			for _, dp := range sum.DataPoints {
				if keep(dp.Attributes) {
					total += dp.Value
				}
			}
		}
	}
	return total
}

func (h *harness) plays(t *testing.T, result string) int64 {
	t.Helper()

	return h.counter(t, "soundpool.play.requests", func(attrs attribute.Set) bool {
		v, ok := attrs.Value(attribute.Key("result"))
		return ok && v.AsString() == result
	})
}

func (h *harness) restarts(t *testing.T) int64 {
	t.Helper()

	return h.counter(t, "soundpool.stream.restarts", func(attribute.Set) bool { return true })
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// readySound returns a decoded mono 8 kHz sound of frames frames.
func readySound(t *testing.T, id int32, frames int) *sound.Sound {
	t.Helper()

	pcm := audiotest.NewPCM(8000, 1, frames)
	s := sound.New(id, nil, nil, 0, 0)
	if err := s.Decode(func(io.ReaderAt, int64, int64) (*audio.PCM, error) { return pcm, nil }); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	return s
}
