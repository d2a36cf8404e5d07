// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/ik5/soundpool/internal/observe"
)

func testMetrics(t *testing.T) (*observe.Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func TestDecoder_HandlesEverySound(t *testing.T) {
	t.Parallel()

	m, _ := testMetrics(t)
	var (
		mu   sync.Mutex
		seen = map[int32]bool{}
		wg   sync.WaitGroup
	)
	d := NewDecoder(4, func(id int32) {
		mu.Lock()
		seen[id] = true
		mu.Unlock()
		wg.Done()
	}, WithMetrics(m))
	defer d.Quit()

	const n = 50
	wg.Add(n)
	for i := int32(1); i <= n; i++ {
		if !d.LoadSound(i) {
			t.Fatalf("LoadSound(%d) = false, want true", i)
		}
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != n {
		t.Errorf("handled %d sounds, want %d", len(seen), n)
	}
	if got := d.Workers(); got > 4 {
		t.Errorf("Workers() = %d, want at most 4", got)
	}
}

func TestDecoder_Backpressure(t *testing.T) {
	t.Parallel()

	m, _ := testMetrics(t)
	started := make(chan struct{}, 1)
	gate := make(chan struct{})
	var handled atomic.Int32
	d := NewDecoder(1, func(int32) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-gate
		handled.Add(1)
	}, WithMetrics(m))

	if !d.LoadSound(1) {
		t.Fatal("LoadSound(1) = false, want true")
	}
	<-started

	// The worker is busy, so the queue takes exactly MaxQueueSize more.
	for i := range MaxQueueSize {
		if !d.LoadSound(int32(i + 2)) {
			t.Fatalf("LoadSound(%d) = false, want true", i+2)
		}
	}
	if got := d.Queued(); got != MaxQueueSize {
		t.Errorf("Queued() = %d, want %d", got, MaxQueueSize)
	}

	blocked := make(chan bool)
	go func() { blocked <- d.LoadSound(MaxQueueSize + 2) }()

	select {
	case <-blocked:
		t.Fatal("LoadSound returned while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}

	close(gate)
	if ok := <-blocked; !ok {
		t.Error("blocked LoadSound = false, want true")
	}

	deadline := time.Now().Add(5 * time.Second)
	for handled.Load() < MaxQueueSize+2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if got := handled.Load(); got != MaxQueueSize+2 {
		t.Errorf("handled %d sounds, want %d", got, MaxQueueSize+2)
	}
	d.Quit()
}

func TestDecoder_QuitUnblocksProducer(t *testing.T) {
	t.Parallel()

	m, _ := testMetrics(t)
	started := make(chan struct{}, 1)
	gate := make(chan struct{})
	d := NewDecoder(1, func(int32) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-gate
	}, WithMetrics(m))

	d.LoadSound(1)
	<-started
	for i := range MaxQueueSize {
		d.LoadSound(int32(i + 2))
	}

	blocked := make(chan bool)
	go func() { blocked <- d.LoadSound(MaxQueueSize + 2) }()

	quit := make(chan struct{})
	go func() {
		d.Quit()
		close(quit)
	}()

	if ok := <-blocked; ok {
		t.Error("LoadSound after Quit = true, want false")
	}

	close(gate)
	select {
	case <-quit:
	case <-time.After(5 * time.Second):
		t.Fatal("Quit did not return")
	}
	if d.LoadSound(99) {
		t.Error("LoadSound on a stopped decoder = true, want false")
	}
	if got := d.Workers(); got != 0 {
		t.Errorf("Workers() = %d, want 0", got)
	}
}

func TestDecoder_IdleWorkersExit(t *testing.T) {
	t.Parallel()

	m, _ := testMetrics(t)
	done := make(chan struct{})
	d := NewDecoder(2, func(int32) { close(done) }, WithMetrics(m), WithIdleTimeout(10*time.Millisecond))
	defer d.Quit()

	d.LoadSound(7)
	<-done

	deadline := time.Now().Add(5 * time.Second)
	for d.Workers() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if got := d.Workers(); got != 0 {
		t.Errorf("Workers() after idle = %d, want 0", got)
	}
}

func TestDecoder_IdleWorkerTakesNextLoad(t *testing.T) {
	t.Parallel()

	m, _ := testMetrics(t)
	handled := make(chan int32)
	d := NewDecoder(4, func(id int32) { handled <- id }, WithMetrics(m), WithIdleTimeout(time.Minute))
	defer d.Quit()

	for id := int32(1); id <= 5; id++ {
		if !d.LoadSound(id) {
			t.Fatalf("LoadSound(%d) = false, want true", id)
		}
		select {
		case got := <-handled:
			if got != id {
				t.Fatalf("handled %d, want %d", got, id)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("sound %d never handled", id)
		}
		if got := d.Workers(); got != 1 {
			t.Errorf("Workers() after load %d = %d, want 1", id, got)
		}
	}
}
