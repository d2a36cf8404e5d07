// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/ik5/soundpool/internal/observe"
	"github.com/ik5/soundpool/internal/workerpool"
)

// Decoder runs queued sound decodes on an elastic set of workers. Loads
// beyond MaxQueueSize block the caller until a worker frees a slot.
type Decoder struct {
	handle func(soundID int32)
	pool   *workerpool.Pool
	idle   time.Duration
	log    *slog.Logger

	queue chan int32
	done  chan struct{}
	once  sync.Once

	// mu orders a worker's exit against a producer's launch.
	mu sync.Mutex
}

// NewDecoder returns a decoder calling handle for each queued sound on at
// most min(threads, NumCPU) workers.
func NewDecoder(threads int, handle func(soundID int32), opts ...Option) *Decoder {
	c := newConfig(opts)
	threads = max(1, min(threads, runtime.NumCPU()))

	return &Decoder{
		handle: handle,
		pool:   workerpool.New(observe.PoolDecoder, threads, workerpool.WithLogger(c.log), workerpool.WithMetrics(c.metrics)),
		idle:   c.idle,
		log:    c.log,
		queue:  make(chan int32, MaxQueueSize),
		done:   make(chan struct{}),
	}
}

// LoadSound queues soundID for decoding, blocking while the queue is full.
// It returns false if the decoder quit first.
func (d *Decoder) LoadSound(soundID int32) bool {
	select {
	case <-d.done:
		return false
	default:
	}

	select {
	case d.queue <- soundID:
	case <-d.done:
		return false
	}

	// Idle workers pick the load up; launch only when they are outnumbered.
	d.mu.Lock()
	if len(d.queue) > d.pool.ActiveCount() {
		d.pool.Launch(d.run)
	}
	d.mu.Unlock()
	return true
}

// Queued returns the number of loads waiting for a worker.
func (d *Decoder) Queued() int { return len(d.queue) }

// Workers returns the number of live workers.
func (d *Decoder) Workers() int { return d.pool.ActiveCount() }

func (d *Decoder) run(id int32) {
	d.log.Debug("decode worker started", slog.Int("worker", int(id)))

	timer := time.NewTimer(d.idle)
	defer timer.Stop()

	for {
		select {
		case <-d.done:
			d.exit(id)
			return
		default:
		}

		select {
		case soundID := <-d.queue:
			d.handle(soundID)
			timer.Reset(d.idle)
		case <-d.done:
			d.exit(id)
			return
		case <-timer.C:
			d.mu.Lock()
			if len(d.queue) > 0 {
				d.mu.Unlock()
				timer.Reset(d.idle)
				continue
			}
			d.pool.Release()
			d.mu.Unlock()
			d.log.Debug("decode worker idle exit", slog.Int("worker", int(id)))
			return
		}
	}
}

func (d *Decoder) exit(id int32) {
	d.mu.Lock()
	d.pool.Release()
	d.mu.Unlock()
	d.log.Debug("decode worker quit", slog.Int("worker", int(id)))
}

// Quit unblocks waiting producers, stops the workers after their current
// decode and waits for them.
func (d *Decoder) Quit() {
	d.once.Do(func() { close(d.done) })
	d.pool.Quit()
}
