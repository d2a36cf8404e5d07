// SPDX-License-Identifier: EPL-2.0

// Package workerpool runs a bounded, elastic set of worker goroutines.
//
// Workers are launched on demand and decide for themselves when to exit.
// The owner guards its work queue with its own lock; a worker calls Release
// while holding that lock at the moment it decides to exit, so an owner that
// enqueues work under the same lock always sees an accurate ActiveCount and
// never strands work without a worker.
package workerpool

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/ik5/soundpool/internal/observe"
)

// Pool is safe for concurrent use. Its lock is never held while calling out,
// so Launch and Release may be called with an owner lock held.
type Pool struct {
	name       string
	maxWorkers int
	log        *slog.Logger
	metrics    *observe.Metrics

	mu     sync.Mutex
	active int
	nextID int32
	quit   bool

	g errgroup.Group
}

// Option configures a Pool.
type Option func(*Pool)

func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) {
		if l != nil {
			p.log = l
		}
	}
}

func WithMetrics(m *observe.Metrics) Option {
	return func(p *Pool) {
		if m != nil {
			p.metrics = m
		}
	}
}

// New returns a pool named name (used in logs and metrics) running at most
// maxWorkers goroutines at once.
func New(name string, maxWorkers int, opts ...Option) *Pool {
	p := &Pool{
		name:       name,
		maxWorkers: max(1, maxWorkers),
		log:        slog.Default(),
		metrics:    observe.DefaultMetrics(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// MaxWorkers returns the worker limit.
func (p *Pool) MaxWorkers() int { return p.maxWorkers }

// Launch starts fn on a new worker and returns its id, or 0 when the pool is
// full or has quit. fn must call Release exactly once before returning.
func (p *Pool) Launch(fn func(id int32)) int32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.quit || p.active >= p.maxWorkers {
		return 0
	}
	if p.nextID == math.MaxInt32 {
		p.nextID = 0
	}
	p.nextID++
	id := p.nextID
	p.active++
	p.metrics.RecordWorkers(context.Background(), p.name, 1)

	p.g.Go(func() error {
		fn(id)
		return nil
	})
	p.log.Debug("worker launched", slog.String("pool", p.name), slog.Int("id", int(id)), slog.Int("active", p.active))
	return id
}

// Release gives back the slot of a worker that is about to return.
func (p *Pool) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.active == 0 {
		panic("workerpool: Release without a matching Launch")
	}
	p.active--
	p.metrics.RecordWorkers(context.Background(), p.name, -1)
}

// ActiveCount returns the number of workers that have not released their
// slot.
func (p *Pool) ActiveCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.active
}

// Quit refuses further launches and waits for every worker to return. The
// owner must have told its workers to stop beforehand.
func (p *Pool) Quit() {
	p.mu.Lock()
	p.quit = true
	p.mu.Unlock()

	_ = p.g.Wait()
}
