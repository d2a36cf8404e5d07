// SPDX-License-Identifier: EPL-2.0

package stream

import (
	"log/slog"
	"time"

	"github.com/ik5/soundpool/internal/observe"
	"github.com/ik5/soundpool/output"
)

const (
	// StopGrace is how long a stopping stream ramps down before it is
	// handed to its pair.
	StopGrace = 20 * time.Millisecond

	// IdleTimeout is how long a restart worker waits for work before it
	// exits.
	IdleTimeout = time.Second
)

type config struct {
	log         *slog.Logger
	metrics     *observe.Metrics
	now         func() int64
	idle        time.Duration
	grace       time.Duration
	streamType  output.StreamType
	flags       output.Flags
	threads     int
	oldestFirst bool
	playOnCall  bool
	strict      *bool
}

func newConfig(opts []Option) config {
	c := config{
		log:         slog.Default(),
		idle:        IdleTimeout,
		grace:       StopGrace,
		threads:     1,
		oldestFirst: true,
		playOnCall:  true,
	}
	for _, o := range opts {
		o(&c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	if c.now == nil {
		c.now = monotonicClock()
	}
	return c
}

// monotonicClock returns nanoseconds since its creation, plus one so that
// zero never names a real instant.
func monotonicClock() func() int64 {
	start := time.Now()
	return func() int64 { return int64(time.Since(start)) + 1 }
}

// Option configures a Manager.
type Option func(*config)

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.log = l
		}
	}
}

func WithMetrics(m *observe.Metrics) Option {
	return func(c *config) { c.metrics = m }
}

// WithClock replaces the monotonic nanosecond clock used for stop times.
// now must never return 0.
func WithClock(now func() int64) Option {
	return func(c *config) { c.now = now }
}

func WithIdleTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.idle = d
		}
	}
}

// WithStopGrace sets the volume ramp time of a stopping stream.
func WithStopGrace(d time.Duration) Option {
	return func(c *config) {
		if d >= 0 {
			c.grace = d
		}
	}
}

func WithStreamType(t output.StreamType) Option {
	return func(c *config) { c.streamType = t }
}

func WithTrackFlags(f output.Flags) Option {
	return func(c *config) { c.flags = f }
}

// WithThreads sets the maximum number of restart workers. It is further
// bounded by the pair count and the number of CPUs.
func WithThreads(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.threads = n
		}
	}
}

// WithStealOldestFirst picks which of equally low priority active streams
// is stolen first.
func WithStealOldestFirst(oldest bool) Option {
	return func(c *config) { c.oldestFirst = oldest }
}

// WithPlayOnCallingThread starts a play request taken from an idle pair on
// the caller's goroutine instead of a worker.
func WithPlayOnCallingThread(on bool) Option {
	return func(c *config) { c.playOnCall = on }
}

// WithStrictLocking keeps the manager lock held while a worker stops a
// stream and starts its pair. It defaults to on for a single pair.
func WithStrictLocking(on bool) Option {
	return func(c *config) { c.strict = &on }
}
