// SPDX-License-Identifier: EPL-2.0

package sound

import (
	"log/slog"
	"time"

	"github.com/ik5/soundpool/formats"
	"github.com/ik5/soundpool/internal/observe"
)

const (
	// MaxQueueSize is the number of loads that may wait for a decoder.
	MaxQueueSize = 128

	// IdleTimeout is how long a decode worker waits for work before exiting.
	IdleTimeout = time.Second
)

type config struct {
	log     *slog.Logger
	metrics *observe.Metrics
	decode  DecodeFunc
	idle    time.Duration
}

func newConfig(opts []Option) config {
	c := config{
		log:    slog.Default(),
		decode: formats.Decode,
		idle:   IdleTimeout,
	}
	for _, o := range opts {
		o(&c)
	}
	if c.metrics == nil {
		c.metrics = observe.DefaultMetrics()
	}
	return c
}

// Option configures a Manager or Decoder.
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

// WithDecodeFunc replaces formats.Decode.
func WithDecodeFunc(fn DecodeFunc) Option {
	return func(c *config) {
		if fn != nil {
			c.decode = fn
		}
	}
}

// WithIdleTimeout sets how long decode workers linger without work.
func WithIdleTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.idle = d
		}
	}
}
