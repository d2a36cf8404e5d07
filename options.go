// SPDX-License-Identifier: EPL-2.0

package soundpool

import (
	"log/slog"

	"github.com/ik5/soundpool/internal/observe"
	"github.com/ik5/soundpool/sound"
)

type options struct {
	log     *slog.Logger
	metrics *observe.Metrics
	decode  sound.DecodeFunc
	clock   func() int64
}

// Option configures a Pool.
type Option func(*options)

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func WithMetrics(m *observe.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithDecodeFunc replaces the format sniffing decoder.
func WithDecodeFunc(fn sound.DecodeFunc) Option {
	return func(o *options) { o.decode = fn }
}

// WithClock replaces the scheduler's monotonic nanosecond clock.
func WithClock(now func() int64) Option {
	return func(o *options) { o.clock = now }
}
