// SPDX-License-Identifier: EPL-2.0

package softmix

import "log/slog"

// Option configures a Mixer.
type Option func(*Mixer)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(m *Mixer) {
		if l != nil {
			m.log = l
		}
	}
}

// WithMaxRateRatio bounds track sample rates to ratio times the mixer rate.
// Defaults to 8.
func WithMaxRateRatio(ratio int) Option {
	return func(m *Mixer) {
		if ratio > 0 {
			m.maxRateRatio = ratio
		}
	}
}
