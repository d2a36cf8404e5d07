// SPDX-License-Identifier: EPL-2.0

package soundpool

import (
	"time"

	"github.com/ik5/soundpool/output"
	"github.com/ik5/soundpool/stream"
)

// MaxStreams is the largest number of concurrent streams a Pool supports.
const MaxStreams = 32

// Config configures a Pool.
type Config struct {
	// MaxStreams is clamped to [1, MaxStreams].
	MaxStreams int

	// StreamThreads bounds the restart workers. DecoderThreads bounds the
	// decode workers. Both are further bounded by the CPU count.
	StreamThreads  int
	DecoderThreads int

	// StealOldestFirst steals the oldest of equally low priority streams
	// when true, the newest otherwise.
	StealOldestFirst bool

	// PlayOnCallingThread starts plays on idle streams synchronously.
	PlayOnCallingThread bool

	// StrictLocking serializes stream hand-offs under the scheduler lock.
	// It is always on with a single stream.
	StrictLocking bool

	// StopGrace is the fade time of a stopped or stolen stream.
	StopGrace time.Duration

	StreamType output.StreamType
	TrackFlags output.Flags
}

func DefaultConfig() Config {
	return Config{
		MaxStreams:          8,
		StreamThreads:       1,
		DecoderThreads:      1,
		StealOldestFirst:    true,
		PlayOnCallingThread: true,
		StopGrace:           stream.StopGrace,
		StreamType:          output.StreamMusic,
	}
}

func (c Config) normalize() Config {
	c.MaxStreams = min(max(c.MaxStreams, 1), MaxStreams)
	c.StreamThreads = max(c.StreamThreads, 1)
	c.DecoderThreads = max(c.DecoderThreads, 1)
	if c.StopGrace < 0 {
		c.StopGrace = 0
	}
	c.StrictLocking = c.StrictLocking || c.MaxStreams == 1
	return c
}
